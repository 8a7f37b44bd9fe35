package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/budget/internal/config"
	"github.com/cleared-dev/budget/internal/importer"
)

// ConfigFile is the name of the project configuration file.
const ConfigFile = "budget.yaml"

func newInitCommand() *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new budget project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, driver)
		},
	}

	cmd.Flags().StringVar(&driver, "driver", config.DriverSQLite, "storage backend: sqlite, postgres, or csv")

	return cmd
}

func runInit(dir, driver string) error {
	cfgPath := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", ConfigFile, err)
	}

	cfg := config.Default()
	cfg.Database.Driver = driver
	switch driver {
	case config.DriverCSV:
		cfg.Database.Path = filepath.Join("data", "store")
	case config.DriverPostgres:
		cfg.Database.Path = ""
		cfg.Database.Host = "localhost"
		cfg.Database.Port = 5432
		cfg.Database.Name = "budget"
		cfg.Database.SSLMode = "disable"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create directory structure.
	dirs := append(importer.Layout(filepath.Join(dir, cfg.Files.Dir)), filepath.Join(dir, "data"))
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Exports and the database hold personal data.
	gitignore := "data/\nfiles/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Printf("Initialized budget project at %s (%s)\n", dir, driver)
	fmt.Printf("Drop exports into %s\n", importer.Layout(filepath.Join(dir, cfg.Files.Dir))[0])
	return nil
}
