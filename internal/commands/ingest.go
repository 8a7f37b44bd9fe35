package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/budget/internal/config"
	"github.com/cleared-dev/budget/internal/importer"
	"github.com/cleared-dev/budget/internal/ingest"
	"github.com/cleared-dev/budget/internal/logger"
	"github.com/cleared-dev/budget/internal/metadata"
	"github.com/cleared-dev/budget/internal/normalize"
	"github.com/cleared-dev/budget/internal/prompt"
	"github.com/cleared-dev/budget/internal/store"
)

func newIngestCommand() *cobra.Command {
	var configPath string
	var envFile string
	var opts ingest.Options

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import new exports and collect metadata for unseen descriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"), envFile)
			if err != nil {
				return err
			}
			return runIngest(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", ConfigFile, "path to budget.yaml")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "optional dotenv file with overrides")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "parse and total only; store, move, and ask nothing")
	cmd.Flags().BoolVar(&opts.NoPrompt, "no-prompt", false, "skip metadata collection")
	cmd.Flags().BoolVar(&opts.Keep, "keep", false, "leave imported files in new/")

	return cmd
}

// loadConfig reads the config file, falling back to defaults when the
// default file is absent, then applies environment overrides.
func loadConfig(path string, explicit bool, envFile string) (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = config.Default()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if cfg.JSON {
		return logger.NewJSON(os.Stderr, level), nil
	}
	return logger.New(os.Stderr, level), nil
}

func runIngest(ctx context.Context, cfg *config.Config, opts ingest.Options) error {
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	ctx = logger.WithContext(ctx, log)

	table, err := loadRules(cfg.Normalizer.RulesFile)
	if err != nil {
		return err
	}
	for _, p := range table.Validate() {
		log.Warn().Err(p).Msg("normalizer rule")
	}
	parser := importer.NewParser(normalize.New(table))

	var st store.Store
	if !opts.DryRun {
		st, err = store.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
		}
		defer st.Close()
	}

	var prompter metadata.Prompter
	if !opts.DryRun && !opts.NoPrompt {
		prompter = prompt.NewTerminal(os.Stdin, os.Stdout)
		fmt.Println(prompt.Help)
	}

	res, err := ingest.New(cfg.Files.Dir, parser, st, prompter, opts).Run(ctx)
	if err != nil {
		if res != nil && errors.Is(err, prompt.ErrInterrupted) {
			fmt.Printf("\nInterrupted. Saved metadata for %d description(s).\n", len(res.Collected))
		}
		return err
	}

	fmt.Printf("Imported %d of %d file(s), %d transaction(s)\n", res.Imported(), len(res.Files), len(res.Transactions))
	if len(res.Pending) > 0 {
		fmt.Printf("Saved metadata for %d of %d new description(s)\n", len(res.Collected), len(res.Pending))
	}
	return res.Totals.Print(os.Stdout)
}
