package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/budget/internal/normalize"
)

func newNormalizeCommand() *cobra.Command {
	var rulesFile string
	var check bool

	cmd := &cobra.Command{
		Use:   "normalize <description>...",
		Short: "Print the canonical form of raw descriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !check {
				return fmt.Errorf("requires at least one description or --check")
			}
			return runNormalize(rulesFile, check, args)
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "YAML rules file replacing the built-in table")
	cmd.Flags().BoolVar(&check, "check", false, "report problems in the rules table")

	return cmd
}

func runNormalize(rulesFile string, check bool, args []string) error {
	table, err := loadRules(rulesFile)
	if err != nil {
		return err
	}

	if check {
		problems := table.Validate()
		for _, p := range problems {
			fmt.Println(p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d problem(s) in rules table", len(problems))
		}
		fmt.Printf("%d rules OK\n", len(table))
	}

	n := normalize.New(table)
	for _, a := range args {
		fmt.Println(n.Normalize(a))
	}
	return nil
}

// loadRules reads a rules file, or returns the built-in table when path is empty.
func loadRules(path string) (normalize.Table, error) {
	if path == "" {
		return normalize.DefaultTable(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules: %w", err)
	}
	defer f.Close()

	table, err := normalize.LoadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}
