package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/russolabs/russo/internal/wizard"
)

var initOutputPath string

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively scaffold a suite file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(initOutputPath); err == nil {
				return fmt.Errorf("%s already exists; pass --out to write elsewhere", initOutputPath)
			}

			spec, err := wizard.RunSuiteWizard(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}

			content, err := wizard.GenerateSuiteYAML(spec)
			if err != nil {
				return err
			}
			if err := os.WriteFile(initOutputPath, []byte(content), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", initOutputPath, err)
			}

			fmt.Printf("Wrote %s\n", initOutputPath)
			fmt.Println("Next: fill in the expected tool arguments and run `russo run " + initOutputPath + "`")
			return nil
		},
	}

	cmd.Flags().StringVar(&initOutputPath, "out", "suite.yaml", "Where to write the scaffolded suite")
	return cmd
}
