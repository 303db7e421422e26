package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"specialization_alert_bot/internal/domain/user"
)

// cliActor performs imports started from the command line, which already
// requires database credentials.
var cliActor = &user.User{Username: "cli", Role: user.RoleSuperuser}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import records from an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("could not open workbook: %w", err)
			}
			defer f.Close()

			c, err := build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.records.Import(cmd.Context(), cliActor, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted=%d skipped=%d\n", report.Inserted, report.Skipped)
			return nil
		},
	}
}
