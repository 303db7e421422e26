package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"specialization_alert_bot/internal/infra/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "alertbot",
		Short:         "Expiry alerts for professional specializations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newCheckCmd(), newImportCmd(), newMigrateCmd())
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
