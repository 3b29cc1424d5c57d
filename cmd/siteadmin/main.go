package main

import (
	"os"

	"github.com/spf13/cobra"

	"willstech-admin/cmd/siteadmin/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "siteadmin",
		Short: "Manage the Will's Tech site config from the command line",
		Long: "siteadmin edits data/site-config.json in the storefront repository through " +
			"the GitHub Contents API, using the same settings as the admin server.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		commands.NewSyncCommand(),
		commands.NewBackupCommand(),
		commands.NewRestoreCommand(),
		commands.NewExportCommand(),
		commands.NewImportCommand(),
		commands.NewProductsCommand(),
		commands.NewVerifyCommand(),
		commands.NewDeployCommand(),
		commands.NewHistoryCommand(),
		commands.NewHashPasswordCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
