// Package cmd implements the CLI of the application.
//
// poll    - Fetch the current public lobby list and record snapshots
// mods    - Resolve mod metadata against mod.io
// notify  - Reconcile discord notifications with the live lobby set
// www     - Run the read only web view
// migrate - Initiate a database migration manually
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// BuildVersion is set at link time.
var BuildVersion = "master" //nolint:gochecknoglobals

var cfgFile string //nolint:gochecknoglobals

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals
	Use:   "drgwatch",
	Short: "Tracks public Deep Rock Galactic lobbies and mirrors modded ones to discord",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	setupCLI()

	if errExecute := rootCmd.Execute(); errExecute != nil {
		os.Exit(1)
	}
}

func setupCLI() {
	rootCmd.Version = BuildVersion
	rootCmd.AddCommand(pollCmd())
	rootCmd.AddCommand(modsCmd())
	rootCmd.AddCommand(notifyCmd())
	rootCmd.AddCommand(wwwCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./drgwatch.yml)")
}
