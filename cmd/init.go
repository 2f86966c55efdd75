package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/orgsync/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize orgsync configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the organization, team and mode, and writes a .orgsync.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
