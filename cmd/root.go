package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/orgsync/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "orgsync",
	Short: "Keep an \"everyone\" team in sync with its GitHub organization",
	Long: `orgsync creates and populates a team whose membership mirrors the
membership of a GitHub organization. Repositories cannot grant access to an
organization directly, only to users and teams; a synchronized team such as
@my-organization/everyone fills that gap.

Members are only ever added. Optional filter rules keep selected accounts out.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
