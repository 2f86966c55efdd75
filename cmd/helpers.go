package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/orgsync/internal/config"
	"github.com/ziadkadry99/orgsync/internal/directory"
)

// loadConfig loads the config and applies any flags the user set
// explicitly on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `orgsync init` to create a config file", err)
	}

	flags := cmd.Flags()
	if flags.Changed("org") {
		cfg.Org, _ = flags.GetString("org")
	}
	if flags.Changed("team") {
		cfg.Team, _ = flags.GetString("team")
	}
	if flags.Changed("api-url") {
		cfg.APIURL, _ = flags.GetString("api-url")
	}
	if flags.Changed("dry-run") {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}
	if flags.Changed("continue-on-error") {
		cfg.ContinueOnError, _ = flags.GetBool("continue-on-error")
	}
	if flags.Changed("filters-file") {
		cfg.FiltersFile, _ = flags.GetString("filters-file")
	}
	return cfg, nil
}

// explain adds a hint for errors the user can fix.
func explain(err error) error {
	switch {
	case errors.Is(err, config.ErrInvalid):
		return fmt.Errorf("%w\nRun `orgsync init` or set the ORGSYNC_* environment variables", err)
	case directory.IsUnauthorized(err):
		return fmt.Errorf("%w\nThe token needs the admin:org scope to list and create teams and to add members", err)
	case directory.IsNotFound(err):
		return fmt.Errorf("%w\nCheck the organization name and that the token can see it", err)
	default:
		return err
	}
}
