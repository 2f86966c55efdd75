package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/orgsync/internal/directory/githubapi"
	"github.com/ziadkadry99/orgsync/internal/logging"
	"github.com/ziadkadry99/orgsync/internal/progress"
	"github.com/ziadkadry99/orgsync/internal/reconcile"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Add organization members missing from the team",
	Long: `Finds or creates the team, compares its members with the organization's
members (after filter rules), and adds everyone who is missing. Nothing is
removed. Dry run is on by default; pass --dry-run=false to apply changes.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("org", "", "organization to reconcile (overrides config)")
	syncCmd.Flags().String("team", "", "team to create and fill (overrides config)")
	syncCmd.Flags().String("api-url", "", "GitHub API base URL (overrides config)")
	syncCmd.Flags().String("filters-file", "", "YAML or JSON file with user filter rules")
	syncCmd.Flags().Bool("dry-run", true, "report additions without applying them")
	syncCmd.Flags().Bool("continue-on-error", false, "keep adding members after a failed addition")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	start := time.Now()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return explain(err)
	}
	userFilter, err := cfg.CompileFilter()
	if err != nil {
		return explain(err)
	}

	log, err := logging.New(verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Debug("configuration",
		zap.String("token", logging.MaskToken(cfg.Token)),
		zap.String("org", cfg.Org),
		zap.String("team", cfg.Team),
		zap.String("api_url", cfg.APIURL),
		zap.Bool("dry_run", cfg.DryRun),
		zap.Int("filter_rules", userFilter.Len()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := githubapi.NewClient(ctx, githubapi.Config{
		BaseURL:    cfg.APIURL,
		Token:      cfg.Token,
		MaxRetries: uint64(cfg.MaxRetries),
		UserAgent:  "orgsync/" + Version,
		Logger:     log,
	})
	if err != nil {
		return fmt.Errorf("creating GitHub client: %w", err)
	}

	var reporter progress.Reporter = progress.Nop{}
	if !verbose {
		reporter = progress.NewReporter()
	}

	reconciler := reconcile.New(client, reconcile.Config{
		Org:             cfg.Org,
		Team:            cfg.Team,
		DryRun:          cfg.DryRun,
		ContinueOnError: cfg.ContinueOnError,
		Filter:          userFilter,
		Logger:          log,
		Reporter:        reporter,
	})

	result, err := reconciler.Run(ctx)
	if result != nil {
		printSummary(cmd.OutOrStdout(), result, time.Since(start))
	}
	if err != nil {
		return explain(err)
	}
	return nil
}

func printSummary(w io.Writer, result *reconcile.Result, elapsed time.Duration) {
	if result.Team.Name == "" {
		return
	}

	fmt.Fprintln(w)
	if result.TeamCreated {
		fmt.Fprintf(w, "Created team %s/%s\n", result.Team.Org, result.Team.Name)
	}
	fmt.Fprintf(w, "Organization members (after filters): %d\n", result.OrgMembers)
	fmt.Fprintf(w, "Team members before sync:             %d\n", result.TeamMembers)
	fmt.Fprintf(w, "Already in the team:                  %d\n", result.AlreadyPresent)

	if result.DryRun {
		fmt.Fprintf(w, "Would add (dry run):                  %d\n", len(result.Pending))
		for _, login := range result.Pending {
			fmt.Fprintf(w, "  + %s\n", login)
		}
	} else {
		fmt.Fprintf(w, "Added:                                %d\n", len(result.Added))
		for _, login := range result.Added {
			fmt.Fprintf(w, "  + %s\n", login)
		}
	}

	if len(result.Failed) > 0 {
		fmt.Fprintf(w, "Failed:                               %d\n", len(result.Failed))
		failed := make([]string, 0, len(result.Failed))
		for login := range result.Failed {
			failed = append(failed, login)
		}
		sort.Strings(failed)
		for _, login := range failed {
			fmt.Fprintf(w, "  ! %s: %v\n", login, result.Failed[login])
		}
	}

	fmt.Fprintf(w, "Run %s finished in %s\n", result.RunID, elapsed.Round(time.Millisecond))
}
