package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/orgsync/internal/directory"
	"github.com/ziadkadry99/orgsync/internal/filter"
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Inspect user filter rules",
}

var filterCheckCmd = &cobra.Command{
	Use:   "check LOGIN...",
	Short: "Show whether the configured filters admit the given logins",
	Long: `Evaluates the configured user filters against each login without contacting
GitHub, and prints the reject and allow patterns that decided the verdict.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFilterCheck,
}

func init() {
	filterCheckCmd.Flags().String("filters-file", "", "YAML or JSON file with user filter rules")
	filterCmd.AddCommand(filterCheckCmd)
	rootCmd.AddCommand(filterCmd)
}

func runFilterCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	userFilter, err := cfg.CompileFilter()
	if err != nil {
		return explain(err)
	}

	if userFilter.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No filter rules configured; every member is allowed.")
	}
	return writeVerdicts(cmd.OutOrStdout(), userFilter, args)
}

func writeVerdicts(out io.Writer, userFilter *filter.Filter, logins []string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, login := range logins {
		verdict := userFilter.Explain(directory.Account{Login: login})

		status := "allowed"
		if !verdict.Allowed {
			status = "rejected"
		}

		var reasons []string
		for _, m := range verdict.Matches {
			reason := fmt.Sprintf("%s.reject %q", m.Field, m.Reject)
			if m.Allow != "" {
				reason += fmt.Sprintf(", %s.allow %q", m.Field, m.Allow)
			}
			reasons = append(reasons, reason)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", login, status, strings.Join(reasons, "; "))
	}
	return w.Flush()
}
