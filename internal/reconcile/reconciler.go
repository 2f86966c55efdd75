// Package reconcile brings a team's membership in line with its
// organization's membership.
//
// A run resolves or creates the team, snapshots the organization members
// that pass the filter, snapshots the team, and adds whoever is missing.
// Members are only ever added; a run against unchanged upstream membership
// makes no changes.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ziadkadry99/orgsync/internal/directory"
	"github.com/ziadkadry99/orgsync/internal/filter"
	"github.com/ziadkadry99/orgsync/internal/progress"
)

// Config controls a Reconciler.
type Config struct {
	// Org is the organization whose membership is the source.
	Org string

	// Team is the name of the team to fill. It is created if absent.
	Team string

	// DryRun computes and logs additions without applying them.
	DryRun bool

	// ContinueOnError keeps adding the remaining members after one
	// addition fails. Otherwise the first failure ends the run.
	ContinueOnError bool

	// Filter selects eligible organization members. Nil allows everyone.
	Filter *filter.Filter

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Reporter defaults to progress.Nop.
	Reporter progress.Reporter
}

// Result describes what a run found and did.
type Result struct {
	RunID       string
	Team        directory.Team
	TeamCreated bool
	DryRun      bool

	// OrgMembers counts organization members that passed the filter.
	OrgMembers int

	// TeamMembers counts members of the team before the run.
	TeamMembers int

	// AlreadyPresent counts eligible members already in the team.
	AlreadyPresent int

	// Added lists logins added to the team.
	Added []string

	// Pending lists logins a dry run would have added.
	Pending []string

	// Failed maps logins whose addition failed to the error.
	Failed map[string]error
}

// Reconciler runs reconciliation passes against a directory client.
type Reconciler struct {
	client   directory.Client
	cfg      Config
	logger   *zap.Logger
	reporter progress.Reporter
}

// New creates a Reconciler.
func New(client directory.Client, cfg Config) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}
	return &Reconciler{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		reporter: reporter,
	}
}

// Run performs one reconciliation pass. The returned Result is non-nil
// even on error and reflects the work done before the failure.
func (r *Reconciler) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:  uuid.NewString(),
		DryRun: r.cfg.DryRun,
		Failed: make(map[string]error),
	}
	log := r.logger.With(
		zap.String("run_id", result.RunID),
		zap.String("org", r.cfg.Org),
		zap.String("team", r.cfg.Team),
	)

	team, created, err := ResolveTeam(ctx, r.client, r.cfg.Org, r.cfg.Team, log)
	if err != nil {
		return result, fmt.Errorf("resolving team %q: %w", r.cfg.Team, err)
	}
	result.Team = team
	result.TeamCreated = created

	orgMembers, err := TakeSnapshot(ctx, r.client, directory.OrganizationGroup(r.cfg.Org), r.allow(log), log)
	if err != nil {
		return result, fmt.Errorf("listing organization members: %w", err)
	}
	teamMembers, err := TakeSnapshot(ctx, r.client, directory.TeamGroup(team), nil, log)
	if err != nil {
		return result, fmt.Errorf("listing team members: %w", err)
	}
	result.OrgMembers = len(orgMembers)
	result.TeamMembers = len(teamMembers)

	for _, login := range orgMembers.Logins() {
		if teamMembers.Has(login) {
			log.Debug("member is in the organization and in the team", zap.String("login", login))
			result.AlreadyPresent++
		}
	}

	missing := Missing(orgMembers, teamMembers)
	log.Info("computed missing members",
		zap.Int("org_members", result.OrgMembers),
		zap.Int("team_members", result.TeamMembers),
		zap.Int("missing", len(missing)),
	)

	if r.cfg.DryRun {
		for _, login := range missing {
			log.Info("member is in the organization but not the team; dry run, not adding", zap.String("login", login))
		}
		result.Pending = missing
		return result, nil
	}

	return result, r.addMembers(ctx, log, team, missing, result)
}

func (r *Reconciler) addMembers(ctx context.Context, log *zap.Logger, team directory.Team, missing []string, result *Result) error {
	if len(missing) == 0 {
		return nil
	}

	r.reporter.Start(len(missing))
	defer r.reporter.Finish()

	var failures []error
	for i, login := range missing {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("adding members to team %q: %w", team.Name, err)
		}

		log.Log(r.additionLevel(), "member is in the organization but not the team, adding", zap.String("login", login))
		if err := r.client.AddMembership(ctx, team, login); err != nil {
			err = fmt.Errorf("adding %q to team %q: %w", login, team.Name, err)
			result.Failed[login] = err
			if !r.cfg.ContinueOnError {
				return err
			}
			log.Error("could not add member", zap.String("login", login), zap.Error(err))
			failures = append(failures, err)
			r.reporter.Update(i+1, "failed "+login)
			continue
		}

		result.Added = append(result.Added, login)
		r.reporter.Update(i+1, "added "+login)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d additions failed: %w", len(failures), len(missing), errors.Join(failures...))
	}
	return nil
}

// additionLevel is the level of per-member addition logs. A reporter
// already shows each addition, so the log line drops to debug.
func (r *Reconciler) additionLevel() zapcore.Level {
	if _, ok := r.reporter.(progress.Nop); ok {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}

// allow returns the filter predicate for organization members, logging
// each verdict.
func (r *Reconciler) allow(log *zap.Logger) func(directory.Account) bool {
	if r.cfg.Filter.Len() == 0 {
		return nil
	}
	return func(account directory.Account) bool {
		verdict := r.cfg.Filter.Explain(account)
		log.Debug("filter result", zap.String("login", account.Login), zap.Bool("allowed", verdict.Allowed))
		return verdict.Allowed
	}
}
