package reconcile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ziadkadry99/orgsync/internal/directory"
)

// ResolveTeam returns the team of org named name, creating it if no team
// has exactly that name. Names are compared case-sensitively and the first
// match wins. created reports whether a new team was made.
func ResolveTeam(ctx context.Context, client directory.Client, org, name string, logger *zap.Logger) (team directory.Team, created bool, err error) {
	if name == "" {
		return directory.Team{}, false, errors.New("team name must not be empty")
	}

	logger.Debug("fetching teams from organization", zap.String("org", org))
	teams, err := client.ListTeams(ctx, org)
	if err != nil {
		return directory.Team{}, false, err
	}

	for _, candidate := range teams {
		logger.Debug("comparing team names", zap.String("requested", name), zap.String("detected", candidate.Name))
		if candidate.Name == name {
			logger.Debug("found a match", zap.String("team", candidate.Name), zap.Int64("team_id", candidate.ID))
			return candidate, false, nil
		}
	}

	logger.Info("team was not found, creating it", zap.String("team", name))
	team, err = client.CreateTeam(ctx, org, name)
	if err != nil {
		return directory.Team{}, false, err
	}
	return team, true, nil
}
