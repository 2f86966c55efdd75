package reconcile

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/ziadkadry99/orgsync/internal/directory"
)

// Snapshot is the set of member logins of a group at one point in a run.
// Present members map to true; absence means non-membership.
type Snapshot map[string]bool

// Has reports whether login is in the snapshot.
func (s Snapshot) Has(login string) bool {
	return s[login]
}

// Logins returns the members in sorted order.
func (s Snapshot) Logins() []string {
	logins := make([]string, 0, len(s))
	for login, present := range s {
		if present {
			logins = append(logins, login)
		}
	}
	sort.Strings(logins)
	return logins
}

// TakeSnapshot lists every member of group and keeps those allow admits.
// A nil allow admits everyone.
func TakeSnapshot(ctx context.Context, client directory.Client, group directory.Group, allow func(directory.Account) bool, logger *zap.Logger) (Snapshot, error) {
	members, err := client.ListMembers(ctx, group)
	if err != nil {
		return nil, err
	}

	snapshot := make(Snapshot, len(members))
	for _, member := range members {
		logger.Debug("found member", zap.String("group", group.String()), zap.String("login", member.Login))
		if allow == nil || allow(member) {
			snapshot[member.Login] = true
		}
	}
	return snapshot, nil
}

// Missing returns the logins in org that are not in team, sorted. Logins
// only in team are ignored: reconciliation never removes members.
func Missing(org, team Snapshot) []string {
	var missing []string
	for _, login := range org.Logins() {
		if !team.Has(login) {
			missing = append(missing, login)
		}
	}
	return missing
}
