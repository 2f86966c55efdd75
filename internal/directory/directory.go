// Package directory defines the boundary between orgsync and the service
// that owns organizations, teams and accounts.
//
// Only the four operations a reconciliation pass needs are exposed. The
// GitHub implementation lives in the githubapi subpackage; tests use
// in-memory fakes.
package directory

import "context"

// Client is a directory-service client. Every method is a blocking round
// trip; listings are returned fully paginated.
type Client interface {
	// ListTeams returns all teams of the organization.
	ListTeams(ctx context.Context, org string) ([]Team, error)

	// CreateTeam creates a team with the given name and returns it.
	CreateTeam(ctx context.Context, org, name string) (Team, error)

	// ListMembers returns every member of an organization or a team.
	ListMembers(ctx context.Context, group Group) ([]Account, error)

	// AddMembership makes login a member of team.
	AddMembership(ctx context.Context, team Team, login string) error
}

// Team is a named subgroup of an organization.
type Team struct {
	ID   int64
	Org  string
	Name string
	Slug string
}

// Account is an individual identity, identified by its login.
type Account struct {
	Login string
}

// Attribute returns the value of a profile field by name. Only "login" is
// available without fetching the full user profile.
func (a Account) Attribute(field string) (string, bool) {
	switch field {
	case "login":
		return a.Login, true
	default:
		return "", false
	}
}

// Group is anything with a member listing: an organization, or a team
// within one.
type Group struct {
	Org  string
	Team *Team
}

// OrganizationGroup returns the group of all members of org.
func OrganizationGroup(org string) Group {
	return Group{Org: org}
}

// TeamGroup returns the group of members of team.
func TeamGroup(team Team) Group {
	return Group{Org: team.Org, Team: &team}
}

// IsTeam reports whether the group refers to a team rather than the
// whole organization.
func (g Group) IsTeam() bool {
	return g.Team != nil
}

func (g Group) String() string {
	if g.Team != nil {
		return g.Org + "/" + g.Team.Name
	}
	return g.Org
}
