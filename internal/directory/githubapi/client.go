// Package githubapi implements directory.Client on top of the GitHub REST
// API.
//
// Requests authenticate with a personal access token through an oauth2
// static token source. Listings follow the Link header until exhausted.
// Network failures, 5xx responses and rate-limit responses are retried with
// exponential backoff a bounded number of times; authorization and
// not-found responses fail immediately.
package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ziadkadry99/orgsync/internal/directory"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

const (
	perPage          = 100
	defaultRetryBase = 500 * time.Millisecond
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the API root. Empty or DefaultBaseURL selects public
	// GitHub; anything else is treated as a GitHub Enterprise endpoint.
	BaseURL string

	// Token is a personal access token. Listing and creating teams needs
	// the admin:org scope.
	Token string

	// HTTPClient is the base transport wrapped by the oauth2 client.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// MaxRetries bounds how often a retryable failure is retried.
	MaxRetries uint64

	// RetryBase is the first backoff interval. Defaults to 500ms.
	RetryBase time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Client is a directory.Client backed by go-github.
type Client struct {
	gh         *github.Client
	maxRetries uint64
	retryBase  time.Duration
	logger     *zap.Logger
}

var _ directory.Client = (*Client)(nil)

// NewClient creates a GitHub directory client from the given configuration.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("githubapi: token is required")
	}

	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	gh := github.NewClient(oauth2.NewClient(ctx, source))

	enterprise, err := isEnterprise(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if enterprise {
		gh, err = gh.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("githubapi: base URL %q: %w", cfg.BaseURL, err)
		}
	}
	if cfg.UserAgent != "" {
		gh.UserAgent = cfg.UserAgent
	}

	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		gh:         gh,
		maxRetries: cfg.MaxRetries,
		retryBase:  retryBase,
		logger:     logger,
	}, nil
}

// isEnterprise reports whether baseURL points somewhere other than the
// public API.
func isEnterprise(baseURL string) (bool, error) {
	if baseURL == "" {
		return false, nil
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return false, fmt.Errorf("githubapi: parsing base URL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false, fmt.Errorf("githubapi: base URL %q must use http or https", baseURL)
	}
	return parsed.Host != "api.github.com", nil
}

// ListTeams returns every team in org.
func (c *Client) ListTeams(ctx context.Context, org string) ([]directory.Team, error) {
	teams, err := paginate(ctx, c, "list teams", org, func(ctx context.Context, opts github.ListOptions) ([]*github.Team, *github.Response, error) {
		return c.gh.Teams.ListTeams(ctx, org, &opts)
	})
	if err != nil {
		return nil, err
	}

	result := make([]directory.Team, 0, len(teams))
	for _, team := range teams {
		result = append(result, toTeam(org, team))
	}
	return result, nil
}

// CreateTeam creates a team named name in org. Creation is not retried:
// a retry after a lost response would fail on the now-taken name.
func (c *Client) CreateTeam(ctx context.Context, org, name string) (directory.Team, error) {
	var created *github.Team
	err := c.call(ctx, "create team", org+"/"+name, false, func(ctx context.Context) (*github.Response, error) {
		team, response, err := c.gh.Teams.CreateTeam(ctx, org, github.NewTeam{Name: name})
		created = team
		return response, err
	})
	if err != nil {
		return directory.Team{}, err
	}
	return toTeam(org, created), nil
}

// ListMembers returns the members of an organization or a team.
func (c *Client) ListMembers(ctx context.Context, group directory.Group) ([]directory.Account, error) {
	var (
		users []*github.User
		err   error
	)
	if group.IsTeam() {
		team := *group.Team
		users, err = paginate(ctx, c, "list team members", group.String(), func(ctx context.Context, opts github.ListOptions) ([]*github.User, *github.Response, error) {
			return c.gh.Teams.ListTeamMembersBySlug(ctx, team.Org, team.Slug, &github.TeamListTeamMembersOptions{ListOptions: opts})
		})
	} else {
		users, err = paginate(ctx, c, "list organization members", group.Org, func(ctx context.Context, opts github.ListOptions) ([]*github.User, *github.Response, error) {
			return c.gh.Organizations.ListMembers(ctx, group.Org, &github.ListMembersOptions{ListOptions: opts})
		})
	}
	if err != nil {
		return nil, err
	}

	accounts := make([]directory.Account, 0, len(users))
	for _, user := range users {
		accounts = append(accounts, directory.Account{Login: user.GetLogin()})
	}
	return accounts, nil
}

// AddMembership adds login to team with the member role. GitHub treats
// the call as idempotent, so it is safe to retry.
func (c *Client) AddMembership(ctx context.Context, team directory.Team, login string) error {
	target := team.Org + "/" + team.Slug + " " + login
	return c.call(ctx, "add membership", target, true, func(ctx context.Context) (*github.Response, error) {
		_, response, err := c.gh.Teams.AddTeamMembershipBySlug(ctx, team.Org, team.Slug, login, &github.TeamAddTeamMembershipOptions{Role: "member"})
		return response, err
	})
}

// paginate collects every page of a list endpoint.
func paginate[T any](ctx context.Context, c *Client, op, target string, fetch func(context.Context, github.ListOptions) ([]T, *github.Response, error)) ([]T, error) {
	var all []T
	opts := github.ListOptions{PerPage: perPage}
	for {
		var (
			page     []T
			response *github.Response
		)
		err := c.call(ctx, op, target, true, func(ctx context.Context) (*github.Response, error) {
			var err error
			page, response, err = fetch(ctx, opts)
			return response, err
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		if response == nil || response.NextPage == 0 {
			return all, nil
		}
		opts.Page = response.NextPage
	}
}

// call runs fn, retrying retryable failures when idempotent is set, and
// wraps the final error in a *directory.OpError.
func (c *Client) call(ctx context.Context, op, target string, idempotent bool, fn func(context.Context) (*github.Response, error)) error {
	maxRetries := c.maxRetries
	if !idempotent {
		maxRetries = 0
	}
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(c.retryBase))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		_, err := fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		c.logger.Warn("directory request failed, retrying",
			zap.String("op", op),
			zap.String("target", target),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return retry.RetryableError(err)
	})
	if err != nil {
		return &directory.OpError{Op: op, Target: target, Kind: classify(err), Err: err}
	}
	return nil
}

// classify maps a go-github error onto a directory error kind.
func classify(err error) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return directory.ErrTransport
	}

	var responseErr *github.ErrorResponse
	if errors.As(err, &responseErr) && responseErr.Response != nil {
		switch responseErr.Response.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return directory.ErrUnauthorized
		case http.StatusNotFound:
			return directory.ErrNotFound
		}
	}
	return directory.ErrTransport
}

// retryable reports whether a failed request may succeed if repeated.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return true
	}

	var responseErr *github.ErrorResponse
	if errors.As(err, &responseErr) && responseErr.Response != nil {
		return responseErr.Response.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func toTeam(org string, team *github.Team) directory.Team {
	slug := team.GetSlug()
	if slug == "" {
		slug = team.GetName()
	}
	return directory.Team{
		ID:   team.GetID(),
		Org:  org,
		Name: team.GetName(),
		Slug: slug,
	}
}
