package config

// DefaultPath is where the config file is looked up and saved.
const DefaultPath = ".orgsync.yml"

// DefaultAPIURL is the public GitHub API.
const DefaultAPIURL = "https://api.github.com"

// DefaultTeam is the name of the synchronized team.
const DefaultTeam = "everyone"

// legacyEnvKeys maps the unprefixed environment variables of earlier
// deployments onto config keys.
var legacyEnvKeys = map[string]string{
	"PAT":          "token",
	"ORG":          "org",
	"TEAM_NAME":    "team",
	"API_URL":      "api_url",
	"DRY_RUN":      "dry_run",
	"USER_FILTERS": "user_filters",
}

// DefaultConfig returns a Config with sensible defaults. Dry run is on
// until explicitly disabled.
func DefaultConfig() *Config {
	return &Config{
		Team:       DefaultTeam,
		APIURL:     DefaultAPIURL,
		DryRun:     true,
		MaxRetries: 3,
	}
}
