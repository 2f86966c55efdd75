package config

// Config is the top-level orgsync configuration, corresponding to .orgsync.yml.
type Config struct {
	Token           string `yaml:"token,omitempty" koanf:"token"`
	Org             string `yaml:"org" koanf:"org"`
	Team            string `yaml:"team" koanf:"team"`
	APIURL          string `yaml:"api_url" koanf:"api_url"`
	DryRun          bool   `yaml:"dry_run" koanf:"dry_run"`
	UserFilters     string `yaml:"user_filters,omitempty" koanf:"user_filters"`
	FiltersFile     string `yaml:"filters_file,omitempty" koanf:"filters_file"`
	ContinueOnError bool   `yaml:"continue_on_error" koanf:"continue_on_error"`
	MaxRetries      int    `yaml:"max_retries" koanf:"max_retries"`
}
