package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/orgsync/internal/filter"
)

// EnvPrefix prefixes environment overrides: ORGSYNC_ORG -> org, etc.
const EnvPrefix = "ORGSYNC_"

// ErrInvalid marks configuration errors. They are reported before any
// request reaches the directory service.
var ErrInvalid = errors.New("invalid configuration")

// Load reads configuration from the given YAML file, then overlays the
// environment: first the legacy variable names
// (PAT, ORG, TEAM_NAME, ...), then ORGSYNC_* overrides. A .env file in the
// working directory is loaded into the environment first without replacing
// variables that are already set.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	_ = godotenv.Load()

	// Empty variables count as unset, so DRY_RUN= keeps dry run on.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return legacyEnvKeys[key], value
	}), nil); err != nil {
		return nil, fmt.Errorf("loading legacy env variables: %w", err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path. The token is
// never written; it belongs in the environment.
func (c *Config) Save(path string) error {
	out := *c
	out.Token = ""
	data, err := yamlv3.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values. Every
// error wraps ErrInvalid.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("%w: token is required (set %sTOKEN or PAT)", ErrInvalid, EnvPrefix)
	}
	if c.Org == "" {
		return fmt.Errorf("%w: org is required (set %sORG or ORG)", ErrInvalid, EnvPrefix)
	}
	if c.Team == "" {
		return fmt.Errorf("%w: team is required (set %sTEAM or TEAM_NAME)", ErrInvalid, EnvPrefix)
	}
	if err := validateURL(c.APIURL); err != nil {
		return fmt.Errorf("%w: api_url: %v", ErrInvalid, err)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be non-negative", ErrInvalid)
	}
	if _, err := c.CompileFilter(); err != nil {
		return err
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// Filters returns the user filter rules from user_filters or filters_file.
func (c *Config) Filters() (filter.Rules, error) {
	switch {
	case c.UserFilters != "" && c.FiltersFile != "":
		return nil, fmt.Errorf("%w: set either user_filters or filters_file, not both", ErrInvalid)
	case c.FiltersFile != "":
		rules, err := filter.ParseFile(c.FiltersFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return rules, nil
	default:
		rules, err := filter.Parse([]byte(c.UserFilters))
		if err != nil {
			return nil, fmt.Errorf("%w: user_filters: %v", ErrInvalid, err)
		}
		return rules, nil
	}
}

// CompileFilter parses and compiles the configured filter rules.
func (c *Config) CompileFilter() (*filter.Filter, error) {
	rules, err := c.Filters()
	if err != nil {
		return nil, err
	}
	f, err := filter.Compile(rules)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return f, nil
}
