package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Token = "ghp_test"
	cfg.Org = "acme"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Team != "everyone" {
		t.Errorf("expected default team %q, got %q", "everyone", cfg.Team)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("expected default api_url %q, got %q", DefaultAPIURL, cfg.APIURL)
	}
	if !cfg.DryRun {
		t.Error("expected dry run to default to true")
	}
	if cfg.ContinueOnError {
		t.Error("expected continue_on_error to default to false")
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("expected default max_retries 3, got %d", cfg.MaxRetries)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.orgsync.yml")

	original := DefaultConfig()
	original.Org = "acme"
	original.Team = "all-hands"
	original.APIURL = "https://github.example.com/api/v3"
	original.DryRun = false
	original.ContinueOnError = true
	original.UserFilters = `{"login": {"reject": ["^w"], "allow": ["s$"]}}`

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Org != original.Org {
		t.Errorf("org: got %q, want %q", loaded.Org, original.Org)
	}
	if loaded.Team != original.Team {
		t.Errorf("team: got %q, want %q", loaded.Team, original.Team)
	}
	if loaded.APIURL != original.APIURL {
		t.Errorf("api_url: got %q, want %q", loaded.APIURL, original.APIURL)
	}
	if loaded.DryRun != original.DryRun {
		t.Errorf("dry_run: got %v, want %v", loaded.DryRun, original.DryRun)
	}
	if loaded.ContinueOnError != original.ContinueOnError {
		t.Errorf("continue_on_error: got %v, want %v", loaded.ContinueOnError, original.ContinueOnError)
	}
	if loaded.UserFilters != original.UserFilters {
		t.Errorf("user_filters: got %q, want %q", loaded.UserFilters, original.UserFilters)
	}
}

func TestSaveOmitsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yml")
	cfg := validConfig()
	cfg.Token = "ghp_secret"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "ghp_secret") || strings.Contains(string(data), "token") {
		t.Errorf("saved config contains the token:\n%s", data)
	}
	if cfg.Token != "ghp_secret" {
		t.Error("Save modified the receiver")
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Team != DefaultTeam {
		t.Errorf("expected default team, got %q", cfg.Team)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("PAT", "ghp_legacy")
	t.Setenv("ORG", "acme")
	t.Setenv("TEAM_NAME", "everybody")
	t.Setenv("DRY_RUN", "False")
	t.Setenv("API_URL", "https://github.example.com/api/v3")
	t.Setenv("USER_FILTERS", `{"login": {"reject": ["^w"]}}`)

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Token != "ghp_legacy" || cfg.Org != "acme" || cfg.Team != "everybody" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.DryRun {
		t.Error("DRY_RUN=False should disable dry run")
	}
	if cfg.APIURL != "https://github.example.com/api/v3" {
		t.Errorf("api_url: got %q", cfg.APIURL)
	}
	rules, err := cfg.Filters()
	if err != nil || len(rules) != 1 || rules[0].Reject[0] != "^w" {
		t.Errorf("filters: %+v, %v", rules, err)
	}
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	cfg.Org = "from-file"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("ORG", "from-legacy")
	t.Setenv("ORGSYNC_ORG", "from-prefixed")
	t.Setenv("ORGSYNC_MAX_RETRIES", "5")
	t.Setenv("ORGSYNC_CONTINUE_ON_ERROR", "true")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Org != "from-prefixed" {
		t.Errorf("env override failed: got %q, want %q", loaded.Org, "from-prefixed")
	}
	if loaded.MaxRetries != 5 {
		t.Errorf("max_retries: got %d, want 5", loaded.MaxRetries)
	}
	if !loaded.ContinueOnError {
		t.Error("continue_on_error override failed")
	}
}

func TestLoadEmptyEnvIsUnset(t *testing.T) {
	t.Setenv("DRY_RUN", "")
	t.Setenv("ORGSYNC_DRY_RUN", "")
	t.Setenv("TEAM_NAME", "")
	t.Setenv("ORGSYNC_MAX_RETRIES", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.DryRun {
		t.Error("empty DRY_RUN disabled dry run")
	}
	if cfg.Team != DefaultTeam {
		t.Errorf("team: got %q, want %q", cfg.Team, DefaultTeam)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("max_retries: got %d, want 3", cfg.MaxRetries)
	}
}

func TestLoadMalformedValue(t *testing.T) {
	t.Setenv("DRY_RUN", "yes")

	_, err := Load(filepath.Join(t.TempDir(), "none.yml"))
	if err == nil {
		t.Fatal("expected an error for DRY_RUN=yes")
	}
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("error does not wrap ErrInvalid: %v", err)
	}
	if !strings.Contains(err.Error(), "dry_run") {
		t.Errorf("error %q does not name dry_run", err)
	}
}

func TestValidateValid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.Token = "" }, "token is required"},
		{"missing org", func(c *Config) { c.Org = "" }, "org is required"},
		{"missing team", func(c *Config) { c.Team = "" }, "team is required"},
		{"bad url scheme", func(c *Config) { c.APIURL = "ftp://example.com" }, "api_url"},
		{"url without host", func(c *Config) { c.APIURL = "https://" }, "api_url"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"bad filter json", func(c *Config) { c.UserFilters = `{"login": ` }, "user_filters"},
		{"bad filter regex", func(c *Config) { c.UserFilters = `{"login": {"reject": ["("]}}` }, "invalid pattern"},
		{"unknown filter field", func(c *Config) { c.UserFilters = `{"email": {"reject": ["x"]}}` }, "unsupported field"},
		{"both filter sources", func(c *Config) { c.UserFilters = "{}"; c.FiltersFile = "f.yml" }, "not both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("error does not wrap ErrInvalid: %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestFiltersFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.yml")
	if err := os.WriteFile(path, []byte("login:\n  reject: [\"^w\"]\n  allow: [\"s$\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := validConfig()
	cfg.FiltersFile = path
	f, err := cfg.CompileFilter()
	if err != nil {
		t.Fatalf("CompileFilter: %v", err)
	}
	if f.Len() != 1 {
		t.Errorf("got %d rules, want 1", f.Len())
	}
}

func TestFiltersDefaultEmpty(t *testing.T) {
	f, err := validConfig().CompileFilter()
	if err != nil {
		t.Fatalf("CompileFilter: %v", err)
	}
	if f.Len() != 0 {
		t.Errorf("got %d rules, want 0", f.Len())
	}
}

func TestValidateOrgName(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"acme", true},
		{"acme-corp", true},
		{"-acme", false},
		{"acme corp", false},
		{"", false},
	}
	for _, tt := range tests {
		err := validateOrgName(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("validateOrgName(%q) = %v, want ok=%v", tt.input, err, tt.ok)
		}
	}
}
