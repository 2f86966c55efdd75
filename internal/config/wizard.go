package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/manifoldco/promptui"
)

// orgNamePattern matches GitHub organization logins.
var orgNamePattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)

// RunWizard runs an interactive configuration wizard and saves the
// resulting Config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to orgsync! Let's configure the team to keep in sync.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Organization.
	orgPrompt := promptui.Prompt{
		Label:    "Organization",
		Validate: validateOrgName,
	}
	org, err := orgPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("organization prompt: %w", err)
	}
	cfg.Org = org

	// 2. Team.
	teamPrompt := promptui.Prompt{
		Label:   "Team to keep in sync",
		Default: DefaultTeam,
		Validate: func(s string) error {
			if s == "" {
				return errors.New("team name must not be empty")
			}
			return nil
		},
	}
	team, err := teamPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("team prompt: %w", err)
	}
	cfg.Team = team

	// 3. API URL.
	urlPrompt := promptui.Prompt{
		Label:   "API URL",
		Default: DefaultAPIURL,
		Validate: func(s string) error {
			if s == "" {
				return errors.New("API URL must not be empty")
			}
			if _, err := url.ParseRequestURI(s); err != nil {
				return errors.New("not a valid URL")
			}
			return validateURL(s)
		},
	}
	apiURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("API URL prompt: %w", err)
	}
	cfg.APIURL = apiURL

	// 4. Dry run.
	dryRunSelect := promptui.Select{
		Label: "Mode",
		Items: []string{"Dry run (report only)", "Apply changes"},
	}
	idx, _, err := dryRunSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("mode selection: %w", err)
	}
	cfg.DryRun = idx == 0

	// 5. Failure policy.
	failureSelect := promptui.Select{
		Label: "When adding a member fails",
		Items: []string{"Stop the run", "Log it and continue"},
	}
	idx, _, err = failureSelect.Run()
	if err != nil {
		return nil, fmt.Errorf("failure policy selection: %w", err)
	}
	cfg.ContinueOnError = idx == 1

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Printf("Set the access token in %sTOKEN (needs the admin:org scope).\n", EnvPrefix)
	return cfg, nil
}

func validateOrgName(s string) error {
	if !orgNamePattern.MatchString(s) {
		return errors.New("organization names contain only letters, digits and hyphens")
	}
	return nil
}
