// Package ui contains the interactive prompts used by the login flow and
// by destructive commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// providerOptions are the provider types a user can log in to.
var providerOptions = []string{"github", "gitlab", "bitbucket", "gitea"}

// Prompter asks the user for login details and confirmations.
type Prompter struct{}

func NewPrompter() *Prompter {
	return &Prompter{}
}

// SelectProvider asks which provider type a host runs. preselected, when
// non-empty, is offered as the default.
func (p *Prompter) SelectProvider(preselected string) (string, error) {
	prompt := &survey.Select{
		Message: "Provider type:",
		Options: providerOptions,
	}
	if preselected != "" {
		prompt.Default = preselected
	}

	var selected string
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", fmt.Errorf("failed to get provider selection: %w", err)
	}
	return selected, nil
}

// AskHost asks for the host name, defaulting to the provider's cloud host.
func (p *Prompter) AskHost(defaultHost string) (string, error) {
	var host string
	prompt := &survey.Input{
		Message: "Host:",
		Default: defaultHost,
	}
	if err := survey.AskOne(prompt, &host); err != nil {
		return "", fmt.Errorf("failed to get host: %w", err)
	}
	return strings.TrimSpace(host), nil
}

// AskToken asks for the access token without echoing it.
func (p *Prompter) AskToken(message string) (string, error) {
	var token string
	prompt := &survey.Password{Message: message}
	if err := survey.AskOne(prompt, &token); err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return strings.TrimSpace(token), nil
}

// Confirm asks a yes/no question, defaulting to no.
func (p *Prompter) Confirm(message string) (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{Message: message}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, fmt.Errorf("failed to get confirmation: %w", err)
	}
	return confirmed, nil
}
