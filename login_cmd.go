package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitpr-dev/gitpr/internal/ui"
	"github.com/gitpr-dev/gitpr/pkg/config"
)

var (
	loginHost     string
	loginType     string
	loginToken    string
	loginPrompter = ui.NewPrompter()
)

// defaultHosts maps a provider type to its cloud host, used as the prompt
// default.
var defaultHosts = map[string]string{
	"github":    "github.com",
	"gitlab":    "gitlab.com",
	"bitbucket": "bitbucket.org",
	"gitea":     "gitea.com",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token for a host",
	Long: `Store an access token for a host. Flags not provided are prompted
for interactively. For Bitbucket the token is your username and app
password joined by a colon.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		hostType := loginType
		if hostType == "" {
			var err error
			hostType, err = loginPrompter.SelectProvider("")
			if err != nil {
				return err
			}
		}
		if _, ok := defaultHosts[hostType]; !ok {
			return fmt.Errorf("unknown provider type %q", hostType)
		}

		host := loginHost
		if host == "" {
			var err error
			host, err = loginPrompter.AskHost(defaultHosts[hostType])
			if err != nil {
				return err
			}
		}
		host = strings.ToLower(strings.TrimSpace(host))
		if host == "" {
			return fmt.Errorf("host must not be empty")
		}

		token := loginToken
		if token == "" {
			message := "Access token:"
			if hostType == "bitbucket" {
				message = "username:app-password:"
			}
			var err error
			token, err = loginPrompter.AskToken(message)
			if err != nil {
				return err
			}
		}
		if err := checkTokenShape(hostType, token); err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.SetHost(host, hostType, token)
		if err := cfg.Save(); err != nil {
			return err
		}

		log.Infof("Logged in to %s as %s", host, hostType)
		return nil
	},
}

// checkTokenShape rejects tokens that cannot possibly work for the
// provider. Unexpected but plausible shapes only warn, since providers
// change their token formats.
func checkTokenShape(hostType, token string) error {
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}

	switch hostType {
	case "github":
		if !strings.HasPrefix(token, "ghp_") && !strings.HasPrefix(token, "gho_") &&
			!strings.HasPrefix(token, "ghs_") && !strings.HasPrefix(token, "github_pat_") {
			log.Warnf("token does not look like a GitHub token")
		}
	case "gitlab":
		if !strings.HasPrefix(token, "glpat-") {
			log.Warnf("token does not look like a GitLab personal access token")
		}
	case "bitbucket":
		user, password, ok := strings.Cut(token, ":")
		if !ok || user == "" || password == "" {
			return fmt.Errorf("bitbucket credentials must be username:app-password")
		}
	}
	return nil
}

func init() {
	loginCmd.Flags().StringVar(&loginHost, "host", "", "Host to log in to")
	loginCmd.Flags().StringVar(&loginType, "type", "", "Provider type (github, gitlab, bitbucket, gitea)")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Access token (prompted when omitted)")
}
