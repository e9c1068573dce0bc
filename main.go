// Package main provides the entry point for the gitpr CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitpr-dev/gitpr/internal/logger"
	"github.com/gitpr-dev/gitpr/pkg/actions"
	"github.com/gitpr-dev/gitpr/pkg/config"
	"github.com/gitpr-dev/gitpr/pkg/git"
	"github.com/gitpr-dev/gitpr/pkg/hosting"
)

var (
	logLevel string
	log      logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gitpr",
	Short: "Manage pull requests and repositories across hosting providers",
	Long: `gitpr manages pull requests and repositories on GitHub, GitLab,
Bitbucket and Gitea from the command line. It resolves the provider from
the repository's origin remote and checks the state of the local branch
before acting on the remote.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		log = logger.NewLogger(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info",
		"Set log level (debug, info, warn, error)")
	rootCmd.AddCommand(prCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(loginCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything a command operating on the current repository
// needs: the local repository, the resolved remote, the provider client
// and the action runner on top of them.
type app struct {
	cfg    *config.Config
	repo   *git.Repository
	remote hosting.Remote
	client hosting.Client
	runner *actions.Runner
}

// buildApp wires an app for the repository containing the working
// directory.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	repo, err := git.OpenRepository(".")
	if err != nil {
		return nil, err
	}

	remoteURL, err := repo.RemoteURL()
	if err != nil {
		return nil, err
	}

	host, _, _, err := hosting.ParseRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}

	remote, err := hosting.Resolve(remoteURL, cfg.HostType(host))
	if err != nil {
		return nil, err
	}
	log.Debugf("Resolved %s to %s (%s)", remoteURL, remote.FullName(), remote.Provider)

	token, err := cfg.Token(remote.Host)
	if err != nil {
		return nil, err
	}

	client, err := hosting.NewClient(remote, hosting.Credential{Host: remote.Host, Token: token}, log)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		repo:   repo,
		remote: remote,
		client: client,
		runner: actions.NewRunner(repo, client, remote, cfg, log),
	}, nil
}

// buildHostClient wires a client for an explicit host and owner/repo,
// for repository commands that run outside a checkout.
func buildHostClient(host, owner, repoName string) (hosting.Client, hosting.Remote, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, hosting.Remote{}, err
	}

	provider, err := hosting.ResolveHost(host, cfg.HostType(host))
	if err != nil {
		return nil, hosting.Remote{}, err
	}
	remote := hosting.Remote{Host: host, Owner: owner, Repo: repoName, Provider: provider}

	token, err := cfg.Token(host)
	if err != nil {
		return nil, hosting.Remote{}, err
	}

	client, err := hosting.NewClient(remote, hosting.Credential{Host: host, Token: token}, log)
	if err != nil {
		return nil, hosting.Remote{}, err
	}
	return client, remote, nil
}
