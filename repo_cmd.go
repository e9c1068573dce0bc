package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitpr-dev/gitpr/internal/ui"
	"github.com/gitpr-dev/gitpr/pkg/git"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Work with repositories",
}

var repoGetJSON bool

var repoGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the current repository as the provider sees it",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		repo, err := a.client.GetRepository(cmd.Context())
		if err != nil {
			return err
		}
		if repoGetJSON {
			return printJSON(repo)
		}
		printRepository(repo)
		return nil
	},
}

var (
	repoCreateHost    string
	repoCreatePrivate bool
	repoCreateClone   bool
)

var repoCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a repository under your account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		client, _, err := buildHostClient(repoCreateHost, "", name)
		if err != nil {
			return err
		}

		repo, err := client.CreateRepository(cmd.Context(), name, repoCreatePrivate)
		if err != nil {
			return err
		}
		printRepository(repo)

		if repoCreateClone {
			log.Infof("Cloning %s", repo.CloneURL)
			return git.Clone(repo.CloneURL, repo.Name)
		}
		return nil
	},
}

var repoForkHost string

var repoForkCmd = &cobra.Command{
	Use:   "fork [owner/repo]",
	Short: "Fork a repository into your account",
	Long: `Fork a repository into your account. Without an argument the
repository of the current checkout is forked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			a, err := buildApp()
			if err != nil {
				return err
			}
			repo, err := a.client.ForkRepository(cmd.Context(), "", "")
			if err != nil {
				return err
			}
			printRepository(repo)
			return nil
		}

		owner, name, err := splitFullName(args[0])
		if err != nil {
			return err
		}
		client, _, err := buildHostClient(repoForkHost, owner, name)
		if err != nil {
			return err
		}
		repo, err := client.ForkRepository(cmd.Context(), owner, name)
		if err != nil {
			return err
		}
		printRepository(repo)
		return nil
	},
}

var repoCloneHost string

var repoCloneCmd = &cobra.Command{
	Use:   "clone <url|owner/repo> [directory]",
	Short: "Clone a repository",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]

		url := target
		if !strings.Contains(target, "://") && !strings.Contains(target, "@") {
			owner, name, err := splitFullName(target)
			if err != nil {
				return err
			}
			client, _, err := buildHostClient(repoCloneHost, owner, name)
			if err != nil {
				return err
			}
			repo, err := client.GetRepository(cmd.Context())
			if err != nil {
				return err
			}
			url = repo.CloneURL
		}

		dir := ""
		if len(args) == 2 {
			dir = args[1]
		}
		if dir == "" {
			dir = strings.TrimSuffix(url[strings.LastIndex(url, "/")+1:], ".git")
		}

		log.Infof("Cloning %s into %s", url, dir)
		return git.Clone(url, dir)
	},
}

var (
	repoDeleteHost string
	repoDeleteYes  bool
)

var repoDeleteCmd = &cobra.Command{
	Use:   "delete <owner/repo>",
	Short: "Delete a repository permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, name, err := splitFullName(args[0])
		if err != nil {
			return err
		}

		if !repoDeleteYes {
			confirmed, err := ui.NewPrompter().Confirm(
				fmt.Sprintf("Permanently delete %s/%s? This cannot be undone.", owner, name))
			if err != nil {
				return err
			}
			if !confirmed {
				log.Infof("Aborted")
				return nil
			}
		}

		client, _, err := buildHostClient(repoDeleteHost, owner, name)
		if err != nil {
			return err
		}
		if err := client.DeleteRepository(cmd.Context(), owner, name); err != nil {
			return err
		}
		log.Infof("Deleted %s/%s", owner, name)
		return nil
	},
}

func splitFullName(fullName string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("expected owner/repo, got %q", fullName)
	}
	return owner, name, nil
}

func init() {
	repoGetCmd.Flags().BoolVar(&repoGetJSON, "json", false, "Output as JSON")

	repoCreateCmd.Flags().StringVar(&repoCreateHost, "host", "github.com", "Host to create the repository on")
	repoCreateCmd.Flags().BoolVar(&repoCreatePrivate, "private", false, "Create a private repository")
	repoCreateCmd.Flags().BoolVar(&repoCreateClone, "clone", false, "Clone the new repository after creating it")

	repoForkCmd.Flags().StringVar(&repoForkHost, "host", "github.com", "Host the repository lives on")

	repoCloneCmd.Flags().StringVar(&repoCloneHost, "host", "github.com", "Host the repository lives on")

	repoDeleteCmd.Flags().StringVar(&repoDeleteHost, "host", "github.com", "Host the repository lives on")
	repoDeleteCmd.Flags().BoolVarP(&repoDeleteYes, "yes", "y", false, "Skip the confirmation prompt")

	repoCmd.AddCommand(repoGetCmd)
	repoCmd.AddCommand(repoCreateCmd)
	repoCmd.AddCommand(repoForkCmd)
	repoCmd.AddCommand(repoCloneCmd)
	repoCmd.AddCommand(repoDeleteCmd)
}
