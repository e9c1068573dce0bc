package main

import (
	"github.com/spf13/cobra"

	"github.com/gitpr-dev/gitpr/pkg/actions"
	"github.com/gitpr-dev/gitpr/pkg/hosting"
)

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Work with pull requests for the current repository",
}

var (
	prCreateTitle       string
	prCreateDescription string
	prCreateTarget      string
	prCreateReviewers   []string
	prCreateCloseSource bool
	prCreateMerge       bool
	prCreateDelete      bool
	prCreateStrategy    string
	prCreateForce       bool
)

var prCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a pull request from the current branch",
	Long: `Create a pull request from the current branch. The branch is pushed
first when it has never been pushed or has local commits on top of its
upstream. Without --target the repository's default branch is used; without
--description one is drafted from the branch's commit subjects.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		strategy, err := hosting.ParseMergeStrategy(prCreateStrategy)
		if err != nil {
			return err
		}

		pr, err := a.runner.Create(cmd.Context(), actions.CreateOptions{
			Title:             prCreateTitle,
			Description:       prCreateDescription,
			TargetBranch:      prCreateTarget,
			Reviewers:         prCreateReviewers,
			CloseSourceBranch: prCreateCloseSource,
			Merge:             prCreateMerge,
			Delete:            prCreateDelete,
			Strategy:          strategy,
			Force:             prCreateForce,
		})
		if err != nil {
			return err
		}
		printPullRequest(pr)
		return nil
	},
}

var (
	prListState string
	prListJSON  bool
)

var prListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the repository's pull requests",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		state, err := hosting.ParseStateFilter(prListState)
		if err != nil {
			return err
		}

		prs, err := a.runner.List(cmd.Context(), hosting.ListFilters{State: state})
		if err != nil {
			return err
		}
		if prListJSON {
			return printJSON(prs)
		}
		printPullRequestList(prs)
		return nil
	},
}

var (
	prGetBranch string
	prGetTarget string
	prGetJSON   bool
)

var prGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the pull request for a branch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		pr, err := a.runner.Get(cmd.Context(), prGetBranch, prGetTarget)
		if err != nil {
			return err
		}
		if pr == nil {
			log.Infof("No pull request found")
			return nil
		}
		if prGetJSON {
			return printJSON(pr)
		}
		printPullRequest(pr)
		return nil
	},
}

var prApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve the pull request for the current branch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		_, err = a.runner.Approve(cmd.Context())
		return err
	},
}

var (
	prMergeStrategy string
	prMergeDelete   bool
	prMergeForce    bool
)

var prMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the pull request for the current branch",
	Long: `Merge the pull request for the current branch. The branch must be
pushed, the working tree clean and the branch not behind its upstream;
--force skips the checks and force-pushes the local state first.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}

		strategy, err := hosting.ParseMergeStrategy(prMergeStrategy)
		if err != nil {
			return err
		}

		_, err = a.runner.Merge(cmd.Context(), actions.MergeOptions{
			Strategy: strategy,
			Delete:   prMergeDelete,
			Force:    prMergeForce,
		})
		return err
	},
}

var prDeclineDelete bool

var prDeclineCmd = &cobra.Command{
	Use:   "decline",
	Short: "Decline the pull request for the current branch",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		_, err = a.runner.Decline(cmd.Context(), actions.DeclineOptions{
			Delete: prDeclineDelete,
		})
		return err
	},
}

func init() {
	prCreateCmd.Flags().StringVarP(&prCreateTitle, "title", "t", "", "Pull request title (required)")
	prCreateCmd.Flags().StringVarP(&prCreateDescription, "description", "d", "", "Pull request description")
	prCreateCmd.Flags().StringVarP(&prCreateTarget, "target", "b", "", "Target branch (defaults to the repository default branch)")
	prCreateCmd.Flags().StringSliceVarP(&prCreateReviewers, "reviewer", "r", nil, "Reviewer to request, repeatable")
	prCreateCmd.Flags().BoolVar(&prCreateCloseSource, "close-source-branch", false, "Delete the source branch on the remote after merge")
	prCreateCmd.Flags().BoolVar(&prCreateMerge, "merge", false, "Merge the pull request right after creating it")
	prCreateCmd.Flags().BoolVar(&prCreateDelete, "delete", false, "Delete the local branch after merging (with --merge)")
	prCreateCmd.Flags().StringVar(&prCreateStrategy, "strategy", "merge", "Merge strategy (merge, squash, rebase)")
	prCreateCmd.Flags().BoolVarP(&prCreateForce, "force", "f", false, "Force push the branch before creating")

	prListCmd.Flags().StringVar(&prListState, "state", "open", "Filter by state (open, closed, merged, all)")
	prListCmd.Flags().BoolVar(&prListJSON, "json", false, "Output as JSON")

	prGetCmd.Flags().StringVar(&prGetBranch, "branch", "", "Source branch (defaults to the current branch)")
	prGetCmd.Flags().StringVar(&prGetTarget, "target", "", "Target branch filter")
	prGetCmd.Flags().BoolVar(&prGetJSON, "json", false, "Output as JSON")

	prMergeCmd.Flags().StringVar(&prMergeStrategy, "strategy", "merge", "Merge strategy (merge, squash, rebase)")
	prMergeCmd.Flags().BoolVar(&prMergeDelete, "delete", false, "Delete the local branch after merging")
	prMergeCmd.Flags().BoolVarP(&prMergeForce, "force", "f", false, "Skip local checks and force push first")

	prDeclineCmd.Flags().BoolVar(&prDeclineDelete, "delete", false, "Delete the local branch after declining")

	prCmd.AddCommand(prCreateCmd)
	prCmd.AddCommand(prListCmd)
	prCmd.AddCommand(prGetCmd)
	prCmd.AddCommand(prApproveCmd)
	prCmd.AddCommand(prMergeCmd)
	prCmd.AddCommand(prDeclineCmd)
}
