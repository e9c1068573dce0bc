package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/gitpr-dev/gitpr/pkg/hosting"
)

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printPullRequest(pr *hosting.PullRequest) {
	fmt.Printf("#%d %s\n", pr.ID, pr.Title)
	fmt.Printf("  %s -> %s [%s]\n", pr.SourceBranch, pr.TargetBranch, pr.State)
	if pr.Author != "" {
		fmt.Printf("  author: %s\n", pr.Author)
	}
	if len(pr.Reviewers) > 0 {
		fmt.Printf("  reviewers: %v\n", pr.Reviewers)
	}
	if pr.Approved {
		fmt.Println("  approved")
	}
	fmt.Printf("  %s\n", pr.URL)
}

func printPullRequestList(prs []hosting.PullRequest) {
	if len(prs) == 0 {
		fmt.Println("No pull requests found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATE\tSOURCE\tTARGET\tTITLE")
	for _, pr := range prs {
		fmt.Fprintf(w, "#%d\t%s\t%s\t%s\t%s\n", pr.ID, pr.State, pr.SourceBranch, pr.TargetBranch, pr.Title)
	}
	w.Flush()
}

func printRepository(repo *hosting.Repository) {
	visibility := "public"
	if repo.Private {
		visibility = "private"
	}
	fmt.Printf("%s (%s)\n", repo.FullName(), visibility)
	fmt.Printf("  default branch: %s\n", repo.DefaultBranch)
	fmt.Printf("  %s\n", repo.URL)
}
