// Package fixtures provides canned domain objects for tests.
package fixtures

import (
	"time"

	"github.com/gitpr-dev/gitpr/pkg/hosting"
)

// Test constants for hosting fixtures.
const (
	DefaultPRID     = 42
	DefaultSourceBr = "feature"
	DefaultTargetBr = "main"
	DefaultTitle    = "Add retry handling"
	DefaultURL      = "https://example.com/owner/repo/pull/42"
)

// OpenPullRequest returns an open pull request for the default branches.
func OpenPullRequest() *hosting.PullRequest {
	return &hosting.PullRequest{
		ID:           DefaultPRID,
		Title:        DefaultTitle,
		SourceBranch: DefaultSourceBr,
		TargetBranch: DefaultTargetBr,
		State:        hosting.StateOpen,
		URL:          DefaultURL,
		Author:       "octocat",
		CreatedAt:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

// MergedPullRequest returns the default pull request in merged state.
func MergedPullRequest() *hosting.PullRequest {
	pr := OpenPullRequest()
	pr.State = hosting.StateMerged
	return pr
}

// DeclinedPullRequest returns the default pull request in declined state.
func DeclinedPullRequest() *hosting.PullRequest {
	pr := OpenPullRequest()
	pr.State = hosting.StateDeclined
	return pr
}

// Repository returns a repository descriptor matching the default remote.
func Repository() *hosting.Repository {
	return &hosting.Repository{
		Owner:         "owner",
		Name:          "repo",
		DefaultBranch: DefaultTargetBr,
		URL:           "https://example.com/owner/repo",
		CloneURL:      "https://example.com/owner/repo.git",
	}
}

// Remote returns the remote the fixtures belong to.
func Remote() hosting.Remote {
	return hosting.Remote{
		Host:     "example.com",
		Owner:    "owner",
		Repo:     "repo",
		Provider: hosting.ProviderGitea,
	}
}
