// Package hosting provides a unified abstraction over remote code-hosting
// providers (GitHub, GitLab, Bitbucket, Gitea).
//
// The [Client] interface defines a common API for pull-request and repository
// operations that all four backends implement. Use [Resolve] to map a git
// remote URL to a [Remote], then [NewClient] to obtain the adapter for its
// provider:
//
//	remote, err := hosting.Resolve(remoteURL, cfgType)
//	client, err := hosting.NewClient(remote, cred, log)
//	pr, err := client.CreatePullRequest(ctx, hosting.CreatePullRequest{...})
package hosting

import (
	"fmt"
	"strings"
	"time"
)

// Provider identifies a hosting-provider variant. The set is closed: every
// [Remote] resolves to exactly one variant or resolution fails.
type Provider int

const (
	// ProviderUnknown is the zero value; no adapter serves it.
	ProviderUnknown Provider = iota
	ProviderGitHub
	ProviderGitHubEnterprise
	ProviderGitLabCloud
	ProviderGitLabSelfHosted
	ProviderBitbucket
	ProviderGitea
)

// String returns the provider name as used in configuration files and logs.
func (p Provider) String() string {
	switch p {
	case ProviderGitHub:
		return "github"
	case ProviderGitHubEnterprise:
		return "github-enterprise"
	case ProviderGitLabCloud:
		return "gitlab"
	case ProviderGitLabSelfHosted:
		return "gitlab-self-hosted"
	case ProviderBitbucket:
		return "bitbucket"
	case ProviderGitea:
		return "gitea"
	default:
		return "unknown"
	}
}

// Remote identifies one repository on one hosting provider. It is derived
// once per invocation from the local remote URL (or an explicit override)
// and never mutated afterwards.
type Remote struct {
	Host     string
	Owner    string
	Repo     string
	Provider Provider
}

// FullName returns the "owner/repo" path of the remote.
func (r Remote) FullName() string {
	return r.Owner + "/" + r.Repo
}

// Credential carries the secret used to authenticate against one host.
// For Bitbucket the token holds "username:app-password"; every other
// provider uses a plain token.
type Credential struct {
	Host  string
	Token string
}

// BasicAuth splits the token into a username/password pair. ok is false
// when the token does not contain a colon.
func (c Credential) BasicAuth() (user, password string, ok bool) {
	user, password, ok = strings.Cut(c.Token, ":")
	return user, password, ok
}

// State is the lifecycle state of a pull request. Transitions are monotonic:
// an open pull request may become merged or declined, never the reverse.
type State int

const (
	StateOpen State = iota
	StateMerged
	StateDeclined
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateMerged:
		return "merged"
	case StateDeclined:
		return "declined"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MergeStrategy selects how a pull request is merged.
type MergeStrategy int

const (
	MergeStrategyMerge MergeStrategy = iota
	MergeStrategySquash
	MergeStrategyRebase
)

func (m MergeStrategy) String() string {
	switch m {
	case MergeStrategySquash:
		return "squash"
	case MergeStrategyRebase:
		return "rebase"
	default:
		return "merge"
	}
}

// ParseMergeStrategy maps a CLI flag value to a strategy.
func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch s {
	case "", "merge":
		return MergeStrategyMerge, nil
	case "squash":
		return MergeStrategySquash, nil
	case "rebase":
		return MergeStrategyRebase, nil
	default:
		return MergeStrategyMerge, fmt.Errorf("unknown merge strategy %q", s)
	}
}

// StateFilter narrows pull-request listings.
type StateFilter int

const (
	FilterOpen StateFilter = iota
	FilterClosed
	FilterMerged
	FilterAll
)

// ParseStateFilter maps a CLI flag value to a filter.
func ParseStateFilter(s string) (StateFilter, error) {
	switch s {
	case "", "open":
		return FilterOpen, nil
	case "closed", "declined":
		return FilterClosed, nil
	case "merged":
		return FilterMerged, nil
	case "all":
		return FilterAll, nil
	default:
		return FilterOpen, fmt.Errorf("unknown state filter %q", s)
	}
}

// ListFilters holds the filters for ListPullRequests.
type ListFilters struct {
	State StateFilter
}

// PullRequest is the provider-agnostic view of a pull/merge request.
// ID is the provider-native identifier used in follow-up calls (the PR
// number on GitHub/Gitea, the MR IID on GitLab, the PR id on Bitbucket).
type PullRequest struct {
	ID           int64
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
	State        State
	Approved     bool
	Reviewers    []string
	URL          string
	Author       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreatePullRequest holds the parameters for creating a pull request.
type CreatePullRequest struct {
	Title             string
	Description       string
	SourceBranch      string
	TargetBranch      string
	Reviewers         []string
	CloseSourceBranch bool
}

// Repository is the provider-agnostic descriptor of a remote repository.
type Repository struct {
	Owner         string
	Name          string
	Private       bool
	DefaultBranch string
	URL           string
	CloneURL      string
}

// FullName returns the "owner/name" path of the repository.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}
