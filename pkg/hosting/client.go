package hosting

import "context"

// Client is the provider-neutral API every backend adapter implements.
//
// GetPullRequest returns (nil, nil) when no pull request matches; callers
// must check for a nil result. All other operations return a non-nil error
// on failure, normally a *Error carrying the classified kind.
type Client interface {
	// ListPullRequests returns the pull requests matching the filters,
	// most recently updated first.
	ListPullRequests(ctx context.Context, filters ListFilters) ([]PullRequest, error)

	// GetPullRequest finds the pull request from source to target. An
	// empty target matches any target branch. When several match, the
	// most recently updated open one wins, then the most recently
	// updated overall. Returns (nil, nil) when none match.
	GetPullRequest(ctx context.Context, source, target string) (*PullRequest, error)

	// CreatePullRequest opens a new pull request.
	CreatePullRequest(ctx context.Context, in CreatePullRequest) (*PullRequest, error)

	// ApprovePullRequest records the authenticated user's approval.
	ApprovePullRequest(ctx context.Context, id int64) error

	// MergePullRequest merges the pull request using the given strategy.
	MergePullRequest(ctx context.Context, id int64, strategy MergeStrategy) error

	// DeclinePullRequest closes the pull request without merging and
	// returns its final state.
	DeclinePullRequest(ctx context.Context, id int64) (*PullRequest, error)

	// GetRepository returns the repository the client is bound to.
	GetRepository(ctx context.Context) (*Repository, error)

	// CreateRepository creates a repository under the authenticated user.
	CreateRepository(ctx context.Context, name string, private bool) (*Repository, error)

	// ForkRepository forks owner/name into the authenticated user's
	// namespace. Empty owner and name fork the bound repository.
	ForkRepository(ctx context.Context, owner, name string) (*Repository, error)

	// DeleteRepository permanently deletes owner/name.
	DeleteRepository(ctx context.Context, owner, name string) error
}

// bestMatch applies the GetPullRequest tie-break over candidate pull
// requests that already match the branch filters: prefer open ones, then
// the most recently updated. Shared by all four adapters.
func bestMatch(prs []PullRequest) *PullRequest {
	var best *PullRequest
	for i := range prs {
		pr := &prs[i]
		if best == nil {
			best = pr
			continue
		}
		bestOpen := best.State == StateOpen
		prOpen := pr.State == StateOpen
		switch {
		case prOpen && !bestOpen:
			best = pr
		case prOpen == bestOpen && pr.UpdatedAt.After(best.UpdatedAt):
			best = pr
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}
