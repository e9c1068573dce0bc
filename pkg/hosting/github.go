package hosting

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/gitpr-dev/gitpr/internal/logger"
)

// githubClient implements [Client] for GitHub and GitHub Enterprise using
// the official REST client. Enterprise hosts are served through their
// /api/v3 prefix.
type githubClient struct {
	gh     *github.Client
	remote Remote
	log    logger.Logger
}

func newGitHubClient(remote Remote, cred Credential, log logger.Logger) (*githubClient, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Token})
	tc := oauth2.NewClient(context.Background(), ts)
	gh := github.NewClient(tc)

	if remote.Provider == ProviderGitHubEnterprise {
		base := fmt.Sprintf("https://%s/api/v3/", remote.Host)
		upload := fmt.Sprintf("https://%s/api/uploads/", remote.Host)
		var err error
		gh, err = gh.WithEnterpriseURLs(base, upload)
		if err != nil {
			return nil, fmt.Errorf("configure enterprise URLs for %s: %w", remote.Host, err)
		}
	}

	return &githubClient{gh: gh, remote: remote, log: log}, nil
}

// githubMaxPages bounds pull-request listing. Pagination stops when the
// client reports no next page; the bound guards against a server that
// keeps advertising one.
const githubMaxPages = 50

func (c *githubClient) ListPullRequests(ctx context.Context, filters ListFilters) ([]PullRequest, error) {
	state := "open"
	switch filters.State {
	case FilterClosed, FilterMerged, FilterAll:
		// GitHub folds merged into closed; FilterMerged narrows below.
		state = "closed"
	}
	if filters.State == FilterAll {
		state = "all"
	}

	opts := &github.PullRequestListOptions{
		State:       state,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 50},
	}

	var out []PullRequest
	for page := 0; page < githubMaxPages; page++ {
		prs, resp, err := c.gh.PullRequests.List(ctx, c.remote.Owner, c.remote.Repo, opts)
		if err != nil {
			return nil, c.mapError(err)
		}
		for _, pr := range prs {
			mapped := c.mapPullRequest(pr)
			if filters.State == FilterMerged && mapped.State != StateMerged {
				continue
			}
			if filters.State == FilterClosed && mapped.State != StateDeclined {
				continue
			}
			out = append(out, mapped)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (c *githubClient) GetPullRequest(ctx context.Context, source, target string) (*PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		Head:        c.remote.Owner + ":" + source,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 50},
	}
	if target != "" {
		opts.Base = target
	}

	prs, _, err := c.gh.PullRequests.List(ctx, c.remote.Owner, c.remote.Repo, opts)
	if err != nil {
		return nil, c.mapError(err)
	}

	candidates := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		candidates = append(candidates, c.mapPullRequest(pr))
	}
	best := bestMatch(candidates)
	if best != nil {
		best.Approved = c.isApproved(ctx, best.ID)
	}
	return best, nil
}

// isApproved reports whether any submitted review approved the pull
// request. Review-listing failures degrade to "not approved".
func (c *githubClient) isApproved(ctx context.Context, id int64) bool {
	reviews, _, err := c.gh.PullRequests.ListReviews(ctx, c.remote.Owner, c.remote.Repo, int(id), nil)
	if err != nil {
		c.log.Debugf("failed to list reviews for #%d: %v", id, err)
		return false
	}
	for _, r := range reviews {
		if r.GetState() == "APPROVED" {
			return true
		}
	}
	return false
}

func (c *githubClient) CreatePullRequest(ctx context.Context, in CreatePullRequest) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, c.remote.Owner, c.remote.Repo, &github.NewPullRequest{
		Title: github.Ptr(in.Title),
		Body:  github.Ptr(in.Description),
		Head:  github.Ptr(in.SourceBranch),
		Base:  github.Ptr(in.TargetBranch),
	})
	if err != nil {
		return nil, c.mapError(err)
	}

	if len(in.Reviewers) > 0 {
		_, _, err := c.gh.PullRequests.RequestReviewers(ctx, c.remote.Owner, c.remote.Repo,
			pr.GetNumber(), github.ReviewersRequest{Reviewers: in.Reviewers})
		if err != nil {
			c.log.Warnf("failed to request reviewers: %v", c.mapError(err))
		}
	}

	out := c.mapPullRequest(pr)
	return &out, nil
}

func (c *githubClient) ApprovePullRequest(ctx context.Context, id int64) error {
	_, _, err := c.gh.PullRequests.CreateReview(ctx, c.remote.Owner, c.remote.Repo, int(id),
		&github.PullRequestReviewRequest{Event: github.Ptr("APPROVE")})
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *githubClient) MergePullRequest(ctx context.Context, id int64, strategy MergeStrategy) error {
	_, _, err := c.gh.PullRequests.Merge(ctx, c.remote.Owner, c.remote.Repo, int(id), "",
		&github.PullRequestOptions{MergeMethod: strategy.String()})
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *githubClient) DeclinePullRequest(ctx context.Context, id int64) (*PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Edit(ctx, c.remote.Owner, c.remote.Repo, int(id),
		&github.PullRequest{State: github.Ptr("closed")})
	if err != nil {
		return nil, c.mapError(err)
	}
	out := c.mapPullRequest(pr)
	return &out, nil
}

func (c *githubClient) GetRepository(ctx context.Context) (*Repository, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, c.remote.Owner, c.remote.Repo)
	if err != nil {
		return nil, c.mapError(err)
	}
	return mapGitHubRepository(repo), nil
}

func (c *githubClient) CreateRepository(ctx context.Context, name string, private bool) (*Repository, error) {
	repo, _, err := c.gh.Repositories.Create(ctx, "", &github.Repository{
		Name:    github.Ptr(name),
		Private: github.Ptr(private),
	})
	if err != nil {
		return nil, c.mapError(err)
	}
	return mapGitHubRepository(repo), nil
}

func (c *githubClient) ForkRepository(ctx context.Context, owner, name string) (*Repository, error) {
	if owner == "" {
		owner, name = c.remote.Owner, c.remote.Repo
	}
	repo, _, err := c.gh.Repositories.CreateFork(ctx, owner, name, nil)
	if err != nil {
		// Forking is asynchronous; 202 means the fork was scheduled and
		// its descriptor is in the error body.
		var accepted *github.AcceptedError
		if !errors.As(err, &accepted) {
			return nil, c.mapError(err)
		}
		repo = new(github.Repository)
		if jerr := json.Unmarshal(accepted.Raw, repo); jerr != nil {
			return nil, malformedError(c.remote.Provider, jerr)
		}
	}
	return mapGitHubRepository(repo), nil
}

func (c *githubClient) DeleteRepository(ctx context.Context, owner, name string) error {
	if _, err := c.gh.Repositories.Delete(ctx, owner, name); err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *githubClient) mapPullRequest(pr *github.PullRequest) PullRequest {
	state := StateOpen
	switch {
	case pr.GetMerged() || pr.MergedAt != nil:
		state = StateMerged
	case pr.GetState() == "closed":
		state = StateDeclined
	}

	reviewers := make([]string, 0, len(pr.RequestedReviewers))
	for _, u := range pr.RequestedReviewers {
		reviewers = append(reviewers, u.GetLogin())
	}

	return PullRequest{
		ID:           int64(pr.GetNumber()),
		Title:        pr.GetTitle(),
		Description:  pr.GetBody(),
		SourceBranch: pr.GetHead().GetRef(),
		TargetBranch: pr.GetBase().GetRef(),
		State:        state,
		Reviewers:    reviewers,
		URL:          pr.GetHTMLURL(),
		Author:       pr.GetUser().GetLogin(),
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
	}
}

// mapError normalizes go-github errors into *Error.
func (c *githubClient) mapError(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &Error{Kind: KindRateLimited, Status: 429, Provider: c.remote.Provider, Message: rateErr.Message}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &Error{Kind: KindRateLimited, Status: 429, Provider: c.remote.Provider, Message: "secondary rate limit"}
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return statusError(c.remote.Provider, ghErr.Response.StatusCode, ghErr.Message)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return networkError(c.remote.Provider, urlErr)
	}
	return networkError(c.remote.Provider, err)
}

func mapGitHubRepository(repo *github.Repository) *Repository {
	return &Repository{
		Owner:         repo.GetOwner().GetLogin(),
		Name:          repo.GetName(),
		Private:       repo.GetPrivate(),
		DefaultBranch: repo.GetDefaultBranch(),
		URL:           repo.GetHTMLURL(),
		CloneURL:      repo.GetCloneURL(),
	}
}
