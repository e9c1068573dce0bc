package hosting

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gitpr-dev/gitpr/internal/logger"
)

// giteaMaxPages bounds page-numbered pagination. Gitea signals the end
// with an empty page, so the bound only matters for a misbehaving server.
const giteaMaxPages = 50

// giteaClient implements [Client] for Gitea instances via their v1 API.
type giteaClient struct {
	rest   *restClient
	remote Remote
	log    logger.Logger
}

func newGiteaClient(remote Remote, cred Credential, log logger.Logger) (*giteaClient, error) {
	auth := func(req *http.Request) {
		req.Header.Set("Authorization", "token "+cred.Token)
	}
	base := fmt.Sprintf("https://%s/api/v1", remote.Host)
	return &giteaClient{
		rest:   newRESTClient(base, ProviderGitea, auth, log),
		remote: remote,
		log:    log,
	}, nil
}

func (c *giteaClient) repoPath() string {
	return fmt.Sprintf("/repos/%s/%s", c.remote.Owner, c.remote.Repo)
}

type giteaBranchRef struct {
	Ref string `json:"ref"`
}

type giteaUser struct {
	Login string `json:"login"`
}

type giteaPR struct {
	Number             int64          `json:"number"`
	Title              string         `json:"title"`
	Body               string         `json:"body"`
	State              string         `json:"state"`
	Merged             bool           `json:"merged"`
	MergedAt           *time.Time     `json:"merged_at"`
	Head               giteaBranchRef `json:"head"`
	Base               giteaBranchRef `json:"base"`
	User               giteaUser      `json:"user"`
	RequestedReviewers []giteaUser    `json:"requested_reviewers"`
	HTMLURL            string         `json:"html_url"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (pr giteaPR) toDomain() PullRequest {
	state := StateOpen
	switch {
	case pr.Merged || pr.MergedAt != nil:
		state = StateMerged
	case pr.State == "closed":
		state = StateDeclined
	}

	reviewers := make([]string, 0, len(pr.RequestedReviewers))
	for _, r := range pr.RequestedReviewers {
		reviewers = append(reviewers, r.Login)
	}

	return PullRequest{
		ID:           pr.Number,
		Title:        pr.Title,
		Description:  pr.Body,
		SourceBranch: pr.Head.Ref,
		TargetBranch: pr.Base.Ref,
		State:        state,
		Reviewers:    reviewers,
		URL:          pr.HTMLURL,
		Author:       pr.User.Login,
		CreatedAt:    pr.CreatedAt,
		UpdatedAt:    pr.UpdatedAt,
	}
}

// listPulls walks the page-numbered listing until an empty page or the
// page bound.
func (c *giteaClient) listPulls(ctx context.Context, state string) ([]giteaPR, error) {
	var out []giteaPR
	for page := 1; page <= giteaMaxPages; page++ {
		query := url.Values{}
		query.Set("state", state)
		query.Set("page", fmt.Sprint(page))
		query.Set("limit", "50")

		var prs []giteaPR
		if err := c.rest.get(ctx, c.repoPath()+"/pulls?"+query.Encode(), &prs); err != nil {
			return nil, err
		}
		if len(prs) == 0 {
			break
		}
		out = append(out, prs...)
	}
	return out, nil
}

func (c *giteaClient) ListPullRequests(ctx context.Context, filters ListFilters) ([]PullRequest, error) {
	state := "open"
	switch filters.State {
	case FilterClosed, FilterMerged:
		state = "closed"
	case FilterAll:
		state = "all"
	}

	prs, err := c.listPulls(ctx, state)
	if err != nil {
		return nil, err
	}

	var out []PullRequest
	for _, pr := range prs {
		mapped := pr.toDomain()
		if filters.State == FilterMerged && mapped.State != StateMerged {
			continue
		}
		if filters.State == FilterClosed && mapped.State != StateDeclined {
			continue
		}
		out = append(out, mapped)
	}
	return out, nil
}

func (c *giteaClient) GetPullRequest(ctx context.Context, source, target string) (*PullRequest, error) {
	prs, err := c.listPulls(ctx, "all")
	if err != nil {
		return nil, err
	}

	var candidates []PullRequest
	for _, pr := range prs {
		mapped := pr.toDomain()
		if mapped.SourceBranch != source {
			continue
		}
		if target != "" && mapped.TargetBranch != target {
			continue
		}
		candidates = append(candidates, mapped)
	}
	return bestMatch(candidates), nil
}

func (c *giteaClient) CreatePullRequest(ctx context.Context, in CreatePullRequest) (*PullRequest, error) {
	body := struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}{
		Title: in.Title,
		Body:  in.Description,
		Head:  in.SourceBranch,
		Base:  in.TargetBranch,
	}

	var pr giteaPR
	if err := c.rest.do(ctx, http.MethodPost, c.repoPath()+"/pulls", body, &pr); err != nil {
		return nil, err
	}

	if len(in.Reviewers) > 0 {
		reviewBody := struct {
			Reviewers []string `json:"reviewers"`
		}{Reviewers: in.Reviewers}
		path := fmt.Sprintf("%s/pulls/%d/requested_reviewers", c.repoPath(), pr.Number)
		if err := c.rest.do(ctx, http.MethodPost, path, reviewBody, nil); err != nil {
			c.log.Warnf("failed to request reviewers: %v", err)
		}
	}

	out := pr.toDomain()
	return &out, nil
}

func (c *giteaClient) ApprovePullRequest(ctx context.Context, id int64) error {
	body := struct {
		Event string `json:"event"`
	}{Event: "APPROVED"}
	return c.rest.do(ctx, http.MethodPost, fmt.Sprintf("%s/pulls/%d/reviews", c.repoPath(), id), body, nil)
}

func (c *giteaClient) MergePullRequest(ctx context.Context, id int64, strategy MergeStrategy) error {
	body := struct {
		Do string `json:"Do"`
	}{Do: strategy.String()}
	return c.rest.do(ctx, http.MethodPost, fmt.Sprintf("%s/pulls/%d/merge", c.repoPath(), id), body, nil)
}

func (c *giteaClient) DeclinePullRequest(ctx context.Context, id int64) (*PullRequest, error) {
	body := struct {
		State string `json:"state"`
	}{State: "closed"}

	var pr giteaPR
	if err := c.rest.do(ctx, http.MethodPatch, fmt.Sprintf("%s/pulls/%d", c.repoPath(), id), body, &pr); err != nil {
		return nil, err
	}
	out := pr.toDomain()
	return &out, nil
}

type giteaRepo struct {
	Name          string    `json:"name"`
	Owner         giteaUser `json:"owner"`
	Private       bool      `json:"private"`
	DefaultBranch string    `json:"default_branch"`
	HTMLURL       string    `json:"html_url"`
	CloneURL      string    `json:"clone_url"`
}

func (r giteaRepo) toDomain() *Repository {
	return &Repository{
		Owner:         r.Owner.Login,
		Name:          r.Name,
		Private:       r.Private,
		DefaultBranch: r.DefaultBranch,
		URL:           r.HTMLURL,
		CloneURL:      r.CloneURL,
	}
}

func (c *giteaClient) GetRepository(ctx context.Context) (*Repository, error) {
	var repo giteaRepo
	if err := c.rest.get(ctx, c.repoPath(), &repo); err != nil {
		return nil, err
	}
	return repo.toDomain(), nil
}

func (c *giteaClient) CreateRepository(ctx context.Context, name string, private bool) (*Repository, error) {
	body := struct {
		Name    string `json:"name"`
		Private bool   `json:"private"`
	}{Name: name, Private: private}

	var repo giteaRepo
	if err := c.rest.do(ctx, http.MethodPost, "/user/repos", body, &repo); err != nil {
		return nil, err
	}
	return repo.toDomain(), nil
}

func (c *giteaClient) ForkRepository(ctx context.Context, owner, name string) (*Repository, error) {
	if owner == "" {
		owner, name = c.remote.Owner, c.remote.Repo
	}
	var repo giteaRepo
	if err := c.rest.do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/forks", owner, name), struct{}{}, &repo); err != nil {
		return nil, err
	}
	return repo.toDomain(), nil
}

func (c *giteaClient) DeleteRepository(ctx context.Context, owner, name string) error {
	return c.rest.do(ctx, http.MethodDelete, fmt.Sprintf("/repos/%s/%s", owner, name), nil, nil)
}
