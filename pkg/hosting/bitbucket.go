package hosting

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gitpr-dev/gitpr/internal/logger"
)

const bitbucketAPIBase = "https://api.bitbucket.org/2.0"

// bitbucketMaxPages bounds cursor-following when walking paginated
// listings. Bitbucket pages carry a "next" URL; a response that repeats
// the current cursor or omits it ends the walk.
const bitbucketMaxPages = 50

// bitbucketClient implements [Client] for Bitbucket Cloud. It talks to the
// 2.0 REST API directly, authenticating with username and app password.
type bitbucketClient struct {
	rest   *restClient
	remote Remote
	user   string
	log    logger.Logger
}

func newBitbucketClient(remote Remote, cred Credential, log logger.Logger) (*bitbucketClient, error) {
	user, password, ok := cred.BasicAuth()
	if !ok {
		return nil, &Error{
			Kind:     KindAuth,
			Provider: ProviderBitbucket,
			Message:  "bitbucket credential must be username:app-password",
		}
	}
	auth := func(req *http.Request) {
		req.SetBasicAuth(user, password)
	}
	return &bitbucketClient{
		rest:   newRESTClient(bitbucketAPIBase, ProviderBitbucket, auth, log),
		remote: remote,
		user:   user,
		log:    log,
	}, nil
}

func (c *bitbucketClient) repoPath() string {
	return fmt.Sprintf("/repositories/%s/%s", c.remote.Owner, c.remote.Repo)
}

type bitbucketBranchRef struct {
	Branch struct {
		Name string `json:"name"`
	} `json:"branch"`
}

type bitbucketAccount struct {
	UUID        string `json:"uuid"`
	Nickname    string `json:"nickname"`
	DisplayName string `json:"display_name"`
}

func (a bitbucketAccount) name() string {
	if a.Nickname != "" {
		return a.Nickname
	}
	return a.DisplayName
}

type bitbucketPR struct {
	ID           int64              `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	State        string             `json:"state"`
	Source       bitbucketBranchRef `json:"source"`
	Destination  bitbucketBranchRef `json:"destination"`
	Author       bitbucketAccount   `json:"author"`
	Reviewers    []bitbucketAccount `json:"reviewers"`
	Participants []struct {
		User     bitbucketAccount `json:"user"`
		Approved bool             `json:"approved"`
	} `json:"participants"`
	Links struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"links"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

func (pr bitbucketPR) toDomain() PullRequest {
	reviewers := make([]string, 0, len(pr.Reviewers))
	for _, r := range pr.Reviewers {
		reviewers = append(reviewers, r.name())
	}

	approved := false
	for _, p := range pr.Participants {
		if p.Approved {
			approved = true
			break
		}
	}

	state := StateOpen
	switch pr.State {
	case "MERGED":
		state = StateMerged
	case "DECLINED", "SUPERSEDED":
		state = StateDeclined
	}

	return PullRequest{
		ID:           pr.ID,
		Title:        pr.Title,
		Description:  pr.Description,
		SourceBranch: pr.Source.Branch.Name,
		TargetBranch: pr.Destination.Branch.Name,
		State:        state,
		Approved:     approved,
		Reviewers:    reviewers,
		URL:          pr.Links.HTML.Href,
		Author:       pr.Author.name(),
		CreatedAt:    pr.CreatedOn,
		UpdatedAt:    pr.UpdatedOn,
	}
}

// bitbucketPage is the generic paginated envelope of the 2.0 API.
type bitbucketPage[T any] struct {
	Values []T    `json:"values"`
	Next   string `json:"next"`
}

// collectPages walks a paginated listing starting at path, following the
// "next" cursor until it is absent, repeats itself or the page bound is
// reached.
func collectPages[T any](ctx context.Context, rest *restClient, path string) ([]T, error) {
	var out []T
	seen := make(map[string]struct{})
	cursor := path
	for page := 0; page < bitbucketMaxPages; page++ {
		seen[cursor] = struct{}{}
		if strings.HasPrefix(cursor, "/") {
			seen[rest.base+cursor] = struct{}{}
		}

		var envelope bitbucketPage[T]
		if err := rest.get(ctx, cursor, &envelope); err != nil {
			return nil, err
		}
		out = append(out, envelope.Values...)
		if envelope.Next == "" {
			return out, nil
		}
		if _, dup := seen[envelope.Next]; dup {
			// A cursor that does not advance would loop forever.
			return out, nil
		}
		cursor = envelope.Next
	}
	return out, nil
}

func (c *bitbucketClient) ListPullRequests(ctx context.Context, filters ListFilters) ([]PullRequest, error) {
	query := url.Values{}
	switch filters.State {
	case FilterOpen:
		query.Set("state", "OPEN")
	case FilterClosed:
		query.Set("state", "DECLINED")
	case FilterMerged:
		query.Set("state", "MERGED")
	}
	query.Set("sort", "-updated_on")

	prs, err := collectPages[bitbucketPR](ctx, c.rest, c.repoPath()+"/pullrequests?"+query.Encode())
	if err != nil {
		return nil, err
	}

	out := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, pr.toDomain())
	}
	return out, nil
}

func (c *bitbucketClient) GetPullRequest(ctx context.Context, source, target string) (*PullRequest, error) {
	query := url.Values{}
	q := fmt.Sprintf("source.branch.name = %q", source)
	if target != "" {
		q += fmt.Sprintf(" AND destination.branch.name = %q", target)
	}
	query.Set("q", q)

	prs, err := collectPages[bitbucketPR](ctx, c.rest, c.repoPath()+"/pullrequests?"+query.Encode())
	if err != nil {
		return nil, err
	}

	candidates := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		candidates = append(candidates, pr.toDomain())
	}
	return bestMatch(candidates), nil
}

func (c *bitbucketClient) CreatePullRequest(ctx context.Context, in CreatePullRequest) (*PullRequest, error) {
	type branchName struct {
		Name string `json:"name"`
	}
	type branchRef struct {
		Branch branchName `json:"branch"`
	}
	type reviewerRef struct {
		UUID string `json:"uuid"`
	}

	body := struct {
		Title             string        `json:"title"`
		Description       string        `json:"description"`
		Source            branchRef     `json:"source"`
		Destination       branchRef     `json:"destination"`
		CloseSourceBranch bool          `json:"close_source_branch"`
		Reviewers         []reviewerRef `json:"reviewers,omitempty"`
	}{
		Title:             in.Title,
		Description:       in.Description,
		Source:            branchRef{Branch: branchName{Name: in.SourceBranch}},
		Destination:       branchRef{Branch: branchName{Name: in.TargetBranch}},
		CloseSourceBranch: in.CloseSourceBranch,
	}
	for _, uuid := range c.reviewerUUIDs(ctx, in.Reviewers) {
		body.Reviewers = append(body.Reviewers, reviewerRef{UUID: uuid})
	}

	var pr bitbucketPR
	if err := c.rest.do(ctx, http.MethodPost, c.repoPath()+"/pullrequests", body, &pr); err != nil {
		return nil, err
	}
	out := pr.toDomain()
	return &out, nil
}

// reviewerUUIDs resolves workspace member names to account UUIDs, which
// is the only form the create endpoint accepts. Unknown names are skipped
// with a warning.
func (c *bitbucketClient) reviewerUUIDs(ctx context.Context, names []string) []string {
	if len(names) == 0 {
		return nil
	}

	type member struct {
		User bitbucketAccount `json:"user"`
	}
	members, err := collectPages[member](ctx, c.rest, "/workspaces/"+c.remote.Owner+"/members")
	if err != nil {
		c.log.Warnf("failed to list workspace members: %v", err)
		return nil
	}

	byName := make(map[string]string, len(members))
	for _, m := range members {
		if m.User.Nickname != "" {
			byName[m.User.Nickname] = m.User.UUID
		}
		if m.User.DisplayName != "" {
			byName[m.User.DisplayName] = m.User.UUID
		}
	}

	var uuids []string
	for _, name := range names {
		uuid, ok := byName[name]
		if !ok {
			c.log.Warnf("reviewer %s not found in workspace %s, skipping", name, c.remote.Owner)
			continue
		}
		uuids = append(uuids, uuid)
	}
	return uuids
}

func (c *bitbucketClient) ApprovePullRequest(ctx context.Context, id int64) error {
	return c.rest.do(ctx, http.MethodPost, fmt.Sprintf("%s/pullrequests/%d/approve", c.repoPath(), id), nil, nil)
}

func (c *bitbucketClient) MergePullRequest(ctx context.Context, id int64, strategy MergeStrategy) error {
	body := struct {
		MergeStrategy string `json:"merge_strategy"`
	}{MergeStrategy: bitbucketMergeStrategy(strategy)}
	return c.rest.do(ctx, http.MethodPost, fmt.Sprintf("%s/pullrequests/%d/merge", c.repoPath(), id), body, nil)
}

func bitbucketMergeStrategy(strategy MergeStrategy) string {
	switch strategy {
	case MergeStrategySquash:
		return "squash"
	case MergeStrategyRebase:
		return "fast_forward"
	default:
		return "merge_commit"
	}
}

func (c *bitbucketClient) DeclinePullRequest(ctx context.Context, id int64) (*PullRequest, error) {
	var pr bitbucketPR
	if err := c.rest.do(ctx, http.MethodPost, fmt.Sprintf("%s/pullrequests/%d/decline", c.repoPath(), id), nil, &pr); err != nil {
		return nil, err
	}
	out := pr.toDomain()
	return &out, nil
}

type bitbucketRepo struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	IsPrivate bool   `json:"is_private"`
	Owner     struct {
		Username string `json:"username"`
	} `json:"owner"`
	MainBranch struct {
		Name string `json:"name"`
	} `json:"mainbranch"`
	Links struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
		Clone []struct {
			Name string `json:"name"`
			Href string `json:"href"`
		} `json:"clone"`
	} `json:"links"`
}

func (r bitbucketRepo) toDomain() *Repository {
	cloneURL := ""
	for _, link := range r.Links.Clone {
		if link.Name == "https" {
			cloneURL = link.Href
			break
		}
	}
	return &Repository{
		Owner:         r.Owner.Username,
		Name:          r.Slug,
		Private:       r.IsPrivate,
		DefaultBranch: r.MainBranch.Name,
		URL:           r.Links.HTML.Href,
		CloneURL:      cloneURL,
	}
}

func (c *bitbucketClient) GetRepository(ctx context.Context) (*Repository, error) {
	var repo bitbucketRepo
	if err := c.rest.get(ctx, c.repoPath(), &repo); err != nil {
		return nil, err
	}
	return repo.toDomain(), nil
}

func (c *bitbucketClient) CreateRepository(ctx context.Context, name string, private bool) (*Repository, error) {
	body := struct {
		SCM       string `json:"scm"`
		IsPrivate bool   `json:"is_private"`
	}{SCM: "git", IsPrivate: private}

	var repo bitbucketRepo
	path := fmt.Sprintf("/repositories/%s/%s", c.user, name)
	if err := c.rest.do(ctx, http.MethodPost, path, body, &repo); err != nil {
		return nil, err
	}
	return repo.toDomain(), nil
}

func (c *bitbucketClient) ForkRepository(ctx context.Context, owner, name string) (*Repository, error) {
	if owner == "" {
		owner, name = c.remote.Owner, c.remote.Repo
	}
	var repo bitbucketRepo
	path := fmt.Sprintf("/repositories/%s/%s/forks", owner, name)
	if err := c.rest.do(ctx, http.MethodPost, path, struct{}{}, &repo); err != nil {
		return nil, err
	}
	return repo.toDomain(), nil
}

func (c *bitbucketClient) DeleteRepository(ctx context.Context, owner, name string) error {
	return c.rest.do(ctx, http.MethodDelete, fmt.Sprintf("/repositories/%s/%s", owner, name), nil, nil)
}
