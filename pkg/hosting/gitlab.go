package hosting

import (
	"context"
	"errors"
	"fmt"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/gitpr-dev/gitpr/internal/logger"
)

// gitlabClient implements [Client] for gitlab.com and self-hosted
// instances. Merge requests are addressed by IID within the project.
type gitlabClient struct {
	gl        *gitlab.Client
	remote    Remote
	projectID string
	log       logger.Logger
}

func newGitLabClient(remote Remote, cred Credential, log logger.Logger) (*gitlabClient, error) {
	var opts []gitlab.ClientOptionFunc
	if remote.Provider == ProviderGitLabSelfHosted {
		opts = append(opts, gitlab.WithBaseURL(fmt.Sprintf("https://%s/api/v4", remote.Host)))
	}
	gl, err := gitlab.NewClient(cred.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}
	return &gitlabClient{
		gl:        gl,
		remote:    remote,
		projectID: remote.Owner + "/" + remote.Repo,
		log:       log,
	}, nil
}

const gitlabMaxPages = 50

func (c *gitlabClient) ListPullRequests(ctx context.Context, filters ListFilters) ([]PullRequest, error) {
	opts := &gitlab.ListProjectMergeRequestsOptions{
		OrderBy:     gitlab.Ptr("updated_at"),
		Sort:        gitlab.Ptr("desc"),
		ListOptions: gitlab.ListOptions{PerPage: 50},
	}
	switch filters.State {
	case FilterOpen:
		opts.State = gitlab.Ptr("opened")
	case FilterClosed:
		opts.State = gitlab.Ptr("closed")
	case FilterMerged:
		opts.State = gitlab.Ptr("merged")
	}

	var out []PullRequest
	for page := 0; page < gitlabMaxPages; page++ {
		mrs, resp, err := c.gl.MergeRequests.ListProjectMergeRequests(c.projectID, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, c.mapError(err)
		}
		for _, mr := range mrs {
			out = append(out, mapGitLabMergeRequest(mr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (c *gitlabClient) GetPullRequest(ctx context.Context, source, target string) (*PullRequest, error) {
	opts := &gitlab.ListProjectMergeRequestsOptions{
		SourceBranch: gitlab.Ptr(source),
		OrderBy:      gitlab.Ptr("updated_at"),
		Sort:         gitlab.Ptr("desc"),
		ListOptions:  gitlab.ListOptions{PerPage: 50},
	}
	if target != "" {
		opts.TargetBranch = gitlab.Ptr(target)
	}

	mrs, _, err := c.gl.MergeRequests.ListProjectMergeRequests(c.projectID, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, c.mapError(err)
	}

	candidates := make([]PullRequest, 0, len(mrs))
	for _, mr := range mrs {
		candidates = append(candidates, mapGitLabMergeRequest(mr))
	}
	best := bestMatch(candidates)
	if best != nil {
		best.Approved = c.isApproved(ctx, int(best.ID))
	}
	return best, nil
}

// isApproved reports whether the merge request has at least one approval.
// Lookup failures degrade to "not approved".
func (c *gitlabClient) isApproved(ctx context.Context, iid int) bool {
	approvals, _, err := c.gl.MergeRequestApprovals.GetConfiguration(c.projectID, iid, gitlab.WithContext(ctx))
	if err != nil {
		c.log.Debugf("failed to get approvals for !%d: %v", iid, err)
		return false
	}
	return len(approvals.ApprovedBy) > 0
}

func (c *gitlabClient) CreatePullRequest(ctx context.Context, in CreatePullRequest) (*PullRequest, error) {
	opts := &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(in.Title),
		Description:  gitlab.Ptr(in.Description),
		SourceBranch: gitlab.Ptr(in.SourceBranch),
		TargetBranch: gitlab.Ptr(in.TargetBranch),
	}
	if in.CloseSourceBranch {
		opts.RemoveSourceBranch = gitlab.Ptr(true)
	}
	if ids := c.reviewerIDs(ctx, in.Reviewers); len(ids) > 0 {
		opts.ReviewerIDs = &ids
	}

	mr, _, err := c.gl.MergeRequests.CreateMergeRequest(c.projectID, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, c.mapError(err)
	}
	out := mapGitLabDetailedMergeRequest(mr)
	return &out, nil
}

// reviewerIDs resolves usernames to user IDs. Unknown users are skipped
// with a warning so a bad reviewer never blocks the merge request.
func (c *gitlabClient) reviewerIDs(ctx context.Context, usernames []string) []int {
	var ids []int
	for _, username := range usernames {
		users, _, err := c.gl.Users.ListUsers(&gitlab.ListUsersOptions{
			Username: gitlab.Ptr(username),
		}, gitlab.WithContext(ctx))
		if err != nil || len(users) == 0 {
			c.log.Warnf("reviewer %s not found, skipping", username)
			continue
		}
		ids = append(ids, users[0].ID)
	}
	return ids
}

func (c *gitlabClient) ApprovePullRequest(ctx context.Context, id int64) error {
	_, _, err := c.gl.MergeRequestApprovals.ApproveMergeRequest(c.projectID, int(id), nil, gitlab.WithContext(ctx))
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *gitlabClient) MergePullRequest(ctx context.Context, id int64, strategy MergeStrategy) error {
	opts := &gitlab.AcceptMergeRequestOptions{}
	if strategy == MergeStrategySquash {
		opts.Squash = gitlab.Ptr(true)
	}
	_, _, err := c.gl.MergeRequests.AcceptMergeRequest(c.projectID, int(id), opts, gitlab.WithContext(ctx))
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *gitlabClient) DeclinePullRequest(ctx context.Context, id int64) (*PullRequest, error) {
	mr, _, err := c.gl.MergeRequests.UpdateMergeRequest(c.projectID, int(id), &gitlab.UpdateMergeRequestOptions{
		StateEvent: gitlab.Ptr("close"),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, c.mapError(err)
	}
	out := mapGitLabDetailedMergeRequest(mr)
	return &out, nil
}

func (c *gitlabClient) GetRepository(ctx context.Context) (*Repository, error) {
	project, _, err := c.gl.Projects.GetProject(c.projectID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, c.mapError(err)
	}
	return mapGitLabProject(project), nil
}

func (c *gitlabClient) CreateRepository(ctx context.Context, name string, private bool) (*Repository, error) {
	opts := &gitlab.CreateProjectOptions{Name: gitlab.Ptr(name)}
	if private {
		opts.Visibility = gitlab.Ptr(gitlab.PrivateVisibility)
	} else {
		opts.Visibility = gitlab.Ptr(gitlab.PublicVisibility)
	}
	project, _, err := c.gl.Projects.CreateProject(opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, c.mapError(err)
	}
	return mapGitLabProject(project), nil
}

func (c *gitlabClient) ForkRepository(ctx context.Context, owner, name string) (*Repository, error) {
	pid := c.projectID
	if owner != "" {
		pid = owner + "/" + name
	}
	project, _, err := c.gl.Projects.ForkProject(pid, &gitlab.ForkProjectOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, c.mapError(err)
	}
	return mapGitLabProject(project), nil
}

func (c *gitlabClient) DeleteRepository(ctx context.Context, owner, name string) error {
	_, err := c.gl.Projects.DeleteProject(owner+"/"+name, nil, gitlab.WithContext(ctx))
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

func (c *gitlabClient) mapError(err error) error {
	// client-go reports 404 as a sentinel rather than an ErrorResponse.
	if errors.Is(err, gitlab.ErrNotFound) {
		return statusError(c.remote.Provider, 404, err.Error())
	}
	var glErr *gitlab.ErrorResponse
	if errors.As(err, &glErr) && glErr.Response != nil {
		return statusError(c.remote.Provider, glErr.Response.StatusCode, glErr.Message)
	}
	return networkError(c.remote.Provider, err)
}

func mapGitLabMergeRequest(mr *gitlab.BasicMergeRequest) PullRequest {
	reviewers := make([]string, 0, len(mr.Reviewers))
	for _, r := range mr.Reviewers {
		reviewers = append(reviewers, r.Username)
	}

	pr := PullRequest{
		ID:           int64(mr.IID),
		Title:        mr.Title,
		Description:  mr.Description,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		State:        mapGitLabState(mr.State),
		Reviewers:    reviewers,
		URL:          mr.WebURL,
	}
	if mr.Author != nil {
		pr.Author = mr.Author.Username
	}
	pr.CreatedAt = derefTime(mr.CreatedAt)
	pr.UpdatedAt = derefTime(mr.UpdatedAt)
	return pr
}

func mapGitLabDetailedMergeRequest(mr *gitlab.MergeRequest) PullRequest {
	return mapGitLabMergeRequest(&mr.BasicMergeRequest)
}

func mapGitLabState(state string) State {
	switch state {
	case "merged":
		return StateMerged
	case "closed":
		return StateDeclined
	default:
		return StateOpen
	}
}

func mapGitLabProject(project *gitlab.Project) *Repository {
	owner := ""
	if project.Namespace != nil {
		owner = project.Namespace.FullPath
	}
	return &Repository{
		Owner:         owner,
		Name:          project.Path,
		Private:       project.Visibility == gitlab.PrivateVisibility,
		DefaultBranch: project.DefaultBranch,
		URL:           project.WebURL,
		CloneURL:      project.HTTPURLToRepo,
	}
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
