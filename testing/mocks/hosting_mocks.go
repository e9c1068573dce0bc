package mocks

import (
	"context"

	"github.com/gitpr-dev/gitpr/pkg/hosting"
)

// HostingClient is a mock implementation of hosting.Client with call
// tracking.
type HostingClient struct {
	callRecorder

	// Configurable responses
	ListResponse     []hosting.PullRequest
	ListError        error
	GetResponse      *hosting.PullRequest
	GetError         error
	CreateResponse   *hosting.PullRequest
	CreateError      error
	ApproveError     error
	MergeError       error
	DeclineResponse  *hosting.PullRequest
	DeclineError     error
	RepoResponse     *hosting.Repository
	RepoError        error
	CreatedRepo      *hosting.Repository
	CreateRepoError  error
	ForkedRepo       *hosting.Repository
	ForkError        error
	DeleteRepoError  error
}

// NewHostingClient creates a new mock hosting client.
func NewHostingClient() *HostingClient {
	return &HostingClient{}
}

// ListPullRequests implements hosting.Client.
func (m *HostingClient) ListPullRequests(_ context.Context, filters hosting.ListFilters) ([]hosting.PullRequest, error) {
	m.trackCall("ListPullRequests", map[string]any{
		"state": filters.State,
	})
	return m.ListResponse, m.ListError
}

// GetPullRequest implements hosting.Client.
func (m *HostingClient) GetPullRequest(_ context.Context, source, target string) (*hosting.PullRequest, error) {
	m.trackCall("GetPullRequest", map[string]any{
		"source": source,
		"target": target,
	})
	return m.GetResponse, m.GetError
}

// CreatePullRequest implements hosting.Client.
func (m *HostingClient) CreatePullRequest(_ context.Context, in hosting.CreatePullRequest) (*hosting.PullRequest, error) {
	m.trackCall("CreatePullRequest", map[string]any{
		"title":             in.Title,
		"description":       in.Description,
		"sourceBranch":      in.SourceBranch,
		"targetBranch":      in.TargetBranch,
		"reviewers":         in.Reviewers,
		"closeSourceBranch": in.CloseSourceBranch,
	})
	return m.CreateResponse, m.CreateError
}

// ApprovePullRequest implements hosting.Client.
func (m *HostingClient) ApprovePullRequest(_ context.Context, id int64) error {
	m.trackCall("ApprovePullRequest", map[string]any{
		"id": id,
	})
	return m.ApproveError
}

// MergePullRequest implements hosting.Client.
func (m *HostingClient) MergePullRequest(_ context.Context, id int64, strategy hosting.MergeStrategy) error {
	m.trackCall("MergePullRequest", map[string]any{
		"id":       id,
		"strategy": strategy,
	})
	return m.MergeError
}

// DeclinePullRequest implements hosting.Client.
func (m *HostingClient) DeclinePullRequest(_ context.Context, id int64) (*hosting.PullRequest, error) {
	m.trackCall("DeclinePullRequest", map[string]any{
		"id": id,
	})
	return m.DeclineResponse, m.DeclineError
}

// GetRepository implements hosting.Client.
func (m *HostingClient) GetRepository(_ context.Context) (*hosting.Repository, error) {
	m.trackCall("GetRepository", map[string]any{})
	return m.RepoResponse, m.RepoError
}

// CreateRepository implements hosting.Client.
func (m *HostingClient) CreateRepository(_ context.Context, name string, private bool) (*hosting.Repository, error) {
	m.trackCall("CreateRepository", map[string]any{
		"name":    name,
		"private": private,
	})
	return m.CreatedRepo, m.CreateRepoError
}

// ForkRepository implements hosting.Client.
func (m *HostingClient) ForkRepository(_ context.Context, owner, name string) (*hosting.Repository, error) {
	m.trackCall("ForkRepository", map[string]any{
		"owner": owner,
		"name":  name,
	})
	return m.ForkedRepo, m.ForkError
}

// DeleteRepository implements hosting.Client.
func (m *HostingClient) DeleteRepository(_ context.Context, owner, name string) error {
	m.trackCall("DeleteRepository", map[string]any{
		"owner": owner,
		"name":  name,
	})
	return m.DeleteRepoError
}
