// Package mocks provides call-tracking test doubles for the hosting
// client and the local repository.
package mocks

import (
	"sync"

	"github.com/gitpr-dev/gitpr/pkg/git"
)

// MethodCall records a single method invocation on a mock.
type MethodCall struct {
	Method string
	Args   map[string]any
}

// callRecorder is the shared call-tracking core of the mocks.
type callRecorder struct {
	mu    sync.Mutex
	calls []MethodCall
}

// GetCalls returns all tracked method calls.
func (r *callRecorder) GetCalls() []MethodCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MethodCall{}, r.calls...)
}

// GetCallCount returns the number of times a method was called.
func (r *callRecorder) GetCallCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, call := range r.calls {
		if call.Method == method {
			count++
		}
	}
	return count
}

// GetLastCall returns the last call to the specified method, or nil if not called.
func (r *callRecorder) GetLastCall(method string) *MethodCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].Method == method {
			return &r.calls[i]
		}
	}
	return nil
}

// TotalCalls returns the number of tracked calls across all methods.
func (r *callRecorder) TotalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Reset clears all tracked calls.
func (r *callRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = make([]MethodCall, 0)
}

// trackCall records a method call with its arguments.
func (r *callRecorder) trackCall(method string, args map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, MethodCall{Method: method, Args: args})
}

// BranchCache is a mock implementation of actions.DefaultBranchCache.
// Branches is keyed by "host owner/repo".
type BranchCache struct {
	callRecorder

	Branches      map[string]string
	RememberError error
}

// NewBranchCache creates an empty mock cache.
func NewBranchCache() *BranchCache {
	return &BranchCache{Branches: map[string]string{}}
}

// DefaultBranch implements actions.DefaultBranchCache.
func (m *BranchCache) DefaultBranch(host, repo string) string {
	m.trackCall("DefaultBranch", map[string]any{
		"host": host,
		"repo": repo,
	})
	return m.Branches[host+" "+repo]
}

// RememberDefaultBranch implements actions.DefaultBranchCache.
func (m *BranchCache) RememberDefaultBranch(host, repo, branch string) error {
	m.trackCall("RememberDefaultBranch", map[string]any{
		"host":   host,
		"repo":   repo,
		"branch": branch,
	})
	if m.RememberError == nil {
		m.Branches[host+" "+repo] = branch
	}
	return m.RememberError
}

// GitRepo is a mock implementation of actions.GitRepo with call tracking.
type GitRepo struct {
	callRecorder

	// Configurable responses
	BranchStateResponse        git.BranchState
	BranchStateError           error
	CurrentBranchResponse      string
	CurrentBranchError         error
	PushError                  error
	CheckoutError              error
	PullError                  error
	DeleteLocalBranchError     error
	CommitSubjectsResponse     []string
	CommitSubjectsError        error
}

// NewGitRepo creates a mock repository on branch "feature" with a clean,
// pushed state.
func NewGitRepo() *GitRepo {
	return &GitRepo{
		BranchStateResponse: git.BranchState{
			Branch:   "feature",
			Upstream: "origin/feature",
		},
		CurrentBranchResponse: "feature",
	}
}

// BranchState implements actions.GitRepo.
func (m *GitRepo) BranchState() (git.BranchState, error) {
	m.trackCall("BranchState", map[string]any{})
	return m.BranchStateResponse, m.BranchStateError
}

// CurrentBranch implements actions.GitRepo.
func (m *GitRepo) CurrentBranch() (string, error) {
	m.trackCall("CurrentBranch", map[string]any{})
	return m.CurrentBranchResponse, m.CurrentBranchError
}

// Push implements actions.GitRepo. A successful push updates the branch
// state the way a real push would: the upstream exists and nothing is
// ahead or behind.
func (m *GitRepo) Push(branch string, force bool) error {
	m.trackCall("Push", map[string]any{
		"branch": branch,
		"force":  force,
	})
	if m.PushError == nil {
		m.BranchStateResponse.Upstream = "origin/" + branch
		m.BranchStateResponse.Ahead = 0
		m.BranchStateResponse.Behind = 0
	}
	return m.PushError
}

// Checkout implements actions.GitRepo.
func (m *GitRepo) Checkout(branch string) error {
	m.trackCall("Checkout", map[string]any{
		"branch": branch,
	})
	if m.CheckoutError == nil {
		m.CurrentBranchResponse = branch
	}
	return m.CheckoutError
}

// Pull implements actions.GitRepo.
func (m *GitRepo) Pull() error {
	m.trackCall("Pull", map[string]any{})
	return m.PullError
}

// DeleteLocalBranch implements actions.GitRepo.
func (m *GitRepo) DeleteLocalBranch(branch string) error {
	m.trackCall("DeleteLocalBranch", map[string]any{
		"branch": branch,
	})
	return m.DeleteLocalBranchError
}

// CommitSubjectsSince implements actions.GitRepo.
func (m *GitRepo) CommitSubjectsSince(target string) ([]string, error) {
	m.trackCall("CommitSubjectsSince", map[string]any{
		"target": target,
	})
	return m.CommitSubjectsResponse, m.CommitSubjectsError
}
