// Package actions orchestrates pull-request operations: it checks the
// state of the local branch before any provider call, pushes when the
// operation implies it, and cleans up local branches after a merge.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gitpr-dev/gitpr/internal/logger"
	"github.com/gitpr-dev/gitpr/pkg/git"
	"github.com/gitpr-dev/gitpr/pkg/hosting"
)

var (
	ErrTitleRequired    = errors.New("a title is required to create a pull request")
	ErrBranchNotPushed  = errors.New("branch has commits that are not pushed")
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")
	ErrBehindRemote     = errors.New("branch is behind its upstream, pull first or use --force")
	ErrNoPullRequest    = errors.New("no pull request found for this branch")
)

// GitRepo is the slice of the local repository the runner needs.
type GitRepo interface {
	BranchState() (git.BranchState, error)
	CurrentBranch() (string, error)
	Push(branch string, force bool) error
	Checkout(branch string) error
	Pull() error
	DeleteLocalBranch(branch string) error
	CommitSubjectsSince(target string) ([]string, error)
}

// DefaultBranchCache stores default branches between runs so most
// commands avoid one provider round trip. Entries are keyed by host and
// owner/repo pair.
type DefaultBranchCache interface {
	DefaultBranch(host, repo string) string
	RememberDefaultBranch(host, repo, branch string) error
}

// Runner executes pull-request operations against one repository and its
// hosting provider.
type Runner struct {
	repo   GitRepo
	client hosting.Client
	remote hosting.Remote
	cache  DefaultBranchCache
	log    logger.Logger
}

// NewRunner creates a runner bound to a local repository and its remote.
func NewRunner(repo GitRepo, client hosting.Client, remote hosting.Remote, cache DefaultBranchCache, log logger.Logger) *Runner {
	return &Runner{
		repo:   repo,
		client: client,
		remote: remote,
		cache:  cache,
		log:    log,
	}
}

// CreateOptions holds the parameters for Create.
type CreateOptions struct {
	Title             string
	Description       string
	TargetBranch      string
	Reviewers         []string
	CloseSourceBranch bool

	// Merge continues into a merge of the new pull request.
	Merge    bool
	Delete   bool
	Strategy hosting.MergeStrategy
	Force    bool
}

// Create opens a pull request for the current branch. A branch that was
// never pushed, or has local commits on top of its upstream, is pushed
// exactly once before the provider call. An empty description is drafted
// from the branch's commit subjects; an empty target falls back to the
// cached default branch, then to the provider's.
func (r *Runner) Create(ctx context.Context, opts CreateOptions) (*hosting.PullRequest, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return nil, ErrTitleRequired
	}

	state, err := r.repo.BranchState()
	if err != nil {
		return nil, err
	}

	if state.Upstream == "" || state.Ahead > 0 {
		r.log.Infof("Pushing %s to origin", state.Branch)
		if err := r.repo.Push(state.Branch, opts.Force); err != nil {
			return nil, err
		}
	}

	target := opts.TargetBranch
	if target == "" {
		target, err = r.defaultBranch(ctx)
		if err != nil {
			return nil, err
		}
	}

	description := opts.Description
	if description == "" {
		description = r.draftDescription(target)
	}

	pr, err := r.client.CreatePullRequest(ctx, hosting.CreatePullRequest{
		Title:             opts.Title,
		Description:       description,
		SourceBranch:      state.Branch,
		TargetBranch:      target,
		Reviewers:         opts.Reviewers,
		CloseSourceBranch: opts.CloseSourceBranch,
	})
	if err != nil {
		return nil, err
	}
	r.log.Infof("Created pull request %s", pr.URL)

	if opts.Merge {
		if err := r.mergeByID(ctx, pr, MergeOptions{
			Strategy: opts.Strategy,
			Delete:   opts.Delete,
			Force:    opts.Force,
		}); err != nil {
			return pr, err
		}
	}
	return pr, nil
}

// defaultBranch resolves the target branch for a new pull request: cached
// value first, then the provider. A fresh lookup is cached best effort.
func (r *Runner) defaultBranch(ctx context.Context) (string, error) {
	if branch := r.cache.DefaultBranch(r.remote.Host, r.remote.FullName()); branch != "" {
		return branch, nil
	}

	repo, err := r.client.GetRepository(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to determine default branch: %w", err)
	}
	if repo.DefaultBranch == "" {
		return "", fmt.Errorf("provider reported no default branch for %s", r.remote.FullName())
	}

	if err := r.cache.RememberDefaultBranch(r.remote.Host, r.remote.FullName(), repo.DefaultBranch); err != nil {
		r.log.Warnf("failed to cache default branch: %v", err)
	}
	return repo.DefaultBranch, nil
}

func (r *Runner) draftDescription(target string) string {
	subjects, err := r.repo.CommitSubjectsSince(target)
	if err != nil {
		r.log.Debugf("failed to collect commit subjects: %v", err)
		return ""
	}
	if len(subjects) == 0 {
		return ""
	}
	lines := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		lines = append(lines, "- "+subject)
	}
	return strings.Join(lines, "\n")
}

// Get returns the pull request for source (the current branch when
// empty), or nil when none exists.
func (r *Runner) Get(ctx context.Context, source, target string) (*hosting.PullRequest, error) {
	if source == "" {
		branch, err := r.repo.CurrentBranch()
		if err != nil {
			return nil, err
		}
		source = branch
	}
	return r.client.GetPullRequest(ctx, source, target)
}

// List returns the repository's pull requests matching the filters.
func (r *Runner) List(ctx context.Context, filters hosting.ListFilters) ([]hosting.PullRequest, error) {
	return r.client.ListPullRequests(ctx, filters)
}

// Approve approves the pull request for the current branch. The local
// branch must be pushed and have no commits on top of its upstream, so
// the approval covers what the reviewer actually sees.
func (r *Runner) Approve(ctx context.Context) (*hosting.PullRequest, error) {
	state, err := r.repo.BranchState()
	if err != nil {
		return nil, err
	}
	if state.Upstream == "" || state.Ahead > 0 {
		return nil, ErrBranchNotPushed
	}

	pr, err := r.findOpen(ctx, state.Branch)
	if err != nil {
		return nil, err
	}
	if err := r.client.ApprovePullRequest(ctx, pr.ID); err != nil {
		return nil, err
	}
	r.log.Infof("Approved pull request #%d", pr.ID)
	return pr, nil
}

// MergeOptions holds the parameters for Merge.
type MergeOptions struct {
	Strategy hosting.MergeStrategy
	Delete   bool
	Force    bool
}

// Merge merges the pull request for the current branch. Without Force the
// branch must be pushed, clean and not behind its upstream; with Force
// the checks are skipped and the branch is force-pushed first so the
// merged result matches the local state.
func (r *Runner) Merge(ctx context.Context, opts MergeOptions) (*hosting.PullRequest, error) {
	state, err := r.repo.BranchState()
	if err != nil {
		return nil, err
	}

	if opts.Force {
		r.log.Infof("Force pushing %s to origin", state.Branch)
		if err := r.repo.Push(state.Branch, true); err != nil {
			return nil, err
		}
	} else {
		if state.Upstream == "" || state.Ahead > 0 {
			return nil, ErrBranchNotPushed
		}
		if state.Dirty {
			return nil, ErrDirtyWorkingTree
		}
		if state.Behind > 0 {
			return nil, ErrBehindRemote
		}
	}

	pr, err := r.findOpen(ctx, state.Branch)
	if err != nil {
		return nil, err
	}
	if err := r.mergeByID(ctx, pr, opts); err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *Runner) mergeByID(ctx context.Context, pr *hosting.PullRequest, opts MergeOptions) error {
	if err := r.client.MergePullRequest(ctx, pr.ID, opts.Strategy); err != nil {
		return err
	}
	r.log.Infof("Merged pull request #%d", pr.ID)

	if opts.Delete {
		r.cleanupLocalBranch(pr)
	}
	return nil
}

// cleanupLocalBranch switches back to the target branch, updates it and
// deletes the local branch of a merged or declined pull request. All of
// it is best effort: the remote operation already happened, so failures
// only warn.
func (r *Runner) cleanupLocalBranch(pr *hosting.PullRequest) {
	current, err := r.repo.CurrentBranch()
	if err != nil || current != pr.SourceBranch {
		return
	}

	if err := r.repo.Checkout(pr.TargetBranch); err != nil {
		r.log.Warnf("failed to switch to %s: %v", pr.TargetBranch, err)
		return
	}
	if err := r.repo.Pull(); err != nil {
		r.log.Warnf("failed to update %s: %v", pr.TargetBranch, err)
	}
	if err := r.repo.DeleteLocalBranch(pr.SourceBranch); err != nil {
		r.log.Warnf("failed to delete local branch %s: %v", pr.SourceBranch, err)
		return
	}
	r.log.Infof("Deleted local branch %s", pr.SourceBranch)
}

// DeclineOptions control what happens around the decline itself.
type DeclineOptions struct {
	Delete bool
}

// Decline closes the pull request for the current branch without merging.
// The same push preconditions as Approve apply: declining should act on
// the pull request as the provider sees it.
func (r *Runner) Decline(ctx context.Context, opts DeclineOptions) (*hosting.PullRequest, error) {
	state, err := r.repo.BranchState()
	if err != nil {
		return nil, err
	}
	if state.Upstream == "" || state.Ahead > 0 {
		return nil, ErrBranchNotPushed
	}

	pr, err := r.findOpen(ctx, state.Branch)
	if err != nil {
		return nil, err
	}

	declined, err := r.client.DeclinePullRequest(ctx, pr.ID)
	if err != nil {
		return nil, err
	}
	r.log.Infof("Declined pull request #%d", pr.ID)

	if opts.Delete {
		r.cleanupLocalBranch(pr)
	}
	return declined, nil
}

func (r *Runner) findOpen(ctx context.Context, branch string) (*hosting.PullRequest, error) {
	pr, err := r.client.GetPullRequest(ctx, branch, "")
	if err != nil {
		return nil, err
	}
	if pr == nil || pr.State != hosting.StateOpen {
		return nil, fmt.Errorf("%w: %s", ErrNoPullRequest, branch)
	}
	return pr, nil
}
