// Package git inspects and manipulates the local repository. It is the
// source of truth for the preconditions the command layer enforces before
// talking to a hosting provider.
package git

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const defaultRemote = "origin"

var (
	ErrNotARepository = errors.New("not a git repository")
	ErrDetachedHead   = errors.New("HEAD is not pointing to a branch")
	ErrNoRemote       = errors.New("no remote configured")
)

// BranchState is a snapshot of the current branch relative to its
// upstream. Upstream is empty when the branch has never been pushed.
// Ahead and Behind are zero when there is no upstream.
type BranchState struct {
	Branch   string
	Upstream string
	Ahead    int
	Behind   int
	Dirty    bool
}

// Repository wraps a local git repository.
type Repository struct {
	repo *git.Repository
}

// OpenRepository opens the repository containing path, walking up parent
// directories the way the git CLI does.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
		}
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &Repository{repo: repo}, nil
}

// Clone clones url into path.
func Clone(url, path string) error {
	if _, err := git.PlainClone(path, false, &git.CloneOptions{URL: url}); err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	return nil
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// RemoteURL returns the first URL of the origin remote.
func (r *Repository) RemoteURL() (string, error) {
	remote, err := r.repo.Remote(defaultRemote)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoRemote, defaultRemote)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: remote %s has no URL", ErrNoRemote, defaultRemote)
	}
	return urls[0], nil
}

// BranchState snapshots the current branch: its upstream, how far it has
// diverged from it, and whether the working tree is dirty.
func (r *Repository) BranchState() (BranchState, error) {
	branch, err := r.CurrentBranch()
	if err != nil {
		return BranchState{}, err
	}

	state := BranchState{Branch: branch}

	dirty, err := r.isDirty()
	if err != nil {
		return BranchState{}, err
	}
	state.Dirty = dirty

	remoteRef, err := r.repo.Reference(plumbing.NewRemoteReferenceName(defaultRemote, branch), true)
	if err != nil {
		// No remote-tracking ref means the branch was never pushed.
		return state, nil
	}
	state.Upstream = defaultRemote + "/" + branch

	head, err := r.repo.Head()
	if err != nil {
		return BranchState{}, fmt.Errorf("failed to get HEAD reference: %w", err)
	}

	ahead, behind, err := r.divergence(head.Hash(), remoteRef.Hash())
	if err != nil {
		return BranchState{}, err
	}
	state.Ahead = ahead
	state.Behind = behind
	return state, nil
}

func (r *Repository) isDirty() (bool, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get repository status: %w", err)
	}
	for _, fileStatus := range status {
		if fileStatus.Worktree != git.Unmodified || fileStatus.Staging != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

// divergence counts commits reachable from local but not remote (ahead)
// and from remote but not local (behind).
func (r *Repository) divergence(local, remote plumbing.Hash) (ahead, behind int, err error) {
	if local == remote {
		return 0, 0, nil
	}

	localCommit, err := r.repo.CommitObject(local)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve local commit: %w", err)
	}
	remoteCommit, err := r.repo.CommitObject(remote)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve remote commit: %w", err)
	}

	bases, err := localCommit.MergeBase(remoteCommit)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute merge base: %w", err)
	}

	var stop []plumbing.Hash
	for _, base := range bases {
		stop = append(stop, base.Hash)
	}

	ahead, err = countCommits(localCommit, stop)
	if err != nil {
		return 0, 0, err
	}
	behind, err = countCommits(remoteCommit, stop)
	if err != nil {
		return 0, 0, err
	}
	return ahead, behind, nil
}

func countCommits(from *object.Commit, stop []plumbing.Hash) (int, error) {
	count := 0
	iter := object.NewCommitPreorderIter(from, nil, stop)
	err := iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to walk commits: %w", err)
	}
	return count, nil
}

// Push pushes the branch to origin. force rewrites the remote ref even
// when the push is not a fast-forward. On success the branch's tracking
// configuration is recorded so later state snapshots see the upstream.
func (r *Repository) Push(branchName string, force bool) error {
	refSpec := fmt.Sprintf("refs/heads/%s:refs/heads/%s", branchName, branchName)
	if force {
		refSpec = "+" + refSpec
	}

	err := r.repo.Push(&git.PushOptions{
		RemoteName: defaultRemote,
		RefSpecs:   []config.RefSpec{config.RefSpec(refSpec)},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push branch %s: %w", branchName, err)
	}

	if err := r.setUpstream(branchName); err != nil {
		return err
	}
	return nil
}

func (r *Repository) setUpstream(branchName string) error {
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read repository config: %w", err)
	}
	if _, ok := cfg.Branches[branchName]; ok {
		return nil
	}
	cfg.Branches[branchName] = &config.Branch{
		Name:   branchName,
		Remote: defaultRemote,
		Merge:  plumbing.NewBranchReferenceName(branchName),
	}
	if err := r.repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to record upstream for %s: %w", branchName, err)
	}
	return nil
}

// Checkout switches the worktree to the given branch.
func (r *Repository) Checkout(branchName string) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	return worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branchName),
	})
}

// Pull fast-forwards the current branch from origin.
func (r *Repository) Pull() error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	err = worktree.Pull(&git.PullOptions{RemoteName: defaultRemote})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull: %w", err)
	}
	return nil
}

// DeleteLocalBranch removes the local branch ref.
func (r *Repository) DeleteLocalBranch(branchName string) error {
	return r.repo.Storer.RemoveReference(plumbing.NewBranchReferenceName(branchName))
}

// DefaultBranch determines the remote's default branch from its HEAD
// symref, falling back to main or master when the remote does not
// advertise one.
func (r *Repository) DefaultBranch() (string, error) {
	remote, err := r.repo.Remote(defaultRemote)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoRemote, defaultRemote)
	}

	refs, err := remote.List(&git.ListOptions{})
	if err == nil {
		for _, ref := range refs {
			if ref.Name() == plumbing.HEAD && ref.Target().IsBranch() {
				return ref.Target().Short(), nil
			}
		}
	}

	for _, name := range []string{"main", "master"} {
		if _, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true); err == nil {
			return name, nil
		}
	}

	return "", fmt.Errorf("could not determine default branch")
}

// CommitSubjectsSince returns the subject lines of the commits on the
// current branch that are not on target, oldest first. Used to draft a
// pull-request description from the branch's history.
func (r *Repository) CommitSubjectsSince(target string) ([]string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}

	targetRef, err := r.repo.Reference(plumbing.NewRemoteReferenceName(defaultRemote, target), true)
	if err != nil {
		targetRef, err = r.repo.Reference(plumbing.NewBranchReferenceName(target), true)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve target branch %s: %w", target, err)
		}
	}

	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD commit: %w", err)
	}
	targetCommit, err := r.repo.CommitObject(targetRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve target commit: %w", err)
	}

	bases, err := headCommit.MergeBase(targetCommit)
	if err != nil {
		return nil, fmt.Errorf("failed to compute merge base: %w", err)
	}
	var stop []plumbing.Hash
	for _, base := range bases {
		stop = append(stop, base.Hash)
	}

	var subjects []string
	iter := object.NewCommitPreorderIter(headCommit, nil, stop)
	err = iter.ForEach(func(commit *object.Commit) error {
		subject, _, _ := strings.Cut(commit.Message, "\n")
		subjects = append(subjects, strings.TrimSpace(subject))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk commits: %w", err)
	}

	// Newest first from the walk; callers want chronological order.
	for i, j := 0, len(subjects)-1; i < j; i, j = i+1, j-1 {
		subjects[i], subjects[j] = subjects[j], subjects[i]
	}
	return subjects, nil
}
