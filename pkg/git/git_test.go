package git_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitpr-dev/gitpr/pkg/git"
)

// initTestRepo creates a git repository with an origin remote and one
// initial commit.
func initTestRepo(t *testing.T, path string) *gogit.Repository {
	t.Helper()

	repo, err := gogit.PlainInit(path, false)
	require.NoError(t, err)

	_, err = repo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"https://github.com/test/test.git"},
	})
	require.NoError(t, err)

	commit(t, repo, "initial commit")
	return repo
}

func commit(t *testing.T, repo *gogit.Repository, message string) plumbing.Hash {
	t.Helper()

	worktree, err := repo.Worktree()
	require.NoError(t, err)

	hash, err := worktree.Commit(message, &gogit.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  "tester",
			Email: "tester@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash
}

func setRemoteRef(t *testing.T, repo *gogit.Repository, branch string, hash plumbing.Hash) {
	t.Helper()

	ref := plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", branch), hash)
	require.NoError(t, repo.Storer.SetReference(ref))
}

func TestOpenRepository(t *testing.T) {
	t.Run("from root", func(t *testing.T) {
		tmpDir := t.TempDir()
		initTestRepo(t, tmpDir)

		repo, err := git.OpenRepository(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, repo)
	})

	t.Run("from nested subdirectory", func(t *testing.T) {
		tmpDir := t.TempDir()
		initTestRepo(t, tmpDir)

		nested := filepath.Join(tmpDir, "a", "b", "c")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		repo, err := git.OpenRepository(nested)
		require.NoError(t, err)
		require.NotNil(t, repo)
	})

	t.Run("not a repository", func(t *testing.T) {
		_, err := git.OpenRepository(t.TempDir())
		require.ErrorIs(t, err, git.ErrNotARepository)
	})
}

func TestCurrentBranch(t *testing.T) {
	tmpDir := t.TempDir()
	initTestRepo(t, tmpDir)

	repo, err := git.OpenRepository(tmpDir)
	require.NoError(t, err)

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestRemoteURL(t *testing.T) {
	t.Run("with origin", func(t *testing.T) {
		tmpDir := t.TempDir()
		initTestRepo(t, tmpDir)

		repo, err := git.OpenRepository(tmpDir)
		require.NoError(t, err)

		url, err := repo.RemoteURL()
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/test/test.git", url)
	})

	t.Run("without origin", func(t *testing.T) {
		tmpDir := t.TempDir()
		_, err := gogit.PlainInit(tmpDir, false)
		require.NoError(t, err)

		repo, err := git.OpenRepository(tmpDir)
		require.NoError(t, err)

		_, err = repo.RemoteURL()
		require.ErrorIs(t, err, git.ErrNoRemote)
	})
}

func TestBranchState(t *testing.T) {
	t.Run("never pushed", func(t *testing.T) {
		tmpDir := t.TempDir()
		initTestRepo(t, tmpDir)

		repo, err := git.OpenRepository(tmpDir)
		require.NoError(t, err)

		state, err := repo.BranchState()
		require.NoError(t, err)
		assert.Equal(t, "master", state.Branch)
		assert.Empty(t, state.Upstream)
		assert.Zero(t, state.Ahead)
		assert.Zero(t, state.Behind)
		assert.False(t, state.Dirty)
	})

	t.Run("in sync with upstream", func(t *testing.T) {
		tmpDir := t.TempDir()
		raw := initTestRepo(t, tmpDir)

		head, err := raw.Head()
		require.NoError(t, err)
		setRemoteRef(t, raw, "master", head.Hash())

		repo, err := git.OpenRepository(tmpDir)
		require.NoError(t, err)

		state, err := repo.BranchState()
		require.NoError(t, err)
		assert.Equal(t, "origin/master", state.Upstream)
		assert.Zero(t, state.Ahead)
		assert.Zero(t, state.Behind)
	})

	t.Run("ahead of upstream", func(t *testing.T) {
		tmpDir := t.TempDir()
		raw := initTestRepo(t, tmpDir)

		head, err := raw.Head()
		require.NoError(t, err)
		setRemoteRef(t, raw, "master", head.Hash())

		commit(t, raw, "second commit")
		commit(t, raw, "third commit")

		repo, err := git.OpenRepository(tmpDir)
		require.NoError(t, err)

		state, err := repo.BranchState()
		require.NoError(t, err)
		assert.Equal(t, 2, state.Ahead)
		assert.Zero(t, state.Behind)
	})

	t.Run("behind upstream", func(t *testing.T) {
		tmpDir := t.TempDir()
		raw := initTestRepo(t, tmpDir)

		first, err := raw.Head()
		require.NoError(t, err)
		firstHash := first.Hash()

		newer := commit(t, raw, "remote-only commit")
		setRemoteRef(t, raw, "master", newer)

		// Rewind the local branch to the first commit.
		worktree, err := raw.Worktree()
		require.NoError(t, err)
		require.NoError(t, worktree.Reset(&gogit.ResetOptions{
			Commit: firstHash,
			Mode:   gogit.HardReset,
		}))

		repo, err := git.OpenRepository(tmpDir)
		require.NoError(t, err)

		state, err := repo.BranchState()
		require.NoError(t, err)
		assert.Zero(t, state.Ahead)
		assert.Equal(t, 1, state.Behind)
	})

	t.Run("untracked file marks the tree dirty", func(t *testing.T) {
		tmpDir := t.TempDir()
		initTestRepo(t, tmpDir)

		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "scratch.txt"), []byte("wip"), 0o644))

		repo, err := git.OpenRepository(tmpDir)
		require.NoError(t, err)

		state, err := repo.BranchState()
		require.NoError(t, err)
		assert.True(t, state.Dirty)
	})
}

func TestCommitSubjectsSince(t *testing.T) {
	tmpDir := t.TempDir()
	raw := initTestRepo(t, tmpDir)

	head, err := raw.Head()
	require.NoError(t, err)
	setRemoteRef(t, raw, "master", head.Hash())

	worktree, err := raw.Worktree()
	require.NoError(t, err)
	require.NoError(t, worktree.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	}))

	commit(t, raw, "add parser\n\nlong body that is not part of the subject")
	commit(t, raw, "fix tests")

	repo, err := git.OpenRepository(tmpDir)
	require.NoError(t, err)

	subjects, err := repo.CommitSubjectsSince("master")
	require.NoError(t, err)
	assert.Equal(t, []string{"add parser", "fix tests"}, subjects)
}

func TestCheckoutAndDeleteLocalBranch(t *testing.T) {
	tmpDir := t.TempDir()
	raw := initTestRepo(t, tmpDir)

	worktree, err := raw.Worktree()
	require.NoError(t, err)
	require.NoError(t, worktree.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	}))

	repo, err := git.OpenRepository(tmpDir)
	require.NoError(t, err)

	require.NoError(t, repo.Checkout("master"))
	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)

	require.NoError(t, repo.DeleteLocalBranch("feature"))
	_, err = raw.Reference(plumbing.NewBranchReferenceName("feature"), true)
	require.Error(t, err)
}

func TestDefaultBranchFallback(t *testing.T) {
	// Listing refs against the unreachable remote fails, so the fallback
	// to a local main or master branch applies.
	tmpDir := t.TempDir()
	raw, err := gogit.PlainInit(tmpDir, false)
	require.NoError(t, err)
	_, err = raw.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{"file://" + filepath.Join(t.TempDir(), "missing.git")},
	})
	require.NoError(t, err)
	commit(t, raw, "initial commit")

	repo, err := git.OpenRepository(tmpDir)
	require.NoError(t, err)

	branch, err := repo.DefaultBranch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}
