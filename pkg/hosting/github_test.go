package hosting

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-github/v69/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitpr-dev/gitpr/internal/logger"
)

func testGitHubClient(t *testing.T, handler http.Handler) *githubClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	remote := Remote{Host: "github.com", Owner: "owner", Repo: "repo", Provider: ProviderGitHub}
	client, err := newGitHubClient(remote, Credential{Token: "token"}, logger.NoLogger())
	require.NoError(t, err)

	gh, err := github.NewClient(nil).WithEnterpriseURLs(srv.URL+"/", srv.URL+"/")
	require.NoError(t, err)
	client.gh = gh
	return client
}

func TestGitHubGetPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/owner/repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "owner:feature", r.URL.Query().Get("head"))
		fmt.Fprint(w, `[
			{"number":11,"state":"closed","merged_at":"2025-03-04T10:00:00Z",
			 "head":{"ref":"feature"},"base":{"ref":"main"},
			 "updated_at":"2025-03-04T10:00:00Z"},
			{"number":12,"state":"open",
			 "head":{"ref":"feature"},"base":{"ref":"main"},
			 "user":{"login":"octocat"},
			 "html_url":"https://github.com/owner/repo/pull/12",
			 "updated_at":"2025-03-01T10:00:00Z"}
		]`)
	})
	mux.HandleFunc("/api/v3/repos/owner/repo/pulls/12/reviews", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"state":"COMMENTED"},{"state":"APPROVED"}]`)
	})

	client := testGitHubClient(t, mux)
	pr, err := client.GetPullRequest(context.Background(), "feature", "")
	require.NoError(t, err)
	require.NotNil(t, pr)
	assert.Equal(t, int64(12), pr.ID, "open pull request wins over a newer merged one")
	assert.Equal(t, StateOpen, pr.State)
	assert.Equal(t, "octocat", pr.Author)
	assert.True(t, pr.Approved)
}

func TestGitHubListStateMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/owner/repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "closed", r.URL.Query().Get("state"))
		fmt.Fprint(w, `[
			{"number":1,"state":"closed","merged_at":"2025-03-01T10:00:00Z","head":{"ref":"a"},"base":{"ref":"main"}},
			{"number":2,"state":"closed","head":{"ref":"b"},"base":{"ref":"main"}}
		]`)
	})

	client := testGitHubClient(t, mux)

	t.Run("merged", func(t *testing.T) {
		prs, err := client.ListPullRequests(context.Background(), ListFilters{State: FilterMerged})
		require.NoError(t, err)
		require.Len(t, prs, 1)
		assert.Equal(t, StateMerged, prs[0].State)
	})

	t.Run("closed means declined", func(t *testing.T) {
		prs, err := client.ListPullRequests(context.Background(), ListFilters{State: FilterClosed})
		require.NoError(t, err)
		require.Len(t, prs, 1)
		assert.Equal(t, int64(2), prs[0].ID)
	})
}

func TestGitHubErrorMapping(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		})

		client := testGitHubClient(t, mux)
		_, err := client.GetRepository(context.Background())
		require.Error(t, err)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("rate limit", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", "1893456000")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message":"API rate limit exceeded"}`)
		})

		client := testGitHubClient(t, mux)
		_, err := client.GetRepository(context.Background())
		require.Error(t, err)
		assert.True(t, IsKind(err, KindRateLimited))
	})

	t.Run("merge conflict", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v3/repos/owner/repo/pulls/5/merge", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusMethodNotAllowed)
			fmt.Fprint(w, `{"message":"Pull Request is not mergeable"}`)
		})

		client := testGitHubClient(t, mux)
		err := client.MergePullRequest(context.Background(), 5, MergeStrategyMerge)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConflict))
	})
}

func TestGitHubForkAccepted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/owner/repo/forks", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"name":"repo","owner":{"login":"alice"},"default_branch":"main"}`)
	})

	client := testGitHubClient(t, mux)
	repo, err := client.ForkRepository(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "alice/repo", repo.FullName())
}

func TestGitHubDecline(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/owner/repo/pulls/5", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		fmt.Fprint(w, `{"number":5,"state":"closed","head":{"ref":"feature"},"base":{"ref":"main"}}`)
	})

	client := testGitHubClient(t, mux)
	pr, err := client.DeclinePullRequest(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, StateDeclined, pr.State)
}
