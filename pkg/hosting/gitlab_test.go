package hosting

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/gitpr-dev/gitpr/internal/logger"
)

// gitlabRoutes dispatches on the escaped request path. The client encodes
// the project as a single path segment (owner%2Frepo), which ServeMux
// patterns cannot express.
type gitlabRoutes map[string]http.HandlerFunc

func (rt gitlabRoutes) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := rt[r.URL.EscapedPath()]; ok {
		h(w, r)
		return
	}
	http.NotFound(w, r)
}

func testGitLabClient(t *testing.T, handler http.Handler) *gitlabClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gl, err := gitlab.NewClient("token", gitlab.WithBaseURL(srv.URL))
	require.NoError(t, err)

	return &gitlabClient{
		gl:        gl,
		remote:    Remote{Host: "gitlab.com", Owner: "owner", Repo: "repo", Provider: ProviderGitLabCloud},
		projectID: "owner/repo",
		log:       logger.NoLogger(),
	}
}

func TestGitLabListPullRequests(t *testing.T) {
	routes := gitlabRoutes{
		"/api/v4/projects/owner%2Frepo/merge_requests": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "opened", r.URL.Query().Get("state"))
			assert.Equal(t, "updated_at", r.URL.Query().Get("order_by"))
			fmt.Fprint(w, `[
				{"iid":3,"title":"First","state":"opened",
				 "source_branch":"feature","target_branch":"main",
				 "author":{"username":"alice"},
				 "web_url":"https://gitlab.com/owner/repo/-/merge_requests/3"}
			]`)
		},
	}

	client := testGitLabClient(t, routes)
	prs, err := client.ListPullRequests(context.Background(), ListFilters{State: FilterOpen})
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, int64(3), prs[0].ID)
	assert.Equal(t, "feature", prs[0].SourceBranch)
	assert.Equal(t, "alice", prs[0].Author)
	assert.Equal(t, StateOpen, prs[0].State)
}

func TestGitLabGetPullRequest(t *testing.T) {
	routes := gitlabRoutes{
		"/api/v4/projects/owner%2Frepo/merge_requests": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "feature", r.URL.Query().Get("source_branch"))
			fmt.Fprint(w, `[
				{"iid":4,"state":"closed","source_branch":"feature","target_branch":"main","updated_at":"2025-03-05T10:00:00Z"},
				{"iid":5,"state":"opened","source_branch":"feature","target_branch":"main","updated_at":"2025-03-01T10:00:00Z"}
			]`)
		},
		"/api/v4/projects/owner%2Frepo/merge_requests/5/approvals": func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"approved_by":[{"user":{"username":"bob"}}]}`)
		},
	}

	client := testGitLabClient(t, routes)
	pr, err := client.GetPullRequest(context.Background(), "feature", "")
	require.NoError(t, err)
	require.NotNil(t, pr)
	assert.Equal(t, int64(5), pr.ID, "open merge request wins over a newer closed one")
	assert.True(t, pr.Approved)
}

func TestGitLabDeclinePullRequest(t *testing.T) {
	routes := gitlabRoutes{
		"/api/v4/projects/owner%2Frepo/merge_requests/5": func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)

			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Contains(t, string(raw), `"state_event":"close"`)

			fmt.Fprint(w, `{"iid":5,"state":"closed","source_branch":"feature","target_branch":"main"}`)
		},
	}

	client := testGitLabClient(t, routes)
	pr, err := client.DeclinePullRequest(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, StateDeclined, pr.State)
}

func TestGitLabMergeSquash(t *testing.T) {
	routes := gitlabRoutes{
		"/api/v4/projects/owner%2Frepo/merge_requests/5/merge": func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPut, r.Method)

			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Contains(t, string(raw), `"squash":true`)

			fmt.Fprint(w, `{"iid":5,"state":"merged"}`)
		},
	}

	client := testGitLabClient(t, routes)
	require.NoError(t, client.MergePullRequest(context.Background(), 5, MergeStrategySquash))
}

func TestGitLabErrorMapping(t *testing.T) {
	t.Run("404 with body", func(t *testing.T) {
		client := testGitLabClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"404 Project Not Found"}`)
		}))

		_, err := client.GetRepository(context.Background())
		require.Error(t, err)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("409", func(t *testing.T) {
		client := testGitLabClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"message":"branch cannot be merged"}`)
		}))

		err := client.MergePullRequest(context.Background(), 5, MergeStrategyMerge)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConflict))
	})
}

func TestGitLabProjectMapping(t *testing.T) {
	routes := gitlabRoutes{
		"/api/v4/projects/owner%2Frepo": func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"path":"repo","namespace":{"full_path":"owner"},
				"visibility":"private","default_branch":"main",
				"web_url":"https://gitlab.com/owner/repo",
				"http_url_to_repo":"https://gitlab.com/owner/repo.git"}`)
		},
	}

	client := testGitLabClient(t, routes)
	repo, err := client.GetRepository(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "owner/repo", repo.FullName())
	assert.True(t, repo.Private)
	assert.Equal(t, "main", repo.DefaultBranch)
}
