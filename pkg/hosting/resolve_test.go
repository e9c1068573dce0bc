package hosting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantHost  string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "https with .git suffix",
			url:       "https://github.com/owner/repo.git",
			wantHost:  "github.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:      "https without suffix",
			url:       "https://gitlab.com/owner/repo",
			wantHost:  "gitlab.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:      "scp-like ssh",
			url:       "git@github.com:owner/repo.git",
			wantHost:  "github.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:      "ssh scheme",
			url:       "ssh://git@bitbucket.org/workspace/repo.git",
			wantHost:  "bitbucket.org",
			wantOwner: "workspace",
			wantRepo:  "repo",
		},
		{
			name:      "gitlab subgroups keep full owner path",
			url:       "https://gitlab.com/group/subgroup/repo.git",
			wantHost:  "gitlab.com",
			wantOwner: "group/subgroup",
			wantRepo:  "repo",
		},
		{
			name:      "host is lowercased",
			url:       "https://GitHub.COM/owner/repo.git",
			wantHost:  "github.com",
			wantOwner: "owner",
			wantRepo:  "repo",
		},
		{
			name:    "empty",
			url:     "",
			wantErr: true,
		},
		{
			name:    "no path",
			url:     "https://github.com",
			wantErr: true,
		},
		{
			name:    "missing owner",
			url:     "https://github.com/repo",
			wantErr: true,
		},
		{
			name:    "local path",
			url:     "/srv/git/repo.git",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, owner, repo, err := ParseRemoteURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		explicitType string
		want         Provider
		wantFull     string
		wantErr      error
	}{
		{
			name: "github.com",
			url:  "https://github.com/owner/repo.git",
			want: ProviderGitHub,
		},
		{
			name: "gitlab.com",
			url:  "git@gitlab.com:owner/repo.git",
			want: ProviderGitLabCloud,
		},
		{
			name:     "bitbucket.org",
			url:      "https://bitbucket.org/workspace/repo.git",
			want:     ProviderBitbucket,
			wantFull: "workspace/repo",
		},
		{
			name: "host name marker github",
			url:  "https://github.mycorp.example/owner/repo.git",
			want: ProviderGitHubEnterprise,
		},
		{
			name: "host name marker gitlab",
			url:  "https://gitlab.internal/owner/repo.git",
			want: ProviderGitLabSelfHosted,
		},
		{
			name: "host name marker gitea",
			url:  "https://gitea.example.org/owner/repo.git",
			want: ProviderGitea,
		},
		{
			name:         "explicit type wins over heuristics",
			url:          "https://code.example.com/owner/repo.git",
			explicitType: "gitea",
			want:         ProviderGitea,
		},
		{
			name:         "explicit github off github.com is enterprise",
			url:          "https://code.example.com/owner/repo.git",
			explicitType: "github",
			want:         ProviderGitHubEnterprise,
		},
		{
			name:         "explicit github on github.com is cloud",
			url:          "https://github.com/owner/repo.git",
			explicitType: "github",
			want:         ProviderGitHub,
		},
		{
			name:         "explicit gitlab off gitlab.com is self-hosted",
			url:          "https://code.example.com/owner/repo.git",
			explicitType: "gitlab",
			want:         ProviderGitLabSelfHosted,
		},
		{
			name:    "unrecognized host without override",
			url:     "https://code.example.com/owner/repo.git",
			wantErr: ErrUnrecognizedHost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote, err := Resolve(tt.url, tt.explicitType)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, remote.Provider)
			wantFull := tt.wantFull
			if wantFull == "" {
				wantFull = "owner/repo"
			}
			assert.Equal(t, wantFull, remote.FullName())
		})
	}
}

func TestResolveHost(t *testing.T) {
	t.Run("known host", func(t *testing.T) {
		provider, err := ResolveHost("github.com", "")
		require.NoError(t, err)
		assert.Equal(t, ProviderGitHub, provider)
	})

	t.Run("explicit type", func(t *testing.T) {
		provider, err := ResolveHost("code.example.com", "bitbucket")
		require.NoError(t, err)
		assert.Equal(t, ProviderBitbucket, provider)
	})

	t.Run("unknown host", func(t *testing.T) {
		_, err := ResolveHost("code.example.com", "")
		require.ErrorIs(t, err, ErrUnrecognizedHost)
	})

	t.Run("bogus explicit type", func(t *testing.T) {
		_, err := ResolveHost("code.example.com", "subversion")
		require.Error(t, err)
	})
}
