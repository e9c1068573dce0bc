package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitpr-dev/gitpr/pkg/config"
)

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.yml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Hosts)

	_, err = cfg.Token("github.com")
	require.ErrorIs(t, err, config.ErrNotLoggedIn)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)

	cfg.SetHost("github.com", "github", "ghp_example")
	cfg.SetHost("code.example.com", "gitea", "secret")
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reloaded, err := config.LoadFrom(path)
	require.NoError(t, err)

	token, err := reloaded.Token("github.com")
	require.NoError(t, err)
	assert.Equal(t, "ghp_example", token)
	assert.Equal(t, "gitea", reloaded.HostType("code.example.com"))
	assert.Empty(t, reloaded.HostType("unknown.example.com"))
}

func TestRememberDefaultBranch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	cfg.SetHost("github.com", "github", "ghp_example")

	assert.Empty(t, cfg.DefaultBranch("github.com", "owner/repo"))
	require.NoError(t, cfg.RememberDefaultBranch("github.com", "owner/repo", "main"))
	require.NoError(t, cfg.RememberDefaultBranch("github.com", "owner/legacy", "master"))

	reloaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "main", reloaded.DefaultBranch("github.com", "owner/repo"))
	assert.Equal(t, "master", reloaded.DefaultBranch("github.com", "owner/legacy"),
		"repositories on one host keep separate entries")
	assert.Empty(t, reloaded.DefaultBranch("github.com", "owner/other"))

	token, err := reloaded.Token("github.com")
	require.NoError(t, err)
	assert.Equal(t, "ghp_example", token, "caching the branch keeps the token")
}

func TestMalformedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("hosts: [not a map"), 0o600))

	_, err := config.LoadFrom(path)
	require.Error(t, err)
}
