// Package config handles loading and saving of per-host user configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNotLoggedIn is returned when no token is stored for a host.
var ErrNotLoggedIn = errors.New("not logged in to this host, run `gitpr login` first")

const configFileMode = 0o600

// HostConfig is the stored configuration for one host. Type overrides
// provider detection for hosts whose name does not identify the product.
// DefaultBranches caches default branches per repository (keyed by
// owner/repo) once they have been looked up.
type HostConfig struct {
	Type            string            `yaml:"type,omitempty"`
	Token           string            `yaml:"token"`
	DefaultBranches map[string]string `yaml:"default_branches,omitempty"`
}

// Config is the full configuration file, keyed by host name.
type Config struct {
	Hosts map[string]HostConfig `yaml:"hosts"`

	path string
}

// Path returns the default configuration file location.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "gitpr", "config.yml"), nil
}

// Load reads the configuration file. A missing file yields an empty
// configuration so first-run commands can prompt for login.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{Hosts: map[string]HostConfig{}, path: path}

	// #nosec G304 - Reading config from user's home directory is intentional
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.Hosts == nil {
		cfg.Hosts = map[string]HostConfig{}
	}
	return cfg, nil
}

// Save writes the configuration back to the path it was loaded from. The
// file is created user-readable only since it holds tokens.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, configFileMode); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Token returns the stored token for host.
func (c *Config) Token(host string) (string, error) {
	hc, ok := c.Hosts[host]
	if !ok || hc.Token == "" {
		return "", fmt.Errorf("%w: %s", ErrNotLoggedIn, host)
	}
	return hc.Token, nil
}

// HostType returns the configured provider type for host, empty when the
// host should be auto-detected.
func (c *Config) HostType(host string) string {
	return c.Hosts[host].Type
}

// SetHost stores the credentials and type for host.
func (c *Config) SetHost(host, hostType, token string) {
	hc := c.Hosts[host]
	hc.Type = hostType
	hc.Token = token
	c.Hosts[host] = hc
}

// DefaultBranch returns the cached default branch for the repository,
// empty when it has not been cached yet. repo is the owner/repo pair; two
// repositories on one host keep separate entries.
func (c *Config) DefaultBranch(host, repo string) string {
	return c.Hosts[host].DefaultBranches[repo]
}

// RememberDefaultBranch caches the default branch for the repository and
// persists the configuration.
func (c *Config) RememberDefaultBranch(host, repo, branch string) error {
	hc := c.Hosts[host]
	if hc.DefaultBranches[repo] == branch {
		return nil
	}
	if hc.DefaultBranches == nil {
		hc.DefaultBranches = map[string]string{}
	}
	hc.DefaultBranches[repo] = branch
	c.Hosts[host] = hc
	return c.Save()
}
