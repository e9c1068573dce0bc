package hosting

import (
	"fmt"
	"net/url"
	"strings"
)

// Resolve maps a git remote URL to a Remote. explicitType, when non-empty,
// is the provider type configured for the host ("github", "gitlab",
// "bitbucket", "gitea") and wins over host-name heuristics. Without an
// override, well-known hosts and hosts whose name contains a provider
// marker resolve automatically; anything else fails with
// ErrUnrecognizedHost.
func Resolve(remoteURL, explicitType string) (Remote, error) {
	host, owner, repo, err := ParseRemoteURL(remoteURL)
	if err != nil {
		return Remote{}, err
	}

	provider, err := resolveProvider(host, explicitType)
	if err != nil {
		return Remote{}, fmt.Errorf("%w: %s", err, host)
	}

	return Remote{Host: host, Owner: owner, Repo: repo, Provider: provider}, nil
}

// ResolveHost maps a bare host name to a provider, applying the same
// override and heuristics as Resolve. Used by commands that address a
// repository without a local checkout.
func ResolveHost(host, explicitType string) (Provider, error) {
	provider, err := resolveProvider(strings.ToLower(host), explicitType)
	if err != nil {
		return ProviderUnknown, fmt.Errorf("%w: %s", err, host)
	}
	return provider, nil
}

func resolveProvider(host, explicitType string) (Provider, error) {
	switch explicitType {
	case "github":
		if host == "github.com" {
			return ProviderGitHub, nil
		}
		return ProviderGitHubEnterprise, nil
	case "gitlab":
		if host == "gitlab.com" {
			return ProviderGitLabCloud, nil
		}
		return ProviderGitLabSelfHosted, nil
	case "bitbucket":
		return ProviderBitbucket, nil
	case "gitea":
		return ProviderGitea, nil
	case "":
	default:
		return ProviderUnknown, fmt.Errorf("unknown provider type %q", explicitType)
	}

	switch host {
	case "github.com":
		return ProviderGitHub, nil
	case "gitlab.com":
		return ProviderGitLabCloud, nil
	case "bitbucket.org":
		return ProviderBitbucket, nil
	}

	// Heuristic for self-hosted instances whose name advertises the
	// product, e.g. github.mycorp.example or gitlab.internal.
	switch {
	case strings.Contains(host, "github"):
		return ProviderGitHubEnterprise, nil
	case strings.Contains(host, "gitlab"):
		return ProviderGitLabSelfHosted, nil
	case strings.Contains(host, "gitea"):
		return ProviderGitea, nil
	}

	return ProviderUnknown, ErrUnrecognizedHost
}

// ParseRemoteURL extracts host, owner and repository name from a git remote
// URL. It accepts https, ssh and the scp-like "git@host:owner/repo.git"
// form. The owner may contain slashes (GitLab subgroups); the repository
// name is the last path segment with any ".git" suffix removed.
func ParseRemoteURL(remoteURL string) (host, owner, repo string, err error) {
	raw := strings.TrimSpace(remoteURL)
	if raw == "" {
		return "", "", "", fmt.Errorf("empty remote URL")
	}

	var hostPart, pathPart string
	switch {
	case strings.Contains(raw, "://"):
		u, perr := url.Parse(raw)
		if perr != nil {
			return "", "", "", fmt.Errorf("parse remote URL %q: %w", raw, perr)
		}
		hostPart = u.Hostname()
		pathPart = u.Path
	case strings.Contains(raw, "@") && strings.Contains(raw, ":"):
		// scp-like syntax: git@host:owner/repo.git
		after := raw[strings.Index(raw, "@")+1:]
		h, p, ok := strings.Cut(after, ":")
		if !ok {
			return "", "", "", fmt.Errorf("parse remote URL %q: missing path", raw)
		}
		hostPart = h
		pathPart = p
	default:
		return "", "", "", fmt.Errorf("parse remote URL %q: unsupported format", raw)
	}

	hostPart = strings.TrimSuffix(hostPart, ".")
	pathPart = strings.Trim(pathPart, "/")
	pathPart = strings.TrimSuffix(pathPart, ".git")
	if hostPart == "" || pathPart == "" {
		return "", "", "", fmt.Errorf("parse remote URL %q: missing host or path", raw)
	}

	idx := strings.LastIndex(pathPart, "/")
	if idx <= 0 || idx == len(pathPart)-1 {
		return "", "", "", fmt.Errorf("parse remote URL %q: expected owner/repo path", raw)
	}

	return strings.ToLower(hostPart), pathPart[:idx], pathPart[idx+1:], nil
}
