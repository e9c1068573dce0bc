package hosting

import (
	"fmt"

	"github.com/gitpr-dev/gitpr/internal/logger"
)

// NewClient returns the adapter for the remote's provider, authenticated
// with the given credential.
func NewClient(remote Remote, cred Credential, log logger.Logger) (Client, error) {
	switch remote.Provider {
	case ProviderGitHub, ProviderGitHubEnterprise:
		return newGitHubClient(remote, cred, log)
	case ProviderGitLabCloud, ProviderGitLabSelfHosted:
		return newGitLabClient(remote, cred, log)
	case ProviderBitbucket:
		return newBitbucketClient(remote, cred, log)
	case ProviderGitea:
		return newGiteaClient(remote, cred, log)
	default:
		return nil, fmt.Errorf("no client for provider %s", remote.Provider)
	}
}
