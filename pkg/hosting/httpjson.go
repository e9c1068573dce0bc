package hosting

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/gitpr-dev/gitpr/internal/logger"
)

// maxRetries bounds transparent retries of transport failures and
// retryable statuses (429, 5xx) before the error is surfaced.
const maxRetries = 2

// maxErrorBody caps how much of an error response body is kept for the
// error message.
const maxErrorBody = 512

// restClient is the shared JSON-over-HTTP transport for the adapters that
// talk to their provider's REST API directly (Bitbucket, Gitea). It owns
// retry, status classification and body decoding; adapters only describe
// endpoints and payload shapes.
type restClient struct {
	base     string
	provider Provider
	http     *retryablehttp.Client
	auth     func(req *http.Request)
	log      logger.Logger
}

func newRESTClient(base string, provider Provider, auth func(req *http.Request), log logger.Logger) *restClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = maxRetries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = nil
	// Hand the final response back once retries are exhausted so a
	// persistent 429 or 5xx is classified by status, not reported as a
	// transport failure.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &restClient{
		base:     base,
		provider: provider,
		http:     rc,
		auth:     auth,
		log:      log,
	}
}

// get issues a GET and decodes the response into out.
func (c *restClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do issues one request against the API. path may be absolute (pagination
// cursors return full URLs) or relative to the base. body, when non-nil,
// is JSON-encoded; out, when non-nil, receives the decoded response. An
// empty response body leaves out untouched.
func (c *restClient) do(ctx context.Context, method, path string, body, out any) error {
	u := path
	if len(path) == 0 || path[0] == '/' {
		u = c.base + path
	}

	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth(req.Request)

	c.log.Debugf("%s %s", method, u)
	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		return networkError(c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(c.provider, resp.StatusCode, errorMessage(raw))
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(c.provider, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformedError(c.provider, err)
	}
	return nil
}

// errorMessage extracts a human-readable message from a provider error
// body. It understands the Bitbucket error envelope and the flat
// "message" field used by Gitea; anything else falls back to the raw
// body text.
func errorMessage(raw []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return string(bytes.TrimSpace(raw))
}
