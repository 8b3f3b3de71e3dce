package wandb

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"tracegate/internal/auth"
	"tracegate/internal/config"
	"tracegate/pkg/logging"
)

// EnvAPIKey is the fallback credential source for deployments where no
// per-request key is bound (stdio transport, local testing).
const EnvAPIKey = "WANDB_API_KEY"

const defaultRequestTimeout = 60 * time.Second

// Client talks to the W&B platform: the GraphQL API for runs, projects and
// reports, the trace server for Weave calls, and the support bot.
//
// The client holds no credential of its own. Every call resolves the API
// key from the request context at call time, so one client instance safely
// serves many concurrently authenticated requests.
type Client struct {
	httpClient *http.Client
	gqlURL     string
	traceURL   string
	wandbotURL string
}

// NewClient creates a platform client from configuration.
func NewClient(cfg config.WandBConfig, bot config.WandbotConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		gqlURL:     cfg.GraphQLURL,
		traceURL:   cfg.TraceServerURL,
		wandbotURL: bot.BaseURL,
	}
}

// apiKey resolves the credential for the current request. The context
// binding placed by the auth middleware wins; the environment variable is
// the fallback for stdio mode.
func (c *Client) apiKey(ctx context.Context) (string, error) {
	if key, ok := auth.APIKeyFromContext(ctx); ok {
		return key, nil
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no W&B API key available: authenticate the request or set %s", EnvAPIKey)
}

// postJSON sends a JSON body with basic auth and returns the response. The
// basicUser is "api" for the GraphQL API and empty for the trace server,
// matching what each endpoint expects.
func (c *Client) postJSON(ctx context.Context, url, basicUser string, body any) (*http.Response, error) {
	key, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+
		base64.StdEncoding.EncodeToString([]byte(basicUser+":"+key)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", url, err)
	}
	return resp, nil
}

// drainAndClose reads any remainder and closes the body so the connection
// can be reused.
func drainAndClose(body io.ReadCloser) {
	if _, err := io.Copy(io.Discard, io.LimitReader(body, 4096)); err != nil {
		logging.Debug("WandB", "Draining response body: %v", err)
	}
	body.Close()
}

// errorFromResponse turns a non-2xx response into an error carrying the
// status and a bounded amount of body text.
func errorFromResponse(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("upstream returned %s: %s", resp.Status, string(snippet))
}
