package config

import "fmt"

// Transport identifies how the gateway speaks MCP to its clients.
type Transport string

const (
	// TransportStreamableHTTP serves MCP over the streamable HTTP transport.
	// This is the multi-tenant mode: each client authenticates with its own
	// W&B API key presented as a bearer token.
	TransportStreamableHTTP Transport = "streamable-http"

	// TransportStdio serves MCP over stdin/stdout for a single local client.
	// The operator API key is used for all upstream calls.
	TransportStdio Transport = "stdio"
)

// Config is the root configuration for the tracegate gateway.
type Config struct {
	Host      string        `yaml:"host,omitempty"`      // Host to bind to (default: localhost)
	Port      int           `yaml:"port,omitempty"`      // Port for the HTTP transport (default: 8080)
	Transport Transport     `yaml:"transport,omitempty"` // Transport to use (default: streamable-http)
	LogLevel  string        `yaml:"logLevel,omitempty"`  // debug, info, warn, error (default: info)
	Auth      AuthConfig    `yaml:"auth,omitempty"`
	Secrets   SecretsConfig `yaml:"secrets,omitempty"`
	WandB     WandBConfig   `yaml:"wandb,omitempty"`
	Wandbot   WandbotConfig `yaml:"wandbot,omitempty"`
}

// ExternalURL returns the base URL clients reach this gateway under, used
// in challenge headers and the discovery document. Wildcard binds
// advertise localhost because the bind address is not routable.
func (c *Config) ExternalURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}

// AuthConfig controls the request authentication and session subsystem.
type AuthConfig struct {
	// Disabled turns off bearer authentication on the HTTP transport.
	// Development only: the gateway logs a warning on every request while
	// this is set.
	Disabled bool `yaml:"disabled,omitempty"`

	// OperatorAPIKey is the server-side W&B API key. Required for the stdio
	// transport; optional for HTTP, where it is bound for requests when auth
	// is disabled.
	OperatorAPIKey string `yaml:"operatorAPIKey,omitempty"`

	// SessionTTLSeconds is how long an idle session survives before the
	// reaper removes it (default: 3600).
	SessionTTLSeconds int `yaml:"sessionTTLSeconds,omitempty"`

	// MaxSessionsPerKey caps the number of concurrent sessions bound to one
	// API key fingerprint (default: 10).
	MaxSessionsPerKey int `yaml:"maxSessionsPerKey,omitempty"`

	// HMACSessions enables keyed HMAC-SHA256 fingerprinting of API keys.
	// Requires a secrets provider to be configured; startup fails otherwise.
	HMACSessions bool `yaml:"hmacSessions,omitempty"`

	// HMACSecretID names the secret holding the HMAC key (default:
	// "tracegate-hmac-key").
	HMACSecretID string `yaml:"hmacSecretID,omitempty"`

	// SessionIDPrefixLength is how many session ID characters appear in log
	// output (default: 8).
	SessionIDPrefixLength int `yaml:"sessionIDPrefixLength,omitempty"`
}

// SecretsConfig selects the secret-management provider used for the HMAC
// session key.
type SecretsConfig struct {
	Provider string `yaml:"provider,omitempty"` // "env" or "file"
	Path     string `yaml:"path,omitempty"`     // Directory for the file provider
}

// WandBConfig points the gateway at the W&B platform APIs.
type WandBConfig struct {
	BaseURL        string `yaml:"baseURL,omitempty"`        // REST base (default: https://api.wandb.ai)
	GraphQLURL     string `yaml:"graphqlURL,omitempty"`     // GraphQL endpoint (default: https://api.wandb.ai/graphql)
	TraceServerURL string `yaml:"traceServerURL,omitempty"` // Weave trace server (default: https://trace.wandb.ai)
}

// WandbotConfig points the support-bot tool at a wandbot deployment.
type WandbotConfig struct {
	BaseURL string `yaml:"baseURL,omitempty"`
}
