// Package secrets resolves server-held secrets, such as the HMAC key used
// for session fingerprinting. Resolution happens once at startup; a
// misconfigured provider is a fatal configuration error, never a per-request
// one.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tracegate/internal/config"
	"tracegate/pkg/logging"
)

// Provider fetches raw secret bytes by identifier.
type Provider interface {
	FetchSecret(secretID string) ([]byte, error)
}

// Resolver wraps a Provider with validation common to all providers.
type Resolver struct {
	provider Provider
	name     string
}

// NewResolver creates a resolver for the configured provider. It fails when
// the provider is unknown or incompletely configured, so that a deployment
// requesting keyed hashing cannot silently start without it.
func NewResolver(cfg config.SecretsConfig) (*Resolver, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("secrets resolver requires a provider")
	}

	name := strings.ToLower(cfg.Provider)
	var provider Provider
	switch name {
	case "env":
		provider = &envProvider{}
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file secrets provider requires a path")
		}
		provider = &fileProvider{dir: cfg.Path}
	default:
		return nil, fmt.Errorf("unsupported secrets provider: %s", cfg.Provider)
	}

	logging.Info("Secrets", "Initialized secrets resolver (provider=%s)", name)
	return &Resolver{provider: provider, name: name}, nil
}

// FetchSecret fetches a secret and rejects empty results.
func (r *Resolver) FetchSecret(secretID string) ([]byte, error) {
	if secretID == "" {
		return nil, fmt.Errorf("secret ID is required")
	}
	data, err := r.provider.FetchSecret(secretID)
	if err != nil {
		return nil, fmt.Errorf("fetching secret %q from %s provider: %w", secretID, r.name, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("secret %q is empty", secretID)
	}
	return data, nil
}

// envProvider reads secrets from environment variables. The secret ID is
// mangled to a conventional variable name: "tracegate-hmac-key" becomes
// TRACEGATE_HMAC_KEY.
type envProvider struct{}

func (p *envProvider) FetchSecret(secretID string) ([]byte, error) {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(secretID))
	value := os.Getenv(name)
	if value == "" {
		return nil, fmt.Errorf("environment variable %s is not set", name)
	}
	return []byte(value), nil
}

// fileProvider reads secrets from files in a directory, one file per secret.
// This matches how Kubernetes mounts secret volumes.
type fileProvider struct {
	dir string
}

func (p *fileProvider) FetchSecret(secretID string) ([]byte, error) {
	if strings.ContainsAny(secretID, "/\\") {
		return nil, fmt.Errorf("secret ID must not contain path separators")
	}
	data, err := os.ReadFile(filepath.Join(p.dir, secretID))
	if err != nil {
		return nil, err
	}
	// Trailing newlines are common in mounted secret files.
	return []byte(strings.TrimRight(string(data), "\r\n")), nil
}
