package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"tracegate/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SecretsConfig
		wantErr bool
	}{
		{"env provider", config.SecretsConfig{Provider: "env"}, false},
		{"file provider", config.SecretsConfig{Provider: "file", Path: "/tmp"}, false},
		{"uppercase provider name", config.SecretsConfig{Provider: "ENV"}, false},
		{"no provider", config.SecretsConfig{}, true},
		{"file provider without path", config.SecretsConfig{Provider: "file"}, true},
		{"unknown provider", config.SecretsConfig{Provider: "gcp"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvProviderFetch(t *testing.T) {
	t.Setenv("TRACEGATE_HMAC_KEY", "super-secret-key-material")

	r, err := NewResolver(config.SecretsConfig{Provider: "env"})
	require.NoError(t, err)

	data, err := r.FetchSecret("tracegate-hmac-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("super-secret-key-material"), data)

	_, err = r.FetchSecret("tracegate-missing-key")
	assert.Error(t, err)

	_, err = r.FetchSecret("")
	assert.Error(t, err)
}

func TestFileProviderFetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hmac-key"), []byte("file-key-material\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), nil, 0o600))

	r, err := NewResolver(config.SecretsConfig{Provider: "file", Path: dir})
	require.NoError(t, err)

	data, err := r.FetchSecret("hmac-key")
	require.NoError(t, err)
	// Trailing newline is stripped.
	assert.Equal(t, []byte("file-key-material"), data)

	_, err = r.FetchSecret("missing")
	assert.Error(t, err)

	_, err = r.FetchSecret("empty")
	assert.Error(t, err)

	// Path traversal is rejected.
	_, err = r.FetchSecret("../hmac-key")
	assert.Error(t, err)
}
