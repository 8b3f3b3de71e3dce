package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIKeyContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := APIKeyFromContext(ctx)
	assert.False(t, ok, "empty context must not carry a key")

	ctx = WithAPIKey(ctx, "credential-aaaaaaaaaaaaaaaa")
	key, ok := APIKeyFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "credential-aaaaaaaaaaaaaaaa", key)
}

func TestSessionAndRequestIDContext(t *testing.T) {
	ctx := context.Background()

	_, ok := SessionIDFromContext(ctx)
	assert.False(t, ok)

	ctx = WithSessionID(ctx, "sess_abc")
	ctx = WithRequestID(ctx, "req_def")

	sessionID, ok := SessionIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "sess_abc", sessionID)

	requestID, ok := RequestIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req_def", requestID)
}

// Each goroutine binds its own credential into its own context; no
// interleaving may ever observe another goroutine's key.
func TestAPIKeyContextIsolation(t *testing.T) {
	base := context.Background()
	var wg sync.WaitGroup
	for _, credential := range []string{
		"credential-aaaaaaaaaaaaaaaa",
		"credential-bbbbbbbbbbbbbbbb",
		"credential-cccccccccccccccc",
	} {
		wg.Add(1)
		go func(want string) {
			defer wg.Done()
			ctx := WithAPIKey(base, want)
			for i := 0; i < 1000; i++ {
				got, ok := APIKeyFromContext(ctx)
				if !ok || got != want {
					t.Errorf("observed foreign credential binding")
					return
				}
			}
		}(credential)
	}
	wg.Wait()

	_, ok := APIKeyFromContext(base)
	assert.False(t, ok, "parent context must stay unbound")
}
