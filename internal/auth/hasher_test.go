package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherFingerprintDeterministic(t *testing.T) {
	h := NewHasher()

	fp1 := h.Fingerprint("credential-aaaaaaaaaaaaaaaa")
	fp2 := h.Fingerprint("credential-aaaaaaaaaaaaaaaa")
	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64, "hex SHA-256 digest length")

	other := h.Fingerprint("credential-bbbbbbbbbbbbbbbb")
	assert.NotEqual(t, fp1, other)
}

func TestKeyedHasher(t *testing.T) {
	h1, err := NewKeyedHasher([]byte("server-secret-one"))
	require.NoError(t, err)
	h2, err := NewKeyedHasher([]byte("server-secret-two"))
	require.NoError(t, err)

	assert.True(t, h1.Keyed())

	const key = "credential-aaaaaaaaaaaaaaaa"
	assert.Equal(t, h1.Fingerprint(key), h1.Fingerprint(key))

	// Different HMAC keys must produce different fingerprints for the same
	// credential, and keyed output must differ from unkeyed.
	assert.NotEqual(t, h1.Fingerprint(key), h2.Fingerprint(key))
	assert.NotEqual(t, h1.Fingerprint(key), NewHasher().Fingerprint(key))
}

func TestKeyedHasherRejectsEmptyKey(t *testing.T) {
	_, err := NewKeyedHasher(nil)
	require.Error(t, err)
}

func TestFingerprintPrefix(t *testing.T) {
	assert.Equal(t, "abcdefgh...", FingerprintPrefix("abcdefgh0123456789"))
	assert.Equal(t, "short", FingerprintPrefix("short"))
}
