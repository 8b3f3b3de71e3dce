package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"tracegate/pkg/logging"
)

// fingerprintLogPrefixLength is the number of fingerprint characters shown
// in log output. A short prefix is enough to correlate log lines and is
// useless for offline attacks.
const fingerprintLogPrefixLength = 8

// Hasher produces one-way fingerprints of API keys for storage and
// comparison. Raw keys are never stored; only fingerprints enter the
// session table.
//
// Two modes exist, chosen at startup:
//
//   - unkeyed: plain SHA-256. Anyone holding the session table and a
//     candidate key can confirm a match offline.
//   - keyed: HMAC-SHA256 with a server-held secret, which resists offline
//     enumeration of the stored fingerprints.
//
// Fingerprints are deterministic within one configuration but not portable
// across differently-keyed deployments.
type Hasher struct {
	key []byte
}

// NewHasher creates an unkeyed hasher. A warning is logged because plain
// SHA-256 is the weaker mode; deployments handling more than one tenant
// should configure keyed hashing.
func NewHasher() *Hasher {
	logging.Warn("Hasher",
		"Using plain SHA-256 API key fingerprints. For stronger security enable hmacSessions and configure a secrets provider.")
	return &Hasher{}
}

// NewKeyedHasher creates an HMAC-SHA256 hasher with the given key. The key
// comes from the secrets resolver at startup; an empty key is a fatal
// configuration error surfaced here so the process never starts half
// configured.
func NewKeyedHasher(key []byte) (*Hasher, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("keyed hashing requires a non-empty HMAC key")
	}
	logging.Info("Hasher", "HMAC-SHA256 API key fingerprints enabled")
	return &Hasher{key: key}, nil
}

// Keyed reports whether the hasher runs in keyed mode.
func (h *Hasher) Keyed() bool {
	return len(h.key) > 0
}

// Fingerprint returns the hex-encoded digest of the API key. The result is
// fixed length and used solely for equality comparison.
func (h *Hasher) Fingerprint(apiKey string) string {
	if h.Keyed() {
		mac := hmac.New(sha256.New, h.key)
		mac.Write([]byte(apiKey))
		return hex.EncodeToString(mac.Sum(nil))
	}
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])
}

// FingerprintPrefix returns a shortened fingerprint safe for log output.
func FingerprintPrefix(fingerprint string) string {
	if len(fingerprint) <= fingerprintLogPrefixLength {
		return fingerprint
	}
	return fingerprint[:fingerprintLogPrefixLength] + "..."
}
