package auth

import "regexp"

// API key format constraints. W&B API keys are typically 40 characters of
// alphanumerics plus a few separators; the bounds are deliberately loose
// because the exact format varies across deployments.
const (
	// MinAPIKeyLength is the minimum accepted API key length.
	MinAPIKeyLength = 20

	// MaxAPIKeyLength is the maximum accepted API key length. This bounds
	// the work done by hashing and prevents absurd header values from
	// reaching the session table.
	MaxAPIKeyLength = 100
)

// apiKeyPattern matches the characters allowed in an API key.
var apiKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// IsValidAPIKeyFormat reports whether a token looks like a W&B API key.
//
// This is a cheap pre-filter, not authentication: it rejects obviously
// malformed input before any session-table work. Actual validity is only
// established when the key is used against the W&B API. The function is
// pure and never logs the token value.
func IsValidAPIKeyFormat(token string) bool {
	if len(token) < MinAPIKeyLength || len(token) > MaxAPIKeyLength {
		return false
	}
	return apiKeyPattern.MatchString(token)
}
