package auth

import (
	"fmt"
	"strings"
)

// Realm identifies the protection space announced in bearer challenges.
const Realm = "W&B MCP"

// ProtectedResourceMetadataPath is the well-known path where clients can
// discover how to authenticate (RFC 9728).
const ProtectedResourceMetadataPath = "/.well-known/oauth-protected-resource"

// BuildChallenge assembles the WWW-Authenticate header value for a 401
// response, following the RFC 6750 bearer scheme. errorCode and description
// are omitted when empty (the bare challenge for a missing credential);
// resourceMetadataURL points clients at the discovery document.
func BuildChallenge(errorCode, description, resourceMetadataURL string) string {
	parts := []string{fmt.Sprintf("realm=%q", Realm)}
	if errorCode != "" {
		parts = append(parts, fmt.Sprintf("error=%q", errorCode))
	}
	if description != "" {
		parts = append(parts, fmt.Sprintf("error_description=%q", description))
	}
	if resourceMetadataURL != "" {
		parts = append(parts, fmt.Sprintf("resource_metadata=%q", resourceMetadataURL))
	}
	return "Bearer " + strings.Join(parts, ", ")
}
