package auth

import (
	"encoding/json"
	"net/http"

	"tracegate/pkg/logging"
)

// ProtectedResourceMetadata is the RFC 9728 discovery document served at
// the well-known path. The gateway authenticates with platform API keys
// rather than a full OAuth flow, so the document mainly tells clients which
// header to use and where humans obtain a key.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	ResourceName           string   `json:"resource_name,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
	ResourceDocumentation  string   `json:"resource_documentation,omitempty"`
}

// MetadataHandler serves the protected-resource metadata document.
//
// resource is the externally visible base URL of the MCP endpoint;
// documentation points at where a human obtains an API key.
func MetadataHandler(resource, documentation string) http.Handler {
	doc := ProtectedResourceMetadata{
		Resource:               resource,
		ResourceName:           Realm,
		BearerMethodsSupported: []string{"header"},
		ResourceDocumentation:  documentation,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			logging.Error("Auth", err, "Failed to write protected-resource metadata")
		}
	})
}
