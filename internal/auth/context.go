package auth

import "context"

// apiKeyContextKey is the context key under which the request's API key is
// bound. Defined as a struct type so no other package can forge the key.
//
// The binding rides the request's context.Context and is therefore visible
// only along that request's causal chain: concurrently processed requests
// each carry their own context value and can never observe each other's
// credential. This deliberately replaces the earlier pattern of mutating a
// process-global environment variable, which leaked credentials across
// concurrent requests.
type apiKeyContextKey struct{}

// sessionIDContextKey is the context key for the request's session ID.
type sessionIDContextKey struct{}

// requestIDContextKey is the context key for the request's correlation ID.
type requestIDContextKey struct{}

// WithAPIKey returns a new context with the API key bound for the duration
// of the request. The key is stored wrapped so accidental formatting of the
// context cannot print it.
func WithAPIKey(ctx context.Context, apiKey string) context.Context {
	return context.WithValue(ctx, apiKeyContextKey{}, NewRedactedKey(apiKey))
}

// APIKeyFromContext extracts the bound API key from the context. Returns
// the key and true if present, or empty string and false otherwise.
//
// This is the single accessor downstream tool logic uses to obtain the
// credential for upstream W&B calls. Tool code never touches the session
// registry directly.
func APIKeyFromContext(ctx context.Context) (string, bool) {
	if key, ok := ctx.Value(apiKeyContextKey{}).(RedactedKey); ok && !key.IsEmpty() {
		return key.Value(), true
	}
	return "", false
}

// WithSessionID returns a new context with the session ID set.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDContextKey{}, sessionID)
}

// SessionIDFromContext extracts the session ID from the context.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if sessionID, ok := ctx.Value(sessionIDContextKey{}).(string); ok && sessionID != "" {
		return sessionID, true
	}
	return "", false
}

// WithRequestID returns a new context with the request correlation ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

// RequestIDFromContext extracts the request correlation ID from the context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if requestID, ok := ctx.Value(requestIDContextKey{}).(string); ok && requestID != "" {
		return requestID, true
	}
	return "", false
}
