package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"tracegate/pkg/logging"
)

// SessionIDHeader carries the session correlation ID in both directions:
// clients present it on requests, the gateway echoes it on successful
// responses so clients know which session to reuse.
const SessionIDHeader = "Mcp-Session-Id"

// Middleware performs per-request authentication and session binding in
// front of the MCP handler. It owns the full decision path: pass-through
// for unprotected paths, bearer extraction and format checking, session
// create/resume/terminate, credential binding into the request context, and
// unconditional request-end bookkeeping.
type Middleware struct {
	registry *Registry

	// protectedPrefix is the path namespace requiring authentication;
	// everything outside it passes through untouched.
	protectedPrefix string

	// disabled skips all auth when true. Development only; every request
	// logs a warning so the mode is impossible to miss.
	disabled bool

	// operatorKey is bound into the context when auth is disabled, so tool
	// calls still reach the upstream API with the operator's credential.
	operatorKey RedactedKey

	// metadataURL is advertised in bearer challenges so clients can
	// discover how to authenticate.
	metadataURL string

	// docURL tells humans where to obtain an API key.
	docURL string
}

// NewMiddleware creates the request auth middleware guarding the given
// path prefix.
func NewMiddleware(registry *Registry, protectedPrefix string) *Middleware {
	return &Middleware{
		registry:        registry,
		protectedPrefix: protectedPrefix,
		docURL:          "https://wandb.ai/authorize",
	}
}

// DisableAuth turns off authentication entirely, binding the given operator
// key (possibly empty) into every request instead.
func (m *Middleware) DisableAuth(operatorKey string) {
	m.disabled = true
	m.operatorKey = NewRedactedKey(operatorKey)
	logging.Warn("Auth",
		"AUTHENTICATION IS DISABLED. Every client shares the operator credential. Never run this mode outside local development.")
}

// SetMetadataURL sets the absolute URL of the protected-resource metadata
// document included in challenges.
func (m *Middleware) SetMetadataURL(url string) {
	m.metadataURL = url
}

// errorBody is the structured JSON payload for auth failures. Clients
// dispatch on the code to decide between re-authenticating, reinitializing
// the session, and giving up.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Wrap returns a handler enforcing the auth decision path before invoking
// next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, m.protectedPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		if m.disabled {
			logging.Warn("Auth", "Authentication disabled, serving %s %s without credential checks",
				r.Method, r.URL.Path)
			if !m.operatorKey.IsEmpty() {
				r = r.WithContext(WithAPIKey(r.Context(), m.operatorKey.Value()))
			}
			next.ServeHTTP(w, r)
			return
		}

		apiKey, ok := bearerToken(r)
		if !ok {
			m.writeAuthError(w, &UnauthenticatedError{})
			return
		}
		if !IsValidAPIKeyFormat(apiKey) {
			m.writeAuthError(w, &InvalidCredentialFormatError{Length: len(apiKey)})
			return
		}

		sessionID := r.Header.Get(SessionIDHeader)

		// Session termination is idempotent and never fails: the client is
		// done with the session whether or not we still know it.
		if r.Method == http.MethodDelete && sessionID != "" {
			m.registry.Cleanup(sessionID)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if sessionID != "" {
			if _, found := m.registry.Get(sessionID); !found {
				m.writeAuthError(w, &SessionNotFoundError{SessionID: sessionID})
				return
			}
			if !m.registry.Validate(sessionID, apiKey) {
				m.writeAuthError(w, &SessionUnauthorizedError{SessionID: sessionID})
				return
			}
		} else {
			created, err := m.registry.Create(apiKey, "")
			if err != nil {
				m.writeAuthError(w, err)
				return
			}
			sessionID = created
			if ua := r.UserAgent(); ua != "" {
				m.registry.SetMetadata(sessionID, "user_agent", ua)
			}
		}

		requestID := fmt.Sprintf("req_%x", uuid.New())
		m.registry.StartRequest(sessionID, requestID)

		ctx := WithAPIKey(r.Context(), apiKey)
		ctx = WithSessionID(ctx, sessionID)
		ctx = WithRequestID(ctx, requestID)

		w.Header().Set(SessionIDHeader, sessionID)

		// Request-end bookkeeping runs no matter how the handler exits.
		// The context binding dies with the request's context; the active
		// marker must be removed explicitly or the session would be
		// reap-proof forever.
		defer func() {
			if rec := recover(); rec != nil {
				logging.Error("Auth", fmt.Errorf("%v", rec), "Recovered panic serving request %s", requestID)
				m.writeAuthError(w, &AuthenticationFailedError{Err: fmt.Errorf("panic: %v", rec)})
			}
			m.registry.EndRequest(sessionID, requestID)
		}()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the bearer credential from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// writeAuthError maps an auth error to its status code, challenge header,
// and structured body. Unknown errors become a generic authentication
// failure with no internal detail.
func (m *Middleware) writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	code := CodeAuthenticationFailed
	challengeError := ""

	switch e := err.(type) {
	case *UnauthenticatedError:
		code = CodeUnauthenticated
	case *InvalidCredentialFormatError:
		code = CodeInvalidCredentialFormat
		challengeError = "invalid_token"
	case *SessionNotFoundError:
		status = http.StatusNotFound
		code = CodeSessionNotFound
	case *SessionUnauthorizedError:
		status = http.StatusForbidden
		code = CodeSessionUnauthorized
	case *CapacityExceededError:
		code = CodeCapacityExceeded
	case *AuthenticationFailedError:
		logging.Error("Auth", e.Unwrap(), "Internal authentication failure")
	default:
		logging.Error("Auth", err, "Unexpected error in auth path")
		err = &AuthenticationFailedError{Err: err}
	}

	if status == http.StatusUnauthorized {
		description := err.Error()
		if code == CodeAuthenticationFailed {
			description = ""
		}
		w.Header().Set("WWW-Authenticate",
			BuildChallenge(challengeError, description, m.metadataURL))
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = err.Error()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		logging.Debug("Auth", "Failed to write error body: %v", encodeErr)
	}
}
