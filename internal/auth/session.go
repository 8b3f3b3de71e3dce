package auth

import "time"

// Session represents one client's authenticated continuity across requests.
// All fields are guarded by the owning registry's lock; code outside this
// package only ever sees snapshot copies.
type Session struct {
	// ID is the opaque, unguessable session identifier.
	ID string

	// Fingerprint is the one-way hash of the API key bound at creation.
	// It never changes for the lifetime of the session.
	Fingerprint string

	CreatedAt    time.Time
	LastAccessed time.Time

	// RequestCount is the total number of requests served under this
	// session, for observability.
	RequestCount int

	// ActiveRequests holds the IDs of requests currently in flight. A
	// session with a non-empty active set is never reaped, because its
	// credential may still be bound in a running request.
	ActiveRequests map[string]struct{}

	// Metadata is an open key/value bag for request correlation data.
	Metadata map[string]any
}

// touch updates the access time and increments the request count.
func (s *Session) touch() {
	s.LastAccessed = time.Now()
	s.RequestCount++
}

// SessionInfo is a read-only snapshot of a session, safe to use without
// holding the registry lock.
type SessionInfo struct {
	ID             string
	Fingerprint    string
	CreatedAt      time.Time
	LastAccessed   time.Time
	RequestCount   int
	ActiveRequests []string
	Metadata       map[string]any
}

// snapshot copies the session into a SessionInfo. Caller must hold the
// registry lock.
func (s *Session) snapshot() SessionInfo {
	info := SessionInfo{
		ID:           s.ID,
		Fingerprint:  s.Fingerprint,
		CreatedAt:    s.CreatedAt,
		LastAccessed: s.LastAccessed,
		RequestCount: s.RequestCount,
	}
	for reqID := range s.ActiveRequests {
		info.ActiveRequests = append(info.ActiveRequests, reqID)
	}
	if len(s.Metadata) > 0 {
		info.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			info.Metadata[k] = v
		}
	}
	return info
}
