package auth

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracegate/pkg/logging"
)

// DefaultReapInterval is how often the background reaper scans for expired
// sessions.
const DefaultReapInterval = 60 * time.Second

// Stats summarizes registry state for the observability endpoint. All
// numbers are aggregates; no fingerprints or session IDs are exposed.
type Stats struct {
	TotalSessions      int `json:"total_sessions"`
	UniqueFingerprints int `json:"unique_fingerprints"`
	ActiveRequests     int `json:"active_requests"`
	SessionTTLSeconds  int `json:"session_ttl_seconds"`
	MaxSessionsPerKey  int `json:"max_sessions_per_key"`
}

// Registry tracks sessions and enforces credential binding between a
// session ID and the API key fingerprint it was created with.
//
// A single mutex guards every access. Internal helpers with a Locked suffix
// assume the caller holds it; the exported surface takes and releases it, so
// no method ever calls another exported method while holding the lock.
type Registry struct {
	mu            sync.Mutex
	sessions      map[string]*Session
	byFingerprint map[string]map[string]struct{}

	hasher    *Hasher
	ttl       time.Duration
	maxPerKey int

	reapInterval time.Duration
	stopCh       chan struct{}
	running      bool
	wg           sync.WaitGroup
}

// NewRegistry creates a session registry. The registry is inert until
// StartReaper is called; creating one has no background side effects, which
// keeps tests and short-lived invocations free of goroutine leaks.
func NewRegistry(hasher *Hasher, ttl time.Duration, maxPerKey int) *Registry {
	if maxPerKey < 1 {
		maxPerKey = 1
	}
	return &Registry{
		sessions:      make(map[string]*Session),
		byFingerprint: make(map[string]map[string]struct{}),
		hasher:        hasher,
		ttl:           ttl,
		maxPerKey:     maxPerKey,
		reapInterval:  DefaultReapInterval,
	}
}

// Create establishes or resumes a session for the given API key.
//
// With an empty sessionID a fresh session is created under a newly generated
// unguessable ID. With a sessionID that already exists, the key's
// fingerprint must match the one bound at creation; on match the session is
// touched and reused, on mismatch a SessionUnauthorizedError is returned
// without revealing whether the ID was close to valid. A non-empty
// sessionID that is unknown (for example after a reap) is treated like a
// fresh create under a new ID, so clients recover by re-creating rather
// than erroring forever.
//
// Per-fingerprint capacity is enforced here: when a key already holds the
// maximum number of sessions, idle ones are evicted oldest first; if every
// session is mid-request a CapacityExceededError is returned.
func (r *Registry) Create(apiKey, sessionID string) (string, error) {
	fingerprint := r.hasher.Fingerprint(apiKey)

	r.mu.Lock()
	defer r.mu.Unlock()

	if sessionID != "" {
		if sess, ok := r.sessions[sessionID]; ok {
			if sess.Fingerprint != fingerprint {
				logging.Error("SessionRegistry", nil,
					"Session %s presented with non-matching credential (bound %s, presented %s)",
					logging.TruncateSessionID(sessionID),
					FingerprintPrefix(sess.Fingerprint),
					FingerprintPrefix(fingerprint))
				return "", &SessionUnauthorizedError{SessionID: sessionID}
			}
			sess.touch()
			return sessionID, nil
		}
		// Unknown ID: fall through and mint a fresh session instead of
		// resurrecting an ID the client chose.
	}

	if err := r.enforceCapacityLocked(fingerprint); err != nil {
		return "", err
	}

	id := newSessionID()
	now := time.Now()
	r.sessions[id] = &Session{
		ID:             id,
		Fingerprint:    fingerprint,
		CreatedAt:      now,
		LastAccessed:   now,
		ActiveRequests: make(map[string]struct{}),
		Metadata:       make(map[string]any),
	}
	set := r.byFingerprint[fingerprint]
	if set == nil {
		set = make(map[string]struct{})
		r.byFingerprint[fingerprint] = set
	}
	set[id] = struct{}{}

	logging.Info("SessionRegistry", "Created session %s (fingerprint %s, %d/%d for key)",
		logging.TruncateSessionID(id), FingerprintPrefix(fingerprint), len(set), r.maxPerKey)
	return id, nil
}

// Validate reports whether the session exists and was created with the same
// credential. On success the session's access time is refreshed. A
// fingerprint mismatch is logged at error level because it indicates either
// a key rotation or an attempted session takeover.
func (r *Registry) Validate(sessionID, apiKey string) bool {
	fingerprint := r.hasher.Fingerprint(apiKey)

	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		logging.Warn("SessionRegistry", "Validation for unknown session %s",
			logging.TruncateSessionID(sessionID))
		return false
	}
	if sess.Fingerprint != fingerprint {
		logging.Error("SessionRegistry", nil,
			"Fingerprint mismatch for session %s (bound %s, presented %s)",
			logging.TruncateSessionID(sessionID),
			FingerprintPrefix(sess.Fingerprint),
			FingerprintPrefix(fingerprint))
		return false
	}
	sess.touch()
	return true
}

// Get returns a snapshot of the session without refreshing its access time.
func (r *Registry) Get(sessionID string) (SessionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		return SessionInfo{}, false
	}
	return sess.snapshot(), true
}

// SetMetadata attaches a key/value pair to the session's metadata bag.
// Returns false if the session does not exist.
func (r *Registry) SetMetadata(sessionID, key string, value any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	sess.Metadata[key] = value
	return true
}

// StartRequest marks a request as in flight on the session, protecting it
// from expiry-based removal until the matching EndRequest. Returns false if
// the session does not exist.
func (r *Registry) StartRequest(sessionID, requestID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	sess.ActiveRequests[requestID] = struct{}{}
	sess.LastAccessed = time.Now()
	return true
}

// EndRequest removes the request from the session's active set. It is safe
// to call for sessions or requests that no longer exist: teardown paths run
// unconditionally and must never fail.
func (r *Registry) EndRequest(sessionID, requestID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		return false
	}
	if _, ok := sess.ActiveRequests[requestID]; !ok {
		return false
	}
	delete(sess.ActiveRequests, requestID)
	sess.LastAccessed = time.Now()
	return true
}

// Cleanup removes the session and all its state. Idempotent: cleaning up an
// unknown ID is a no-op. Cleanup proceeds even when requests are still in
// flight (the client asked for it, or an eviction forced it); the condition
// is logged because those requests keep their already-bound credential
// until they finish.
func (r *Registry) Cleanup(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanupLocked(sessionID, "explicit")
}

func (r *Registry) cleanupLocked(sessionID, reason string) {
	sess, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	if len(sess.ActiveRequests) > 0 {
		logging.Warn("SessionRegistry",
			"Removing session %s with %d active request(s) (%s)",
			logging.TruncateSessionID(sessionID), len(sess.ActiveRequests), reason)
	}
	if set, ok := r.byFingerprint[sess.Fingerprint]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.byFingerprint, sess.Fingerprint)
		}
	}
	delete(r.sessions, sessionID)
	logging.Info("SessionRegistry", "Removed session %s after %d request(s) (%s)",
		logging.TruncateSessionID(sessionID), sess.RequestCount, reason)
}

// enforceCapacityLocked evicts idle sessions for the fingerprint, oldest
// access time first, until a new session fits. Sessions with requests in
// flight are never evicted; if nothing can be evicted the create is
// rejected.
func (r *Registry) enforceCapacityLocked(fingerprint string) error {
	set := r.byFingerprint[fingerprint]
	if len(set) < r.maxPerKey {
		return nil
	}

	idle := make([]*Session, 0, len(set))
	for id := range set {
		if sess := r.sessions[id]; sess != nil && len(sess.ActiveRequests) == 0 {
			idle = append(idle, sess)
		}
	}
	sort.Slice(idle, func(i, j int) bool {
		return idle[i].LastAccessed.Before(idle[j].LastAccessed)
	})

	for _, sess := range idle {
		if len(r.byFingerprint[fingerprint]) < r.maxPerKey {
			break
		}
		r.cleanupLocked(sess.ID, "evicted for capacity")
	}

	if len(r.byFingerprint[fingerprint]) >= r.maxPerKey {
		logging.Warn("SessionRegistry",
			"Session limit reached for fingerprint %s and all sessions are busy",
			FingerprintPrefix(fingerprint))
		return &CapacityExceededError{Limit: r.maxPerKey}
	}
	return nil
}

// Stats returns aggregate counters describing registry state.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := 0
	for _, sess := range r.sessions {
		active += len(sess.ActiveRequests)
	}
	return Stats{
		TotalSessions:      len(r.sessions),
		UniqueFingerprints: len(r.byFingerprint),
		ActiveRequests:     active,
		SessionTTLSeconds:  int(r.ttl / time.Second),
		MaxSessionsPerKey:  r.maxPerKey,
	}
}

// SetTTL updates the expiry horizon. Applied on configuration reload; takes
// effect on the next reap pass.
func (r *Registry) SetTTL(ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ttl != r.ttl {
		logging.Info("SessionRegistry", "Session TTL changed from %s to %s", r.ttl, ttl)
		r.ttl = ttl
	}
}

// StartReaper launches the background goroutine that periodically removes
// expired sessions. Calling it on a running registry is a no-op.
func (r *Registry) StartReaper() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.wg.Add(1)
	go r.reapLoop(r.stopCh)
	logging.Info("SessionRegistry", "Session reaper started (interval %s, TTL %s)",
		r.reapInterval, r.ttl)
}

// StopReaper stops the background reaper and waits for it to exit. Safe to
// call when the reaper was never started.
func (r *Registry) StopReaper() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	logging.Info("SessionRegistry", "Session reaper stopped")
}

func (r *Registry) reapLoop(stopCh <-chan struct{}) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.reapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.reapTick()
		}
	}
}

// reapTick runs one reap pass. A panic in the pass is recovered and logged
// so a single bad tick never kills the loop and lets sessions accumulate
// forever.
func (r *Registry) reapTick() {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("SessionRegistry", fmt.Errorf("%v", rec), "Recovered panic in session reaper")
		}
	}()
	if n := r.reapExpired(); n > 0 {
		logging.Info("SessionRegistry", "Reaped %d expired session(s)", n)
	}
}

// reapExpired removes every session idle longer than the TTL, skipping
// sessions with requests in flight. Returns the number removed.
func (r *Registry) reapExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-r.ttl)
	var expired []string
	for id, sess := range r.sessions {
		if len(sess.ActiveRequests) > 0 {
			continue
		}
		if sess.LastAccessed.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		r.cleanupLocked(id, "expired")
	}
	return len(expired)
}

// newSessionID mints an unguessable session identifier.
func newSessionID() string {
	id := uuid.New()
	return fmt.Sprintf("sess_%x", id[:])
}
