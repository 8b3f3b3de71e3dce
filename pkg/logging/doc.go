// Package logging provides leveled, subsystem-tagged logging for tracegate.
//
// It is a thin wrapper over log/slog that gives every log call a subsystem
// label, so operators can filter output by component (Auth, SessionRegistry,
// Gateway, ...). Initialize once at startup:
//
//	logging.Init(logging.LevelInfo, os.Stderr)
//
// Credentials must never reach a log line. When identifying a session in a
// message, use TruncateSessionID:
//
//	logging.Info("SessionRegistry", "Created session %s",
//	    logging.TruncateSessionID(sessionID))
package logging
