// Package auth implements per-request authentication and session isolation
// for the gateway's MCP endpoint.
//
// Each inbound request presents a W&B API key as a bearer token. The
// middleware validates the key's shape, binds it to a session keyed by a
// one-way fingerprint of the credential, and stores the key in the request
// context so downstream tool logic can forward it to the upstream API. Raw
// keys never enter the session table and never appear in logs; only
// fingerprints and truncated session IDs do.
//
// The Registry is the single piece of shared mutable state. A background
// reaper removes idle sessions after a TTL, never touching sessions with
// requests in flight.
package auth
