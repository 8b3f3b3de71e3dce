// Package wandb is the upstream client for the W&B platform: the GraphQL
// API (runs, projects, reports), the Weave trace server, and the support
// bot. Credentials are resolved per call from the request context, never
// stored on the client.
package wandb
