// Package gateway assembles the tracegate server: the MCP server with the
// W&B toolset, the session registry and auth middleware in front of it, and
// the streamable HTTP or stdio transport underneath.
package gateway
