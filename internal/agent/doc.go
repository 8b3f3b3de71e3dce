// Package agent is an interactive MCP client for a running tracegate
// gateway. It connects over the streamable HTTP transport with a bearer
// credential and provides a REPL for listing, inspecting and calling the
// W&B tools.
package agent
