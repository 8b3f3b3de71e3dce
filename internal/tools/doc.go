// Package tools registers the W&B tool surface on the MCP server: GraphQL
// queries against the Models API, project discovery, Weave trace counting
// and querying, report creation, and the documentation support bot.
package tools
