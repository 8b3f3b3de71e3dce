package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// initializeTimeout bounds the protocol handshake.
const initializeTimeout = 30 * time.Second

// callTimeout bounds individual tool calls. Trace queries against large
// projects can take a while, so this is generous.
const callTimeout = 2 * time.Minute

// Client wraps an MCP client connected to a tracegate gateway. The API key
// is sent as a bearer token on every request; the gateway binds it to a
// session and uses it for all upstream W&B calls.
type Client struct {
	endpoint string
	apiKey   string

	mcp           *client.Client
	serverName    string
	serverVersion string
}

// NewClient creates an unconnected client for the given MCP endpoint.
// apiKey may be empty when the gateway runs with authentication disabled.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

// Connect establishes the streamable HTTP transport and performs the MCP
// protocol handshake.
func (c *Client) Connect(ctx context.Context) error {
	var opts []transport.StreamableHTTPCOption
	if c.apiKey != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{
			"Authorization": "Bearer " + c.apiKey,
		}))
	}

	mcpClient, err := client.NewStreamableHttpClient(c.endpoint, opts...)
	if err != nil {
		return fmt.Errorf("failed to create streamable HTTP client: %w", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to start streamable HTTP client: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	initResult, err := mcpClient.Initialize(initCtx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: "2024-11-05",
			ClientInfo: mcp.Implementation{
				Name:    "tracegate-agent",
				Version: "1.0.0",
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to initialize MCP protocol: %w", err)
	}

	c.mcp = mcpClient
	c.serverName = initResult.ServerInfo.Name
	c.serverVersion = initResult.ServerInfo.Version
	return nil
}

// Close tears down the transport. Safe to call on an unconnected client.
func (c *Client) Close() {
	if c.mcp != nil {
		c.mcp.Close()
		c.mcp = nil
	}
}

// ServerInfo returns the name and version the gateway reported during the
// handshake.
func (c *Client) ServerInfo() (name, version string) {
	return c.serverName, c.serverVersion
}

// ListTools fetches the tool catalog from the gateway.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if c.mcp == nil {
		return nil, fmt.Errorf("not connected")
	}
	result, err := c.mcp.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return result.Tools, nil
}

// CallTool executes a tool by name with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if c.mcp == nil {
		return nil, fmt.Errorf("not connected")
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := c.mcp.CallTool(callCtx, request)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}
	return result, nil
}
