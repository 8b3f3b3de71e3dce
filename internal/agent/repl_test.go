package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records calls and returns canned tool results.
type fakeClient struct {
	tools      []mcp.Tool
	listErr    error
	lastTool   string
	lastArgs   map[string]interface{}
	callResult *mcp.CallToolResult
	callErr    error
}

func (f *fakeClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return f.tools, f.listErr
}

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	f.lastTool = name
	f.lastArgs = args
	return f.callResult, f.callErr
}

func (f *fakeClient) ServerInfo() (string, string) {
	return "tracegate", "test"
}

func newTestREPL(fake *fakeClient) (*REPL, *strings.Builder) {
	var out strings.Builder
	r := &REPL{client: fake, out: &out}
	return r, &out
}

func sampleTools() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool("query_wandb_gql", mcp.WithDescription("Execute GraphQL queries against W&B.\nMore detail below.")),
		mcp.NewTool("count_weave_traces", mcp.WithDescription("Count Weave traces in a project.")),
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		input   string
		command string
		rest    string
	}{
		{"tools", "tools", ""},
		{"describe query_wandb_gql", "describe", "query_wandb_gql"},
		{`call count_weave_traces {"entity_name": "a", "project_name": "b"}`, "call", `count_weave_traces {"entity_name": "a", "project_name": "b"}`},
		{"  help  ", "help", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		command, rest := splitCommand(tt.input)
		if command != tt.command || rest != tt.rest {
			t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)", tt.input, command, rest, tt.command, tt.rest)
		}
	}
}

func TestSummarize(t *testing.T) {
	if got := summarize("short one\nsecond line"); got != "short one" {
		t.Errorf("Expected first line only, got %q", got)
	}

	long := strings.Repeat("x", 200)
	got := summarize(long)
	if len(got) != descriptionColumnWidth {
		t.Errorf("Expected truncation to %d chars, got %d", descriptionColumnWidth, len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", got)
	}
}

func TestRenderToolTable(t *testing.T) {
	rendered := RenderToolTable(sampleTools())

	assert.Contains(t, rendered, "query_wandb_gql")
	assert.Contains(t, rendered, "count_weave_traces")
	assert.Contains(t, rendered, "Execute GraphQL queries against W&B.")
	assert.NotContains(t, rendered, "More detail below", "only the first description line should appear")
}

func TestFlattenContent(t *testing.T) {
	content := []mcp.Content{
		mcp.TextContent{Type: "text", Text: "line one"},
		mcp.TextContent{Type: "text", Text: "line two"},
	}
	assert.Equal(t, "line one\nline two", FlattenContent(content))
}

func TestExecuteCommandTools(t *testing.T) {
	fake := &fakeClient{tools: sampleTools()}
	r, out := newTestREPL(fake)

	require.NoError(t, r.executeCommand(context.Background(), "tools"))
	assert.Contains(t, out.String(), "query_wandb_gql")
}

func TestExecuteCommandDescribe(t *testing.T) {
	fake := &fakeClient{tools: sampleTools()}
	r, out := newTestREPL(fake)
	require.NoError(t, r.refreshTools(context.Background()))

	require.NoError(t, r.executeCommand(context.Background(), "describe query_wandb_gql"))
	assert.Contains(t, out.String(), "Execute GraphQL queries against W&B.")
	assert.Contains(t, out.String(), "Input schema:")

	err := r.executeCommand(context.Background(), "describe no_such_tool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestExecuteCommandCall(t *testing.T) {
	fake := &fakeClient{
		tools:      sampleTools(),
		callResult: mcp.NewToolResultText(`{"count": 42}`),
	}
	r, out := newTestREPL(fake)
	require.NoError(t, r.refreshTools(context.Background()))

	err := r.executeCommand(context.Background(), `call count_weave_traces {"entity_name": "my-team"}`)
	require.NoError(t, err)

	assert.Equal(t, "count_weave_traces", fake.lastTool)
	assert.Equal(t, map[string]interface{}{"entity_name": "my-team"}, fake.lastArgs)
	assert.Contains(t, out.String(), `"count": 42`)
}

func TestExecuteCommandCallErrors(t *testing.T) {
	fake := &fakeClient{tools: sampleTools()}
	r, _ := newTestREPL(fake)
	require.NoError(t, r.refreshTools(context.Background()))

	// Malformed JSON arguments never reach the gateway.
	err := r.executeCommand(context.Background(), "call count_weave_traces {not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON object")
	assert.Empty(t, fake.lastTool)

	// Tool-level errors surface as command errors.
	fake.callResult = mcp.NewToolResultError("entity_name is required")
	err = r.executeCommand(context.Background(), "call count_weave_traces")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entity_name is required")
}

func TestExecuteCommandExitAndUnknown(t *testing.T) {
	fake := &fakeClient{tools: sampleTools()}
	r, _ := newTestREPL(fake)

	err := r.executeCommand(context.Background(), "exit")
	require.True(t, errors.Is(err, errExit))

	err = r.executeCommand(context.Background(), "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestExecuteCommandToolsListError(t *testing.T) {
	fake := &fakeClient{listErr: errors.New("connection reset")}
	r, _ := newTestREPL(fake)

	err := r.executeCommand(context.Background(), "tools")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
