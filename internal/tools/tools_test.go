package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracegate/internal/auth"
	"tracegate/internal/config"
	"tracegate/internal/wandb"
)

func toolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func authedCtx() context.Context {
	return auth.WithAPIKey(context.Background(), "credential-aaaaaaaaaaaaaaaa")
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func newToolset(gqlURL, traceURL, botURL string) *Toolset {
	return &Toolset{client: wandb.NewClient(
		config.WandBConfig{GraphQLURL: gqlURL, TraceServerURL: traceURL},
		config.WandbotConfig{BaseURL: botURL},
	)}
}

func TestHandleQueryGQLRequiresQuery(t *testing.T) {
	ts := newToolset("", "", "")
	result, err := ts.handleQueryGQL(authedCtx(), toolRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleQueryGQL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "my-team", req.Variables["entity"])
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"project": map[string]any{"name": "llm-evals"}},
		})
	}))
	defer srv.Close()

	ts := newToolset(srv.URL, "", "")
	result, err := ts.handleQueryGQL(authedCtx(), toolRequest(map[string]any{
		"query":     `query P($entity: String!) { project(entityName: $entity) { name } }`,
		"variables": map[string]any{"entity": "my-team"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "llm-evals")
}

func TestHandleQueryGQLWithoutCredential(t *testing.T) {
	ts := newToolset("http://localhost:1", "", "")
	result, err := ts.handleQueryGQL(context.Background(), toolRequest(map[string]any{
		"query": "query { viewer { entity } }",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "no W&B API key")
}

func TestHandleCountTraces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calls/query_stats", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "my-team/my-project", body["project_id"])
		assert.Contains(t, body, "query")
		json.NewEncoder(w).Encode(map[string]any{"count": 7})
	}))
	defer srv.Close()

	ts := newToolset("", srv.URL, "")
	result, err := ts.handleCountTraces(authedCtx(), toolRequest(map[string]any{
		"entity_name":  "my-team",
		"project_name": "my-project",
		"filters":      map[string]any{"status": "error"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, float64(7), decoded["count"])
}

func TestHandleQueryTraces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calls/stream_query", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5), body["limit"])
		sortBy := body["sort_by"].([]any)[0].(map[string]any)
		assert.Equal(t, "started_at", sortBy["field"])
		assert.Equal(t, "desc", sortBy["direction"])
		w.Write([]byte(`{"id":"call1"}` + "\n"))
	}))
	defer srv.Close()

	ts := newToolset("", srv.URL, "")
	result, err := ts.handleQueryTraces(authedCtx(), toolRequest(map[string]any{
		"entity_name":  "my-team",
		"project_name": "my-project",
		"limit":        5,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &decoded))
	assert.Equal(t, float64(1), decoded["count"])
}

func TestHandleQueryTracesRejectsBadSortDirection(t *testing.T) {
	ts := newToolset("", "", "")
	result, err := ts.handleQueryTraces(authedCtx(), toolRequest(map[string]any{
		"entity_name":    "e",
		"project_name":   "p",
		"sort_direction": "sideways",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleCreateReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		spec := req.Variables["spec"].(string)
		assert.Contains(t, spec, "EVAL RESULTS", "template must be rendered before publishing")
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"upsertView": map[string]any{"view": map[string]any{"id": "Vmlldzo1"}},
			},
		})
	}))
	defer srv.Close()

	ts := newToolset(srv.URL, "", "")
	result, err := ts.handleCreateReport(authedCtx(), toolRequest(map[string]any{
		"entity_name":          "my-team",
		"project_name":         "llm-evals",
		"title":                "Eval Results",
		"markdown_report_text": "# {{ .Title | upper }}\n\nAll green.",
		"template_data":        map[string]any{"Title": "eval results"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "https://wandb.ai/my-team/llm-evals/reports/")
}

func TestHandleSupportBot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			json.NewEncoder(w).Encode(map[string]any{"initialized": true})
		case "/chat/query":
			json.NewEncoder(w).Encode(map[string]any{
				"answer":  "Use sweeps.",
				"sources": []string{"https://docs.wandb.ai/guides/sweeps"},
			})
		}
	}))
	defer srv.Close()

	ts := newToolset("", "", srv.URL)
	result, err := ts.handleSupportBot(context.Background(), toolRequest(map[string]any{
		"question": "how do I tune hyperparameters?",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Use sweeps.")
}
