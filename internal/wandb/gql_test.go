package wandb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracegate/internal/auth"
	"tracegate/internal/config"
)

const testCredential = "credential-aaaaaaaaaaaaaaaa"

func testClient(t *testing.T, gqlURL, traceURL, botURL string) *Client {
	t.Helper()
	return NewClient(
		config.WandBConfig{GraphQLURL: gqlURL, TraceServerURL: traceURL},
		config.WandbotConfig{BaseURL: botURL},
	)
}

func authedCtx() context.Context {
	return auth.WithAPIKey(context.Background(), testCredential)
}

func TestExecuteSendsBasicAuthFromContext(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"viewer": map[string]any{"entity": "me"}},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "", "")
	data, err := c.Execute(authedCtx(), "query { viewer { entity } }", nil)
	require.NoError(t, err)
	assert.Equal(t, "me", data["viewer"].(map[string]any)["entity"])

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("api:"+testCredential))
	assert.Equal(t, want, gotAuth)
}

func TestExecuteRequiresCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach upstream without a credential")
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "", "")
	_, err := c.Execute(context.Background(), "query { viewer { entity } }", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no W&B API key")
}

func TestExecuteSurfacesGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": "field does not exist"}},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "", "")
	_, err := c.Execute(authedCtx(), "query { nope }", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field does not exist")
}

// pageResponse builds a connection page of run edges.
func pageResponse(ids []string, cursor string, hasNext bool) map[string]any {
	edges := make([]any, 0, len(ids))
	for _, id := range ids {
		edges = append(edges, map[string]any{"node": map[string]any{"id": id}})
	}
	return map[string]any{
		"data": map[string]any{
			"project": map[string]any{
				"runs": map[string]any{
					"edges":    edges,
					"pageInfo": map[string]any{"endCursor": cursor, "hasNextPage": hasNext},
				},
			},
		},
	}
}

const paginatedRunsQuery = `
query Runs($limit: Int, $after: String) {
  project { runs(first: $limit, after: $after) { edges { node { id } } pageInfo { endCursor hasNextPage } } }
}`

func TestExecutePaginatedWalksPages(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		calls++
		switch calls {
		case 1:
			assert.Nil(t, req.Variables["after"])
			json.NewEncoder(w).Encode(pageResponse([]string{"run1", "run2"}, "cur1", true))
		case 2:
			assert.Equal(t, "cur1", req.Variables["after"])
			// run2 repeats across the page boundary and must be dropped.
			json.NewEncoder(w).Encode(pageResponse([]string{"run2", "run3"}, "cur2", false))
		default:
			t.Errorf("unexpected extra page fetch %d", calls)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "", "")
	data, err := c.ExecutePaginated(authedCtx(), paginatedRunsQuery,
		map[string]any{"limit": 2}, 10, 2)
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	runs := data["project"].(map[string]any)["runs"].(map[string]any)
	edges := runs["edges"].([]any)
	require.Len(t, edges, 3)
	var ids []string
	for _, e := range edges {
		ids = append(ids, nodeID(e))
	}
	assert.Equal(t, []string{"run1", "run2", "run3"}, ids)
	assert.Equal(t, false, runs["pageInfo"].(map[string]any)["hasNextPage"])
}

func TestExecutePaginatedRespectsMaxItems(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		ids := []string{fmt.Sprintf("run%d-a", calls), fmt.Sprintf("run%d-b", calls)}
		json.NewEncoder(w).Encode(pageResponse(ids, fmt.Sprintf("cur%d", calls), true))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "", "")
	data, err := c.ExecutePaginated(authedCtx(), paginatedRunsQuery,
		map[string]any{"limit": 2}, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "stops once maxItems edges are aggregated")

	runs := data["project"].(map[string]any)["runs"].(map[string]any)
	assert.Len(t, runs["edges"].([]any), 4)
}

func TestExecutePaginatedWithoutCursorVariableStopsAtFirstPage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(pageResponse([]string{"run1"}, "cur1", true))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "", "")
	query := `query { project { runs { edges { node { id } } pageInfo { endCursor hasNextPage } } } }`
	_, err := c.ExecutePaginated(authedCtx(), query, nil, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecutePaginatedNonConnectionResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"viewer": map[string]any{"entity": "me"}},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, "", "")
	data, err := c.ExecutePaginated(authedCtx(), "query { viewer { entity } }", nil, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, "me", data["viewer"].(map[string]any)["entity"])
}
