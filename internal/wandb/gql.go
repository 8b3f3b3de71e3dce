package wandb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"tracegate/pkg/logging"
)

// Pagination defaults for Execute-with-pagination. Bounded so an
// open-ended query can never walk an entire multi-year project history.
const (
	DefaultMaxItems     = 100
	DefaultItemsPerPage = 50
)

// gqlResponse is the standard GraphQL envelope.
type gqlResponse struct {
	Data   map[string]any `json:"data"`
	Errors []gqlError     `json:"errors"`
}

type gqlError struct {
	Message string `json:"message"`
}

// Execute runs a single GraphQL query and returns the data object.
// GraphQL-level errors are returned as a Go error, not buried in the
// payload.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (map[string]any, error) {
	resp, err := c.postJSON(ctx, c.gqlURL, "api", map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	var envelope gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding GraphQL response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return nil, fmt.Errorf("GraphQL errors: %s", strings.Join(messages, "; "))
	}
	return envelope.Data, nil
}

// connection is a located edges/pageInfo pair inside a response tree.
type connection struct {
	path []string
}

// ExecutePaginated runs a GraphQL query and transparently walks the
// connection-pattern pages of the first paginated collection found in the
// response, aggregating deduplicated edges in place.
//
// The query must follow the W&B connection convention: collections expose
// `edges { node { ... } }` plus `pageInfo { endCursor hasNextPage }`.
// Additional pages are fetched only when the query itself declares an
// `$after` cursor variable; without it the first page is returned as-is.
// maxItems bounds the total edges aggregated, itemsPerPage the page size
// requested from the server.
func (c *Client) ExecutePaginated(ctx context.Context, query string, variables map[string]any, maxItems, itemsPerPage int) (map[string]any, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	if itemsPerPage > maxItems {
		itemsPerPage = maxItems
	}

	pageVars := make(map[string]any, len(variables)+2)
	for k, v := range variables {
		pageVars[k] = v
	}
	limitKey := findLimitVariable(pageVars)
	if limitKey == "" && strings.Contains(query, "$limit") {
		limitKey = "limit"
	}
	if limitKey != "" {
		pageVars[limitKey] = itemsPerPage
	}

	data, err := c.Execute(ctx, query, pageVars)
	if err != nil {
		return nil, err
	}

	conn := findConnection(data, nil)
	if conn == nil {
		return data, nil
	}

	collection, _ := nestedMap(data, conn.path)
	edges := dedupEdges(edgesOf(collection), nil, maxItems)
	seen := seenIDs(edges)
	collection["edges"] = edges

	cursor, hasNext := pageInfoOf(collection)
	canPaginate := strings.Contains(query, "$after") && limitKey != ""
	if !canPaginate && hasNext {
		logging.Debug("WandB", "Query has more pages but declares no $after variable; returning first page")
	}

	for canPaginate && hasNext && cursor != "" && len(edges) < maxItems {
		pageVars["after"] = cursor
		pageData, err := c.Execute(ctx, query, pageVars)
		if err != nil {
			logging.Warn("WandB", "Pagination stopped after %d item(s): %v", len(edges), err)
			break
		}
		pageCollection, ok := nestedMap(pageData, conn.path)
		if !ok {
			break
		}
		newEdges := dedupEdges(edgesOf(pageCollection), seen, maxItems-len(edges))
		if len(newEdges) == 0 {
			break
		}
		edges = append(edges, newEdges...)
		collection["edges"] = edges
		cursor, hasNext = pageInfoOf(pageCollection)
	}

	if pi, ok := collection["pageInfo"].(map[string]any); ok {
		pi["endCursor"] = cursor
		pi["hasNextPage"] = hasNext && len(edges) < maxItems && canPaginate
	}
	return data, nil
}

// findLimitVariable returns the variable name conventionally used as page
// size, if present.
func findLimitVariable(variables map[string]any) string {
	for k := range variables {
		switch strings.ToLower(k) {
		case "limit", "first", "count":
			return k
		}
	}
	return ""
}

// findConnection locates the first edges/pageInfo pair in the response via
// depth-first search.
func findConnection(node any, path []string) *connection {
	m, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	if _, hasEdges := m["edges"]; hasEdges {
		if pi, ok := m["pageInfo"].(map[string]any); ok {
			_, hasCursor := pi["endCursor"]
			_, hasNext := pi["hasNextPage"]
			if hasCursor && hasNext {
				found := make([]string, len(path))
				copy(found, path)
				return &connection{path: found}
			}
		}
	}
	for key, value := range m {
		if conn := findConnection(value, append(path, key)); conn != nil {
			return conn
		}
	}
	return nil
}

func nestedMap(node map[string]any, path []string) (map[string]any, bool) {
	current := node
	for _, key := range path {
		next, ok := current[key].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func edgesOf(collection map[string]any) []any {
	if collection == nil {
		return nil
	}
	edges, _ := collection["edges"].([]any)
	return edges
}

func pageInfoOf(collection map[string]any) (cursor string, hasNext bool) {
	if collection == nil {
		return "", false
	}
	pi, ok := collection["pageInfo"].(map[string]any)
	if !ok {
		return "", false
	}
	cursor, _ = pi["endCursor"].(string)
	hasNext, _ = pi["hasNextPage"].(bool)
	return cursor, hasNext
}

// dedupEdges filters edges whose node IDs were already seen, mutating seen,
// and caps the result at limit. Edges without an ID are kept as-is.
func dedupEdges(edges []any, seen map[string]struct{}, limit int) []any {
	if seen == nil {
		seen = make(map[string]struct{})
	}
	out := make([]any, 0, len(edges))
	for _, edge := range edges {
		if len(out) >= limit {
			break
		}
		if id := nodeID(edge); id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, edge)
	}
	return out
}

func seenIDs(edges []any) map[string]struct{} {
	seen := make(map[string]struct{}, len(edges))
	for _, edge := range edges {
		if id := nodeID(edge); id != "" {
			seen[id] = struct{}{}
		}
	}
	return seen
}

func nodeID(edge any) string {
	m, ok := edge.(map[string]any)
	if !ok {
		return ""
	}
	node, ok := m["node"].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := node["id"].(string)
	return id
}
