package wandb

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"tracegate/pkg/logging"
)

// Trace server endpoints. stream_query returns one JSON object per line;
// query_stats returns a single count document.
const (
	callsStreamQueryPath = "/calls/stream_query"
	callsQueryStatsPath  = "/calls/query_stats"
)

// maxTraceLineBytes bounds a single jsonl line from the trace server. Deep
// traces carry large inputs/outputs.
const maxTraceLineBytes = 16 * 1024 * 1024

// CallsFilter selects Weave calls by their indexed fields. Zero values are
// omitted from the request.
type CallsFilter struct {
	OpNames        []string `json:"op_names,omitempty"`
	InputRefs      []string `json:"input_refs,omitempty"`
	OutputRefs     []string `json:"output_refs,omitempty"`
	ParentIDs      []string `json:"parent_ids,omitempty"`
	TraceIDs       []string `json:"trace_ids,omitempty"`
	CallIDs        []string `json:"call_ids,omitempty"`
	WBUserIDs      []string `json:"wb_user_ids,omitempty"`
	WBRunIDs       []string `json:"wb_run_ids,omitempty"`
	TraceRootsOnly bool     `json:"trace_roots_only,omitempty"`
}

// SortBy orders trace query results by a field.
type SortBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// TraceQuery describes a stream query against a project's Weave calls.
// Expr carries a raw mongo-style expression for conditions the indexed
// filter cannot express (status, latency bounds, attribute matches).
type TraceQuery struct {
	Entity  string
	Project string

	Filter  *CallsFilter
	Expr    map[string]any
	SortBy  []SortBy
	Columns []string
	Limit   int
	Offset  int

	// IncludeCosts and IncludeFeedback ask the server to join in derived
	// data; both are expensive and default to off.
	IncludeCosts    bool
	IncludeFeedback bool
}

func (q *TraceQuery) projectID() string {
	return q.Entity + "/" + q.Project
}

func (q *TraceQuery) requestBody() map[string]any {
	body := map[string]any{"project_id": q.projectID()}
	if q.Filter != nil {
		body["filter"] = q.Filter
	}
	if len(q.Expr) > 0 {
		body["query"] = map[string]any{"$expr": q.Expr}
	}
	if len(q.SortBy) > 0 {
		body["sort_by"] = q.SortBy
	}
	if len(q.Columns) > 0 {
		body["columns"] = q.Columns
	}
	if q.Limit > 0 {
		body["limit"] = q.Limit
	}
	if q.Offset > 0 {
		body["offset"] = q.Offset
	}
	if q.IncludeCosts {
		body["include_costs"] = true
	}
	if q.IncludeFeedback {
		body["include_feedback"] = true
	}
	return body
}

// QueryTraces streams matching calls from the trace server and returns them
// decoded. Lines that fail to decode are skipped with a warning rather than
// aborting the whole result.
func (c *Client) QueryTraces(ctx context.Context, query TraceQuery) ([]map[string]any, error) {
	resp, err := c.postJSON(ctx, c.traceURL+callsStreamQueryPath, "", query.requestBody())
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp)
	}

	var calls []map[string]any
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxTraceLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var call map[string]any
		if err := json.Unmarshal(line, &call); err != nil {
			logging.Warn("WandB", "Skipping undecodable trace line: %v", err)
			continue
		}
		calls = append(calls, call)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading trace stream: %w", err)
	}
	return calls, nil
}

// CountTraces returns the number of calls matching the query without
// retrieving them.
func (c *Client) CountTraces(ctx context.Context, query TraceQuery) (int, error) {
	body := query.requestBody()
	// Stats queries take no projection or paging parameters.
	delete(body, "columns")
	delete(body, "limit")
	delete(body, "offset")
	delete(body, "sort_by")

	resp, err := c.postJSON(ctx, c.traceURL+callsQueryStatsPath, "", body)
	if err != nil {
		return 0, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return 0, errorFromResponse(resp)
	}

	var stats struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return 0, fmt.Errorf("decoding trace stats: %w", err)
	}
	return stats.Count, nil
}
