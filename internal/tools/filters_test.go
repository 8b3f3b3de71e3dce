package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTraceFilterIndexedFields(t *testing.T) {
	filter, expr := buildTraceFilter(map[string]any{
		"op_name":          "predict",
		"op_names":         []any{"evaluate"},
		"trace_id":         "t1",
		"trace_roots_only": true,
	})
	require.NotNil(t, filter)
	assert.ElementsMatch(t, []string{"predict", "evaluate"}, filter.OpNames)
	assert.Equal(t, []string{"t1"}, filter.TraceIDs)
	assert.True(t, filter.TraceRootsOnly)
	assert.Nil(t, expr)
}

func TestBuildTraceFilterStatusCondition(t *testing.T) {
	filter, expr := buildTraceFilter(map[string]any{"status": "Error"})
	assert.Nil(t, filter)
	require.NotNil(t, expr)

	pair := expr["$eq"].([]any)
	assert.Equal(t, map[string]any{"$getField": "summary.weave.status"}, pair[0])
	assert.Equal(t, map[string]any{"$literal": "error"}, pair[1])
}

func TestBuildTraceFilterLatencyOperators(t *testing.T) {
	_, gt := buildTraceFilter(map[string]any{"latency": map[string]any{"$gt": 500}})
	require.Contains(t, gt, "$gt")

	// $lt has no server-side operator and compiles to a negated $gte.
	_, lt := buildTraceFilter(map[string]any{"latency": map[string]any{"$lt": 500}})
	require.Contains(t, lt, "$not")
	negated := lt["$not"].([]any)[0].(map[string]any)
	assert.Contains(t, negated, "$gte")
}

func TestBuildTraceFilterHasException(t *testing.T) {
	_, with := buildTraceFilter(map[string]any{"has_exception": true})
	require.Contains(t, with, "$not")

	_, without := buildTraceFilter(map[string]any{"has_exception": false})
	require.Contains(t, without, "$eq")
}

func TestBuildTraceFilterCombinesConditions(t *testing.T) {
	filter, expr := buildTraceFilter(map[string]any{
		"trace_roots_only": true,
		"status":           "success",
		"latency":          map[string]any{"$gt": 1000},
		"attributes":       map[string]any{"metadata.environment": "production"},
	})
	require.NotNil(t, filter)
	require.NotNil(t, expr)

	conditions, ok := expr["$and"].([]any)
	require.True(t, ok, "multiple conditions must combine under $and")
	assert.Len(t, conditions, 3)
}

func TestBuildTraceFilterIgnoresUnknownKeys(t *testing.T) {
	filter, expr := buildTraceFilter(map[string]any{"no_such_filter": 1})
	assert.Nil(t, filter)
	assert.Nil(t, expr)
}

func TestBuildTraceFilterEmpty(t *testing.T) {
	filter, expr := buildTraceFilter(nil)
	assert.Nil(t, filter)
	assert.Nil(t, expr)
}
