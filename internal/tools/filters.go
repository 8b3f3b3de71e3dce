package tools

import (
	"fmt"
	"strings"

	"tracegate/internal/wandb"
	"tracegate/pkg/logging"
)

// Trace filter translation. Callers pass one flat filters object; the
// indexed fields go into the trace server's filter document and everything
// else compiles to a mongo-style $expr condition.

func fieldEq(field string, value any) map[string]any {
	return map[string]any{"$eq": []any{
		map[string]any{"$getField": field},
		map[string]any{"$literal": value},
	}}
}

func fieldCmp(op, field string, value any) map[string]any {
	pair := []any{
		map[string]any{"$getField": field},
		map[string]any{"$literal": value},
	}
	switch op {
	case "$gt", "$gte":
		return map[string]any{op: pair}
	case "$eq":
		return map[string]any{"$eq": pair}
	// The trace server has no $lt/$lte; express them by negation.
	case "$lt":
		return map[string]any{"$not": []any{map[string]any{"$gte": pair}}}
	case "$lte":
		return map[string]any{"$not": []any{map[string]any{"$gt": pair}}}
	}
	return nil
}

func fieldContains(field, substring string) map[string]any {
	return map[string]any{"$contains": map[string]any{
		"input":  map[string]any{"$getField": field},
		"substr": map[string]any{"$literal": substring},
	}}
}

func stringList(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	}
	return nil
}

// buildTraceFilter splits a flat filters object into the indexed
// CallsFilter and an $expr condition. Unrecognized keys are ignored with a
// warning instead of failing the whole query.
func buildTraceFilter(filters map[string]any) (*wandb.CallsFilter, map[string]any) {
	if len(filters) == 0 {
		return nil, nil
	}

	filter := &wandb.CallsFilter{}
	hasIndexed := false
	var conditions []map[string]any

	for key, value := range filters {
		switch key {
		case "op_name", "op_names":
			filter.OpNames = append(filter.OpNames, stringList(value)...)
			hasIndexed = true
		case "trace_id", "trace_ids":
			filter.TraceIDs = append(filter.TraceIDs, stringList(value)...)
			hasIndexed = true
		case "call_ids":
			filter.CallIDs = stringList(value)
			hasIndexed = true
		case "parent_ids":
			filter.ParentIDs = stringList(value)
			hasIndexed = true
		case "input_refs":
			filter.InputRefs = stringList(value)
			hasIndexed = true
		case "output_refs":
			filter.OutputRefs = stringList(value)
			hasIndexed = true
		case "wb_user_ids":
			filter.WBUserIDs = stringList(value)
			hasIndexed = true
		case "wb_run_ids":
			filter.WBRunIDs = stringList(value)
			hasIndexed = true
		case "trace_roots_only":
			if roots, ok := value.(bool); ok {
				filter.TraceRootsOnly = roots
				hasIndexed = true
			}

		case "status":
			if status, ok := value.(string); ok {
				conditions = append(conditions,
					fieldEq("summary.weave.status", strings.ToLower(status)))
			}
		case "display_name":
			if name, ok := value.(string); ok {
				conditions = append(conditions, fieldEq("display_name", name))
			}
		case "op_name_contains":
			if substr, ok := value.(string); ok {
				conditions = append(conditions, fieldContains("op_name", substr))
			}
		case "latency":
			if cond := comparisonCondition("summary.weave.latency_ms", value); cond != nil {
				conditions = append(conditions, cond)
			}
		case "has_exception":
			if want, ok := value.(bool); ok {
				noException := fieldEq("exception", nil)
				if want {
					conditions = append(conditions,
						map[string]any{"$not": []any{noException}})
				} else {
					conditions = append(conditions, noException)
				}
			}
		case "time_range":
			conditions = append(conditions, timeRangeConditions(value)...)
		case "attributes":
			conditions = append(conditions, attributeConditions(value)...)

		default:
			logging.Warn("Tools", "Ignoring unsupported trace filter key %q", key)
		}
	}

	if !hasIndexed {
		filter = nil
	}
	return filter, combineConditions(conditions)
}

// comparisonCondition handles a literal equality or a single-operator dict
// like {"$gt": 500}.
func comparisonCondition(field string, value any) map[string]any {
	if opDict, ok := value.(map[string]any); ok {
		if len(opDict) != 1 {
			logging.Warn("Tools", "Filter on %s expects exactly one operator, got %d", field, len(opDict))
			return nil
		}
		for op, operand := range opDict {
			if cond := fieldCmp(op, field, operand); cond != nil {
				return cond
			}
			logging.Warn("Tools", "Unsupported operator %q for filter on %s", op, field)
			return nil
		}
	}
	return fieldEq(field, value)
}

func timeRangeConditions(value any) []map[string]any {
	rangeDict, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	var conditions []map[string]any
	if start, ok := rangeDict["start"]; ok {
		conditions = append(conditions, fieldCmp("$gte", "started_at", start))
	}
	if end, ok := rangeDict["end"]; ok {
		conditions = append(conditions, fieldCmp("$lte", "started_at", end))
	}
	return conditions
}

func attributeConditions(value any) []map[string]any {
	attrs, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	var conditions []map[string]any
	for path, match := range attrs {
		field := fmt.Sprintf("attributes.%s", path)
		if cond := comparisonCondition(field, match); cond != nil {
			conditions = append(conditions, cond)
		}
	}
	return conditions
}

func combineConditions(conditions []map[string]any) map[string]any {
	switch len(conditions) {
	case 0:
		return nil
	case 1:
		return conditions[0]
	default:
		anyConds := make([]any, len(conditions))
		for i, c := range conditions {
			anyConds[i] = c
		}
		return map[string]any{"$and": anyConds}
	}
}
