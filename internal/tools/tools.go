package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tracegate/internal/report"
	"tracegate/internal/wandb"
	"tracegate/pkg/logging"
)

// Toolset exposes the W&B platform tools over MCP. All upstream calls
// resolve the caller's credential from the request context, so one toolset
// serves every authenticated session.
type Toolset struct {
	client *wandb.Client
}

// Register adds the full tool surface to the MCP server.
func Register(s *server.MCPServer, client *wandb.Client) {
	ts := &Toolset{client: client}

	s.AddTool(mcp.NewTool("query_wandb_gql",
		mcp.WithDescription(queryGQLDescription),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("GraphQL query string. Collections must follow the connection pattern: edges { node { ... } } pageInfo { endCursor hasNextPage }. Declare $limit and $after variables to enable pagination."),
		),
		mcp.WithObject("variables",
			mcp.Description("Variables to pass to the GraphQL query"),
		),
		mcp.WithNumber("max_items",
			mcp.Description("Maximum number of items to aggregate across pages (default 100)"),
		),
		mcp.WithNumber("items_per_page",
			mcp.Description("Page size requested from the server (default 50)"),
		),
	), ts.handleQueryGQL)

	s.AddTool(mcp.NewTool("query_wandb_entity_projects",
		mcp.WithDescription(listProjectsDescription),
		mcp.WithString("entity",
			mcp.Description("W&B entity (username or team). When omitted, lists projects for the caller's own entity and teams."),
		),
	), ts.handleListProjects)

	s.AddTool(mcp.NewTool("count_weave_traces",
		mcp.WithDescription(countTracesDescription),
		mcp.WithString("entity_name",
			mcp.Required(),
			mcp.Description("W&B entity name (team or username)"),
		),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("W&B project name"),
		),
		mcp.WithObject("filters",
			mcp.Description(traceFiltersDescription),
		),
	), ts.handleCountTraces)

	s.AddTool(mcp.NewTool("query_weave_traces",
		mcp.WithDescription(queryTracesDescription),
		mcp.WithString("entity_name",
			mcp.Required(),
			mcp.Description("W&B entity name (team or username)"),
		),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("W&B project name"),
		),
		mcp.WithObject("filters",
			mcp.Description(traceFiltersDescription),
		),
		mcp.WithString("sort_by",
			mcp.Description("Field to sort by (default started_at)"),
		),
		mcp.WithString("sort_direction",
			mcp.Description("asc or desc (default desc)"),
		),
		mcp.WithArray("columns",
			mcp.Description("Columns to return; omit for all. Fewer columns means smaller results."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of traces to return (default 20)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of traces to skip for paging"),
		),
		mcp.WithBoolean("include_costs",
			mcp.Description("Include derived token cost data"),
		),
		mcp.WithBoolean("include_feedback",
			mcp.Description("Include attached feedback records"),
		),
	), ts.handleQueryTraces)

	s.AddTool(mcp.NewTool("create_wandb_report",
		mcp.WithDescription(createReportDescription),
		mcp.WithString("entity_name",
			mcp.Required(),
			mcp.Description("W&B entity the report is saved under"),
		),
		mcp.WithString("project_name",
			mcp.Required(),
			mcp.Description("W&B project the report is saved under"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Report title"),
		),
		mcp.WithString("description",
			mcp.Description("Short report description"),
		),
		mcp.WithString("markdown_report_text",
			mcp.Required(),
			mcp.Description("Markdown body. # / ## / ### become headings, [TOC] a table of contents. Go template syntax with sprig functions is supported together with template_data."),
		),
		mcp.WithObject("template_data",
			mcp.Description("Values interpolated into the markdown body template"),
		),
	), ts.handleCreateReport)

	s.AddTool(mcp.NewTool("query_wandb_support_bot",
		mcp.WithDescription(supportBotDescription),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("Question about a W&B product or feature"),
		),
	), ts.handleSupportBot)

	logging.Info("Tools", "Registered %d W&B tools", 6)
}

func jsonResult(value any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func objectArg(request mcp.CallToolRequest, key string) map[string]any {
	value, ok := request.GetArguments()[key].(map[string]any)
	if !ok {
		return nil
	}
	return value
}

func (t *Toolset) handleQueryGQL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required"), nil
	}

	data, err := t.client.ExecutePaginated(ctx, query,
		objectArg(request, "variables"),
		request.GetInt("max_items", wandb.DefaultMaxItems),
		request.GetInt("items_per_page", wandb.DefaultItemsPerPage))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("GraphQL query failed: %v", err)), nil
	}
	return jsonResult(data)
}

func (t *Toolset) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entity := request.GetString("entity", "")

	projects, err := t.client.ListEntityProjects(ctx, entity, wandb.DefaultMaxItems)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to list projects: %v. Double check the entity name; it is either a W&B username or a team name.", err)), nil
	}
	return jsonResult(projects)
}

func (t *Toolset) handleCountTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entity, err := request.RequireString("entity_name")
	if err != nil {
		return mcp.NewToolResultError("entity_name argument is required"), nil
	}
	project, err := request.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError("project_name argument is required"), nil
	}

	filter, expr := buildTraceFilter(objectArg(request, "filters"))
	count, err := t.client.CountTraces(ctx, wandb.TraceQuery{
		Entity:  entity,
		Project: project,
		Filter:  filter,
		Expr:    expr,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to count traces: %v", err)), nil
	}
	return jsonResult(map[string]any{"count": count, "project_id": entity + "/" + project})
}

const defaultTraceLimit = 20

func (t *Toolset) handleQueryTraces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entity, err := request.RequireString("entity_name")
	if err != nil {
		return mcp.NewToolResultError("entity_name argument is required"), nil
	}
	project, err := request.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError("project_name argument is required"), nil
	}

	filter, expr := buildTraceFilter(objectArg(request, "filters"))
	query := wandb.TraceQuery{
		Entity:          entity,
		Project:         project,
		Filter:          filter,
		Expr:            expr,
		Columns:         request.GetStringSlice("columns", nil),
		Limit:           request.GetInt("limit", defaultTraceLimit),
		Offset:          request.GetInt("offset", 0),
		IncludeCosts:    request.GetBool("include_costs", false),
		IncludeFeedback: request.GetBool("include_feedback", false),
	}
	if field := request.GetString("sort_by", "started_at"); field != "" {
		direction := request.GetString("sort_direction", "desc")
		if direction != "asc" && direction != "desc" {
			return mcp.NewToolResultError("sort_direction must be asc or desc"), nil
		}
		query.SortBy = []wandb.SortBy{{Field: field, Direction: direction}}
	}

	calls, err := t.client.QueryTraces(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query traces: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"project_id": entity + "/" + project,
		"count":      len(calls),
		"traces":     calls,
	})
}

func (t *Toolset) handleCreateReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entity, err := request.RequireString("entity_name")
	if err != nil {
		return mcp.NewToolResultError("entity_name argument is required"), nil
	}
	project, err := request.RequireString("project_name")
	if err != nil {
		return mcp.NewToolResultError("project_name argument is required"), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required"), nil
	}
	body, err := request.RequireString("markdown_report_text")
	if err != nil {
		return mcp.NewToolResultError("markdown_report_text argument is required"), nil
	}

	rendered, err := report.Render(body, objectArg(request, "template_data"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid report body: %v", err)), nil
	}
	spec, err := report.BuildSpec(rendered)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build report: %v", err)), nil
	}

	url, err := t.client.PublishReport(ctx, entity, project, title,
		request.GetString("description", ""), spec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create report: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"url":     url,
		"message": "Report created. Always share the report link with the user.",
	})
}

func (t *Toolset) handleSupportBot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required"), nil
	}

	answer, err := t.client.AskSupportBot(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Support bot unavailable: %v", err)), nil
	}
	return jsonResult(answer)
}
