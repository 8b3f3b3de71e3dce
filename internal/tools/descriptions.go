package tools

// Tool descriptions are the primary interface an AI assistant sees; they
// carry the product distinction between W&B Models (runs, sweeps,
// artifacts) and W&B Weave (LLM traces, evaluations) so the right tool gets
// picked.

const queryGQLDescription = `Execute a GraphQL query against the Weights & Biases (W&B) Models API.

Use this tool for W&B Models data: experiment tracking runs, metrics, artifacts,
model registry, sweeps and project reports. Do NOT use it for LLM traces,
evaluations or GenAI app observability; that is W&B Weave data, served by
query_weave_traces and count_weave_traces.

Keyword guide:
- "runs", "experiments", "metrics", "artifacts", "sweeps" -> this tool
- "traces", "LLM calls", "evals", "agents" -> query_weave_traces

Run ID vs display name: to fetch one run by its 8-character ID (e.g. gtng2y4l)
use run(name: $runId); a human-readable name like transformer_train_run_123 is
a display name and needs a filtered runs() query instead.

Every collection field (runs, files, artifacts, ...) MUST include
edges { node { ... } } and pageInfo { endCursor hasNextPage }. Declare $limit
and $after variables and pagination is handled automatically up to max_items.`

const listProjectsDescription = `List all projects for a W&B entity (username or team name).

Useful before querying runs or traces when the exact project name is unknown.
With no entity argument, lists projects for the authenticated user and all
their teams. If this fails, the entity name is likely wrong: it is either a
personal W&B username or a team name, both visible in W&B profile settings.`

const countTracesDescription = `Count W&B Weave traces matching the given filters without retrieving them.

Much cheaper than query_weave_traces when only the number is needed, e.g.
"how many failed traces yesterday". Use it first to gauge result size before
pulling full trace data.`

const queryTracesDescription = `Query W&B Weave traces: LLM calls, GenAI app executions, evaluations and
their inputs, outputs, latency, exceptions and costs.

Use this tool for observability questions about LLM and agent applications.
For experiment tracking runs and metrics use query_wandb_gql instead.

Results can be large; prefer a small limit, select specific columns, and use
filters (e.g. trace_roots_only: true for top-level calls only). Sort by
started_at desc to get the most recent traces first.`

const traceFiltersDescription = `Filter conditions object. Indexed fields: op_name / op_names, trace_id /
trace_ids, call_ids, parent_ids, input_refs, output_refs, wb_user_ids,
wb_run_ids, trace_roots_only (boolean). Computed fields: status
("success"/"error"), display_name, op_name_contains, has_exception (boolean),
latency ({"$gt": 500} style, milliseconds), time_range ({"start": ..., "end":
...} ISO datetimes), attributes ({"path.to.attr": value or operator dict}).`

const createReportDescription = `Create a W&B report in a project and return its URL.

Only call this when the user explicitly asks to create a report or save
analysis to W&B. The markdown body supports # / ## / ### headings, [TOC],
paragraphs, markdown tables, and Go template interpolation with sprig
functions over template_data. Always give the returned report link to the
user.`

const supportBotDescription = `Ask the W&B support bot a question about Weights & Biases products,
features, SDKs or integrations.

Best for "how do I ..." documentation questions (logging media, sweeps
configuration, Weave SDK usage). Not for querying the user's own data; use
the query tools for that.`
