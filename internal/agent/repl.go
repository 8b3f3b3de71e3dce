package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mark3labs/mcp-go/mcp"
)

// descriptionColumnWidth caps the description column in the tool table.
// The full text is available via 'describe'.
const descriptionColumnWidth = 72

// errExit signals a clean exit from the command loop.
var errExit = errors.New("exit")

// toolClient is the slice of Client the REPL needs. Narrowed for tests.
type toolClient interface {
	ListTools(ctx context.Context) ([]mcp.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error)
	ServerInfo() (name, version string)
}

// REPL is an interactive command loop against a connected gateway client.
// It supports listing tools, inspecting their schemas and calling them with
// JSON arguments, with tab completion and persistent history.
type REPL struct {
	client toolClient
	out    io.Writer
	rl     *readline.Instance
	tools  []mcp.Tool
}

// NewREPL creates a REPL over an already connected client.
func NewREPL(client *Client) *REPL {
	return &REPL{
		client: client,
		out:    os.Stdout,
	}
}

// Run enters the command loop and blocks until the user exits or the
// context is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.refreshTools(ctx); err != nil {
		return err
	}

	name, version := r.client.ServerInfo()
	fmt.Fprintf(r.out, "Connected to %s %s (%d tools). Type 'help' for commands.\n\n", name, version, len(r.tools))

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "tracegate> ",
		HistoryFile:       filepath.Join(os.TempDir(), ".tracegate_agent_history"),
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if err := r.executeCommand(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
		fmt.Fprintln(r.out)
	}
}

// executeCommand parses and dispatches a single input line.
func (r *REPL) executeCommand(ctx context.Context, input string) error {
	command, rest := splitCommand(input)

	switch command {
	case "help", "?":
		r.printHelp()
		return nil
	case "tools", "list":
		if err := r.refreshTools(ctx); err != nil {
			return err
		}
		fmt.Fprintln(r.out, RenderToolTable(r.tools))
		return nil
	case "describe":
		return r.describeTool(rest)
	case "call":
		return r.callTool(ctx, rest)
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("unknown command %q, type 'help' for available commands", command)
	}
}

func (r *REPL) refreshTools(ctx context.Context) error {
	tools, err := r.client.ListTools(ctx)
	if err != nil {
		return err
	}
	r.tools = tools
	return nil
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, `Commands:
  tools                      List available tools
  describe <tool>            Show a tool's full description and input schema
  call <tool> [json-args]    Call a tool, e.g. call query_wandb_entity_projects {"entity": "my-team"}
  help                       Show this help
  exit                       Leave the REPL
`)
}

func (r *REPL) describeTool(name string) error {
	if name == "" {
		return fmt.Errorf("usage: describe <tool>")
	}
	tool, ok := r.findTool(name)
	if !ok {
		return fmt.Errorf("unknown tool %q", name)
	}

	fmt.Fprintf(r.out, "%s\n\n%s\n", tool.Name, tool.Description)
	schema, err := json.MarshalIndent(tool.InputSchema, "", "  ")
	if err == nil {
		fmt.Fprintf(r.out, "\nInput schema:\n%s\n", schema)
	}
	return nil
}

func (r *REPL) callTool(ctx context.Context, rest string) error {
	name, argsJSON := splitCommand(rest)
	if name == "" {
		return fmt.Errorf("usage: call <tool> [json-args]")
	}
	if _, ok := r.findTool(name); !ok {
		return fmt.Errorf("unknown tool %q", name)
	}

	args := map[string]interface{}{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	spin.Writer = os.Stderr
	spin.Suffix = fmt.Sprintf(" calling %s...", name)
	spin.Start()
	result, err := r.client.CallTool(ctx, name, args)
	spin.Stop()
	if err != nil {
		return err
	}

	if result.IsError {
		return fmt.Errorf("%s", FlattenContent(result.Content))
	}
	fmt.Fprintln(r.out, FlattenContent(result.Content))
	return nil
}

func (r *REPL) findTool(name string) (mcp.Tool, bool) {
	for _, tool := range r.tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return mcp.Tool{}, false
}

// toolNames feeds tab completion for 'call' and 'describe'.
func (r *REPL) toolNames(string) []string {
	names := make([]string, 0, len(r.tools))
	for _, tool := range r.tools {
		names = append(names, tool.Name)
	}
	return names
}

func (r *REPL) completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("tools"),
		readline.PcItem("list"),
		readline.PcItem("describe", readline.PcItemDynamic(r.toolNames)),
		readline.PcItem("call", readline.PcItemDynamic(r.toolNames)),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

// splitCommand separates the first whitespace-delimited word from the rest
// of the line. The rest keeps its internal spacing, which matters for JSON
// arguments.
func splitCommand(input string) (command, rest string) {
	input = strings.TrimSpace(input)
	if i := strings.IndexAny(input, " \t"); i >= 0 {
		return input[:i], strings.TrimSpace(input[i+1:])
	}
	return input, ""
}

// RenderToolTable formats the tool catalog as an ASCII table with the
// first line of each description.
func RenderToolTable(tools []mcp.Tool) string {
	w := table.NewWriter()
	w.AppendHeader(table.Row{"Tool", "Description"})
	for _, tool := range tools {
		w.AppendRow(table.Row{tool.Name, summarize(tool.Description)})
	}
	return w.Render()
}

// summarize reduces a multi-line tool description to a bounded first line.
func summarize(description string) string {
	line := description
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if len(line) > descriptionColumnWidth {
		line = line[:descriptionColumnWidth-3] + "..."
	}
	return line
}

// FlattenContent joins the text parts of a tool result. Non-text content
// is noted but not rendered.
func FlattenContent(content []mcp.Content) string {
	var parts []string
	for _, item := range content {
		if text, ok := mcp.AsTextContent(item); ok {
			parts = append(parts, text.Text)
		} else {
			parts = append(parts, fmt.Sprintf("<non-text content: %T>", item))
		}
	}
	return strings.Join(parts, "\n")
}
