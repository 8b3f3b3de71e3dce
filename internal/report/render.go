package report

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render executes a markdown body template with the sprig function set.
// Report bodies are authored by tool callers; a template error is a caller
// error and is returned verbatim.
func Render(body string, data map[string]any) (string, error) {
	tmpl, err := template.New("report").Funcs(sprig.TxtFuncMap()).Parse(body)
	if err != nil {
		return "", fmt.Errorf("parsing report template: %w", err)
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("rendering report template: %w", err)
	}
	return out.String(), nil
}

// MarkdownTable renders rows as a markdown table for inclusion in a report
// body.
func MarkdownTable(header []string, rows [][]string) string {
	w := table.NewWriter()
	// Keep header text exactly as given instead of the default upper-casing.
	w.Style().Format.Header = text.FormatDefault

	headerRow := make(table.Row, len(header))
	for i, cell := range header {
		headerRow[i] = cell
	}
	w.AppendHeader(headerRow)

	for _, row := range rows {
		tableRow := make(table.Row, len(row))
		for i, cell := range row {
			tableRow[i] = cell
		}
		w.AppendRow(tableRow)
	}
	return w.RenderMarkdown()
}
