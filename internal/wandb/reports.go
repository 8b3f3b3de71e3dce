package wandb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const upsertViewMutation = `
mutation UpsertView($entityName: String, $projectName: String, $displayName: String, $description: String, $type: String, $spec: String!) {
  upsertView(input: {entityName: $entityName, projectName: $projectName, displayName: $displayName, description: $description, type: $type, spec: $spec}) {
    view {
      id
      displayName
    }
  }
}`

// PublishReport creates a draft report in the project from a serialized
// view spec and returns its URL.
func (c *Client) PublishReport(ctx context.Context, entity, project, title, description, spec string) (string, error) {
	data, err := c.Execute(ctx, upsertViewMutation, map[string]any{
		"entityName":  entity,
		"projectName": project,
		"displayName": title,
		"description": description,
		"type":        "runs/draft",
		"spec":        spec,
	})
	if err != nil {
		return "", fmt.Errorf("creating report: %w", err)
	}

	upsert, ok := data["upsertView"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("report mutation returned no view")
	}
	view, ok := upsert["view"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("report mutation returned no view")
	}
	id, _ := view["id"].(string)
	if id == "" {
		return "", fmt.Errorf("report mutation returned no view ID")
	}

	return reportURL(entity, project, title, id), nil
}

// reportURL builds the canonical report link: the title slug joined to the
// view ID.
func reportURL(entity, project, title, viewID string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(strings.Join(strings.FieldsFunc(slug, func(r rune) bool { return r == '-' }), "-"), "-")
	if slug == "" {
		slug = "report"
	}
	return fmt.Sprintf("https://wandb.ai/%s/%s/reports/%s--%s",
		url.PathEscape(entity), url.PathEscape(project), slug, viewID)
}
