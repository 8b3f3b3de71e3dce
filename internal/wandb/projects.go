package wandb

import (
	"context"
	"fmt"
)

// Project is a single project row from the entity listing.
type Project struct {
	Name        string `json:"name"`
	Entity      string `json:"entity"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	LastActive  string `json:"updatedAt,omitempty"`
}

const viewerEntitiesQuery = `
query Viewer {
  viewer {
    entity
    teams {
      edges { node { name } }
      pageInfo { endCursor hasNextPage }
    }
  }
}`

const entityProjectsQuery = `
query EntityProjects($entity: String!, $limit: Int, $after: String) {
  projects(entityName: $entity, first: $limit, after: $after) {
    edges {
      node {
        id
        name
        entityName
        description
        createdAt
        updatedAt
      }
    }
    pageInfo { endCursor hasNextPage }
  }
}`

// ListEntityProjects returns the projects visible under each entity. With
// an explicit entity only that one is listed; with an empty entity the
// caller's own username and team memberships are discovered first.
func (c *Client) ListEntityProjects(ctx context.Context, entity string, maxItems int) (map[string][]Project, error) {
	entities := []string{entity}
	if entity == "" {
		discovered, err := c.viewerEntities(ctx)
		if err != nil {
			return nil, err
		}
		entities = discovered
	}

	result := make(map[string][]Project, len(entities))
	for _, name := range entities {
		projects, err := c.entityProjects(ctx, name, maxItems)
		if err != nil {
			return nil, fmt.Errorf("listing projects for entity %q: %w", name, err)
		}
		result[name] = projects
	}
	return result, nil
}

func (c *Client) viewerEntities(ctx context.Context) ([]string, error) {
	data, err := c.ExecutePaginated(ctx, viewerEntitiesQuery, nil, DefaultMaxItems, DefaultItemsPerPage)
	if err != nil {
		return nil, err
	}
	viewer, ok := data["viewer"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("viewer query returned no viewer; check the API key")
	}

	var entities []string
	if own, ok := viewer["entity"].(string); ok && own != "" {
		entities = append(entities, own)
	}
	if teams, ok := viewer["teams"].(map[string]any); ok {
		for _, edge := range edgesOf(teams) {
			edgeMap, ok := edge.(map[string]any)
			if !ok {
				continue
			}
			if node, ok := edgeMap["node"].(map[string]any); ok {
				if name, ok := node["name"].(string); ok && name != "" {
					entities = append(entities, name)
				}
			}
		}
	}
	return entities, nil
}

func (c *Client) entityProjects(ctx context.Context, entity string, maxItems int) ([]Project, error) {
	data, err := c.ExecutePaginated(ctx, entityProjectsQuery,
		map[string]any{"entity": entity}, maxItems, DefaultItemsPerPage)
	if err != nil {
		return nil, err
	}
	projects, ok := data["projects"].(map[string]any)
	if !ok {
		return nil, nil
	}

	var out []Project
	for _, edge := range edgesOf(projects) {
		edgeMap, ok := edge.(map[string]any)
		if !ok {
			continue
		}
		node, ok := edgeMap["node"].(map[string]any)
		if !ok {
			continue
		}
		p := Project{Entity: entity}
		p.Name, _ = node["name"].(string)
		if en, ok := node["entityName"].(string); ok && en != "" {
			p.Entity = en
		}
		p.Description, _ = node["description"].(string)
		p.CreatedAt, _ = node["createdAt"].(string)
		p.LastActive, _ = node["updatedAt"].(string)
		out = append(out, p)
	}
	return out, nil
}
