package github

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"
)

// assigneesPageSize bounds the assignees fetched per item.
const assigneesPageSize = 10

// ItemTitle returns the title of the issue, pull request or draft behind a project item.
// An empty title with a nil error means the item has no readable content.
func (c *Client) ItemTitle(ctx context.Context, itemNodeID string) (string, error) {
	req := graphql.NewRequest(`
		query($id: ID!) {
			node(id: $id) {
				... on ProjectV2Item {
					content {
						... on DraftIssue { title }
						... on Issue { title }
						... on PullRequest { title }
					}
				}
			}
		}
	`)
	req.Var("id", itemNodeID)

	var resp struct {
		Node *struct {
			Content *struct {
				Title string `json:"title"`
			} `json:"content"`
		} `json:"node"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch item title: %w", err)
	}
	if resp.Node == nil || resp.Node.Content == nil {
		return "", nil
	}
	return resp.Node.Content.Title, nil
}

// ItemAssignees returns the node ids of the users assigned to a project item, in tracker order.
func (c *Client) ItemAssignees(ctx context.Context, itemNodeID string) ([]string, error) {
	req := graphql.NewRequest(`
		query($id: ID!, $first: Int!) {
			node(id: $id) {
				... on ProjectV2Item {
					content {
						... on DraftIssue { assignees(first: $first) { nodes { id } } }
						... on Issue { assignees(first: $first) { nodes { id } } }
						... on PullRequest { assignees(first: $first) { nodes { id } } }
					}
				}
			}
		}
	`)
	req.Var("id", itemNodeID)
	req.Var("first", assigneesPageSize)

	var resp struct {
		Node *struct {
			Content *struct {
				Assignees struct {
					Nodes []struct {
						ID string `json:"id"`
					} `json:"nodes"`
				} `json:"assignees"`
			} `json:"content"`
		} `json:"node"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch item assignees: %w", err)
	}
	if resp.Node == nil || resp.Node.Content == nil {
		return []string{}, nil
	}

	assignees := make([]string, 0, len(resp.Node.Content.Assignees.Nodes))
	for _, node := range resp.Node.Content.Assignees.Nodes {
		if node.ID != "" {
			assignees = append(assignees, node.ID)
		}
	}
	return assignees, nil
}

// SingleSelectValue returns the option name currently selected in the named single-select field.
func (c *Client) SingleSelectValue(ctx context.Context, itemNodeID, fieldName string) (string, error) {
	req := graphql.NewRequest(`
		query($id: ID!, $fieldName: String!) {
			node(id: $id) {
				... on ProjectV2Item {
					fieldValueByName(name: $fieldName) {
						... on ProjectV2ItemFieldSingleSelectValue { name }
					}
				}
			}
		}
	`)
	req.Var("id", itemNodeID)
	req.Var("fieldName", fieldName)

	var resp struct {
		Node *struct {
			FieldValueByName *struct {
				Name string `json:"name"`
			} `json:"fieldValueByName"`
		} `json:"node"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("failed to fetch field %s: %w", fieldName, err)
	}
	if resp.Node == nil || resp.Node.FieldValueByName == nil {
		return "", nil
	}
	return resp.Node.FieldValueByName.Name, nil
}
