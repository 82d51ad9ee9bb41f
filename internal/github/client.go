// Package github looks up GitHub Projects v2 item data over the GraphQL API.
package github

import (
	"context"
	"net/http"
	"time"

	"github.com/machinebox/graphql"
)

// DefaultEndpoint is the public GitHub GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// Client is a GitHub GraphQL API client for project item lookups.
type Client struct {
	gql   *graphql.Client
	token string
}

// New creates a client for endpoint authenticating with token.
// httpClient may be nil, in which case a client with a 30s timeout is used.
func New(endpoint, token string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		gql:   graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient)),
		token: token,
	}
}

// makeRequest executes a GraphQL request with authentication.
func (c *Client) makeRequest(ctx context.Context, req *graphql.Request, resp interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.gql.Run(ctx, req, resp)
}
