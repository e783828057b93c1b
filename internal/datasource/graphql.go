package datasource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/vtree/pkg/config"
)

// ErrGraphQL wraps errors reported in a GraphQL response body.
var ErrGraphQL = errors.New("graphql error")

// GraphQLRequest is the POST body sent to the endpoint.
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLError is one entry of a response's "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLResponse is the decoded JSON body returned by the endpoint.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// Err joins the response errors, or returns nil.
func (r GraphQLResponse) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
}

// GraphQLExecutor posts query documents to a fixed endpoint. It is a thin
// client: no caching, batching or schema handling.
type GraphQLExecutor struct {
	Endpoint string
	Client   *http.Client
}

// NewGraphQLExecutor returns an executor for endpoint, or the default
// endpoint when it is empty.
func NewGraphQLExecutor(endpoint string) *GraphQLExecutor {
	if endpoint == "" {
		endpoint = config.DefaultGraphQLEndpoint
	}
	return &GraphQLExecutor{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Execute sends query and variables and decodes the JSON response body.
func (e *GraphQLExecutor) Execute(ctx context.Context, query string, variables map[string]any) (GraphQLResponse, error) {
	var out GraphQLResponse

	body, err := json.Marshal(GraphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return out, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return out, fmt.Errorf("posting to %s: %w", e.Endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode >= 300 {
			return out, fmt.Errorf("%s: unexpected status %s", e.Endpoint, resp.Status)
		}
		return out, fmt.Errorf("decoding response: %w", err)
	}
	return out, nil
}

// LoadGraphQL runs query and reads items from the response data. Top-level
// fields are tried in name order and the first one that decodes as a list
// of items wins.
func LoadGraphQL(ctx context.Context, exec *GraphQLExecutor, query string, variables map[string]any) ([]Item, error) {
	resp, err := exec.Execute(ctx, query, variables)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &fields); err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var items []Item
		if err := json.Unmarshal(fields[name], &items); err != nil {
			continue
		}
		return items, nil
	}
	return nil, fmt.Errorf("no list of nodes in response data: %w", ErrUnknownFormat)
}
