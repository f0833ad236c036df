// Package weaviate provides the Weaviate vector store implementation.
package weaviate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/havenmind/agent-service/internal/core/vectorstore"
	"github.com/havenmind/agent-service/internal/domain/models"
)

// Config holds Weaviate connection configuration.
type Config struct {
	URL        string
	APIKey     string
	Class      string
	HTTPClient *http.Client
}

// Client implements the vectorstore.Client interface over the Weaviate
// REST and GraphQL APIs.
type Client struct {
	baseURL    string
	apiKey     string
	class      string
	httpClient *http.Client
}

// NewClient creates a new Weaviate client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("weaviate URL is required")
	}
	if cfg.Class == "" {
		return nil, fmt.Errorf("weaviate class is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		class:      cfg.Class,
		httpClient: httpClient,
	}, nil
}

type objectPayload struct {
	Class      string                 `json:"class"`
	ID         string                 `json:"id,omitempty"`
	Vector     []float32              `json:"vector"`
	Properties map[string]interface{} `json:"properties"`
}

// Upsert stores an embedding record under the given id.
func (c *Client) Upsert(ctx context.Context, id string, record *models.EmbeddingRecord) error {
	payload := objectPayload{
		Class:  c.class,
		ID:     id,
		Vector: record.Vector,
		Properties: map[string]interface{}{
			"conversationId": record.ConversationID,
			"turnIndex":      record.TurnIndex,
			"speaker":        record.Speaker,
			"textChunk":      record.TextChunk,
			"timestamp":      record.Timestamp.UTC().Format(time.RFC3339),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal object: %w", err)
	}

	url := fmt.Sprintf("%s/v1/objects", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

type graphqlRequest struct {
	Query string `json:"query"`
}

type graphqlResponse struct {
	Data   map[string]map[string][]graphqlObject `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type graphqlObject struct {
	ConversationID string `json:"conversationId"`
	TurnIndex      int    `json:"turnIndex"`
	Speaker        string `json:"speaker"`
	TextChunk      string `json:"textChunk"`
	Timestamp      string `json:"timestamp"`
	Additional     struct {
		Distance float64 `json:"distance"`
	} `json:"_additional"`
}

// QueryNear returns up to limit records nearest to the vector.
func (c *Client) QueryNear(ctx context.Context, vector []float32, limit int, filter *vectorstore.QueryFilter) ([]vectorstore.Match, error) {
	where := ""
	if filter != nil && filter.ConversationID != "" {
		where = fmt.Sprintf(`, where: {path: ["conversationId"], operator: Equal, valueText: %q}`, filter.ConversationID)
	}

	query := fmt.Sprintf(
		`{ Get { %s(nearVector: {vector: %s}, limit: %d%s) { conversationId turnIndex speaker textChunk timestamp _additional { distance } } } }`,
		c.class, formatVector(vector), limit, where,
	)

	body, err := json.Marshal(graphqlRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	url := fmt.Sprintf("%s/v1/graphql", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("graphql query failed: %s", gqlResp.Errors[0].Message)
	}

	objects := gqlResp.Data["Get"][c.class]
	matches := make([]vectorstore.Match, 0, len(objects))
	for _, obj := range objects {
		ts, _ := time.Parse(time.RFC3339, obj.Timestamp)
		matches = append(matches, vectorstore.Match{
			Record: models.EmbeddingRecord{
				ConversationID: obj.ConversationID,
				TurnIndex:      obj.TurnIndex,
				Speaker:        obj.Speaker,
				TextChunk:      obj.TextChunk,
				Timestamp:      ts,
			},
			Distance: obj.Additional.Distance,
		})
	}
	return matches, nil
}

// Ping checks if the Weaviate instance is reachable.
func (c *Client) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1/.well-known/ready", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weaviate ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weaviate not ready: status %d", resp.StatusCode)
	}
	return nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func formatVector(vector []float32) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
