package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenmind/agent-service/internal/services/providers/anthropic"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *anthropic.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := anthropic.NewClient(anthropic.Config{
		APIKey:  "test-key",
		Model:   "claude-3-5-sonnet-20241022",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return client
}

func TestComplete_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "be supportive", req["system"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{
				{"type": "text", "text": "I hear you."},
			},
		})
	})

	text, err := client.Complete(context.Background(), "be supportive", []anthropic.Message{
		{Role: "user", Content: "hi"},
	})

	require.NoError(t, err)
	assert.Equal(t, "I hear you.", text)
}

func TestComplete_SkipsNonTextBlocks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{
				{"type": "thinking", "text": "..."},
				{"type": "text", "text": "the reply"},
			},
		})
	})

	text, err := client.Complete(context.Background(), "", []anthropic.Message{{Role: "user", Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "the reply", text)
}

func TestComplete_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusServiceUnavailable)
	})

	_, err := client.Complete(context.Background(), "", []anthropic.Message{{Role: "user", Content: "hi"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestComplete_NoTextContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"content": []interface{}{}})
	})

	_, err := client.Complete(context.Background(), "", []anthropic.Message{{Role: "user", Content: "hi"}})

	assert.Error(t, err)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := anthropic.NewClient(anthropic.Config{Model: "claude-3-5-sonnet-20241022"})
	assert.Error(t, err)

	_, err = anthropic.NewClient(anthropic.Config{APIKey: "key"})
	assert.Error(t, err)
}
