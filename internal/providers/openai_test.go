package providers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/stretchr/testify/require"
)

func TestOpenAIChatModelComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "gpt-4o-mini", req["model"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": "hi there"}}},
		})
	}))
	defer srv.Close()

	cm, err := newOpenAIChatModel(model.ModelDescriptor{ID: "gpt-4o-mini"}, "test-key", srv.URL)
	require.NoError(t, err)

	result, err := cm.Complete(t.Context(), chatgraph.CompletionRequest{
		Messages: []model.ChatMessage{{Role: model.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hi there", result.Content)
	require.Equal(t, "stop", result.FinishReason)
}

func TestOpenAIChatModelNoCredentials(t *testing.T) {
	_, err := newOpenAIChatModel(model.ModelDescriptor{ID: "gpt-4o-mini"}, "", "")
	require.Error(t, err)
}

func TestOpenAIEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float64{0.1, 0.2, 0.3}},
				{"object": "embedding", "index": 1, "embedding": []float64{0.4, 0.5, 0.6}},
			},
		})
	}))
	defer srv.Close()

	vecs, err := openAIEmbed(t.Context(), model.ModelDescriptor{ID: "text-embedding-3-small"}, "test-key", srv.URL, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	require.InDelta(t, 0.1, vecs[0][0], 0.0001)
}
