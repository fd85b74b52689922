package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/promptstore"
	"github.com/stretchr/testify/require"
)

type fakeDiscoverer struct {
	stores []model.VectorStore
	err    error
}

func (f *fakeDiscoverer) Discovery(ctx context.Context, enabledModelIDs map[string]bool, filterEnabledModels bool) ([]model.VectorStore, error) {
	return f.stores, f.err
}

type fakeModel struct {
	content string
	err     error
}

func (f *fakeModel) Complete(ctx context.Context, req chatgraph.CompletionRequest) (chatgraph.CompletionResult, error) {
	if f.err != nil {
		return chatgraph.CompletionResult{}, f.err
	}
	return chatgraph.CompletionResult{Content: f.content}, nil
}

func (f *fakeModel) StreamComplete(ctx context.Context, req chatgraph.CompletionRequest, emit func(string)) (chatgraph.CompletionResult, error) {
	return f.Complete(ctx, req)
}

type fakeResolver struct {
	model chatgraph.ChatModel
	err   error
}

func (f *fakeResolver) Resolve(ctx context.Context, modelID string) (chatgraph.ChatModel, error) {
	return f.model, f.err
}

func newTestServer(t *testing.T, discoverer chatgraph.Discoverer, resolver chatgraph.ModelResolver) (*Server, *clientsettings.Store) {
	t.Helper()
	cs := clientsettings.New(model.ClientSettings{
		PromptRefs:   map[model.PromptCategory]string{},
		ToolsEnabled: map[string]bool{},
		SelectAI:     model.SelectAISettings{Params: map[string]string{}},
	})
	srv, err := NewServer(Config{
		Clients:    cs,
		Prompts:    promptstore.New(),
		Discoverer: discoverer,
		Models:     resolver,
		APIKey:     "secret",
	})
	require.NoError(t, err)
	return srv, cs
}

func TestDiscoveryDisabledReturnsConfiguredTable(t *testing.T) {
	srv, cs := newTestServer(t, &fakeDiscoverer{}, &fakeResolver{})
	err := cs.Patch(clientsettings.DefaultClientID, model.ClientSettings{
		VectorSearch: model.VectorSearchSettings{TableName: "DOCS_TABLE", Alias: "docs"},
	})
	require.NoError(t, err)

	_, out, err := srv.handleVSDiscovery(context.Background(), nil, VectorTableInput{ClientID: clientsettings.DefaultClientID})
	require.NoError(t, err)
	require.Equal(t, "success", out.Status)
	require.Len(t, out.Tables, 1)
	require.Equal(t, "DOCS_TABLE", out.Tables[0].TableName)
}

func TestDiscoveryEnabledQueriesDiscoverer(t *testing.T) {
	disc := &fakeDiscoverer{stores: []model.VectorStore{{TableName: "T1", Alias: "one"}, {TableName: "T2", Alias: "two"}}}
	srv, cs := newTestServer(t, disc, &fakeResolver{})
	err := cs.Patch(clientsettings.DefaultClientID, model.ClientSettings{
		VectorSearch: model.VectorSearchSettings{Discovery: true},
	})
	require.NoError(t, err)

	_, out, err := srv.handleVSDiscovery(context.Background(), nil, VectorTableInput{ClientID: clientsettings.DefaultClientID})
	require.NoError(t, err)
	require.Equal(t, "success", out.Status)
	require.Len(t, out.Tables, 2)
}

func TestRephraseSkippedWhenDisabled(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDiscoverer{}, &fakeResolver{})

	_, out, err := srv.handleVSRephrase(context.Background(), nil, RephraseInput{
		ClientID: clientsettings.DefaultClientID,
		Question: "what is it",
	})
	require.NoError(t, err)
	require.False(t, out.WasRephrased)
	require.Equal(t, "what is it", out.RephrasedPrompt)
}

func TestRephraseFiresWithSufficientHistory(t *testing.T) {
	resolver := &fakeResolver{model: &fakeModel{content: "standalone rephrased question"}}
	srv, cs := newTestServer(t, &fakeDiscoverer{}, resolver)
	err := cs.Patch(clientsettings.DefaultClientID, model.ClientSettings{
		LanguageModel: model.LanguageModelSettings{History: true},
		VectorSearch:  model.VectorSearchSettings{Enabled: true, Rephrase: true},
	})
	require.NoError(t, err)

	_, out, err := srv.handleVSRephrase(context.Background(), nil, RephraseInput{
		ClientID:    clientsettings.DefaultClientID,
		Question:    "and what about it",
		ChatHistory: []string{"what is X", "X is a thing"},
	})
	require.NoError(t, err)
	require.True(t, out.WasRephrased)
	require.Equal(t, "standalone rephrased question", out.RephrasedPrompt)
}

func TestPromptGetResolvesOverride(t *testing.T) {
	srv, _ := newTestServer(t, &fakeDiscoverer{}, &fakeResolver{})
	require.NoError(t, srv.prompts.SetOverride("optimizer_sys", "custom system prompt"))

	_, out, err := srv.handlePromptGet(context.Background(), nil, PromptGetInput{Name: "optimizer_sys"})
	require.NoError(t, err)
	require.Equal(t, "custom system prompt", out.Text)
}

func TestAPIKeyMiddlewareRejectsMismatchedKey(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := APIKeyMiddleware("secret", inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPIKeyMiddlewareAcceptsMatchingKey(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := APIKeyMiddleware("secret", inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
