package chatgraph

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/promptstore"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	completeFn func(CompletionRequest) (CompletionResult, error)
	streamFn   func(CompletionRequest, func(string)) (CompletionResult, error)
}

func (f *fakeModel) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if f.completeFn != nil {
		return f.completeFn(req)
	}
	return CompletionResult{Content: "true"}, nil
}

func (f *fakeModel) StreamComplete(ctx context.Context, req CompletionRequest, emit func(string)) (CompletionResult, error) {
	if f.streamFn != nil {
		return f.streamFn(req, emit)
	}
	emit("hello")
	return CompletionResult{Content: "hello", FinishReason: "stop"}, nil
}

type fakeResolver struct {
	model ChatModel
	err   error
}

func (r *fakeResolver) Resolve(ctx context.Context, modelID string) (ChatModel, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.model, nil
}

type fakeRetriever struct {
	searchFn func(table string) ([]vectorstore.SearchResult, error)
}

func (r *fakeRetriever) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return [][]float32{{0.1, 0.2}}, nil
}

func (r *fakeRetriever) Search(ctx context.Context, table string, q []float32, topK int, metric model.DistanceMetric) ([]vectorstore.SearchResult, error) {
	if r.searchFn != nil {
		return r.searchFn(table)
	}
	return nil, nil
}

type fakeDiscoverer struct {
	discoverFn func() ([]model.VectorStore, error)
}

func (d fakeDiscoverer) Discovery(ctx context.Context, enabled map[string]bool, filter bool) ([]model.VectorStore, error) {
	if d.discoverFn != nil {
		return d.discoverFn()
	}
	return nil, nil
}

type collectingSink struct {
	writes   []string
	finished bool
}

func (s *collectingSink) Write(delta string) error {
	s.writes = append(s.writes, delta)
	return nil
}

func (s *collectingSink) Finish() error {
	s.finished = true
	return nil
}

func baseSettings() model.ClientSettings {
	return model.ClientSettings{
		ClientID:      clientsettings.DefaultClientID,
		LanguageModel: model.LanguageModelSettings{ModelID: "gpt", History: true},
		PromptRefs:    map[model.PromptCategory]string{},
		ToolsEnabled:  map[string]bool{},
		SelectAI:      model.SelectAISettings{Params: map[string]string{}},
	}
}

func newTestGraph(t *testing.T, resolver ModelResolver, retriever Retriever) (*Graph, *clientsettings.Store) {
	t.Helper()
	cs := clientsettings.New(baseSettings())
	ps := promptstore.New()
	g := New(cs, ps, resolver, retriever, fakeDiscoverer{}, testr.New(t))
	return g, cs
}

func TestRunSimpleCompletionNoVectorSearch(t *testing.T) {
	fm := &fakeModel{}
	g, _ := newTestGraph(t, &fakeResolver{model: fm}, &fakeRetriever{})

	sink := &collectingSink{}
	resp, err := g.Run(context.Background(), clientsettings.DefaultClientID, []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}}, sink, RunOptions{})

	require.NoError(t, err)
	require.True(t, sink.finished)
	require.Equal(t, []string{"hello"}, sink.writes)
	require.Equal(t, "hello", resp.Choices[0].Message.Content)
}

func TestRunModelUnreachableProducesCannedEnvelope(t *testing.T) {
	g, _ := newTestGraph(t, &fakeResolver{err: errors.New("no such model")}, &fakeRetriever{})

	sink := &collectingSink{}
	resp, err := g.Run(context.Background(), clientsettings.DefaultClientID, []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}}, sink, RunOptions{})

	require.NoError(t, err)
	require.True(t, sink.finished)
	require.Contains(t, resp.Choices[0].Message.Content, "Unable to initialise")
}

func TestRunUpstreamErrorDuringCompletionYieldsApology(t *testing.T) {
	fm := &fakeModel{streamFn: func(req CompletionRequest, emit func(string)) (CompletionResult, error) {
		return CompletionResult{}, errors.New("connection reset")
	}}
	g, _ := newTestGraph(t, &fakeResolver{model: fm}, &fakeRetriever{})

	sink := &collectingSink{}
	resp, err := g.Run(context.Background(), clientsettings.DefaultClientID, []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}}, sink, RunOptions{})

	require.NoError(t, err)
	require.Contains(t, resp.Choices[0].Message.Content, "connection reset")
}

func TestRunGraderNonBooleanTreatedAsNotRelevant(t *testing.T) {
	fm := &fakeModel{
		completeFn: func(req CompletionRequest) (CompletionResult, error) {
			return CompletionResult{Content: `{"verdict": "maybe"}`}, nil
		},
	}
	retriever := &fakeRetriever{searchFn: func(table string) ([]vectorstore.SearchResult, error) {
		return []vectorstore.SearchResult{{Chunk: model.Chunk{ID: "1", Text: "doc"}, Distance: 0.1}}, nil
	}}
	g, cs := newTestGraph(t, &fakeResolver{model: fm}, retriever)

	settings := baseSettings()
	settings.VectorSearch = model.VectorSearchSettings{Enabled: true, Grade: true, TableName: "docs", TopK: 5}
	require.NoError(t, cs.Patch(clientsettings.DefaultClientID, settings))

	sink := &collectingSink{}
	_, err := g.Run(context.Background(), clientsettings.DefaultClientID, []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}}, sink, RunOptions{})
	require.NoError(t, err)

	history, err := g.History(clientsettings.DefaultClientID)
	require.NoError(t, err)
	var toolMsg *model.ChatMessage
	for i := range history {
		if history[i].Role == model.RoleTool {
			toolMsg = &history[i]
		}
	}
	require.NotNil(t, toolMsg)
	require.Equal(t, `{"status":"success","result":"No relevant documents found for: 'hi'"}`, toolMsg.Content)
}

func TestRunHistoryDisabledDropsStateBetweenTurns(t *testing.T) {
	fm := &fakeModel{}
	noHistory := baseSettings()
	noHistory.LanguageModel.History = false
	cs := clientsettings.New(noHistory)
	ps := promptstore.New()
	g := New(cs, ps, &fakeResolver{model: fm}, &fakeRetriever{}, fakeDiscoverer{}, testr.New(t))

	sink := &collectingSink{}
	_, err := g.Run(context.Background(), clientsettings.DefaultClientID, []model.ChatMessage{{Role: model.RoleUser, Content: "first"}}, sink, RunOptions{})
	require.NoError(t, err)

	g.mu.Lock()
	_, persisted := g.states[clientsettings.DefaultClientID]
	g.mu.Unlock()
	require.False(t, persisted, "state must not persist across turns when history is disabled")
}

func TestLooksLikeToolCallJSONDetectsUnstructuredCall(t *testing.T) {
	require.True(t, looksLikeToolCallJSON(`{"name": "search", "arguments": "{}"}`))
	require.False(t, looksLikeToolCallJSON("just a normal answer"))
	require.False(t, looksLikeToolCallJSON(`{"name": "search"}`))
}

// TestRunInternalRetrievalAppendsSuccessToolMessage covers scenario S1-style
// internal retrieval (§4.1.b): the tool-result message is still appended to
// history, but reduced to a status string, never the raw chunk text.
func TestRunInternalRetrievalAppendsSuccessToolMessage(t *testing.T) {
	fm := &fakeModel{}
	retriever := &fakeRetriever{searchFn: func(table string) ([]vectorstore.SearchResult, error) {
		return []vectorstore.SearchResult{{Chunk: model.Chunk{ID: "1", Text: "secret sauce"}, Distance: 0.1}}, nil
	}}
	g, cs := newTestGraph(t, &fakeResolver{model: fm}, retriever)

	settings := baseSettings()
	settings.VectorSearch = model.VectorSearchSettings{Enabled: true, TableName: "docs", TopK: 5}
	require.NoError(t, cs.Patch(clientsettings.DefaultClientID, settings))

	sink := &collectingSink{}
	_, err := g.Run(context.Background(), clientsettings.DefaultClientID, []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}}, sink, RunOptions{})
	require.NoError(t, err)

	history, err := g.History(clientsettings.DefaultClientID)
	require.NoError(t, err)

	var toolMsg *model.ChatMessage
	for i := range history {
		if history[i].Role == model.RoleTool {
			toolMsg = &history[i]
		}
	}
	require.NotNil(t, toolMsg, "expected an internal retrieval tool-result message")
	require.Equal(t, "vector_search", toolMsg.ToolName)
	require.Equal(t, `{"status":"success","result":"Relevant documents found for: 'hi'"}`, toolMsg.Content)
	require.NotContains(t, toolMsg.Content, "secret sauce")
}

// TestRunInternalRetrievalAppendsNoRelevantToolMessage covers scenario S2
// (§8): grading rejects the retrieved chunk, so the tool-result message
// must report no relevant documents even though a search did run.
func TestRunInternalRetrievalAppendsNoRelevantToolMessage(t *testing.T) {
	fm := &fakeModel{
		completeFn: func(req CompletionRequest) (CompletionResult, error) {
			return CompletionResult{Content: "no"}, nil
		},
	}
	retriever := &fakeRetriever{searchFn: func(table string) ([]vectorstore.SearchResult, error) {
		return []vectorstore.SearchResult{{Chunk: model.Chunk{ID: "1", Text: "secret sauce"}, Distance: 0.1}}, nil
	}}
	g, cs := newTestGraph(t, &fakeResolver{model: fm}, retriever)

	settings := baseSettings()
	settings.VectorSearch = model.VectorSearchSettings{Enabled: true, Grade: true, TableName: "docs", TopK: 5}
	require.NoError(t, cs.Patch(clientsettings.DefaultClientID, settings))

	sink := &collectingSink{}
	_, err := g.Run(context.Background(), clientsettings.DefaultClientID, []model.ChatMessage{{Role: model.RoleUser, Content: "hi"}}, sink, RunOptions{})
	require.NoError(t, err)

	history, err := g.History(clientsettings.DefaultClientID)
	require.NoError(t, err)

	var toolMsg *model.ChatMessage
	for i := range history {
		if history[i].Role == model.RoleTool {
			toolMsg = &history[i]
		}
	}
	require.NotNil(t, toolMsg, "expected an internal retrieval tool-result message even when nothing was relevant")
	require.Equal(t, `{"status":"success","result":"No relevant documents found for: 'hi'"}`, toolMsg.Content)
}

// TestResolveSearchTablesDiscoveryUsesModelSelection covers §4.1 step 4:
// discovery must ask the model to pick candidates by alias/description
// rather than searching every discovered table.
func TestResolveSearchTablesDiscoveryUsesModelSelection(t *testing.T) {
	fm := &fakeModel{
		completeFn: func(req CompletionRequest) (CompletionResult, error) {
			return CompletionResult{Content: "billing_docs"}, nil
		},
	}
	stores := []model.VectorStore{
		{TableName: "billing_docs", Alias: "billing", Description: "billing FAQs"},
		{TableName: "hr_docs", Alias: "hr", Description: "HR policy"},
	}
	disc := fakeDiscoverer{discoverFn: func() ([]model.VectorStore, error) { return stores, nil }}

	cs := clientsettings.New(baseSettings())
	ps := promptstore.New()
	g := New(cs, ps, &fakeResolver{model: fm}, &fakeRetriever{}, disc, testr.New(t))

	settings := baseSettings()
	settings.VectorSearch = model.VectorSearchSettings{Enabled: true, Discovery: true, TopK: 5}
	require.NoError(t, cs.Patch(clientsettings.DefaultClientID, settings))

	rc := &runContext{settings: settings, state: &model.ChatGraphState{ContextInput: "who do I ask about invoices?"}, chatModel: fm}
	tables, metrics, err := resolveSearchTables(context.Background(), g, rc)
	require.NoError(t, err)
	require.Equal(t, []string{"billing_docs"}, tables)
	require.Contains(t, metrics, "billing_docs")
}
