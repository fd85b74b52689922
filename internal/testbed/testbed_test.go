package testbed

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	answer string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, clientID string, messages []model.ChatMessage, sink chatgraph.Sink, opts chatgraph.RunOptions) (model.FinalResponse, error) {
	if f.err != nil {
		return model.FinalResponse{}, f.err
	}
	return model.FinalResponse{Choices: []model.CompletionChoice{{Message: model.ChatMessage{Role: model.RoleAssistant, Content: f.answer}}}}, nil
}

type fakeJudge struct {
	content string
}

func (f *fakeJudge) Judge(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.content, nil
}

func TestEvaluateScenarioS6CorrectnessPath(t *testing.T) {
	store := New()
	tid, err := store.UpsertQA("defaults", []model.QAItem{
		{Question: "default is X", ReferenceAnswer: "The default is X"},
	}, "")
	require.NoError(t, err)

	cs := clientsettings.New(model.ClientSettings{
		LanguageModel: model.LanguageModelSettings{History: true},
		VectorSearch:  model.VectorSearchSettings{Grade: true},
		PromptRefs:    map[model.PromptCategory]string{},
		ToolsEnabled:  map[string]bool{},
		SelectAI:      model.SelectAISettings{Params: map[string]string{}},
	})

	runner := &fakeRunner{answer: "The default is X. Previously Y."}
	judge := &fakeJudge{content: `{"correctness": true}`}

	report, err := store.Evaluate(context.Background(), cs, EvaluateOptions{
		ClientID: clientsettings.DefaultClientID,
		TID:      tid,
		Runner:   runner,
		Judge:    judge,
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, report.Correctness)

	var payload reportPayload
	require.NoError(t, json.Unmarshal(report.ReportBlob, &payload))
	require.Len(t, payload.Items, 1)
	require.Empty(t, payload.Items[0].Reason, "correctness_reason must be stripped when correct")

	// the override must not leak into the client's real settings
	after := cs.Get(clientsettings.DefaultClientID)
	require.True(t, after.LanguageModel.History)
	require.True(t, after.VectorSearch.Grade)
}

func TestEvaluateNonBooleanCorrectnessIsReported(t *testing.T) {
	store := New()
	tid, _ := store.UpsertQA("t", []model.QAItem{{Question: "q", ReferenceAnswer: "a"}}, "")

	cs := clientsettings.New(model.ClientSettings{
		PromptRefs:   map[model.PromptCategory]string{},
		ToolsEnabled: map[string]bool{},
		SelectAI:     model.SelectAISettings{Params: map[string]string{}},
	})

	_, err := store.Evaluate(context.Background(), cs, EvaluateOptions{
		ClientID: clientsettings.DefaultClientID,
		TID:      tid,
		Runner:   &fakeRunner{answer: "a"},
		Judge:    &fakeJudge{content: `{"correctness": "yes"}`},
	})
	require.Error(t, err)
}

func TestUpsertQACreatesThenAppends(t *testing.T) {
	store := New()
	tid, err := store.UpsertQA("name", []model.QAItem{{Question: "q1"}}, "")
	require.NoError(t, err)

	tid2, err := store.UpsertQA("name", []model.QAItem{{Question: "q2"}}, tid)
	require.NoError(t, err)
	require.Equal(t, tid, tid2)

	ts, err := store.GetTestSetQA(tid)
	require.NoError(t, err)
	require.Len(t, ts.QAItems, 2)
}

func TestDeleteUnknownTestSetIsNotFound(t *testing.T) {
	store := New()
	err := store.DeleteTestSet("nope")
	require.Error(t, err)
}

func TestClassifyGenerationErrorMapsKinds(t *testing.T) {
	err := ClassifyGenerationError("gpt-bogus", &GenerationError{Kind: GenerationNoQuestions})
	require.Contains(t, err.Error(), "Failed to generate any questions")

	err = ClassifyGenerationError("m", &GenerationError{Kind: GenerationUpstream, Message: "timeout"})
	require.Contains(t, err.Error(), "Model API error")
}
