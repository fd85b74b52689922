package testbed

import (
	"context"
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
	"github.com/stretchr/testify/require"
)

type fakeQAGenerator struct {
	items []model.QAItem
	err   error
}

func (f *fakeQAGenerator) GenerateQuestions(ctx context.Context, passages []string, count int) ([]model.QAItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func TestGenerateTestSetPersistsItems(t *testing.T) {
	store := New()
	gen := &fakeQAGenerator{items: []model.QAItem{{Question: "q", ReferenceAnswer: "a"}}}

	tid, err := store.GenerateTestSet(context.Background(), GenerateOptions{
		Name:             "set1",
		Files:            []vectorstore.SourceFile{{Filename: "doc.txt", Bytes: []byte("hello world, this is a test document.")}},
		QuestionsPerFile: 1,
		Generator:        gen,
	})
	require.NoError(t, err)

	ts, err := store.GetTestSetQA(tid)
	require.NoError(t, err)
	require.Len(t, ts.QAItems, 1)
}

func TestGenerateTestSetNoQuestionsIsClassifiable(t *testing.T) {
	store := New()
	gen := &fakeQAGenerator{err: &GenerationError{Kind: GenerationNoQuestions}}

	_, err := store.GenerateTestSet(context.Background(), GenerateOptions{
		Name:             "set1",
		Files:            []vectorstore.SourceFile{{Filename: "doc.txt", Bytes: []byte("content")}},
		QuestionsPerFile: 1,
		Generator:        gen,
	})
	require.Error(t, err)

	classified := ClassifyGenerationError("bogus-model", err)
	require.Contains(t, classified.Error(), "Failed to generate any questions")
}
