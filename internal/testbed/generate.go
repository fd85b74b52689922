package testbed

import (
	"context"

	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
)

// defaultChunkSize is the testbed splitter's base chunk size (§4.4 "default
// chunk 512").
const defaultChunkSize = 512

// QAGenerator builds an in-memory knowledge base from one document's split
// passages and synthesizes `count` question/reference-answer pairs against
// it, using the configured language and embedding models
// (`original_source/src/server/api/v1/testbed.py`'s `build_knowledge_base`).
// A generator that cannot produce any pairs at all for a document returns a
// *GenerationError with GenerationNoQuestions.
type QAGenerator interface {
	GenerateQuestions(ctx context.Context, passages []string, count int) ([]model.QAItem, error)
}

// GenerateOptions bundles the per-request inputs to GenerateTestSet.
type GenerateOptions struct {
	Name             string
	Files            []vectorstore.SourceFile
	QuestionsPerFile int
	ChunkSize        int
	Generator        QAGenerator
}

// GenerateTestSet loads and splits each uploaded file, generates
// `questions` question/answer pairs per file via the configured models,
// and persists the aggregate into the store as a new TestSet, returning its
// tid (§4.4 "Testset generation").
func (s *Store) GenerateTestSet(ctx context.Context, opts GenerateOptions) (string, error) {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	var allItems []model.QAItem
	for _, f := range opts.Files {
		passages, err := vectorstore.LoadAndSplitForTestbed(f, chunkSize)
		if err != nil {
			return "", &GenerationError{Kind: GenerationValidation, Message: "could not load " + f.Filename, Cause: err}
		}

		fileItems, err := opts.Generator.GenerateQuestions(ctx, passages, opts.QuestionsPerFile)
		if err != nil {
			return "", err
		}
		allItems = append(allItems, fileItems...)
	}

	if len(allItems) == 0 {
		return "", &GenerationError{Kind: GenerationNoQuestions, Message: "no question/answer pairs were produced"}
	}

	return s.UpsertQA(opts.Name, allItems, "")
}
