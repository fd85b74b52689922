package chatgraph

import (
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
	"github.com/stretchr/testify/require"
)

func TestConvertAndFilterZeroThresholdDisablesFiltering(t *testing.T) {
	results := []vectorstore.SearchResult{
		{Chunk: model.Chunk{ID: "a", Text: "a"}, Distance: 1.9},
	}
	out := convertAndFilter(results, "tbl", model.DistanceCosine, 0)
	require.Len(t, out, 1)
}

func TestConvertAndFilterInclusiveBoundary(t *testing.T) {
	// cosine similarity = 1 - distance/2; distance 1.0 => similarity 0.5 exactly.
	results := []vectorstore.SearchResult{
		{Chunk: model.Chunk{ID: "a", Text: "a"}, Distance: 1.0},
	}
	out := convertAndFilter(results, "tbl", model.DistanceCosine, 0.5)
	require.Len(t, out, 1, "similarity equal to threshold must pass (inclusive)")
}

func TestConvertAndFilterExcludesBelowThreshold(t *testing.T) {
	results := []vectorstore.SearchResult{
		{Chunk: model.Chunk{ID: "a", Text: "a"}, Distance: 1.2}, // similarity 0.4
	}
	out := convertAndFilter(results, "tbl", model.DistanceCosine, 0.5)
	require.Empty(t, out)
}

func TestMergeDedupeTruncateTieBreaksByTableName(t *testing.T) {
	chunks := []scoredChunk{
		{Chunk: model.Chunk{ID: "1", Text: "one"}, SimilarityScore: 0.9, SearchedTable: "zzz"},
		{Chunk: model.Chunk{ID: "2", Text: "two"}, SimilarityScore: 0.9, SearchedTable: "aaa"},
	}
	out := mergeDedupeTruncate(chunks, 10)
	require.Equal(t, "aaa", out[0].SearchedTable)
	require.Equal(t, "zzz", out[1].SearchedTable)
}

func TestMergeDedupeTruncateDedupesByContent(t *testing.T) {
	chunks := []scoredChunk{
		{Chunk: model.Chunk{ID: "1", Text: "same"}, SimilarityScore: 0.9, SearchedTable: "a"},
		{Chunk: model.Chunk{ID: "2", Text: "same"}, SimilarityScore: 0.8, SearchedTable: "b"},
	}
	out := mergeDedupeTruncate(chunks, 10)
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].SearchedTable)
}

func TestMergeDedupeTruncateRespectsTopK(t *testing.T) {
	chunks := []scoredChunk{
		{Chunk: model.Chunk{ID: "1", Text: "one"}, SimilarityScore: 0.9, SearchedTable: "a"},
		{Chunk: model.Chunk{ID: "2", Text: "two"}, SimilarityScore: 0.8, SearchedTable: "a"},
	}
	out := mergeDedupeTruncate(chunks, 1)
	require.Len(t, out, 1)
	require.Equal(t, "one", out[0].Text)
}
