package vectorstore

import (
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/stretchr/testify/require"
)

func TestSplitTextRespectsOverlap(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	chunks := splitText(text, 10, 2)
	require.NotEmpty(t, chunks)
	require.Equal(t, "abcdefghij", chunks[0])
	require.Equal(t, "ijklmnopqr", chunks[1])
}

func TestSplitTextHandlesEmpty(t *testing.T) {
	require.Nil(t, splitText("", 10, 2))
}

func TestTestbedChunkOverlapIsTenPercentCeiling(t *testing.T) {
	require.Equal(t, 52, TestbedChunkOverlap(512))
}

func TestSplitHTMLOnHeadersProducesOneSectionPerHeader(t *testing.T) {
	html := "<html><body><h1>One</h1><p>first</p><h2>Two</h2><p>second</p></body></html>"
	sections := splitHTMLOnHeaders(html)
	require.Len(t, sections, 2)
	require.Contains(t, sections[0], "One")
	require.Contains(t, sections[0], "first")
	require.Contains(t, sections[1], "Two")
	require.Contains(t, sections[1], "second")
}

func TestBuildChunksAssignsDeterministicIDs(t *testing.T) {
	f := SourceFile{Filename: "report.txt"}
	doc := loadedDocument{pages: []string{"hello world"}, splittable: true}
	chunks := buildChunks(f, doc, 100, 10)
	require.Len(t, chunks, 1)
	require.Equal(t, "report_0", chunks[0].ID)
	require.Equal(t, "report.txt", chunks[0].Metadata["filename"])
}

func TestDedupeByContentKeepsFirstOccurrence(t *testing.T) {
	chunks := []model.Chunk{
		{ID: "a_0", Text: "same"},
		{ID: "b_0", Text: "same"},
		{ID: "c_0", Text: "different"},
	}
	out := dedupeByContent(chunks)
	require.Len(t, out, 2)
}
