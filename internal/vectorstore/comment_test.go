package vectorstore

import (
	"testing"

	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCommentRoundTrips(t *testing.T) {
	vs := model.VectorStore{
		Alias:            "docs",
		Description:      "product docs",
		EmbeddingModelID: "openai/text-embedding-3-small",
		ChunkSize:        512,
		ChunkOverlap:     51,
		DistanceMetric:   model.DistanceCosine,
		IndexType:        model.IndexHNSW,
	}
	comment, err := encodeComment(vs)
	require.NoError(t, err)
	require.Contains(t, comment, metadataSentinel)

	parsed, err := parseComment("docs_table", comment[len(metadataSentinel):])
	require.NoError(t, err)
	require.Equal(t, vs.Alias, parsed.Alias)
	require.Equal(t, vs.EmbeddingModelID, parsed.EmbeddingModelID)
	require.Equal(t, vs.DistanceMetric, parsed.DistanceMetric)
}

func TestValidIdentifierRejectsUnsafeNames(t *testing.T) {
	require.NoError(t, validIdentifier("docs_vs"))
	require.Error(t, validIdentifier("docs; DROP TABLE users;"))
	require.Error(t, validIdentifier("1leading_digit"))
}
