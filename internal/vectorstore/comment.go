package vectorstore

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/oracle/ai-optimizer-server/internal/model"
)

// nonIdentifierRun matches any run of characters not safe in a Postgres
// identifier, collapsed to a single underscore by DeriveTableName.
var nonIdentifierRun = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// DeriveTableName computes the deterministic table_name identity for a
// VectorStore from its ingest parameters (§3 VectorStore: "table_name
// (derived) ... a deterministic function of (alias, embedding_model_id,
// chunk_size, chunk_overlap, distance_metric, index_type)"). The human
// alias is kept as a readable prefix; a short hash of the full parameter
// tuple disambiguates two aliases that otherwise share every other
// parameter, and guarantees the result is always a valid SQL identifier
// regardless of what characters the alias contains.
func DeriveTableName(vs model.VectorStore) string {
	slug := strings.Trim(nonIdentifierRun.ReplaceAllString(strings.ToLower(vs.Alias), "_"), "_")
	if slug == "" {
		slug = "vs"
	}

	h := sha1.New()
	fmt.Fprintf(h, "%s|%s|%d|%d|%s|%s",
		vs.Alias, vs.EmbeddingModelID, vs.ChunkSize, vs.ChunkOverlap, vs.DistanceMetric, vs.IndexType)
	sum := hex.EncodeToString(h.Sum(nil))[:10]

	return fmt.Sprintf("vs_%s_%s", slug, sum)
}

// commentPayload is the structured payload recorded in a VectorStore
// table's comment (§4.2 step 8, §3 "the sole metadata source of truth").
type commentPayload struct {
	Alias            string `json:"alias"`
	Description      string `json:"description"`
	EmbeddingModelID string `json:"embedding_model_id"`
	ChunkSize        int    `json:"chunk_size"`
	ChunkOverlap     int    `json:"chunk_overlap"`
	DistanceMetric   string `json:"distance_metric"`
	IndexType        string `json:"index_type"`
}

func encodeComment(vs model.VectorStore) (string, error) {
	p := commentPayload{
		Alias:            vs.Alias,
		Description:      vs.Description,
		EmbeddingModelID: vs.EmbeddingModelID,
		ChunkSize:        vs.ChunkSize,
		ChunkOverlap:     vs.ChunkOverlap,
		DistanceMetric:   string(vs.DistanceMetric),
		IndexType:        string(vs.IndexType),
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding vector store metadata comment: %w", err)
	}
	return metadataSentinel + string(b), nil
}

// encodeMetadata serializes a chunk's metadata map to the JSON stored in
// the embedded row's metadata column.
func encodeMetadata(meta map[string]string) (string, error) {
	b, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encoding chunk metadata: %w", err)
	}
	return string(b), nil
}

func parseComment(tableName, payload string) (model.VectorStore, error) {
	var p commentPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return model.VectorStore{}, fmt.Errorf("parsing metadata comment on %s: %w", tableName, err)
	}
	return model.VectorStore{
		TableName:        tableName,
		Alias:            p.Alias,
		Description:      p.Description,
		EmbeddingModelID: p.EmbeddingModelID,
		ChunkSize:        p.ChunkSize,
		ChunkOverlap:     p.ChunkOverlap,
		DistanceMetric:   model.DistanceMetric(p.DistanceMetric),
		IndexType:        model.IndexType(p.IndexType),
	}, nil
}
