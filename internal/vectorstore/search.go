package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/pgvector/pgvector-go"
)

// SearchResult is one row returned by a similarity search, before the
// Chat Orchestration Graph applies the score-threshold filter (§4.1 step
// 4 resolves the raw distance; §4.1.a converts it to a similarity).
type SearchResult struct {
	Chunk    model.Chunk
	Distance float64
}

func distanceOperator(metric model.DistanceMetric) string {
	switch metric {
	case model.DistanceDot:
		return "<#>"
	case model.DistanceEuclidean:
		return "<->"
	default:
		return "<=>"
	}
}

// Search runs a top-K nearest-neighbour query against table using the
// table's own distance metric (§4.1 step 4, "the table's own distance
// metric"). The caller (the Chat Orchestration Graph) converts Distance to
// a similarity score and applies the threshold filter; this method returns
// raw distances only.
func (e *Engine) Search(ctx context.Context, table string, queryEmbedding []float32, topK int, metric model.DistanceMetric) ([]SearchResult, error) {
	if err := validIdentifier(table); err != nil {
		return nil, err
	}

	op := distanceOperator(metric)
	query := pgvector.NewVector(queryEmbedding)
	var rows []struct {
		ID       string
		Content  string
		Metadata string
		Distance float64
	}
	sql := fmt.Sprintf(
		`SELECT id, content, metadata, embedding %[1]s $1 AS distance
		 FROM %[2]s ORDER BY embedding %[1]s $1 LIMIT $2`,
		op, quoteIdent(table),
	)
	err := e.db.WithContext(ctx).Raw(sql, query, topK).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", table, err)
	}

	out := make([]SearchResult, 0, len(rows))
	for _, r := range rows {
		var meta map[string]string
		if r.Metadata != "" {
			if jsonErr := json.Unmarshal([]byte(r.Metadata), &meta); jsonErr != nil {
				return nil, fmt.Errorf("parsing metadata for row %s: %w", r.ID, jsonErr)
			}
		}
		out = append(out, SearchResult{
			Chunk:    model.Chunk{ID: r.ID, Text: r.Content, Metadata: meta},
			Distance: r.Distance,
		})
	}
	return out, nil
}
