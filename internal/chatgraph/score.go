package chatgraph

import (
	"sort"

	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
)

// scoredChunk is a retrieved chunk enriched with its similarity score and
// originating table (§4.1 step 4, "enrich every returned chunk with
// {similarity_score, searched_table}").
type scoredChunk struct {
	model.Chunk
	SimilarityScore float64
	SearchedTable   string
}

// convertAndFilter converts raw distances to similarities (§4.1.a) and
// applies the score-threshold filter. threshold == 0 disables filtering;
// otherwise the test is inclusive at the boundary (similarity >= threshold).
func convertAndFilter(results []vectorstore.SearchResult, table string, metric model.DistanceMetric, threshold float64) []scoredChunk {
	out := make([]scoredChunk, 0, len(results))
	for _, r := range results {
		sim := metric.Similarity(r.Distance)
		if threshold != 0 && sim < threshold {
			continue
		}
		out = append(out, scoredChunk{Chunk: r.Chunk, SimilarityScore: sim, SearchedTable: table})
	}
	return out
}

// mergeDedupeTruncate merges per-table results, deduplicates by content,
// sorts by similarity descending with table name as the stable tie-breaker
// (§4.1.e), and truncates to topK globally (§4.1 step 4).
func mergeDedupeTruncate(all []scoredChunk, topK int) []scoredChunk {
	seen := make(map[string]bool, len(all))
	deduped := make([]scoredChunk, 0, len(all))
	for _, c := range all {
		if seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		deduped = append(deduped, c)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].SimilarityScore != deduped[j].SimilarityScore {
			return deduped[i].SimilarityScore > deduped[j].SimilarityScore
		}
		return deduped[i].SearchedTable < deduped[j].SearchedTable
	})

	if topK > 0 && len(deduped) > topK {
		deduped = deduped[:topK]
	}
	return deduped
}
