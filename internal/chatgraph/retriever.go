package chatgraph

import (
	"context"

	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
)

// Retriever performs the per-table similarity search the `retrieve` node
// needs (§4.1 step 4). The Vector Store Engine (internal/vectorstore)
// satisfies this directly; tests supply a fake.
type Retriever interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Search(ctx context.Context, table string, queryEmbedding []float32, topK int, metric model.DistanceMetric) ([]vectorstore.SearchResult, error)
}

// Discoverer lists candidate VectorStore tables for discovery-mode
// retrieval (§4.1 step 4, "discovery enabled").
type Discoverer interface {
	Discovery(ctx context.Context, enabledModelIDs map[string]bool, filterEnabledModels bool) ([]model.VectorStore, error)
}
