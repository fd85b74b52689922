package mcp

import (
	"context"

	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/model"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// VectorTableInput is the optimizer_vs-discovery tool's input, grounded on
// `mcp/tools/vs_discovery.py`'s `vector_storage_discovery` signature.
type VectorTableInput struct {
	ClientID            string `json:"client_id" jsonschema:"Client thread ID, used to look up configuration"`
	FilterEnabledModels bool   `json:"filter_enabled_models,omitempty" jsonschema:"Only return tables whose embedding model is currently enabled"`
}

// VectorTable describes one discovered vector store, flattened for MCP
// clients rather than nested under a "parsed" envelope.
type VectorTable struct {
	TableName        string `json:"table_name"`
	Alias            string `json:"alias,omitempty"`
	Description      string `json:"description,omitempty"`
	EmbeddingModelID string `json:"embedding_model_id,omitempty"`
	ChunkSize        int    `json:"chunk_size,omitempty"`
	ChunkOverlap     int    `json:"chunk_overlap,omitempty"`
	DistanceMetric   string `json:"distance_metric,omitempty"`
	IndexType        string `json:"index_type,omitempty"`
}

// VectorTableOutput is the optimizer_vs-discovery tool's output.
type VectorTableOutput struct {
	Tables []VectorTable `json:"tables"`
	Status string        `json:"status"`
	Error  string        `json:"error,omitempty"`
}

func toVectorTable(vs model.VectorStore) VectorTable {
	return VectorTable{
		TableName:        vs.TableName,
		Alias:            vs.Alias,
		Description:      vs.Description,
		EmbeddingModelID: vs.EmbeddingModelID,
		ChunkSize:        vs.ChunkSize,
		ChunkOverlap:     vs.ChunkOverlap,
		DistanceMetric:   string(vs.DistanceMetric),
		IndexType:        string(vs.IndexType),
	}
}

func (s *Server) registerDiscoveryTool(server *mcpsdk.Server) {
	mcpsdk.AddTool[VectorTableInput, VectorTableOutput](
		server,
		&mcpsdk.Tool{
			Name:        "optimizer_vs-discovery",
			Description: "List available vector storage tables in the database.",
		},
		s.handleVSDiscovery,
	)
}

// handleVSDiscovery mirrors `_vs_discovery_impl`: when discovery is
// disabled in the client's vector search settings, it returns the single
// configured store instead of querying the database.
func (s *Server) handleVSDiscovery(ctx context.Context, req *mcpsdk.CallToolRequest, input VectorTableInput) (*mcpsdk.CallToolResult, VectorTableOutput, error) {
	clientID := input.ClientID
	if clientID == "" {
		clientID = clientsettings.DefaultClientID
	}
	vs := s.clients.Get(clientID).VectorSearch

	if !vs.Discovery {
		if vs.TableName == "" {
			out := VectorTableOutput{Status: "error", Error: "vector search settings incomplete - cannot determine table name"}
			return errResult(out.Error), out, nil
		}
		table := VectorTable{
			TableName:    vs.TableName,
			Alias:        vs.Alias,
			ChunkSize:    vs.ChunkSize,
			ChunkOverlap: vs.ChunkOverlap,
		}
		out := VectorTableOutput{Tables: []VectorTable{table}, Status: "success"}
		return okResult(summarizeTables(out.Tables)), out, nil
	}

	stores, err := s.discoverer.Discovery(ctx, s.enabledEmbeddingModels, input.FilterEnabledModels)
	if err != nil {
		out := VectorTableOutput{Status: "error", Error: err.Error()}
		return errResult(out.Error), out, nil
	}

	tables := make([]VectorTable, 0, len(stores))
	for _, vs := range stores {
		tables = append(tables, toVectorTable(vs))
	}
	out := VectorTableOutput{Tables: tables, Status: "success"}
	return okResult(summarizeTables(out.Tables)), out, nil
}

func summarizeTables(tables []VectorTable) string {
	if len(tables) == 0 {
		return "No vector storage tables found."
	}
	text := ""
	for i, t := range tables {
		if i > 0 {
			text += "\n"
		}
		text += t.TableName
		if t.Alias != "" {
			text += " (" + t.Alias + ")"
		}
	}
	return text
}

func okResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}}}
}

func errResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}}, IsError: true}
}
