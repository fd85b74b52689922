package chatgraph

import (
	"context"
	"fmt"

	"github.com/oracle/ai-optimizer-server/internal/model"
)

// Tool is one model-invocable capability (§4.1 step 3, "decide_tools"),
// offered to the language model as a ToolDefinition and executed in
// `tool_branch` when the model requests it by name.
type Tool interface {
	Name() string
	Definition() ToolDefinition
	Invoke(ctx context.Context, argsJSON string) (string, error)
}

// VectorSearchTool exposes similarity search over one table as a
// model-invokable tool, executed in `tool_branch` when the model requests
// vector search explicitly rather than through the graph's own internal
// retrieve step. It embeds the "query" argument, searches Table for TopK
// rows using Metric, and returns the matches formatted like the retrieve
// node's documents; no score threshold is applied.
type VectorSearchTool struct {
	Table     string
	Metric    string
	Retriever Retriever
	TopK      int
}

func (t *VectorSearchTool) Name() string { return "vector_search" }

func (t *VectorSearchTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "vector_search",
		Description: "Search the configured knowledge store for documents relevant to a query.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
			"required":   []string{"query"},
		},
	}
}

func (t *VectorSearchTool) Invoke(ctx context.Context, argsJSON string) (string, error) {
	q, err := extractStringArg(argsJSON, "query")
	if err != nil {
		return "", err
	}
	embeddings, err := t.Retriever.Embed(ctx, []string{q})
	if err != nil || len(embeddings) == 0 {
		return "", fmt.Errorf("embedding vector_search query: %v", err)
	}
	metric := model.DistanceMetric(t.Metric)
	results, err := t.Retriever.Search(ctx, t.Table, embeddings[0], t.TopK, metric)
	if err != nil {
		return "", err
	}
	return formatDocuments(convertAndFilter(results, t.Table, metric, 0)), nil
}

// SelectAIDatabase answers a natural-language question against a named
// database profile with a model-synthesized SQL query (supplemental tool,
// SPEC_FULL.md §4.1 Supplemental, grounded on
// original_source/src/server/agents/tools/selectai.py).
type SelectAIDatabase interface {
	Ask(ctx context.Context, profile, question string) (answer string, err error)
}

// SelectAITool is the supplemental built-in tool gated by
// ClientSettings.SelectAI.Enabled. It is an external tool: `tool_branch`
// appends its synthesized answer to the conversation verbatim as the
// tool-result message (the status-only tool message of §4.1.b applies to
// the retrieve node's internal retrieval, not to this tool).
type SelectAITool struct {
	Profile string
	DB      SelectAIDatabase
}

func (t *SelectAITool) Name() string { return "selectai" }

func (t *SelectAITool) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        "selectai",
		Description: "Ask a natural-language question against the configured database using Select AI.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"question": map[string]any{"type": "string"}},
			"required":   []string{"question"},
		},
	}
}

func (t *SelectAITool) Invoke(ctx context.Context, argsJSON string) (string, error) {
	q, err := extractStringArg(argsJSON, "question")
	if err != nil {
		return "", err
	}
	answer, err := t.DB.Ask(ctx, t.Profile, q)
	if err != nil {
		return "", err
	}
	return answer, nil
}
