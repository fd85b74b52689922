// Package chatgraph implements the Chat Orchestration Graph (§4.1): the
// cooperative state machine that contextualises a query, optionally
// rephrases and retrieves, optionally grades, streams a completion, and
// branches through tool calls before finalising. Node wiring is grounded on
// the teacher's ADK graph-node construction idiom (a function type that
// returns the next step), generalized from agent-framework nodes to this
// specification's own eight states.
package chatgraph

import (
	"context"

	"github.com/oracle/ai-optimizer-server/internal/model"
)

// ToolDefinition is what the graph offers a language model when tools are
// enabled (§4.1 step 3, "decide_tools").
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema, struct-tag-derived where the concrete adapter supports it
}

// CompletionRequest is what the graph sends to a ChatModel, either for the
// user-visible completion or for an internal call (rephrase/grade/
// discovery/judge use the same shape with no tools attached).
type CompletionRequest struct {
	Messages    []model.ChatMessage
	Tools       []ToolDefinition
	Temperature *float64
	MaxTokens   *int
}

// CompletionResult is a model response, streaming or unary.
type CompletionResult struct {
	Content      string
	ToolCalls    []model.ToolCall
	FinishReason string
}

// ChatModel is the uniform adapter the graph drives, implemented per
// provider by the Model Registry's resolved descriptor (anthropic-sdk-go,
// openai-go/v3, ollama, or an OpenAI-wire-compatible on-prem/Cohere/
// Perplexity binding — see SPEC_FULL.md DOMAIN STACK). The graph itself
// never imports a provider SDK directly.
type ChatModel interface {
	// Complete issues a single non-streaming call, used for every internal
	// LLM invocation (rephrase, grade, discovery, judge).
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)

	// StreamComplete issues the user-visible completion call. emit is
	// invoked once per incremental token; the returned CompletionResult
	// carries the accumulated content, any tool calls, and finish reason.
	StreamComplete(ctx context.Context, req CompletionRequest, emit func(delta string)) (CompletionResult, error)
}

// ModelResolver resolves the ChatModel bound to a ClientSettings'
// configured model id, looking it up in the Model Registry and
// constructing (or reusing) the provider-specific client.
type ModelResolver interface {
	Resolve(ctx context.Context, modelID string) (ChatModel, error)
}
