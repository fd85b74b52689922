package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// ollamaChatModel adapts the github.com/ollama/ollama api.Client to
// chatgraph.ChatModel for on-prem Ollama deployments. JSON request/response
// shapes follow the /api/chat and /api/embed surface referenced by
// agentoven-agentoven's raw-HTTP Ollama driver, but go through the real
// vendored api.Client rather than hand-rolled HTTP (that repo's own driver
// predates this server's go.mod dependency on the official module).
type ollamaChatModel struct {
	client *api.Client
	model  string
}

func newOllamaClient(endpoint string) (*api.Client, error) {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, apierrors.Validation(fmt.Sprintf("invalid ollama endpoint %q", endpoint), err)
	}
	return api.NewClient(base, nil), nil
}

func newOllamaChatModel(d model.ModelDescriptor) (chatgraph.ChatModel, error) {
	client, err := newOllamaClient(d.Endpoint)
	if err != nil {
		return nil, err
	}
	return &ollamaChatModel{client: client, model: d.ID}, nil
}

func toOllamaMessages(msgs []model.ChatMessage) []api.Message {
	out := make([]api.Message, 0, len(msgs))
	for _, m := range msgs {
		role := "user"
		switch m.Role {
		case model.RoleSystem:
			role = "system"
		case model.RoleAssistant:
			role = "assistant"
		case model.RoleTool:
			role = "tool"
		}
		out = append(out, api.Message{Role: role, Content: m.Content})
	}
	return out
}

func (c *ollamaChatModel) Complete(ctx context.Context, req chatgraph.CompletionRequest) (chatgraph.CompletionResult, error) {
	stream := false
	var result chatgraph.CompletionResult
	err := c.client.Chat(ctx, &api.ChatRequest{
		Model:    c.model,
		Messages: toOllamaMessages(req.Messages),
		Stream:   &stream,
	}, func(resp api.ChatResponse) error {
		result.Content += resp.Message.Content
		result.FinishReason = resp.DoneReason
		for _, tc := range resp.Message.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, model.ToolCall{Name: tc.Function.Name, Arguments: toolArgsJSON(tc.Function.Arguments)})
		}
		return nil
	})
	if err != nil {
		return chatgraph.CompletionResult{}, apierrors.UpstreamError("ollama chat", err)
	}
	return result, nil
}

func (c *ollamaChatModel) StreamComplete(ctx context.Context, req chatgraph.CompletionRequest, emit func(delta string)) (chatgraph.CompletionResult, error) {
	stream := true
	var result chatgraph.CompletionResult
	err := c.client.Chat(ctx, &api.ChatRequest{
		Model:    c.model,
		Messages: toOllamaMessages(req.Messages),
		Stream:   &stream,
	}, func(resp api.ChatResponse) error {
		result.Content += resp.Message.Content
		if emit != nil && resp.Message.Content != "" {
			emit(resp.Message.Content)
		}
		if resp.Done {
			result.FinishReason = resp.DoneReason
		}
		return nil
	})
	if err != nil {
		return chatgraph.CompletionResult{}, apierrors.UpstreamError("ollama chat stream", err)
	}
	return result, nil
}

func toolArgsJSON(args api.ToolCallFunctionArguments) string {
	b, err := args.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ollamaEmbed issues an /api/embed call for a batch of texts.
func ollamaEmbed(ctx context.Context, d model.ModelDescriptor, texts []string) ([][]float32, error) {
	client, err := newOllamaClient(d.Endpoint)
	if err != nil {
		return nil, err
	}
	resp, err := client.Embed(ctx, &api.EmbedRequest{Model: d.ID, Input: texts})
	if err != nil {
		return nil, apierrors.UpstreamError("ollama embed", err)
	}
	out := make([][]float32, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		vec := make([]float32, len(e))
		copy(vec, e)
		out = append(out, vec)
	}
	return out, nil
}
