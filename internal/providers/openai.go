package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// openAIChatModel adapts openai-go/v3's Chat Completions API to
// chatgraph.ChatModel. The same adapter backs every OpenAI-wire-compatible
// provider this server speaks to (on-prem vLLM/TGI, Perplexity) by pointing
// baseURL at their endpoint instead of OpenAI's (see buildChatModel in
// providers.go), grounded on the request/response SDK types exercised by
// kagent-dev-kagent's mockllm OpenAI provider.
type openAIChatModel struct {
	client openai.Client
	model  string
}

func newOpenAIChatModel(d model.ModelDescriptor, apiKey, baseURL string) (chatgraph.ChatModel, error) {
	if apiKey == "" && baseURL == "" {
		return nil, apierrors.UnprocessableModel(fmt.Sprintf("no API key or endpoint configured for model %q", d.ID), nil)
	}
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	} else if d.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(d.Endpoint))
	}
	return &openAIChatModel{client: openai.NewClient(opts...), model: d.ID}, nil
}

func toOpenAIMessages(msgs []model.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case model.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case model.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolName))
		}
	}
	return out
}

func (c *openAIChatModel) buildParams(req chatgraph.CompletionRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  t.Parameters,
				},
			},
		})
	}
	return params
}

func (c *openAIChatModel) Complete(ctx context.Context, req chatgraph.CompletionRequest) (chatgraph.CompletionResult, error) {
	params := c.buildParams(req)
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return chatgraph.CompletionResult{}, apierrors.UpstreamError("openai chat.completions.new", err)
	}
	return translateOpenAICompletion(resp), nil
}

func (c *openAIChatModel) StreamComplete(ctx context.Context, req chatgraph.CompletionRequest, emit func(delta string)) (chatgraph.CompletionResult, error) {
	params := c.buildParams(req)
	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	var acc openai.ChatCompletionAccumulator
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if emit != nil {
			for _, choice := range chunk.Choices {
				if choice.Delta.Content != "" {
					emit(choice.Delta.Content)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return chatgraph.CompletionResult{}, apierrors.UpstreamError("openai chat.completions.new stream", err)
	}
	return translateOpenAICompletion(&acc.ChatCompletion), nil
}

func translateOpenAICompletion(resp *openai.ChatCompletion) chatgraph.CompletionResult {
	var result chatgraph.CompletionResult
	if len(resp.Choices) == 0 {
		return result
	}
	choice := resp.Choices[0]
	result.Content = choice.Message.Content
	result.FinishReason = choice.FinishReason
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result
}

// openAIEmbed issues an Embeddings.New call for a batch of texts, used both
// directly for OpenAI and through the OpenAI-compatibility endpoint Cohere
// exposes (see Resolver.embedWith in providers.go).
func openAIEmbed(ctx context.Context, d model.ModelDescriptor, apiKey, baseURL string, texts []string) ([][]float32, error) {
	if apiKey == "" {
		return nil, apierrors.UnprocessableModel(fmt.Sprintf("no API key configured for embedding model %q", d.ID), nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	} else if d.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(d.Endpoint))
	}
	client := openai.NewClient(opts...)
	resp, err := client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: d.ID,
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		return nil, apierrors.UpstreamError("openai embeddings.new", err)
	}
	out := make([][]float32, 0, len(resp.Data))
	for _, e := range resp.Data {
		vec := make([]float32, len(e.Embedding))
		for i, v := range e.Embedding {
			vec[i] = float32(v)
		}
		out = append(out, vec)
	}
	return out, nil
}
