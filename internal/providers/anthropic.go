package providers

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// anthropicChatModel adapts anthropic-sdk-go's Messages API to
// chatgraph.ChatModel, grounded on the teacher pack's own Claude adapters
// (goadesign-goa-ai/features/model/anthropic, kagent-dev-kagent/go-adk's
// AnthropicModel).
type anthropicChatModel struct {
	client sdk.Client
	model  string
}

func newAnthropicChatModel(d model.ModelDescriptor, apiKey string) (chatgraph.ChatModel, error) {
	if apiKey == "" {
		return nil, apierrors.UnprocessableModel(fmt.Sprintf("no Anthropic API key configured for model %q", d.ID), nil)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if d.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(d.Endpoint))
	}
	return &anthropicChatModel{client: sdk.NewClient(opts...), model: d.ID}, nil
}

func (c *anthropicChatModel) Complete(ctx context.Context, req chatgraph.CompletionRequest) (chatgraph.CompletionResult, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return chatgraph.CompletionResult{}, err
	}
	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return chatgraph.CompletionResult{}, apierrors.UpstreamError("anthropic messages.new", err)
	}
	return translateAnthropicMessage(msg), nil
}

func (c *anthropicChatModel) StreamComplete(ctx context.Context, req chatgraph.CompletionRequest, emit func(delta string)) (chatgraph.CompletionResult, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return chatgraph.CompletionResult{}, err
	}
	stream := c.client.Messages.NewStreaming(ctx, params)
	var result chatgraph.CompletionResult
	var pendingToolName, pendingToolID, pendingToolArgs string
	for stream.Next() {
		event := stream.Current()
		switch delta := event.AsAny().(type) {
		case sdk.ContentBlockStartEvent:
			if block, ok := delta.ContentBlock.AsAny().(sdk.ToolUseBlock); ok {
				pendingToolName, pendingToolID, pendingToolArgs = block.Name, block.ID, ""
			}
		case sdk.ContentBlockDeltaEvent:
			switch d := delta.Delta.AsAny().(type) {
			case sdk.TextDelta:
				result.Content += d.Text
				if emit != nil {
					emit(d.Text)
				}
			case sdk.InputJSONDelta:
				pendingToolArgs += d.PartialJSON
			}
		case sdk.ContentBlockStopEvent:
			if pendingToolName != "" {
				result.ToolCalls = append(result.ToolCalls, model.ToolCall{ID: pendingToolID, Name: pendingToolName, Arguments: pendingToolArgs})
				pendingToolName, pendingToolID, pendingToolArgs = "", "", ""
			}
		case sdk.MessageDeltaEvent:
			result.FinishReason = string(delta.Delta.StopReason)
		}
	}
	if err := stream.Err(); err != nil {
		return chatgraph.CompletionResult{}, apierrors.UpstreamError("anthropic messages.new stream", err)
	}
	return result, nil
}

func (c *anthropicChatModel) buildParams(req chatgraph.CompletionRequest) (sdk.MessageNewParams, error) {
	var system []sdk.TextBlockParam
	var messages []sdk.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case model.RoleSystem:
			system = append(system, sdk.TextBlockParam{Text: m.Content})
		case model.RoleUser:
			messages = append(messages, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		case model.RoleAssistant:
			messages = append(messages, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		case model.RoleTool:
			messages = append(messages, sdk.NewUserMessage(sdk.NewToolResultBlock(m.ToolName, m.Content, false)))
		}
	}
	if len(messages) == 0 {
		return sdk.MessageNewParams{}, apierrors.Validation("anthropic request requires at least one message", nil)
	}

	maxTokens := int64(4096)
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		maxTokens = int64(*req.MaxTokens)
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	for _, t := range req.Tools {
		params.Tools = append(params.Tools, sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{
			Properties: t.Parameters,
		}, t.Name))
	}
	return params, nil
}

func translateAnthropicMessage(msg *sdk.Message) chatgraph.CompletionResult {
	var result chatgraph.CompletionResult
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case sdk.TextBlock:
			result.Content += b.Text
		case sdk.ToolUseBlock:
			args, _ := b.Input.MarshalJSON()
			result.ToolCalls = append(result.ToolCalls, model.ToolCall{ID: b.ID, Name: b.Name, Arguments: string(args)})
		}
	}
	result.FinishReason = string(msg.StopReason)
	return result
}
