package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// bedrockChatModel adapts the AWS Bedrock Converse API to
// chatgraph.ChatModel, grounded on goadesign-goa-ai/features/model/bedrock's
// Converse/ConverseStream adapter. Region comes from the standard AWS SDK
// credential chain (AWS_REGION / shared config), not a server-specific env
// var — Bedrock access is IAM-scoped infrastructure, not a per-server secret.
type bedrockChatModel struct {
	runtime *bedrockruntime.Client
	model   string
}

func newBedrockChatModel(d model.ModelDescriptor) (chatgraph.ChatModel, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, apierrors.UnprocessableModel(fmt.Sprintf("loading AWS config for bedrock model %q", d.ID), err)
	}
	return &bedrockChatModel{runtime: bedrockruntime.NewFromConfig(cfg), model: d.ID}, nil
}

func toBedrockMessages(msgs []model.ChatMessage) ([]brtypes.Message, []brtypes.SystemContentBlock) {
	var system []brtypes.SystemContentBlock
	var conversation []brtypes.Message
	for _, m := range msgs {
		switch m.Role {
		case model.RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: m.Content})
		case model.RoleUser:
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		case model.RoleAssistant:
			conversation = append(conversation, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		case model.RoleTool:
			conversation = append(conversation, brtypes.Message{
				Role: brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberToolResult{
					Value: brtypes.ToolResultBlock{
						ToolUseId: aws.String(m.ToolName),
						Content:   []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: m.Content}},
					},
				}},
			})
		}
	}
	return conversation, system
}

func (c *bedrockChatModel) buildInput(req chatgraph.CompletionRequest) *bedrockruntime.ConverseInput {
	messages, system := toBedrockMessages(req.Messages)
	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.model),
		Messages: messages,
	}
	if len(system) > 0 {
		input.System = system
	}
	var cfg brtypes.InferenceConfiguration
	haveCfg := false
	if req.MaxTokens != nil {
		v := int32(*req.MaxTokens)
		cfg.MaxTokens = &v
		haveCfg = true
	}
	if req.Temperature != nil {
		v := float32(*req.Temperature)
		cfg.Temperature = &v
		haveCfg = true
	}
	if haveCfg {
		input.InferenceConfig = &cfg
	}
	return input
}

func (c *bedrockChatModel) Complete(ctx context.Context, req chatgraph.CompletionRequest) (chatgraph.CompletionResult, error) {
	out, err := c.runtime.Converse(ctx, c.buildInput(req))
	if err != nil {
		return chatgraph.CompletionResult{}, apierrors.UpstreamError("bedrock converse", err)
	}
	return translateConverseOutput(out), nil
}

func (c *bedrockChatModel) StreamComplete(ctx context.Context, req chatgraph.CompletionRequest, emit func(delta string)) (chatgraph.CompletionResult, error) {
	converseInput := c.buildInput(req)
	input := &bedrockruntime.ConverseStreamInput{
		ModelId:         converseInput.ModelId,
		Messages:        converseInput.Messages,
		System:          converseInput.System,
		InferenceConfig: converseInput.InferenceConfig,
	}
	out, err := c.runtime.ConverseStream(ctx, input)
	if err != nil {
		return chatgraph.CompletionResult{}, apierrors.UpstreamError("bedrock converse stream", err)
	}

	var result chatgraph.CompletionResult
	stream := out.GetStream()
	defer stream.Close()
	for event := range stream.Events() {
		switch e := event.(type) {
		case *brtypes.ConverseStreamOutputMemberContentBlockDelta:
			if text, ok := e.Value.Delta.(*brtypes.ContentBlockDeltaMemberText); ok {
				result.Content += text.Value
				if emit != nil {
					emit(text.Value)
				}
			}
		case *brtypes.ConverseStreamOutputMemberMessageStop:
			result.FinishReason = string(e.Value.StopReason)
		}
	}
	if err := stream.Err(); err != nil {
		return chatgraph.CompletionResult{}, apierrors.UpstreamError("bedrock converse stream", err)
	}
	return result, nil
}

func translateConverseOutput(out *bedrockruntime.ConverseOutput) chatgraph.CompletionResult {
	var result chatgraph.CompletionResult
	if msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			switch b := block.(type) {
			case *brtypes.ContentBlockMemberText:
				result.Content += b.Value
			case *brtypes.ContentBlockMemberToolUse:
				args := ""
				if doc, err := b.Value.Input.MarshalSmithyDocument(); err == nil {
					args = string(doc)
				}
				result.ToolCalls = append(result.ToolCalls, model.ToolCall{
					ID:        aws.ToString(b.Value.ToolUseId),
					Name:      aws.ToString(b.Value.Name),
					Arguments: args,
				})
			}
		}
	}
	result.FinishReason = string(out.StopReason)
	return result
}
