package mcp

import (
	"context"

	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/model"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// minChatHistoryForRephrase mirrors vs_rephrase.py's
// MIN_CHAT_HISTORY_FOR_REPHRASE.
const minChatHistoryForRephrase = 2

// promptRefOrDefault mirrors chatgraph's helper of the same name: a
// client's PromptRefs override wins, else the package default applies.
func promptRefOrDefault(settings model.ClientSettings, category model.PromptCategory, fallback string) string {
	if name, ok := settings.PromptRefs[category]; ok && name != "" {
		return name
	}
	return fallback
}

// RephraseInput is the optimizer_vs-rephrase tool's input.
type RephraseInput struct {
	ClientID    string   `json:"client_id" jsonschema:"Client thread ID, used to look up configuration"`
	Question    string   `json:"question" jsonschema:"The user's question to be rephrased"`
	ChatHistory []string `json:"chat_history,omitempty" jsonschema:"Previous conversation turns, oldest first"`
}

// RephraseOutput is the optimizer_vs-rephrase tool's output.
type RephraseOutput struct {
	OriginalPrompt  string `json:"original_prompt"`
	RephrasedPrompt string `json:"rephrased_prompt"`
	WasRephrased    bool   `json:"was_rephrased"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
}

func (s *Server) registerRephraseTool(server *mcpsdk.Server) {
	mcpsdk.AddTool[RephraseInput, RephraseOutput](
		server,
		&mcpsdk.Tool{
			Name:        "optimizer_vs-rephrase",
			Description: "Rephrase a user question using conversation history for better vector search retrieval.",
		},
		s.handleVSRephrase,
	)
}

// handleVSRephrase mirrors `_vs_rephrase_impl`: rephrasing only fires when
// vector-search rephrase is enabled, chat history is enabled, and at least
// minChatHistoryForRephrase prior turns exist. A rephrase model failure is
// reported as an error status, never surfaced as a tool-call error, since
// the caller can safely fall back to the original question.
func (s *Server) handleVSRephrase(ctx context.Context, req *mcpsdk.CallToolRequest, input RephraseInput) (*mcpsdk.CallToolResult, RephraseOutput, error) {
	clientID := input.ClientID
	if clientID == "" {
		clientID = clientsettings.DefaultClientID
	}
	settings := s.clients.Get(clientID)

	notRephrased := RephraseOutput{
		OriginalPrompt:  input.Question,
		RephrasedPrompt: input.Question,
		WasRephrased:    false,
		Status:          "success",
	}

	if !settings.VectorSearch.Rephrase {
		return okResult(notRephrased.RephrasedPrompt), notRephrased, nil
	}
	if !settings.LanguageModel.History || len(input.ChatHistory) < minChatHistoryForRephrase {
		return okResult(notRephrased.RephrasedPrompt), notRephrased, nil
	}

	_, tmpl, err := s.prompts.Resolve(promptRefOrDefault(settings, model.PromptCategoryRephrase, "optimizer_rephrase"))
	if err != nil {
		out := notRephrased
		out.Status, out.Error = "error", err.Error()
		return errResult(out.Error), out, nil
	}

	chatModel, err := s.models.Resolve(ctx, settings.LanguageModel.ModelID)
	if err != nil {
		out := notRephrased
		out.Status, out.Error = "error", "API connection failed: "+err.Error()
		return errResult(out.Error), out, nil
	}

	messages := make([]model.ChatMessage, 0, len(input.ChatHistory)+2)
	messages = append(messages, model.ChatMessage{Role: model.RoleSystem, Content: tmpl})
	for i, turn := range input.ChatHistory {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		messages = append(messages, model.ChatMessage{Role: role, Content: turn})
	}
	messages = append(messages, model.ChatMessage{Role: model.RoleUser, Content: input.Question})

	result, err := chatModel.Complete(ctx, chatgraph.CompletionRequest{Messages: messages})
	if err != nil {
		out := notRephrased
		out.Status, out.Error = "error", "API connection failed: "+err.Error()
		return errResult(out.Error), out, nil
	}

	if result.Content == "" || result.Content == input.Question {
		return okResult(notRephrased.RephrasedPrompt), notRephrased, nil
	}

	out := RephraseOutput{
		OriginalPrompt:  input.Question,
		RephrasedPrompt: result.Content,
		WasRephrased:    true,
		Status:          "success",
	}
	return okResult(out.RephrasedPrompt), out, nil
}
