package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// PromptListInput is the optimizer_prompt-list tool's input (no arguments).
type PromptListInput struct{}

// PromptSummary is one catalog entry: name and category only, matching the
// `/v1/mcp/prompts` (full=false) listing shape.
type PromptSummary struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// PromptListOutput is the optimizer_prompt-list tool's output.
type PromptListOutput struct {
	Prompts []PromptSummary `json:"prompts"`
}

// PromptGetInput is the optimizer_prompt-get tool's input.
type PromptGetInput struct {
	Name string `json:"name" jsonschema:"Prompt name, e.g. optimizer_ctx"`
}

// PromptGetOutput is the optimizer_prompt-get tool's output: the role and
// effective text (override if set, else compiled default), per §4.5.
type PromptGetOutput struct {
	Name string `json:"name"`
	Role string `json:"role"`
	Text string `json:"text"`
}

// registerPrompts exposes the prompt catalog as a pair of MCP tools rather
// than a protocol-native "prompt" resource: the catalog needs to be
// discoverable by name exactly as §4.3 requires, and doing so as tools
// keeps this package on the one AddTool construction already proven by the
// A2A bridge this surface is adapted from.
func (s *Server) registerPrompts(server *mcpsdk.Server) {
	mcpsdk.AddTool[PromptListInput, PromptListOutput](
		server,
		&mcpsdk.Tool{
			Name:        "optimizer_prompt-list",
			Description: "List the names and categories of every known prompt.",
		},
		s.handlePromptList,
	)

	mcpsdk.AddTool[PromptGetInput, PromptGetOutput](
		server,
		&mcpsdk.Tool{
			Name:        "optimizer_prompt-get",
			Description: "Resolve one named prompt to its effective role and text (override if set, else default).",
		},
		s.handlePromptGet,
	)
}

func (s *Server) handlePromptList(ctx context.Context, req *mcpsdk.CallToolRequest, input PromptListInput) (*mcpsdk.CallToolResult, PromptListOutput, error) {
	templates := s.prompts.List(false)
	out := PromptListOutput{Prompts: make([]PromptSummary, 0, len(templates))}
	text := ""
	for i, t := range templates {
		out.Prompts = append(out.Prompts, PromptSummary{Name: t.Name, Category: string(t.Category)})
		if i > 0 {
			text += "\n"
		}
		text += t.Name
	}
	return okResult(text), out, nil
}

func (s *Server) handlePromptGet(ctx context.Context, req *mcpsdk.CallToolRequest, input PromptGetInput) (*mcpsdk.CallToolResult, PromptGetOutput, error) {
	role, text, err := s.prompts.Resolve(input.Name)
	if err != nil {
		return errResult(err.Error()), PromptGetOutput{}, nil
	}
	out := PromptGetOutput{Name: input.Name, Role: string(role), Text: text}
	return okResult(out.Text), out, nil
}
