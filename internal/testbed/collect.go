package testbed

import (
	"context"

	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// ChatRunner is the subset of chatgraph.Graph the Testbed Runner drives to
// collect answers; *chatgraph.Graph satisfies this directly.
type ChatRunner interface {
	Run(ctx context.Context, clientID string, messages []model.ChatMessage, sink chatgraph.Sink, opts chatgraph.RunOptions) (model.FinalResponse, error)
}

// CollectAnswers issues one internal chat request per question and returns
// just the assistant-role content of each final completion envelope (§4.4
// "Answer collection"). The caller is responsible for having forced history
// and grading off on the client settings the runner resolves.
func CollectAnswers(ctx context.Context, runner ChatRunner, clientID string, items []model.QAItem) ([]string, error) {
	answers := make([]string, 0, len(items))
	for _, item := range items {
		resp, err := runner.Run(ctx, clientID, []model.ChatMessage{{Role: model.RoleUser, Content: item.Question}}, nil, chatgraph.RunOptions{})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			answers = append(answers, "")
			continue
		}
		answers = append(answers, resp.Choices[0].Message.Content)
	}
	return answers, nil
}
