package testbed

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// correctnessInputTemplate mirrors
// `server/api/utils/testbed_metrics.py`'s CORRECTNESS_INPUT_TEMPLATE.
const correctnessInputTemplate = `{description}

Conversation:
{conversation}

Answer: {answer}
Reference answer: {reference_answer}`

// JudgeModel issues one judge call given a system prompt (subject to
// override, §4.4) and the formatted correctness payload, returning the raw
// JSON content.
type JudgeModel interface {
	Judge(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// formatConversation renders prior turns as `<role>content</role>` blocks
// joined by blank lines, matching `format_conversation`.
func formatConversation(history []model.ChatMessage) string {
	parts := make([]string, 0, len(history))
	for _, m := range history {
		role := strings.ToLower(string(m.Role))
		parts = append(parts, "<"+role+">"+m.Content+"</"+role+">")
	}
	return strings.Join(parts, "\n\n")
}

// JudgeCorrectness calls the judge model once for one QA item and parses
// its structured verdict. correctness_reason is stripped when the answer is
// correct; a non-boolean "correctness" field is an evaluation error, not a
// silently coerced value (§4.4 "Judging").
func JudgeCorrectness(ctx context.Context, judge JudgeModel, systemPrompt string, history []model.ChatMessage, item model.QAItem, answer string) (correct bool, reason string, err error) {
	userPrompt := strings.NewReplacer(
		"{description}", "A chatbot answering questions.",
		"{conversation}", formatConversation(history),
		"{answer}", answer,
		"{reference_answer}", item.ReferenceAnswer,
	).Replace(correctnessInputTemplate)

	raw, err := judge.Judge(ctx, systemPrompt, userPrompt)
	if err != nil {
		return false, "", err
	}

	var probe map[string]any
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return false, "", apierrors.Integrity("judge returned malformed JSON", err)
	}

	rawCorrectness, ok := probe["correctness"]
	if !ok {
		return false, "", apierrors.Integrity("judge response missing correctness field", nil)
	}
	b, ok := rawCorrectness.(bool)
	if !ok {
		return false, "", apierrors.Integrity(ErrNonBooleanCorrectness.Error(), ErrNonBooleanCorrectness)
	}

	if b {
		return true, "", nil
	}
	r, _ := probe["correctness_reason"].(string)
	return false, r, nil
}
