package chatgraph

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// nodeInitialise is step 1: resolve the turn's working message set. When
// history is disabled the thread is reduced to the last human message only,
// and any carried-over retrieval state from a prior turn is cleared (it
// could only have survived if history were enabled).
func nodeInitialise(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
	st := rc.state

	if !rc.settings.LanguageModel.History {
		st.CleanedMessages = lastHumanMessage(st.Messages)
		st.Documents = ""
		st.ContextInput = ""
	} else {
		st.CleanedMessages = st.Messages
	}

	cm, err := g.Models.Resolve(ctx, rc.settings.LanguageModel.ModelID)
	if err != nil {
		return nodeModelUnreachable(err), nil
	}
	rc.chatModel = cm

	return nodeContextualise, nil
}

func lastHumanMessage(messages []model.ChatMessage) []model.ChatMessage {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			return []model.ChatMessage{messages[i]}
		}
	}
	return nil
}

// nodeContextualise is step 2: optionally rephrase the query against prior
// turns before retrieval. Rephrase only fires when vector search is enabled,
// the rephrase flag is set, history is on, and the thread already carries at
// least two prior messages to rephrase against (§4.1 step 2).
func nodeContextualise(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
	st := rc.state
	vs := rc.settings.VectorSearch

	query := lastUserContent(st.CleanedMessages)
	st.ContextInput = query

	shouldRephrase := vs.Enabled && vs.Rephrase && rc.settings.LanguageModel.History && len(st.CleanedMessages)-1 >= 2
	if !shouldRephrase {
		return nodeDecideTools, nil
	}

	_, tmpl, err := g.Prompts.Resolve(promptRefOrDefault(rc.settings, model.PromptCategoryRephrase, "optimizer_rephrase"))
	if err != nil {
		return nodeDecideTools, nil
	}

	req := CompletionRequest{Messages: append([]model.ChatMessage{{Role: model.RoleSystem, Content: tmpl}}, st.CleanedMessages...)}
	res, err := rc.chatModel.Complete(ctx, req)
	if err != nil {
		return nodeUpstreamError(err), nil
	}
	if strings.TrimSpace(res.Content) != "" {
		st.ContextInput = strings.TrimSpace(res.Content)
	}

	return nodeDecideTools, nil
}

func lastUserContent(messages []model.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func promptRefOrDefault(settings model.ClientSettings, category model.PromptCategory, fallback string) string {
	if name, ok := settings.PromptRefs[category]; ok && name != "" {
		return name
	}
	return fallback
}

// nodeDecideTools is step 3: decide whether vector search participates as a
// direct internal retrieval step before completion. It routes to retrieve
// when vector search is enabled and straight to complete otherwise; the
// tool definitions themselves are attached in nodeComplete.
func nodeDecideTools(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
	vs := rc.settings.VectorSearch
	if vs.Enabled {
		return nodeRetrieve, nil
	}
	return nodeComplete, nil
}

// nodeRetrieve is step 4: perform similarity search, either against the
// single configured table or, with discovery enabled, against the candidate
// tables selectDiscoveryTables picks (at most maxDiscoveryTables), merging and truncating
// results deterministically (§4.1 step 4, §4.1.e).
func nodeRetrieve(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
	st := rc.state
	vs := rc.settings.VectorSearch

	tables, metrics, err := resolveSearchTables(ctx, g, rc)
	if err != nil {
		return nodeUpstreamError(err), nil
	}
	if len(tables) == 0 {
		st.Documents = ""
		return nodeGrade, nil
	}

	embeddings, err := g.Retriever.Embed(ctx, []string{st.ContextInput})
	if err != nil || len(embeddings) == 0 {
		return nodeUpstreamError(err), nil
	}
	queryEmbedding := embeddings[0]

	var all []scoredChunk
	for _, table := range tables {
		metric := metrics[table]
		results, err := g.Retriever.Search(ctx, table, queryEmbedding, vs.TopK, metric)
		if err != nil {
			g.Log.Error(err, "vector search failed", "table", table)
			continue
		}
		all = append(all, convertAndFilter(results, table, metric, vs.ScoreThreshold)...)
	}

	merged := mergeDedupeTruncate(all, vs.TopK)

	st.Documents = formatDocuments(merged)
	st.VSMetadata = buildVSMetadata(merged)

	return nodeGrade, nil
}

// maxDiscoveryTables bounds how many candidate tables the discovery prompt
// may select in a single turn (§4.1 step 4, "pick up to N tables"). Not
// exposed as a per-client setting since model.VectorSearchSettings carries
// no such field; fixed here and documented in DESIGN.md.
const maxDiscoveryTables = 3

func resolveSearchTables(ctx context.Context, g *Graph, rc *runContext) ([]string, map[string]model.DistanceMetric, error) {
	vs := rc.settings.VectorSearch
	metrics := make(map[string]model.DistanceMetric)

	if !vs.Discovery {
		if vs.TableName == "" {
			return nil, metrics, nil
		}
		metrics[vs.TableName] = model.DistanceCosine
		return []string{vs.TableName}, metrics, nil
	}

	stores, err := g.Discoverer.Discovery(ctx, g.EnabledEmbeddingModels, true)
	if err != nil {
		return nil, metrics, err
	}
	for _, s := range stores {
		metrics[s.TableName] = s.DistanceMetric
	}
	if len(stores) == 0 {
		return nil, metrics, nil
	}

	selected := selectDiscoveryTables(ctx, g, rc, stores)
	tables := make([]string, 0, len(selected))
	for _, s := range selected {
		tables = append(tables, s.TableName)
	}
	return tables, metrics, nil
}

// selectDiscoveryTables asks the language model, via the discovery prompt,
// to pick up to maxDiscoveryTables candidates by alias and description
// (§4.1 step 4) before any embedding search runs. A missing prompt, a
// failed completion, or a response that names nothing in stores all
// degrade to the first maxDiscoveryTables candidates in discovery order,
// the same best-effort fallback nodeContextualise and nodeGrade use when
// their own prompt resolution fails.
func selectDiscoveryTables(ctx context.Context, g *Graph, rc *runContext, stores []model.VectorStore) []model.VectorStore {
	_, tmpl, err := g.Prompts.Resolve(promptRefOrDefault(rc.settings, model.PromptCategoryDiscovery, "optimizer_discovery"))
	if err != nil {
		return truncateStores(stores, maxDiscoveryTables)
	}

	prompt := strings.ReplaceAll(tmpl, "{stores}", describeStores(stores))
	prompt = strings.ReplaceAll(prompt, "{question}", rc.state.ContextInput)

	res, err := rc.chatModel.Complete(ctx, CompletionRequest{
		Messages: []model.ChatMessage{{Role: model.RoleSystem, Content: prompt}},
	})
	if err != nil {
		return truncateStores(stores, maxDiscoveryTables)
	}

	picked := matchSelectedStores(res.Content, stores)
	if len(picked) == 0 {
		return truncateStores(stores, maxDiscoveryTables)
	}
	return picked
}

// describeStores renders each candidate's alias and description for the
// discovery prompt's {stores} placeholder, one per line.
func describeStores(stores []model.VectorStore) string {
	var b strings.Builder
	for i, s := range stores {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s.TableName)
		if s.Alias != "" {
			b.WriteString(" (" + s.Alias + ")")
		}
		if s.Description != "" {
			b.WriteString(": " + s.Description)
		}
	}
	return b.String()
}

// matchSelectedStores parses a comma/newline/semicolon-separated list of
// table names or aliases out of the model's reply and resolves each against
// the candidate set, stopping once maxDiscoveryTables are picked. Unknown
// names are ignored rather than treated as an error.
func matchSelectedStores(content string, stores []model.VectorStore) []model.VectorStore {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})

	var picked []model.VectorStore
	for _, f := range fields {
		name := strings.TrimSpace(f)
		if name == "" {
			continue
		}
		for _, s := range stores {
			if strings.EqualFold(s.TableName, name) || strings.EqualFold(s.Alias, name) {
				picked = append(picked, s)
				break
			}
		}
		if len(picked) >= maxDiscoveryTables {
			break
		}
	}
	return picked
}

func truncateStores(stores []model.VectorStore, n int) []model.VectorStore {
	if len(stores) <= n {
		return stores
	}
	return stores[:n]
}

func formatDocuments(chunks []scoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(c.Text)
	}
	return b.String()
}

func buildVSMetadata(chunks []scoredChunk) model.VSMetadata {
	seen := make(map[string]bool)
	var tables []string
	for _, c := range chunks {
		if !seen[c.SearchedTable] {
			seen[c.SearchedTable] = true
			tables = append(tables, c.SearchedTable)
		}
	}
	return model.VSMetadata{SearchedTables: tables, DocumentCount: len(chunks)}
}

// nodeGrade is step 5: when grading is enabled and documents were retrieved,
// ask the judge model whether the retrieved context is relevant. A
// non-boolean judge response is treated conservatively as "not relevant"
// (§4.1.d). Grading is the last point that can clear st.Documents, so this
// node also closes out the internal retrieval step by appending its
// tool-result message (§4.1.b) once the final relevance outcome is known.
func nodeGrade(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
	st := rc.state
	vs := rc.settings.VectorSearch

	if vs.Grade && st.Documents != "" {
		_, tmpl, err := g.Prompts.Resolve(promptRefOrDefault(rc.settings, model.PromptCategoryGrading, "optimizer_grading"))
		if err == nil {
			prompt := strings.ReplaceAll(tmpl, "{context}", st.Documents)
			req := CompletionRequest{Messages: []model.ChatMessage{
				{Role: model.RoleSystem, Content: prompt},
				{Role: model.RoleUser, Content: st.ContextInput},
			}}
			res, err := rc.chatModel.Complete(ctx, req)
			if err != nil {
				return nodeUpstreamError(err), nil
			}

			if !parseGradeBoolean(res.Content) {
				st.Documents = ""
				st.VSMetadata = model.VSMetadata{}
			}
		}
	}

	appendRetrievalToolMessage(st, st.ContextInput, st.Documents != "")

	return nodeComplete, nil
}

// appendRetrievalToolMessage satisfies the tool-calling API contract for
// retrieval invoked as an internal step rather than a model-requested tool
// call: a RoleTool message is still appended, but its content is reduced to
// a minimal status rather than the raw chunk text, which is injected into
// the system prompt separately by buildCompletionMessages (§4.1.b,
// scenario S2 in §8).
func appendRetrievalToolMessage(st *model.ChatGraphState, contextInput string, found bool) {
	result := "Relevant documents found for: '" + contextInput + "'"
	if !found {
		result = "No relevant documents found for: '" + contextInput + "'"
	}
	content, _ := json.Marshal(struct {
		Status string `json:"status"`
		Result string `json:"result"`
	}{Status: "success", Result: result})

	st.Messages = append(st.Messages, model.ChatMessage{
		Role:     model.RoleTool,
		Content:  string(content),
		ToolName: "vector_search",
	})
	st.CleanedMessages = st.Messages
}

// parseGradeBoolean treats only an unambiguous affirmative as relevant;
// anything else, including malformed output, is "not relevant".
func parseGradeBoolean(content string) bool {
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "true", "yes", "relevant":
		return true
	default:
		return false
	}
}

// nodeComplete is step 6, the only node whose model call is user-visible
// and streamed to the Sink. Retrieved documents, when present, are folded
// into the system prompt via the context template.
func nodeComplete(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
	st := rc.state

	messages := buildCompletionMessages(g, rc)

	var toolDefs []ToolDefinition
	if len(rc.tools) > 0 {
		for _, t := range rc.tools {
			toolDefs = append(toolDefs, t.Definition())
		}
	}

	req := CompletionRequest{
		Messages:    messages,
		Tools:       toolDefs,
		Temperature: rc.settings.LanguageModel.Temperature,
		MaxTokens:   rc.settings.LanguageModel.MaxTokens,
	}

	res, err := rc.chatModel.StreamComplete(ctx, req, func(delta string) {
		_ = rc.sink.Write(delta)
	})
	if err != nil {
		return nodeUpstreamError(err), nil
	}
	rc.lastResult = res

	if len(toolDefs) > 0 && len(res.ToolCalls) == 0 && looksLikeToolCallJSON(res.Content) {
		return terminalEnvelope(rc, "Function Calling Not Supported: the configured model did not use structured tool calls.", "function_calling_not_supported"), nil
	}

	if len(res.ToolCalls) > 0 {
		st.Messages = append(st.Messages, model.ChatMessage{Role: model.RoleAssistant, Content: res.Content, ToolCall: &res.ToolCalls[0]})
		return nodeToolBranch, nil
	}

	return nodeFinalise, nil
}

// looksLikeToolCallJSON catches models that emit a tool invocation as plain
// JSON text instead of using the structured tool-calling API (§4.1.d).
func looksLikeToolCallJSON(content string) bool {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return false
	}
	var probe map[string]any
	if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
		return false
	}
	_, hasName := probe["name"]
	_, hasArguments := probe["arguments"]
	return hasName && hasArguments
}

func buildCompletionMessages(g *Graph, rc *runContext) []model.ChatMessage {
	st := rc.state
	var sysPrompt string
	if _, tmpl, err := g.Prompts.Resolve(promptRefOrDefault(rc.settings, model.PromptCategorySystem, "optimizer_sys")); err == nil {
		sysPrompt = tmpl
	}

	if st.Documents != "" {
		if _, ctxTmpl, err := g.Prompts.Resolve(promptRefOrDefault(rc.settings, model.PromptCategoryContext, "optimizer_ctx")); err == nil {
			sysPrompt += "\n" + strings.ReplaceAll(ctxTmpl, "{context}", st.Documents)
		}
	} else if rc.settings.VectorSearch.Enabled && len(rc.tools) == 0 {
		if fb, err := g.Prompts.Get("optimizer_vs_no_tools"); err == nil {
			sysPrompt += "\n" + fb.EffectiveText()
		}
	}

	out := make([]model.ChatMessage, 0, len(st.CleanedMessages)+1)
	if sysPrompt != "" {
		out = append(out, model.ChatMessage{Role: model.RoleSystem, Content: sysPrompt})
	}
	out = append(out, st.CleanedMessages...)
	return out
}

// nodeToolBranch is step 7: invoke the model-requested tool and loop back
// into `complete` so the model can use the result, up to maxToolIterations.
// External tool results are appended verbatim; retrieval's own internal
// tool-message discipline (§4.1.b) is handled in nodeGrade, since the
// retrieve/grade steps run ahead of completion rather than in response to a
// model-requested tool call.
func nodeToolBranch(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
	st := rc.state
	rc.toolIter++
	if rc.toolIter > maxToolIterations {
		return nodeFinalise, nil
	}

	call := rc.lastResult.ToolCalls[0]
	tool, ok := rc.toolByName[call.Name]
	if !ok {
		st.Messages = append(st.Messages, model.ChatMessage{
			Role:     model.RoleTool,
			Content:  "error: unknown tool " + call.Name,
			ToolName: call.Name,
		})
		return nodeComplete, nil
	}

	result, err := tool.Invoke(ctx, call.Arguments)
	if err != nil {
		result = "error: " + err.Error()
	}

	st.Messages = append(st.Messages, model.ChatMessage{
		Role:     model.RoleTool,
		Content:  result,
		ToolName: call.Name,
	})
	st.CleanedMessages = st.Messages

	return nodeComplete, nil
}

// nodeFinalise is step 8: assemble the completion envelope, finish the sink,
// and persist retrieval provenance.
func nodeFinalise(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
	st := rc.state

	assistantMsg := model.ChatMessage{Role: model.RoleAssistant, Content: rc.lastResult.Content}
	st.Messages = append(st.Messages, assistantMsg)

	st.FinalResponse = model.FinalResponse{
		ID:      uuid.NewString(),
		Created: time.Now(),
		Model:   rc.settings.LanguageModel.ModelID,
		Object:  "chat.completion",
		Choices: []model.CompletionChoice{{
			Message:      assistantMsg,
			FinishReason: rc.lastResult.FinishReason,
			Index:        0,
		}},
	}

	if err := rc.sink.Finish(); err != nil {
		g.Log.Error(err, "failed to finish sink")
	}

	return nil, nil
}

// nodeModelUnreachable builds the canned envelope returned when the
// configured language model cannot be resolved at all. The HTTP status
// stays 200 per §4.1.d; this is a streamed response, not a request failure.
func nodeModelUnreachable(cause error) nodeFunc {
	return func(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
		return terminalEnvelope(rc, "Unable to initialise the Language Model.", "model_unreachable"), nil
	}
}

// nodeUpstreamError builds the apology envelope returned when an upstream
// provider API call fails mid-turn (§4.1.d).
func nodeUpstreamError(cause error) nodeFunc {
	return func(ctx context.Context, g *Graph, rc *runContext) (nodeFunc, error) {
		detail := "connection error"
		if cause != nil {
			detail = cause.Error()
		}
		msg := "I'm sorry, something went wrong while talking to the language model (" + detail + "). Please open an issue if this persists: https://github.com/oracle/ai-optimizer/issues"
		return terminalEnvelope(rc, msg, "upstream_error"), nil
	}
}

func terminalEnvelope(rc *runContext, content, finishReason string) nodeFunc {
	return func(ctx context.Context, g *Graph, rc2 *runContext) (nodeFunc, error) {
		msg := model.ChatMessage{Role: model.RoleAssistant, Content: content}
		rc2.state.Messages = append(rc2.state.Messages, msg)
		rc2.state.FinalResponse = model.FinalResponse{
			ID:      uuid.NewString(),
			Created: time.Now(),
			Model:   rc2.settings.LanguageModel.ModelID,
			Object:  "chat.completion",
			Choices: []model.CompletionChoice{{Message: msg, FinishReason: finishReason, Index: 0}},
		}
		_ = rc2.sink.Write(content)
		_ = rc2.sink.Finish()
		return nil, nil
	}
}
