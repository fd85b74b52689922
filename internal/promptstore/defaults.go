package promptstore

import "github.com/oracle/ai-optimizer-server/internal/model"

// defaultTemplates returns the compiled-in prompt catalog, named with the
// `optimizer_`-prefixed convention carried over from original_source's
// prompt registry (see DESIGN.md).
func defaultTemplates() []model.PromptTemplate {
	return []model.PromptTemplate{
		{
			Name:        "optimizer_sys",
			Category:    model.PromptCategorySystem,
			Role:        model.RoleSystem,
			Title:       "System Prompt",
			Tags:        []string{"chat"},
			DefaultText: "You are a helpful assistant. Answer clearly and concisely.",
		},
		{
			Name:        "optimizer_ctx",
			Category:    model.PromptCategoryContext,
			Role:        model.RoleSystem,
			Title:       "Context Prompt",
			Tags:        []string{"chat", "vector_search"},
			DefaultText: "Use the following retrieved context to answer the question. If the context does not contain the answer, say so.\n\n{context}",
		},
		{
			Name:        "optimizer_grading",
			Category:    model.PromptCategoryGrading,
			Role:        model.RoleSystem,
			Title:       "Context Grading Prompt",
			Tags:        []string{"vector_search"},
			DefaultText: "Given the question and a retrieved document, respond with only \"yes\" or \"no\" indicating whether the document is relevant to answering the question.\n\nQuestion: {question}\nDocument: {document}",
		},
		{
			Name:        "optimizer_rephrase",
			Category:    model.PromptCategoryRephrase,
			Role:        model.RoleSystem,
			Title:       "Query Rephrase Prompt",
			Tags:        []string{"vector_search"},
			DefaultText: "Rewrite the following user question as a standalone search query, resolving any pronouns or references to the prior conversation.\n\n{history}\n\nQuestion: {question}",
		},
		{
			Name:        "optimizer_discovery",
			Category:    model.PromptCategoryDiscovery,
			Role:        model.RoleSystem,
			Title:       "Vector Store Discovery Prompt",
			Tags:        []string{"vector_search", "mcp"},
			DefaultText: "Given the question and the list of available knowledge stores below, respond with only the names of up to three stores most likely to contain the answer, one per line, most relevant first, or \"none\" if none apply.\n\nQuestion: {question}\nStores: {stores}",
		},
		{
			Name:        "optimizer_judge",
			Category:    model.PromptCategoryJudge,
			Role:        model.RoleSystem,
			Title:       "Testbed Judge Prompt",
			Tags:        []string{"testbed"},
			DefaultText: "You are grading a chatbot's answer against a reference answer for correctness. Respond with strict JSON only, no prose: {\"correctness\": true|false, \"correctness_reason\": \"<reason, only when false>\"}.",
		},
		{
			Name:        "optimizer_testbed_qa_generate",
			Category:    model.PromptCategoryJudge,
			Role:        model.RoleSystem,
			Title:       "Testbed Q&A Generation Prompt",
			Tags:        []string{"testbed"},
			DefaultText: "You write evaluation questions for a document passage. Given the passage, respond with strict JSON only, no prose: {\"question\": \"<a question answerable from the passage>\", \"reference_answer\": \"<the correct answer, grounded only in the passage>\"}.",
		},
		{
			Name:        "optimizer_vs_no_tools",
			Category:    model.PromptCategorySystem,
			Role:        model.RoleSystem,
			Title:       "No-Tool-Call Fallback Prompt",
			Tags:        []string{"chat", "vector_search"},
			DefaultText: "Vector search is enabled for this client but the selected model does not support tool calling; answer using only the conversation so far.",
		},
		{
			Name:        "optimizer_selectai",
			Category:    model.PromptCategorySystem,
			Role:        model.RoleSystem,
			Title:       "SelectAI Tool Prompt",
			Tags:        []string{"selectai", "mcp"},
			DefaultText: "Translate the user's question into a natural-language request suitable for Oracle Select AI, then return its response verbatim.\n\nQuestion: {question}",
		},
	}
}
