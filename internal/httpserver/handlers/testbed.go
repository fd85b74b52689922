package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/httpserver/auth"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/promptstore"
	"github.com/oracle/ai-optimizer-server/internal/testbed"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
)

// TestbedHandler serves the Testbed Evaluation Runner's HTTP surface (§6
// "/v1/testbed/..."): test set generation from uploaded documents, manual
// Q&A maintenance, evaluation runs, and report retrieval.
type TestbedHandler struct {
	*Base
}

// RegisterRoutes wires TestbedHandler's routes onto r.
func (h *TestbedHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/testbed/testsets", WrapError(h.ListTestSets)).Methods(http.MethodGet)
	r.HandleFunc("/v1/testbed/testsets", WrapError(h.GenerateTestSet)).Methods(http.MethodPost)
	r.HandleFunc("/v1/testbed/testsets/{tid}", WrapError(h.GetTestSet)).Methods(http.MethodGet)
	r.HandleFunc("/v1/testbed/testsets/{tid}", WrapError(h.UpsertTestSet)).Methods(http.MethodPatch)
	r.HandleFunc("/v1/testbed/testsets/{tid}", WrapError(h.DeleteTestSet)).Methods(http.MethodDelete)
	r.HandleFunc("/v1/testbed/evaluate", WrapError(h.Evaluate)).Methods(http.MethodPost)
	r.HandleFunc("/v1/testbed/evaluations/{tid}", WrapError(h.ListEvaluations)).Methods(http.MethodGet)
	r.HandleFunc("/v1/testbed/evaluations/report/{eid}", WrapError(h.GetReport)).Methods(http.MethodGet)
}

func (h *TestbedHandler) ListTestSets(w ErrorResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.Testbed.GetTestSets())
}

func (h *TestbedHandler) GetTestSet(w ErrorResponseWriter, r *http.Request) {
	tid := mux.Vars(r)["tid"]
	ts, err := h.Testbed.GetTestSetQA(tid)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, ts)
}

func (h *TestbedHandler) DeleteTestSet(w ErrorResponseWriter, r *http.Request) {
	tid := mux.Vars(r)["tid"]
	if err := h.Testbed.DeleteTestSet(tid); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, struct{}{})
}

type upsertTestSetRequest struct {
	Name  string         `json:"name"`
	Items []model.QAItem `json:"items"`
}

// UpsertTestSet appends caller-supplied Q&A pairs to an existing test set
// (§4.4 "upsert_qa"), bypassing generation entirely.
func (h *TestbedHandler) UpsertTestSet(w ErrorResponseWriter, r *http.Request) {
	tid := mux.Vars(r)["tid"]
	var req upsertTestSetRequest
	if err := DecodeJSON(r, &req); err != nil {
		w.RespondWithError(err)
		return
	}
	newTID, err := h.Testbed.UpsertQA(req.Name, req.Items, tid)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	ts, err := h.Testbed.GetTestSetQA(newTID)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, ts)
}

type generateTestSetFile struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type generateTestSetRequest struct {
	Name             string                `json:"name"`
	Files            []generateTestSetFile `json:"files"`
	QuestionsPerFile int                   `json:"questions_per_file"`
	ChunkSize        int                   `json:"chunk_size"`
	ModelID          string                `json:"model_id"`
}

// GenerateTestSet synthesizes question/reference-answer pairs from
// caller-supplied document bytes using the configured language model (§4.4
// "Testset generation"). Files travel as inline JSON content rather than a
// multipart upload, matching the scratch-free, in-memory knowledge-base
// build this route performs per request.
func (h *TestbedHandler) GenerateTestSet(w ErrorResponseWriter, r *http.Request) {
	var req generateTestSetRequest
	if err := DecodeJSON(r, &req); err != nil {
		w.RespondWithError(err)
		return
	}
	if req.ModelID == "" {
		w.RespondWithError(apierrors.Validation("model_id is required", nil))
		return
	}
	if len(req.Files) == 0 {
		w.RespondWithError(apierrors.Validation("files must not be empty", nil))
		return
	}

	chatModel, err := h.Graph.Models.Resolve(r.Context(), req.ModelID)
	if err != nil {
		w.RespondWithError(err)
		return
	}

	files := make([]vectorstore.SourceFile, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, vectorstore.SourceFile{Filename: f.Filename, Bytes: []byte(f.Content)})
	}

	tid, err := h.Testbed.GenerateTestSet(r.Context(), testbed.GenerateOptions{
		Name:             req.Name,
		Files:            files,
		QuestionsPerFile: req.QuestionsPerFile,
		ChunkSize:        req.ChunkSize,
		Generator:        &qaGenerator{model: chatModel, prompts: h.Prompts},
	})
	if err != nil {
		w.RespondWithError(testbed.ClassifyGenerationError(req.ModelID, err))
		return
	}

	ts, err := h.Testbed.GetTestSetQA(tid)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, ts)
}

type evaluateRequest struct {
	TID     string `json:"tid"`
	ModelID string `json:"judge_model_id"`
}

// Evaluate runs a full evaluation of a test set against the calling
// client's configured answering model, judged by judge_model_id (§4.4
// "Answer collection", "Judging").
func (h *TestbedHandler) Evaluate(w ErrorResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := DecodeJSON(r, &req); err != nil {
		w.RespondWithError(err)
		return
	}
	if req.TID == "" || req.ModelID == "" {
		w.RespondWithError(apierrors.Validation("tid and judge_model_id are required", nil))
		return
	}

	judgeChatModel, err := h.Graph.Models.Resolve(r.Context(), req.ModelID)
	if err != nil {
		w.RespondWithError(err)
		return
	}

	_, judgePrompt, err := h.Prompts.Resolve("optimizer_judge")
	if err != nil {
		w.RespondWithError(err)
		return
	}

	report, err := h.Testbed.Evaluate(r.Context(), h.Clients, testbed.EvaluateOptions{
		ClientID:    auth.ClientIDFrom(r),
		TID:         req.TID,
		Runner:      h.Graph,
		Judge:       &judgeModel{model: judgeChatModel},
		JudgePrompt: judgePrompt,
	})
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, report)
}

func (h *TestbedHandler) ListEvaluations(w ErrorResponseWriter, r *http.Request) {
	tid := mux.Vars(r)["tid"]
	reports, err := h.Testbed.GetEvaluations(tid)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, reports)
}

// GetReport returns one persisted evaluation, opaque report blob included
// (§4.4 "the core does not interpret it downstream").
func (h *TestbedHandler) GetReport(w ErrorResponseWriter, r *http.Request) {
	eid := mux.Vars(r)["eid"]
	report, err := h.Testbed.ProcessReport(eid)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, report)
}

// qaGenerator adapts a resolved chatgraph.ChatModel to testbed.QAGenerator,
// asking the model for one question/reference-answer pair per passage
// (§4.4 "build_knowledge_base"). There is no teacher or original_source
// prompt text for this step to carry over (original_source delegates
// generation to an external Giskard knowledge-base builder, out of scope
// here per SPEC_FULL.md's DOMAIN STACK notes), so the prompt lives in the
// Prompt Store as "optimizer_testbed_qa_generate" like every other
// system-role prompt in this server, overridable the same way.
type qaGenerator struct {
	model   chatgraph.ChatModel
	prompts *promptstore.Store
}

type generatedQA struct {
	Question        string `json:"question"`
	ReferenceAnswer string `json:"reference_answer"`
}

func (g *qaGenerator) GenerateQuestions(ctx context.Context, passages []string, count int) ([]model.QAItem, error) {
	if count <= 0 {
		count = 1
	}
	role, sysText, err := g.prompts.Resolve("optimizer_testbed_qa_generate")
	if err != nil {
		return nil, &testbed.GenerationError{Kind: testbed.GenerationValidation, Message: "resolving QA generation prompt", Cause: err}
	}

	var items []model.QAItem
	for _, passage := range passages {
		if len(items) >= count {
			break
		}
		userPrompt := fmt.Sprintf("Passage:\n\n%s", passage)
		result, err := g.model.Complete(ctx, chatgraph.CompletionRequest{
			Messages: []model.ChatMessage{
				{Role: role, Content: sysText},
				{Role: model.RoleUser, Content: userPrompt},
			},
		})
		if err != nil {
			return nil, &testbed.GenerationError{Kind: testbed.GenerationUpstream, Message: "calling generation model", Cause: err}
		}

		var parsed generatedQA
		if jsonErr := json.Unmarshal([]byte(result.Content), &parsed); jsonErr != nil || parsed.Question == "" {
			continue
		}
		items = append(items, model.QAItem{Question: parsed.Question, ReferenceAnswer: parsed.ReferenceAnswer})
	}

	if len(items) == 0 {
		return nil, &testbed.GenerationError{Kind: testbed.GenerationNoQuestions}
	}
	return items, nil
}

// judgeModel adapts a resolved chatgraph.ChatModel to testbed.JudgeModel.
type judgeModel struct {
	model chatgraph.ChatModel
}

func (j *judgeModel) Judge(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	result, err := j.model.Complete(ctx, chatgraph.CompletionRequest{
		Messages: []model.ChatMessage{
			{Role: model.RoleSystem, Content: systemPrompt},
			{Role: model.RoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", apierrors.UpstreamError("judge model call failed", err)
	}
	return result.Content, nil
}
