package testbed

import (
	"context"
	"encoding/json"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// itemResult is one graded QA item, serialized into the opaque report blob.
type itemResult struct {
	Question        string `json:"question"`
	ReferenceAnswer string `json:"reference_answer"`
	Answer          string `json:"answer"`
	Correct         bool   `json:"correct"`
	Reason          string `json:"reason,omitempty"`
}

// reportPayload is the structure encoded into EvaluationReport.ReportBlob.
// The core never interprets this downstream (§4.4); only ProcessReport
// decodes it, and only for presentation back to a caller.
type reportPayload struct {
	Items []itemResult `json:"items"`
}

// EvaluateOptions bundles one evaluation run's inputs.
type EvaluateOptions struct {
	ClientID    string
	TID         string
	Runner      ChatRunner
	Judge       JudgeModel
	JudgePrompt string
}

// Evaluate runs a full testbed evaluation: forces history and grading off
// for the client, collects an answer per question, judges each for
// correctness, and persists the aggregate report (§4.4 "Answer collection",
// "Judging", "Report persistence").
func (s *Store) Evaluate(ctx context.Context, clients *clientsettings.Store, opts EvaluateOptions) (model.EvaluationReport, error) {
	testset, err := s.GetTestSetQA(opts.TID)
	if err != nil {
		return model.EvaluationReport{}, err
	}

	restore, err := clients.WithOverride(opts.ClientID, func(cs *model.ClientSettings) {
		cs.LanguageModel.History = false
		cs.VectorSearch.Grade = false
	})
	if err != nil {
		return model.EvaluationReport{}, err
	}
	defer restore()

	snapshot := clients.Get(opts.ClientID)
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return model.EvaluationReport{}, apierrors.Internal("could not snapshot client settings", err)
	}

	answers, err := CollectAnswers(ctx, opts.Runner, opts.ClientID, testset.QAItems)
	if err != nil {
		return model.EvaluationReport{}, apierrors.UpstreamError("answer collection failed", err)
	}

	results := make([]itemResult, 0, len(testset.QAItems))
	correctCount := 0
	for i, item := range testset.QAItems {
		answer := answers[i]
		correct, reason, jerr := JudgeCorrectness(ctx, opts.Judge, opts.JudgePrompt, nil, item, answer)
		if jerr != nil {
			return model.EvaluationReport{}, jerr
		}
		if correct {
			correctCount++
		}
		results = append(results, itemResult{
			Question:        item.Question,
			ReferenceAnswer: item.ReferenceAnswer,
			Answer:          answer,
			Correct:         correct,
			Reason:          reason,
		})
	}

	correctness := 0.0
	if len(results) > 0 {
		correctness = float64(correctCount) / float64(len(results))
	}

	blob, err := json.Marshal(reportPayload{Items: results})
	if err != nil {
		return model.EvaluationReport{}, apierrors.Internal("could not serialize evaluation report", err)
	}

	eid, err := s.InsertEvaluation(opts.TID, correctness, string(snapshotJSON), blob)
	if err != nil {
		return model.EvaluationReport{}, err
	}

	return s.ProcessReport(eid)
}
