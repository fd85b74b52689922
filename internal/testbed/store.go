// Package testbed implements the Testbed Evaluation Runner (§4.4): synthetic
// Q&A generation from documents, answer collection via an internal chat
// request, LLM-as-judge correctness scoring, and report persistence as
// opaque binary blobs. Grounded on
// `original_source/src/server/api/v1/testbed.py` and its `utils_testbed`/
// `testbed_metrics` collaborators, generalized from a SQLite-backed CRUD
// layer to the process-wide in-memory registry shape used throughout this
// server (Model Registry, Cloud Auth Profile Registry, ...).
package testbed

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// Store is the process-wide TestSet and EvaluationReport registry.
type Store struct {
	mu          sync.Mutex
	testsets    map[string]*model.TestSet
	evaluations map[string]*model.EvaluationReport
}

// New builds an empty Store; tables are created on first use per §6's
// "Testbed tables ... created on first use if absent" — there is no schema
// to create here, only the first map entry.
func New() *Store {
	return &Store{
		testsets:    make(map[string]*model.TestSet),
		evaluations: make(map[string]*model.EvaluationReport),
	}
}

// UpsertQA stores items under tid if given and existing (appending to it),
// or creates a new TestSet otherwise, returning the resulting tid (§4.4
// "upsert_qa(name, created, payload, tid?) which returns the (new or
// existing) tid").
func (s *Store) UpsertQA(name string, items []model.QAItem, tid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tid != "" {
		ts, ok := s.testsets[tid]
		if !ok {
			return "", apierrors.NotFound("unknown testset "+tid, nil)
		}
		ts.QAItems = append(ts.QAItems, items...)
		return tid, nil
	}

	newTID := strings.ToUpper(uuid.NewString())
	s.testsets[newTID] = &model.TestSet{
		TID:     newTID,
		Name:    name,
		Created: time.Now(),
		QAItems: items,
	}
	return newTID, nil
}

// GetTestSets lists every stored TestSet (names and metadata only; callers
// wanting the Q&A payload use GetTestSetQA).
func (s *Store) GetTestSets() []model.TestSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.TestSet, 0, len(s.testsets))
	for _, ts := range s.testsets {
		out = append(out, model.TestSet{TID: ts.TID, Name: ts.Name, Created: ts.Created})
	}
	return out
}

// GetTestSetQA returns the full TestSet including its Q&A payload.
func (s *Store) GetTestSetQA(tid string) (model.TestSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.testsets[tid]
	if !ok {
		return model.TestSet{}, apierrors.NotFound("unknown testset "+tid, nil)
	}
	return *ts, nil
}

// DeleteTestSet removes a TestSet.
func (s *Store) DeleteTestSet(tid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.testsets[tid]; !ok {
		return apierrors.NotFound("unknown testset "+tid, nil)
	}
	delete(s.testsets, tid)
	return nil
}

// InsertEvaluation persists a completed evaluation report, returning its eid
// (§4.4 "Report persistence").
func (s *Store) InsertEvaluation(tid string, correctness float64, settingsSnapshot string, reportBlob []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.testsets[tid]; !ok {
		return "", apierrors.NotFound("unknown testset "+tid, nil)
	}

	eid := strings.ToUpper(uuid.NewString())
	s.evaluations[eid] = &model.EvaluationReport{
		EID:                    eid,
		TID:                    tid,
		EvaluatedAt:            time.Now(),
		Correctness:            correctness,
		ClientSettingsSnapshot: settingsSnapshot,
		ReportBlob:             reportBlob,
	}
	return eid, nil
}

// GetEvaluations lists every evaluation recorded against a testset.
func (s *Store) GetEvaluations(tid string) ([]model.EvaluationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.testsets[tid]; !ok {
		return nil, apierrors.NotFound("unknown testset "+tid, nil)
	}
	var out []model.EvaluationReport
	for _, e := range s.evaluations {
		if e.TID == tid {
			out = append(out, *e)
		}
	}
	return out, nil
}

// ProcessReport returns the stored evaluation, opaque blob included; the
// core does not interpret the blob further (§4.4 "Report persistence" —
// "the core does not interpret it downstream").
func (s *Store) ProcessReport(eid string) (model.EvaluationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.evaluations[eid]
	if !ok {
		return model.EvaluationReport{}, apierrors.NotFound("unknown evaluation "+eid, nil)
	}
	return *e, nil
}
