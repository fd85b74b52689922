// Package clientsettings implements Per-Client Settings (§3 ClientSettings,
// §4.3): one Settings record per logical client identity, seeded from a
// "default" template, mutated in place by authenticated PATCH requests.
package clientsettings

import (
	"sync"

	"dario.cat/mergo"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

const (
	// DefaultClientID is the seed template every new client is deep-copied
	// from (§3 ClientSettings invariant).
	DefaultClientID = "default"
	// ServerClientID is the record used for unauthenticated or
	// client-header-less requests (§6 HTTP surface, `client` header
	// "defaulting to server").
	ServerClientID = "server"
)

// Store is the process-wide Per-Client Settings registry.
type Store struct {
	mu      sync.Mutex
	entries map[string]*model.ClientSettings
}

// New builds a store seeded with "default" and "server", both initialized
// from template (typically the configured client_settings, §4.3 step 4).
func New(template model.ClientSettings) *Store {
	s := &Store{entries: make(map[string]*model.ClientSettings)}
	for _, id := range []string{DefaultClientID, ServerClientID} {
		seeded := template.DeepCopy()
		seeded.ClientID = id
		s.entries[id] = &seeded
	}
	return s
}

// Get returns the settings for clientID, creating it as a deep copy of
// "default" on first reference if it does not yet exist (§3: "others
// created on demand by the first authenticated PATCH bearing a new
// client-id" — Get implements that same on-demand seeding so read paths
// that reference a not-yet-patched client id still get a coherent record).
func (s *Store) Get(clientID string) model.ClientSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[clientID]; ok {
		return *existing
	}
	seeded := s.entries[DefaultClientID].DeepCopy()
	seeded.ClientID = clientID
	s.entries[clientID] = &seeded
	return seeded
}

// List returns a snapshot of every client's settings.
func (s *Store) List() []model.ClientSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ClientSettings, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out
}

// Patch merges a partial update onto clientID's settings, creating the
// client (from "default") first if it does not exist. Non-zero fields in
// patch win; zero-valued fields leave the existing value untouched — the
// same "replace named entries, never the list binding" discipline as the
// registry PATCH endpoints (§4.3 "Runtime admin mutation"), but expressed
// here as a single-record field merge via mergo rather than an
// identity-keyed list merge, since ClientSettings has no parallel-list
// shape to reconcile.
func (s *Store) Patch(clientID string, patch model.ClientSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[clientID]
	if !ok {
		seeded := s.entries[DefaultClientID].DeepCopy()
		seeded.ClientID = clientID
		s.entries[clientID] = &seeded
		existing = &seeded
	}

	if err := mergo.Merge(&existing.LanguageModel, patch.LanguageModel, mergo.WithOverride); err != nil {
		return apierrors.Validation("could not merge language_model patch", err)
	}
	if err := mergo.Merge(&existing.VectorSearch, patch.VectorSearch, mergo.WithOverride); err != nil {
		return apierrors.Validation("could not merge vector_search patch", err)
	}
	if patch.SelectAI.Enabled {
		existing.SelectAI.Enabled = true
	}
	if patch.SelectAI.Profile != "" {
		existing.SelectAI.Profile = patch.SelectAI.Profile
	}
	if patch.AuthProfileName != "" {
		existing.AuthProfileName = patch.AuthProfileName
	}
	mergeListMutators(existing, patch)
	return nil
}

// mergeListMutators applies the map-valued fields of patch onto existing in
// place, one key at a time, matching §4.3's "List mutators MUST mutate the
// existing list object in place" for ClientSettings' three maps. mergo's
// struct merge is deliberately not used here: merging two structs that share
// map fields risks mutating the source map through aliasing, and a plain
// per-key loop is both clearer and safe.
func mergeListMutators(existing *model.ClientSettings, patch model.ClientSettings) {
	for k, v := range patch.PromptRefs {
		existing.PromptRefs[k] = v
	}
	for k, v := range patch.ToolsEnabled {
		existing.ToolsEnabled[k] = v
	}
	for k, v := range patch.SelectAI.Params {
		existing.SelectAI.Params[k] = v
	}
}

// WithOverride applies mutate directly to clientID's stored settings
// (bypassing Patch's merge-skips-zero-values semantics, needed to force a
// boolean field to false) and returns a restore function that puts the
// pre-override settings back. Used by the Testbed Runner to force
// history and grading off for the duration of one evaluation run (§4.4
// "Answer collection" — "history disabled and grading disabled ... for
// reproducibility") without permanently mutating the client's real
// settings.
func (s *Store) WithOverride(clientID string, mutate func(*model.ClientSettings)) (restore func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[clientID]
	if !ok {
		seeded := s.entries[DefaultClientID].DeepCopy()
		seeded.ClientID = clientID
		s.entries[clientID] = &seeded
		existing = &seeded
	}

	snapshot := existing.DeepCopy()
	mutate(existing)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries[clientID] = &snapshot
	}, nil
}

// Delete removes a client record. "default" and "server" may not be
// deleted (§3 invariant: they always exist).
func (s *Store) Delete(clientID string) error {
	if clientID == DefaultClientID || clientID == ServerClientID {
		return apierrors.Validation(clientID+" cannot be deleted", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[clientID]; !ok {
		return apierrors.NotFound("unknown client "+clientID, nil)
	}
	delete(s.entries, clientID)
	return nil
}
