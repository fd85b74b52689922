// Package promptstore implements the Prompt Store (§4.5): a keyed set of
// named prompt templates with a mutable override layer that supersedes the
// compiled defaults. Prompt resolution never interprets `{placeholder}`
// substitution — that stays the caller's job, per §4.5's closing sentence.
package promptstore

import (
	"sync"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// Store is the process-wide prompt store.
type Store struct {
	mu        sync.Mutex
	templates map[string]model.PromptTemplate // keyed by Name, DefaultText fixed at Load
}

// New builds a store pre-seeded with the compiled defaults (defaults.go).
func New() *Store {
	s := &Store{templates: make(map[string]model.PromptTemplate)}
	for _, t := range defaultTemplates() {
		s.templates[t.Name] = t
	}
	return s
}

// Resolve returns the named prompt's effective message: the override text
// if one has been set, else the compiled default, tagged with the role
// fixed at the prompt's definition (§4.5).
func (s *Store) Resolve(name string) (role model.MessageRole, text string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[name]
	if !ok {
		return "", "", apierrors.NotFound("unknown prompt "+name, nil)
	}
	return t.Role, t.EffectiveText(), nil
}

// Get returns the full template (default and override text both present)
// for the prompt admin surface's `full=true` listing.
func (s *Store) Get(name string) (model.PromptTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[name]
	if !ok {
		return model.PromptTemplate{}, apierrors.NotFound("unknown prompt "+name, nil)
	}
	return t, nil
}

// List returns every template, names only if full is false.
func (s *Store) List(full bool) []model.PromptTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PromptTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		if !full {
			out = append(out, model.PromptTemplate{Name: t.Name, Category: t.Category})
			continue
		}
		out = append(out, t)
	}
	return out
}

// SetOverride stores override text for a known prompt name.
func (s *Store) SetOverride(name, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[name]
	if !ok {
		return apierrors.NotFound("unknown prompt "+name, nil)
	}
	t.OverrideText = text
	s.templates[name] = t
	return nil
}

// ResetAll clears every override, restoring compiled defaults everywhere.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.templates {
		t.OverrideText = ""
		s.templates[name] = t
	}
}
