// Package cloudauth implements the Cloud Auth Profile Registry (§3
// CloudAuthProfile): a process-wide set of credential bundles with
// key-resolution per authentication mode. It never stores pointers across
// registries — ModelDescriptor.Credential and ClientSettings.AuthProfileName
// resolve a profile_name here at use-time (§9 "Cyclic references between
// registries").
package cloudauth

import (
	"sync"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// Registry is the process-wide Cloud Auth Profile Registry.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*model.CloudAuthProfile
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*model.CloudAuthProfile)}
}

// Load registers a batch of profiles, typically at boot.
func (r *Registry) Load(profiles []model.CloudAuthProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range profiles {
		p := profiles[i]
		r.entries[p.ProfileName] = &p
	}
}

// Get returns the profile for name, or a NotFound error.
func (r *Registry) Get(name string) (model.CloudAuthProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[name]
	if !ok {
		return model.CloudAuthProfile{}, apierrors.NotFound("unknown cloud auth profile "+name, nil)
	}
	return *p, nil
}

// List returns a snapshot of every registered profile.
func (r *Registry) List() []model.CloudAuthProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.CloudAuthProfile, 0, len(r.entries))
	for _, p := range r.entries {
		out = append(out, *p)
	}
	return out
}

// Upsert validates and creates or replaces one profile in place.
func (r *Registry) Upsert(p model.CloudAuthProfile) error {
	if err := validate(p); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[p.ProfileName]; ok {
		*existing = p
	} else {
		r.entries[p.ProfileName] = &p
	}
	return nil
}

// Delete removes a profile by name.
func (r *Registry) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return apierrors.NotFound("unknown cloud auth profile "+name, nil)
	}
	delete(r.entries, name)
	return nil
}

// validate enforces the §3 invariant: exactly one authentication mode is
// active and its required fields are all non-empty.
func validate(p model.CloudAuthProfile) error {
	switch p.Authentication {
	case model.AuthModeAPIKey:
		if p.User == "" || p.Tenancy == "" || p.Fingerprint == "" || p.KeyMaterialRef == "" {
			return apierrors.Validation("api_key authentication requires user, tenancy, fingerprint, and key material", nil)
		}
	case model.AuthModeInstanceIdentity, model.AuthModeWorkloadIdentity:
		// No caller-suppliable secret; the runtime environment supplies it.
	case model.AuthModeSecurityToken:
		if p.KeyMaterialRef == "" {
			return apierrors.Validation("security_token authentication requires a token file reference", nil)
		}
	default:
		return apierrors.Validation("unknown authentication mode "+string(p.Authentication), nil)
	}
	return nil
}
