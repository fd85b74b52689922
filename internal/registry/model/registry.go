// Package model implements the Model Registry (§2, §3 ModelDescriptor):
// a process-wide set of model descriptors with boot-time URL-reachability
// probing and admin-patch mutation. Writers hold the registry lock only
// long enough to mutate the map in place (§5 "Shared-resource policy"),
// and list mutators never replace the underlying slice/map binding, since
// other components (the Chat Orchestration Graph, the Vector Store Engine)
// hold direct references to entries they resolve by name.
package model

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// Registry is the process-wide Model Registry.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*model.ModelDescriptor // keyed by Identity()
	probe   func(ctx context.Context, endpoint string) bool
	log     logr.Logger
}

// New builds an empty registry. probe overrides the reachability check
// used at Load and on admin patch (nil uses a real HTTP HEAD probe).
func New(log logr.Logger, probe func(ctx context.Context, endpoint string) bool) *Registry {
	if probe == nil {
		probe = httpProbe
	}
	return &Registry{entries: make(map[string]*model.ModelDescriptor), probe: probe, log: log}
}

func httpProbe(ctx context.Context, endpoint string) bool {
	if endpoint == "" {
		return true
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return false
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

// Load registers a batch of descriptors (typically at boot, from the
// layered configuration) and probes each one not marked UnconditionalTrust.
func (r *Registry) Load(ctx context.Context, descriptors []model.ModelDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range descriptors {
		d := descriptors[i]
		r.probeLocked(ctx, &d)
		r.entries[d.Identity()] = &d
	}
}

func (r *Registry) probeLocked(ctx context.Context, d *model.ModelDescriptor) {
	if !d.Enabled {
		return
	}
	if d.UnconditionalTrust() {
		d.LastProbeOK = true
		d.LastProbe = time.Now()
		return
	}
	ok := r.probe(ctx, d.Endpoint)
	d.LastProbe = time.Now()
	d.LastProbeOK = ok
	if !ok {
		d.Enabled = false
		r.log.Info("disabling model after failed reachability probe", "id", d.Identity(), "endpoint", d.Endpoint)
	}
}

// Get returns the descriptor for (provider, id), or a NotFound error.
func (r *Registry) Get(provider model.Provider, id string) (model.ModelDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.entries[string(provider)+"/"+id]
	if !ok {
		return model.ModelDescriptor{}, apierrors.NotFound("unknown model "+string(provider)+"/"+id, nil)
	}
	return *d, nil
}

// List returns a snapshot of every registered descriptor.
func (r *Registry) List() []model.ModelDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ModelDescriptor, 0, len(r.entries))
	for _, d := range r.entries {
		out = append(out, *d)
	}
	return out
}

// ListEnabled returns only descriptors currently enabled, optionally
// filtered by kind.
func (r *Registry) ListEnabled(kind model.ModelKind) []model.ModelDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ModelDescriptor, 0, len(r.entries))
	for _, d := range r.entries {
		if d.Enabled && d.Kind == kind {
			out = append(out, *d)
		}
	}
	return out
}

// Upsert creates or replaces one descriptor in place (admin PATCH), probing
// it before committing. Per §7 "Registry CRUD operations are atomic with
// respect to a single request": on probe failure for a descriptor that
// requests Enabled=true, the registry is left unchanged and an error is
// returned instead of silently disabling it, since this is an explicit
// admin mutation rather than a background probe.
func (r *Registry) Upsert(ctx context.Context, d model.ModelDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.Enabled && !d.UnconditionalTrust() {
		if !r.probe(ctx, d.Endpoint) {
			return apierrors.UnprocessableModel("model endpoint unreachable: "+d.Endpoint, nil)
		}
		d.LastProbeOK = true
		d.LastProbe = time.Now()
	}

	if existing, ok := r.entries[d.Identity()]; ok {
		*existing = d
	} else {
		r.entries[d.Identity()] = &d
	}
	return nil
}

// Delete removes a descriptor by identity.
func (r *Registry) Delete(provider model.Provider, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := string(provider) + "/" + id
	if _, ok := r.entries[key]; !ok {
		return apierrors.NotFound("unknown model "+key, nil)
	}
	delete(r.entries, key)
	return nil
}

// Reprobe re-checks one descriptor's reachability and disables it on
// failure, matching the lifecycle note "can be disabled at runtime when a
// subsequent probe fails" (§3 ModelDescriptor).
func (r *Registry) Reprobe(ctx context.Context, provider model.Provider, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.entries[string(provider)+"/"+id]
	if !ok {
		return
	}
	r.probeLocked(ctx, d)
}
