// Package database implements the Database Connection Pool Registry (§3
// DatabaseHandle): named connection handles, at most one live connection per
// name at a time, with distinct validating and non-validating lookups (§9
// Open Question: "should Pool.Get validate liveness on every call, or trust
// the last known state" — decided in DESIGN.md as "no": Get trusts the last
// known state and GetValidated is the explicit opt-in for callers on a
// cold/long-idle path, matching the teacher's manager.go split between a
// cheap accessor and an explicit health check).
package database

import (
	"context"
	"sync"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// Pinger opens and immediately verifies one connection for a handle.
// internal/database.Ping supplies the real implementation (GORM + pgx);
// tests supply a fake.
type Pinger func(ctx context.Context, h model.DatabaseHandle) error

// Pool is the process-wide Database Connection Pool Registry.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*model.DatabaseHandle
	ping    Pinger
}

// New builds an empty pool. ping is used by GetValidated and by Upsert's
// initial connect attempt.
func New(ping Pinger) *Pool {
	return &Pool{entries: make(map[string]*model.DatabaseHandle), ping: ping}
}

// Load registers a batch of handles, typically at boot, without connecting.
func (p *Pool) Load(handles []model.DatabaseHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range handles {
		h := handles[i]
		p.entries[h.Name] = &h
	}
}

// Get returns the handle for name as last known, without re-validating
// liveness. Most call sites want this: the chat graph and vector store
// engine resolve a database by name on every request and cannot afford a
// round trip just to read connection parameters.
func (p *Pool) Get(name string) (model.DatabaseHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.entries[name]
	if !ok {
		return model.DatabaseHandle{}, apierrors.NotFound("unknown database "+name, nil)
	}
	return *h, nil
}

// GetValidated returns the handle for name after confirming the connection
// is live, reconnecting if necessary. Use this on paths that tolerate the
// extra round trip and need a hard guarantee (boot-time readiness checks,
// the admin health endpoint).
func (p *Pool) GetValidated(ctx context.Context, name string) (model.DatabaseHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.entries[name]
	if !ok {
		return model.DatabaseHandle{}, apierrors.NotFound("unknown database "+name, nil)
	}
	if err := p.ping(ctx, *h); err != nil {
		h.Connected = false
		return model.DatabaseHandle{}, apierrors.Unavailable("database "+name+" unreachable", err)
	}
	h.Connected = true
	return *h, nil
}

// List returns a snapshot of every registered handle.
func (p *Pool) List() []model.DatabaseHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.DatabaseHandle, 0, len(p.entries))
	for _, h := range p.entries {
		out = append(out, *h)
	}
	return out
}

// Upsert validates connectivity and creates or replaces one handle in place
// (admin PATCH). Per §7 registry atomicity, a failed connection attempt
// leaves the prior entry, if any, untouched.
func (p *Pool) Upsert(ctx context.Context, h model.DatabaseHandle) error {
	if err := p.ping(ctx, h); err != nil {
		return apierrors.UnprocessableModel("cannot connect to database "+h.Name, err)
	}
	h.Connected = true

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.entries[h.Name]; ok {
		*existing = h
	} else {
		p.entries[h.Name] = &h
	}
	return nil
}

// Delete removes a handle by name.
func (p *Pool) Delete(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.entries[name]; !ok {
		return apierrors.NotFound("unknown database "+name, nil)
	}
	delete(p.entries, name)
	return nil
}
