// Package handlers implements the HTTP handler functions of the External
// HTTP Surface (spec.md §6), one file per route group, each embedding
// *Base for its shared collaborators — the same embedding shape every
// teacher handler (AgentsHandler, MemoryHandler, SessionsHandler, ...)
// uses, generalized from a single Kubernetes-backed Base to this server's
// process-wide stores and registries.
package handlers

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/promptstore"
	"github.com/oracle/ai-optimizer-server/internal/registry/cloudauth"
	"github.com/oracle/ai-optimizer-server/internal/registry/database"
	modelregistry "github.com/oracle/ai-optimizer-server/internal/registry/model"
	"github.com/oracle/ai-optimizer-server/internal/testbed"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
)

// EngineResolver opens the Vector Store Engine bound to one named
// database handle, typically by resolving it through the Database
// Connection Pool Registry and connecting with GORM+pgx (§4.2). Handlers
// never hold a long-lived *vectorstore.Engine since live connections are
// acquired per request, per §5 "not shared across requests".
type EngineResolver func(ctx context.Context, databaseName string) (*vectorstore.Engine, error)

// ScratchRoot is the filesystem root under which per-client, per-function
// scratch directories are created (internal/scratch).
type ScratchRoot string

// Base holds every collaborator an HTTP handler may need. Individual
// handler structs embed *Base and use only the fields their route group
// touches.
type Base struct {
	Clients    *clientsettings.Store
	Prompts    *promptstore.Store
	Graph      *chatgraph.Graph
	Testbed    *testbed.Store
	Models     *modelregistry.Registry
	Databases  *database.Pool
	CloudAuths *cloudauth.Registry
	Engines    EngineResolver
	Scratch    ScratchRoot
	Log        logr.Logger

	// EnabledEmbeddingModels mirrors the Model Registry's currently
	// enabled embedding-kind descriptors, refreshed once per request by
	// the caller that needs it (vector-store discovery, embed endpoints).
	EnabledEmbeddingModels func() map[string]bool
}

// clientSettingsOrServer resolves settings for a request's client id,
// falling back to the "server" record (§6 "client header ... defaulting
// to \"server\"").
func (b *Base) clientSettingsOrServer(clientID string) model.ClientSettings {
	if clientID == "" {
		clientID = clientsettings.ServerClientID
	}
	return b.Clients.Get(clientID)
}
