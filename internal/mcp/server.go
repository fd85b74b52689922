// Package mcp implements the MCP Surface (§4.3/§6 "MCP surface"): a
// catalog of named prompts and named tools discoverable over the
// Model-Context-Protocol, fronted by X-API-Key authentication. Tool wiring
// follows `internal/mcp_handler.go`'s (the teacher's A2A bridge)
// `mcpsdk.NewServer`/`mcpsdk.AddTool[In,Out]` construction, generalized
// from agent-invocation tools to this server's vector-store discovery,
// rephrase, and prompt-resource tools.
package mcp

import (
	"net/http"

	"github.com/go-logr/logr"
	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/promptstore"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server is the MCP Surface: an mcpsdk.Server bound to this process's
// prompt store, client settings, and vector-store discovery/retrieval.
type Server struct {
	clients                *clientsettings.Store
	prompts                *promptstore.Store
	discoverer             chatgraph.Discoverer
	retriever              chatgraph.Retriever
	models                 chatgraph.ModelResolver
	enabledEmbeddingModels map[string]bool
	log                    logr.Logger
	apiKey                 string
	server                 *mcpsdk.Server
	httpHandler            *mcpsdk.StreamableHTTPHandler
}

// Config bundles Server's dependencies.
type Config struct {
	Clients                *clientsettings.Store
	Prompts                *promptstore.Store
	Discoverer             chatgraph.Discoverer
	Retriever              chatgraph.Retriever
	Models                 chatgraph.ModelResolver
	EnabledEmbeddingModels map[string]bool
	Log                    logr.Logger
	APIKey                 string
}

// NewServer builds the MCP surface and registers every tool and prompt.
func NewServer(cfg Config) (*Server, error) {
	s := &Server{
		clients:    cfg.Clients,
		prompts:    cfg.Prompts,
		discoverer: cfg.Discoverer,
		retriever:  cfg.Retriever,
		models:     cfg.Models,
		log:        cfg.Log,
		apiKey:     cfg.APIKey,
	}
	s.enabledEmbeddingModels = cfg.EnabledEmbeddingModels

	impl := &mcpsdk.Implementation{Name: "ai-optimizer-server", Version: "0.1.0"}
	server := mcpsdk.NewServer(impl, nil)
	s.server = server

	s.registerDiscoveryTool(server)
	s.registerRephraseTool(server)
	s.registerPrompts(server)

	s.httpHandler = mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, nil)

	return s, nil
}

// ServeHTTP fronts the MCP protocol endpoint with API-key authentication.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	APIKeyMiddleware(s.apiKey, s.httpHandler).ServeHTTP(w, r)
}
