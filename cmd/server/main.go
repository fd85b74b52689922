// Command server boots the AI Optimizer Server: it loads the layered
// configuration (internal/config), populates every process-wide registry
// from it, wires the Chat Orchestration Graph and MCP surface on top, and
// serves both behind the External HTTP Surface until an interrupt or
// SIGTERM asks for a graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/clientsettings"
	"github.com/oracle/ai-optimizer-server/internal/config"
	"github.com/oracle/ai-optimizer-server/internal/database"
	"github.com/oracle/ai-optimizer-server/internal/httpserver"
	"github.com/oracle/ai-optimizer-server/internal/httpserver/handlers"
	"github.com/oracle/ai-optimizer-server/internal/logging"
	"github.com/oracle/ai-optimizer-server/internal/mcp"
	"github.com/oracle/ai-optimizer-server/internal/model"
	"github.com/oracle/ai-optimizer-server/internal/promptstore"
	"github.com/oracle/ai-optimizer-server/internal/providers"
	"github.com/oracle/ai-optimizer-server/internal/registry/cloudauth"
	dbregistry "github.com/oracle/ai-optimizer-server/internal/registry/database"
	modelregistry "github.com/oracle/ai-optimizer-server/internal/registry/model"
	"github.com/oracle/ai-optimizer-server/internal/testbed"
	"github.com/oracle/ai-optimizer-server/internal/vectorstore"
	"github.com/oracle/ai-optimizer-server/pkg/env"
)

// defaultDatabaseName mirrors internal/config's unexported convention: the
// well-known identity the DB_* environment variables and compiled defaults
// populate, and the database this process binds its chat graph's
// Retriever/Discoverer to (§4.1 assumes one database, one embedding model
// per server instance).
const defaultDatabaseName = "DEFAULT"

func main() {
	log := logging.New(mustLogLevel())
	ctx := logging.IntoContext(context.Background(), log)

	loader := config.NewLoader(log, mustConfigFile())
	doc := loader.Current()

	databases := dbregistry.New(database.Ping)
	databases.Load(toDatabaseHandles(doc.DatabaseConfigs))

	models := modelregistry.New(log, nil)
	models.Load(ctx, toModelDescriptors(doc.ModelConfigs))

	cloudAuths := cloudauth.New()
	cloudAuths.Load(toCloudAuthProfiles(doc.CloudAuthConfigs))

	clients := clientsettings.New(toClientSettingsTemplate(doc.ClientSettings))

	prompts := promptstore.New()
	for name, text := range doc.PromptOverrides {
		if err := prompts.SetOverride(name, text); err != nil {
			log.Error(err, "ignoring invalid prompt override", "name", name)
		}
	}

	creds := providers.Credentials{
		OpenAIAPIKey:     lookup(env.OpenAIAPIKey),
		AnthropicAPIKey:  lookup(env.AnthropicAPIKey),
		CohereAPIKey:     lookup(env.CohereAPIKey),
		PerplexityAPIKey: lookup(env.PerplexityAPIKey),
	}
	resolver := providers.New(models, cloudAuths, creds, log)

	engines := func(ctx context.Context, databaseName string) (*vectorstore.Engine, error) {
		h, err := databases.GetValidated(ctx, databaseName)
		if err != nil {
			return nil, err
		}
		db, err := database.Connect(ctx, h)
		if err != nil {
			return nil, err
		}
		return vectorstore.New(db, log), nil
	}

	enabledEmbeddingModels := func() map[string]bool {
		out := map[string]bool{}
		for _, d := range models.ListEnabled(model.ModelKindEmbedding) {
			out[d.ID] = true
		}
		return out
	}

	retriever := providers.NewRetriever(providers.EngineResolver(engines), defaultDatabaseName, boundEmbeddingModelID(models), resolver)
	discoverer := providers.NewDiscoverer(providers.EngineResolver(engines), defaultDatabaseName)

	graph := chatgraph.New(clients, prompts, resolver, retriever, discoverer, log)
	tb := testbed.New()

	mcpServer, err := mcp.NewServer(mcp.Config{
		Clients:                clients,
		Prompts:                prompts,
		Discoverer:             discoverer,
		Retriever:              retriever,
		Models:                 resolver,
		EnabledEmbeddingModels: enabledEmbeddingModels(),
		Log:                    log.WithName("mcp"),
		APIKey:                 mcpAPIKey(),
	})
	if err != nil {
		log.Error(err, "building MCP surface")
		os.Exit(1)
	}

	base := &handlers.Base{
		Clients:                clients,
		Prompts:                prompts,
		Graph:                  graph,
		Testbed:                tb,
		Models:                 models,
		Databases:              databases,
		CloudAuths:             cloudAuths,
		Engines:                handlers.EngineResolver(engines),
		Scratch:                handlers.ScratchRoot(scratchRoot()),
		Log:                    log,
		EnabledEmbeddingModels: enabledEmbeddingModels,
	}

	api := httpserver.New(httpserver.Config{
		Base:        base,
		BearerToken: lookup(env.APIServerKey),
		Log:         log,
		ReadinessPing: func() error {
			_, err := databases.GetValidated(context.Background(), defaultDatabaseName)
			return err
		},
	})

	mux := http.NewServeMux()
	mux.Handle("/mcp/", mcpServer)
	mux.Handle("/", api)

	srv := &http.Server{
		Addr:    ":" + serverPort(doc),
		Handler: mux,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "server exited unexpectedly")
			stop()
		}
	}()

	<-runCtx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "graceful shutdown failed")
	}
}

func lookup(v env.StringVar) string {
	val, _ := v.Lookup()
	return val
}

func mustLogLevel() string {
	if v, ok := env.LogLevel.Lookup(); ok && v != "" {
		return v
	}
	return "INFO"
}

func mustConfigFile() string {
	v, _ := env.ConfigFile.Lookup()
	return v
}

func scratchRoot() string {
	if v := os.Getenv("SCRATCH_ROOT"); v != "" {
		return v
	}
	return os.TempDir() + "/ai-optimizer-server/scratch"
}

func mcpAPIKey() string {
	if v, ok := env.APIServerKey.Lookup(); ok && v != "" {
		return v
	}
	return ""
}

func serverPort(doc config.Document) string {
	if doc.Server.ServerPort != "" {
		return doc.Server.ServerPort
	}
	return "8000"
}

// boundEmbeddingModelID picks the single embedding model the chat graph's
// Retriever binds for the lifetime of the process (§4.1: one query
// embedding per retrieval pass, reused across every resolved table) — the
// first enabled embedding-kind descriptor found at boot. A server with no
// embedding model configured still starts; retrieval simply errors until
// one is added and the process is restarted.
func boundEmbeddingModelID(models *modelregistry.Registry) string {
	enabled := models.ListEnabled(model.ModelKindEmbedding)
	if len(enabled) == 0 {
		return ""
	}
	return enabled[0].ID
}

func toDatabaseHandles(cfgs []config.DatabaseConfig) []model.DatabaseHandle {
	out := make([]model.DatabaseHandle, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, model.DatabaseHandle{
			Name:           c.Name,
			User:           c.User,
			Secret:         c.Secret,
			DSN:            c.DSN,
			WalletRef:      c.WalletRef,
			ConnectTimeout: time.Duration(c.ConnectTimeoutS) * time.Second,
		})
	}
	return out
}

func toModelDescriptors(cfgs []config.ModelConfig) []model.ModelDescriptor {
	out := make([]model.ModelDescriptor, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, model.ModelDescriptor{
			ID:         c.ID,
			Provider:   c.Provider,
			Kind:       c.Kind,
			Endpoint:   c.Endpoint,
			Credential: c.Credential,
			Enabled:    c.Enabled,
		})
	}
	return out
}

func toCloudAuthProfiles(cfgs []config.CloudAuthConfig) []model.CloudAuthProfile {
	out := make([]model.CloudAuthProfile, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, model.CloudAuthProfile{
			ProfileName:    c.ProfileName,
			Authentication: c.Authentication,
			User:           c.User,
			Tenancy:        c.Tenancy,
			Fingerprint:    c.Fingerprint,
			Region:         c.Region,
			KeyMaterialRef: c.KeyMaterialRef,
		})
	}
	return out
}

func toClientSettingsTemplate(t config.ClientSettingsTemplate) model.ClientSettings {
	toolsEnabled := make(map[string]bool, len(t.ToolsEnabled))
	for _, name := range t.ToolsEnabled {
		toolsEnabled[name] = true
	}
	return model.ClientSettings{
		LanguageModel:   t.LanguageModel,
		VectorSearch:    t.VectorSearch,
		SelectAI:        t.SelectAI,
		AuthProfileName: t.AuthProfileName,
		ToolsEnabled:    toolsEnabled,
	}
}
