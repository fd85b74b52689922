// Package httpserver implements the External HTTP Surface of §6: the
// route table, bearer-token/client-header authentication, request-id and
// audit-style logging, and the chunked streaming content type, built on
// gorilla/mux the way the teacher builds its own API router.
package httpserver

import (
	"net/http"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/oracle/ai-optimizer-server/internal/httpserver/auth"
	"github.com/oracle/ai-optimizer-server/internal/httpserver/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Route paths referenced by more than one file in this package.
const (
	streamsPath = "/v1/chat/streams"

	healthzPath   = "/v1/healthz"
	livenessPath  = "/v1/liveness"
	readinessPath = "/v1/readiness"
	metricsPath   = "/metrics"
)

// Config bundles everything needed to construct the HTTP surface.
type Config struct {
	Base          *handlers.Base
	BearerToken   string
	Log           logr.Logger
	ReadinessPing func() error
}

// New builds the top-level http.Handler: route table, middleware chain, and
// OpenTelemetry instrumentation of the whole surface (SPEC_FULL.md's
// observability ambient stack, wired here rather than per-handler since
// every route benefits identically).
func New(cfg Config) http.Handler {
	api := mux.NewRouter()
	h := &handlerSet{Base: cfg.Base}
	h.register(api)
	authed := auth.Middleware(cfg.BearerToken, api)

	top := mux.NewRouter()
	registerHealth(top, cfg.ReadinessPing)
	top.Handle(metricsPath, promhttp.Handler()).Methods(http.MethodGet)
	top.PathPrefix("/").Handler(authed)

	chain := contentTypeMiddleware(top)
	chain = loggingMiddleware(cfg.Log)(chain)
	chain = requestIDMiddleware(chain)

	return otelhttp.NewHandler(chain, "ai-optimizer-server")
}

// handlerSet groups the per-route-group handler structs behind the shared
// Base, mirroring the teacher's one-struct-per-resource handler layout.
type handlerSet struct {
	*handlers.Base
}

func (h *handlerSet) register(r *mux.Router) {
	(&handlers.ChatHandler{Base: h.Base}).RegisterRoutes(r)
	(&handlers.ModelsHandler{Base: h.Base}).RegisterRoutes(r)
	(&handlers.DatabasesHandler{Base: h.Base}).RegisterRoutes(r)
	(&handlers.EmbedHandler{Base: h.Base}).RegisterRoutes(r)
	(&handlers.OCIHandler{Base: h.Base}).RegisterRoutes(r)
	(&handlers.PromptsHandler{Base: h.Base}).RegisterRoutes(r)
	(&handlers.TestbedHandler{Base: h.Base}).RegisterRoutes(r)
}
