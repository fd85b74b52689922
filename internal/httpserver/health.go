package httpserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/oracle/ai-optimizer-server/internal/httpserver/handlers"
)

// registerHealth wires the three unauthenticated probe routes (§6). They
// are registered directly on router, outside the bearer-auth wrapper built
// in New, since a load balancer probing these routes never carries a
// token.
func registerHealth(r *mux.Router, readinessPing func() error) {
	r.HandleFunc(healthzPath, handlers.Healthz).Methods(http.MethodGet)
	r.HandleFunc(livenessPath, handlers.Liveness).Methods(http.MethodGet)
	r.HandleFunc(readinessPath, handlers.Readiness(readinessPing)).Methods(http.MethodGet)
}
