package mcp

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// APIKeyMiddleware enforces X-API-Key authentication on MCP routes,
// grounded on `server/app/mcp/server.py`'s MCPApiKeyMiddleware. A missing
// configured key denies every request rather than failing open.
func APIKeyMiddleware(configuredKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if configuredKey == "" || apiKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(configuredKey)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
