package handlers

import "net/http"

// HealthStatus is the JSON body of every probe route.
type HealthStatus struct {
	Status string `json:"status"`
}

// Healthz always reports ok; it is the liveness-independent "process is up"
// probe (§6 "unauthenticated ... routes").
func Healthz(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, HealthStatus{Status: "ok"})
}

// Liveness reports ok whenever the process can serve HTTP at all, with no
// dependency checks — distinct from Readiness.
func Liveness(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, HealthStatus{Status: "ok"})
}

// Readiness additionally requires ping to succeed, so a load balancer can
// pull an instance whose database is unreachable out of rotation without
// killing the process.
func Readiness(ping func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(); err != nil {
				RespondWithJSON(w, http.StatusServiceUnavailable, HealthStatus{Status: "unavailable"})
				return
			}
		}
		RespondWithJSON(w, http.StatusOK, HealthStatus{Status: "ok"})
	}
}
