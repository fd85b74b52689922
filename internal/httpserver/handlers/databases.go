package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// DatabasesHandler serves the Database Connection Pool Registry's CRUD
// routes (§6 "/v1/databases...").
type DatabasesHandler struct {
	*Base
}

// RegisterRoutes wires DatabasesHandler's routes onto r.
func (h *DatabasesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/databases", WrapError(h.List)).Methods(http.MethodGet)
	r.HandleFunc("/v1/databases", WrapError(h.Upsert)).Methods(http.MethodPost)
	r.HandleFunc("/v1/databases/{name}", WrapError(h.Get)).Methods(http.MethodGet)
	r.HandleFunc("/v1/databases/{name}", WrapError(h.Patch)).Methods(http.MethodPatch)
	r.HandleFunc("/v1/databases/{name}", WrapError(h.Delete)).Methods(http.MethodDelete)
}

// List returns every registered DatabaseHandle, last-known state only.
func (h *DatabasesHandler) List(w ErrorResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.Databases.List())
}

// Get returns one handle, re-validating its connection (404 for an unknown
// name, 503 when the database is unreachable).
func (h *DatabasesHandler) Get(w ErrorResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	d, err := h.Databases.GetValidated(r.Context(), name)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, d)
}

// Upsert creates or replaces a DatabaseHandle, connecting and extension-
// checking it before committing (§6 422 on connect failure).
func (h *DatabasesHandler) Upsert(w ErrorResponseWriter, r *http.Request) {
	var handle model.DatabaseHandle
	if err := DecodeJSON(r, &handle); err != nil {
		w.RespondWithError(err)
		return
	}
	if err := h.Databases.Upsert(r.Context(), handle); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, handle)
}

// Patch applies a partial update, merging onto the last-known handle and
// re-validating through Upsert.
func (h *DatabasesHandler) Patch(w ErrorResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	existing, err := h.Databases.Get(name)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	if err := DecodeJSON(r, &existing); err != nil {
		w.RespondWithError(err)
		return
	}
	existing.Name = name
	if err := h.Databases.Upsert(r.Context(), existing); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, existing)
}

// Delete removes a DatabaseHandle from the registry.
func (h *DatabasesHandler) Delete(w ErrorResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.Databases.Delete(name); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, struct{}{})
}
