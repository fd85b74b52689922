package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// ModelsHandler serves the Model Registry's CRUD routes (§6 "/v1/models...").
type ModelsHandler struct {
	*Base
}

// RegisterRoutes wires ModelsHandler's routes onto r.
func (h *ModelsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/models", WrapError(h.List)).Methods(http.MethodGet)
	r.HandleFunc("/v1/models", WrapError(h.Upsert)).Methods(http.MethodPost)
	r.HandleFunc("/v1/models/{provider}/{id}", WrapError(h.Get)).Methods(http.MethodGet)
	r.HandleFunc("/v1/models/{provider}/{id}", WrapError(h.Patch)).Methods(http.MethodPatch)
	r.HandleFunc("/v1/models/{provider}/{id}", WrapError(h.Delete)).Methods(http.MethodDelete)
	r.HandleFunc("/v1/models/{provider}/{id}/reprobe", WrapError(h.Reprobe)).Methods(http.MethodPost)
}

// List returns every registered ModelDescriptor.
func (h *ModelsHandler) List(w ErrorResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.Models.List())
}

// Get returns one ModelDescriptor by (provider, id).
func (h *ModelsHandler) Get(w ErrorResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	d, err := h.Models.Get(model.Provider(vars["provider"]), vars["id"])
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, d)
}

// Upsert registers or replaces a ModelDescriptor, probing it first unless
// the provider is unconditionally trusted (§6 422 "model URL unreachable").
func (h *ModelsHandler) Upsert(w ErrorResponseWriter, r *http.Request) {
	var d model.ModelDescriptor
	if err := DecodeJSON(r, &d); err != nil {
		w.RespondWithError(err)
		return
	}
	if err := h.Models.Upsert(r.Context(), d); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, d)
}

// Patch applies a partial update by re-probing and re-upserting the merged
// descriptor; there is no separate partial-merge path in the registry, so
// the caller supplies the full descriptor shape with its mutated fields.
func (h *ModelsHandler) Patch(w ErrorResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	existing, err := h.Models.Get(model.Provider(vars["provider"]), vars["id"])
	if err != nil {
		w.RespondWithError(err)
		return
	}
	if err := DecodeJSON(r, &existing); err != nil {
		w.RespondWithError(err)
		return
	}
	existing.Provider = model.Provider(vars["provider"])
	existing.ID = vars["id"]
	if err := h.Models.Upsert(r.Context(), existing); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, existing)
}

// Delete removes a ModelDescriptor from the registry.
func (h *ModelsHandler) Delete(w ErrorResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Models.Delete(model.Provider(vars["provider"]), vars["id"]); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, struct{}{})
}

// Reprobe re-checks reachability for one ModelDescriptor without changing
// its Enabled flag.
func (h *ModelsHandler) Reprobe(w ErrorResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.Models.Reprobe(r.Context(), model.Provider(vars["provider"]), vars["id"])
	d, err := h.Models.Get(model.Provider(vars["provider"]), vars["id"])
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, d)
}
