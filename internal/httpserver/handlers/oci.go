package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// OCIHandler serves the Cloud Auth Profile Registry's CRUD routes (§6
// "/v1/oci/..."), named for the only cloud provider this profile shape
// currently targets.
type OCIHandler struct {
	*Base
}

// RegisterRoutes wires OCIHandler's routes onto r.
func (h *OCIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/oci", WrapError(h.List)).Methods(http.MethodGet)
	r.HandleFunc("/v1/oci", WrapError(h.Upsert)).Methods(http.MethodPost)
	r.HandleFunc("/v1/oci/{name}", WrapError(h.Get)).Methods(http.MethodGet)
	r.HandleFunc("/v1/oci/{name}", WrapError(h.Patch)).Methods(http.MethodPatch)
	r.HandleFunc("/v1/oci/{name}", WrapError(h.Delete)).Methods(http.MethodDelete)
}

// List returns every registered CloudAuthProfile.
func (h *OCIHandler) List(w ErrorResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.CloudAuths.List())
}

// Get returns one CloudAuthProfile by name.
func (h *OCIHandler) Get(w ErrorResponseWriter, r *http.Request) {
	p, err := h.CloudAuths.Get(mux.Vars(r)["name"])
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, p)
}

// Upsert creates or replaces a CloudAuthProfile.
func (h *OCIHandler) Upsert(w ErrorResponseWriter, r *http.Request) {
	var p model.CloudAuthProfile
	if err := DecodeJSON(r, &p); err != nil {
		w.RespondWithError(err)
		return
	}
	if err := h.CloudAuths.Upsert(p); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, p)
}

// Patch applies a partial update, merging onto the existing profile.
func (h *OCIHandler) Patch(w ErrorResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	existing, err := h.CloudAuths.Get(name)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	if err := DecodeJSON(r, &existing); err != nil {
		w.RespondWithError(err)
		return
	}
	existing.ProfileName = name
	if err := h.CloudAuths.Upsert(existing); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, existing)
}

// Delete removes a CloudAuthProfile from the registry.
func (h *OCIHandler) Delete(w ErrorResponseWriter, r *http.Request) {
	if err := h.CloudAuths.Delete(mux.Vars(r)["name"]); err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, struct{}{})
}
