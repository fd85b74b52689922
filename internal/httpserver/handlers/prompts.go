package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// PromptsHandler serves the Prompt Store's admin surface (§6
// "GET /v1/mcp/prompts", "PATCH /v1/mcp/prompts/{name}",
// "POST /v1/mcp/prompts/reset") — distinct from the MCP bridge's own
// prompts capability in internal/mcp, which reads through the same Store
// but is reached over the MCP protocol rather than this REST surface.
type PromptsHandler struct {
	*Base
}

// RegisterRoutes wires PromptsHandler's routes onto r.
func (h *PromptsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/mcp/prompts", WrapError(h.List)).Methods(http.MethodGet)
	r.HandleFunc("/v1/mcp/prompts/{name}", WrapError(h.Patch)).Methods(http.MethodPatch)
	r.HandleFunc("/v1/mcp/prompts/reset", WrapError(h.Reset)).Methods(http.MethodPost)
}

// List returns every prompt template, names-only unless ?full=true.
func (h *PromptsHandler) List(w ErrorResponseWriter, r *http.Request) {
	full, _ := strconv.ParseBool(r.URL.Query().Get("full"))
	RespondWithJSON(w, http.StatusOK, h.Prompts.List(full))
}

// patchPromptRequest is the JSON body of PATCH /v1/mcp/prompts/{name}.
type patchPromptRequest struct {
	OverrideText string `json:"override_text"`
}

// Patch sets the override text for one named prompt.
func (h *PromptsHandler) Patch(w ErrorResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req patchPromptRequest
	if err := DecodeJSON(r, &req); err != nil {
		w.RespondWithError(err)
		return
	}
	if err := h.Prompts.SetOverride(name, req.OverrideText); err != nil {
		w.RespondWithError(err)
		return
	}
	t, err := h.Prompts.Get(name)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, t)
}

// Reset clears every prompt override, restoring compiled defaults.
func (h *PromptsHandler) Reset(w ErrorResponseWriter, r *http.Request) {
	h.Prompts.ResetAll()
	RespondWithJSON(w, http.StatusOK, struct{}{})
}
