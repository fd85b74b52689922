package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
)

// ErrorResponseWriter is an http.ResponseWriter a handler can hand a raw
// error to, deferring the status-code/detail-string mapping to the single
// policy in internal/apierrors rather than repeating it per handler.
type ErrorResponseWriter interface {
	http.ResponseWriter
	RespondWithError(err error)
}

// errorBody is the JSON shape of every non-2xx response body (§7
// "Validation and identity errors surface as 4xx HTTP errors with a
// single-line detail string").
type errorBody struct {
	Detail string `json:"detail"`
}

// RespondWithJSON writes v as the response body with the given status.
func RespondWithJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondWithErr is a package-level convenience for handlers that only
// have a plain http.ResponseWriter (health probes, the MCP bridge) rather
// than an ErrorResponseWriter.
func RespondWithErr(w http.ResponseWriter, err error) {
	RespondWithJSON(w, apierrors.StatusOf(err), errorBody{Detail: apierrors.DetailOf(err)})
}

// DecodeJSON decodes r's body into v, wrapping a decode failure as a
// Validation error so every handler reports malformed JSON the same way.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apierrors.Validation("malformed JSON body", err)
	}
	return nil
}

// WrapError adapts a handler written against ErrorResponseWriter to a plain
// http.HandlerFunc for mux.Router. Every route reached through the
// authentication/logging middleware chain is already handed a writer
// satisfying ErrorResponseWriter; fallbackWriter only covers direct calls
// made outside that chain (tests, future unauthenticated routes).
func WrapError(fn func(ErrorResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if erw, ok := w.(ErrorResponseWriter); ok {
			fn(erw, r)
			return
		}
		fn(&fallbackWriter{ResponseWriter: w}, r)
	}
}

// fallbackWriter gives a plain http.ResponseWriter a RespondWithError method
// so WrapError never needs the caller's concrete writer type.
type fallbackWriter struct {
	http.ResponseWriter
}

func (f *fallbackWriter) RespondWithError(err error) {
	RespondWithErr(f.ResponseWriter, err)
}
