package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/httpserver/auth"
	"github.com/oracle/ai-optimizer-server/internal/httpserver/handlers"
	"github.com/oracle/ai-optimizer-server/internal/logging"
)

// requestIDKey is the context key for the per-request correlation id.
type requestIDKey struct{}

// requestIDMiddleware stamps a request id onto the context and the
// response, generating one when the caller didn't supply X-Request-ID.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs one structured line per request: method, path,
// client id, request id, status, and duration. Grounded on the teacher's
// auditLoggingMiddleware/loggingMiddleware pair but collapsed to a single
// client_id-centric log line instead of a namespace-centric audit trail,
// since this server's authorization boundary is a client id, not a
// Kubernetes namespace.
func loggingMiddleware(log logr.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID, _ := r.Context().Value(requestIDKey{}).(string)

			reqLog := log.WithValues(
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"client_id", auth.ClientIDFrom(r),
			)

			ww := newStatusResponseWriter(w)
			ctx := logging.IntoContext(r.Context(), reqLog)
			reqLog.V(1).Info("request started")
			next.ServeHTTP(ww, r.WithContext(ctx))
			reqLog.Info("request completed", "status", ww.status, "duration", time.Since(start))
		})
	}
}

// contentTypeMiddleware defaults the response content type to JSON for
// every route except the chunked chat-streaming endpoint, whose body is
// raw UTF-8 token bytes (§6 "application/octet-stream").
func contentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != streamsPath {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// statusResponseWriter tracks the status code written for logging and
// implements handlers.ErrorResponseWriter so every handler can hand a raw
// apierrors error to RespondWithError without importing net/http status
// codes itself.
type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

var (
	_ http.Flusher               = (*statusResponseWriter)(nil)
	_ handlers.ErrorResponseWriter = (*statusResponseWriter)(nil)
)

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusResponseWriter) RespondWithError(err error) {
	w.status = apierrors.StatusOf(err)
	handlers.RespondWithErr(w.ResponseWriter, err)
}
