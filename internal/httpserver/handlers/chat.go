package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/oracle/ai-optimizer-server/internal/apierrors"
	"github.com/oracle/ai-optimizer-server/internal/chatgraph"
	"github.com/oracle/ai-optimizer-server/internal/httpserver/auth"
	"github.com/oracle/ai-optimizer-server/internal/model"
)

// ChatHandler serves the chat-completion routes (§6 "POST /v1/chat/completions",
// "POST /v1/chat/streams", "GET/DELETE /v1/chat/history").
type ChatHandler struct {
	*Base
}

// RegisterRoutes wires ChatHandler's routes onto r.
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/chat/completions", WrapError(h.Complete)).Methods(http.MethodPost)
	r.HandleFunc("/v1/chat/streams", WrapError(h.Stream)).Methods(http.MethodPost)
	r.HandleFunc("/v1/chat/history", WrapError(h.GetHistory)).Methods(http.MethodGet)
	r.HandleFunc("/v1/chat/history", WrapError(h.DeleteHistory)).Methods(http.MethodDelete)
}

// chatRequest is the JSON body of both completion routes.
type chatRequest struct {
	Messages []model.ChatMessage `json:"messages"`
}

func (h *ChatHandler) messagesFrom(w ErrorResponseWriter, r *http.Request) ([]model.ChatMessage, string, bool) {
	var req chatRequest
	if err := DecodeJSON(r, &req); err != nil {
		w.RespondWithError(err)
		return nil, "", false
	}
	if len(req.Messages) == 0 {
		w.RespondWithError(apierrors.Validation("messages must not be empty", nil))
		return nil, "", false
	}
	return req.Messages, auth.ClientIDFrom(r), true
}

// Complete runs one unary chat turn and returns the full FinalResponse
// envelope as JSON (§4.1.c "Unary: the stream is consumed server-side").
func (h *ChatHandler) Complete(w ErrorResponseWriter, r *http.Request) {
	messages, clientID, ok := h.messagesFrom(w, r)
	if !ok {
		return
	}
	resp, err := h.Graph.Run(r.Context(), clientID, messages, nil, chatgraph.RunOptions{})
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// Stream runs one chat turn, draining token deltas into a chunked
// application/octet-stream body terminated by the literal
// `[stream_finished]` sentinel (§6).
func (h *ChatHandler) Stream(w ErrorResponseWriter, r *http.Request) {
	messages, clientID, ok := h.messagesFrom(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	ch := make(chan string, 16)
	sink := chatgraph.NewChannelSink(ch)

	done := make(chan error, 1)
	go func() {
		_, err := h.Graph.Run(r.Context(), clientID, messages, sink, chatgraph.RunOptions{})
		close(ch)
		done <- err
	}()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	for delta := range ch {
		_, _ = w.Write([]byte(delta))
		if canFlush {
			flusher.Flush()
		}
	}
	// The graph itself reduces a mid-stream Availability/Capability error to
	// an apology chunk plus the sentinel before Run returns (§7); err here
	// can only be a pre-stream failure already too late to change the HTTP
	// status, so it is only surfaced through the standard request log.
	if err := <-done; err != nil {
		h.Log.Error(err, "chat stream ended with error after headers were sent")
	}
}

// GetHistory returns the current ChatGraphState thread for a client, if any.
func (h *ChatHandler) GetHistory(w ErrorResponseWriter, r *http.Request) {
	clientID := auth.ClientIDFrom(r)
	messages, err := h.Graph.History(clientID)
	if err != nil {
		w.RespondWithError(err)
		return
	}
	RespondWithJSON(w, http.StatusOK, messages)
}

// DeleteHistory drops the stored thread for a client, resetting it to a
// fresh conversation on the next turn.
func (h *ChatHandler) DeleteHistory(w ErrorResponseWriter, r *http.Request) {
	clientID := auth.ClientIDFrom(r)
	h.Graph.DropHistory(clientID)
	RespondWithJSON(w, http.StatusOK, struct{}{})
}
