package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/firebase/genkit/go/ai"

	"github.com/DaBoB6868/dorm-ra-bot/internal/chat"
	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

const maxRequestBody = 1024 * 1024 // 1MB

// SSE event types for chat streaming.
const (
	EventChunk = "chunk" // Partial response text
	EventDone  = "done"  // Stream completed successfully
	EventError = "error" // Error occurred during streaming
)

// chatRequest is the wire format for both chat endpoints.
type chatRequest struct {
	Message  string         `json:"message"`
	History  []chat.Message `json:"history,omitempty"`
	Location string         `json:"location,omitempty"`
}

// chatResponse is the wire format for the synchronous endpoint.
type chatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// ChunkPayload is the SSE data payload for streaming text chunks.
type ChunkPayload struct {
	Text string `json:"text"`
}

// DonePayload is the SSE data payload when streaming completes successfully.
type DonePayload struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// ErrorPayload is the SSE data payload when an error occurs.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// chatHandler handles chat HTTP endpoints.
//
// Endpoints:
//   - POST /api/v1/chat        - Synchronous chat (JSON request/response)
//   - POST /api/v1/chat/stream - Streaming chat (SSE)
type chatHandler struct {
	orchestrator *chat.Orchestrator
	logger       log.Logger
}

// send handles POST /api/v1/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.orchestrator.Respond(r.Context(), chat.Request{
		Message:  req.Message,
		History:  req.History,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, chat.ErrMessageTooLong) {
			WriteError(w, http.StatusBadRequest, "message_too_long",
				fmt.Sprintf("message must be %d characters or fewer", chat.MaxMessageLen), h.logger)
			return
		}
		h.logger.Error("chat turn failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "chat_failed", "failed to generate response", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, chatResponse{
		Response: resp.Text,
		Sources:  resp.Sources,
	}, h.logger)
}

// stream handles POST /api/v1/chat/stream via SSE.
// It streams partial responses as they become available from the model.
func (h *chatHandler) stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = writeEvent(w, flusher, EventError, ErrorPayload{
			Code:    "invalid_request",
			Message: "invalid request body",
		})
		return
	}
	if req.Message == "" {
		_ = writeEvent(w, flusher, EventError, ErrorPayload{Code: "missing_message", Message: "message is required"})
		return
	}
	if len(req.History) > chat.MaxHistoryMessages {
		_ = writeEvent(w, flusher, EventError, ErrorPayload{
			Code:    "history_too_long",
			Message: fmt.Sprintf("history must contain %d messages or fewer", chat.MaxHistoryMessages),
		})
		return
	}

	ctx := r.Context()
	h.logger.Debug("SSE stream started", "request_id", requestIDFromContext(ctx))

	callback := func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		text := chunk.Text()
		if text == "" {
			return nil
		}
		if err := writeEvent(w, flusher, EventChunk, ChunkPayload{Text: text}); err != nil {
			// Write failure usually means the client disconnected.
			return err
		}
		return nil
	}

	resp, err := h.orchestrator.RespondStream(ctx, chat.Request{
		Message:  req.Message,
		History:  req.History,
		Location: req.Location,
	}, callback)
	if err != nil {
		if ctx.Err() != nil {
			h.logger.Info("client disconnected", "request_id", requestIDFromContext(ctx))
			return
		}
		h.handleStreamError(w, flusher, err)
		return
	}

	_ = writeEvent(w, flusher, EventDone, DonePayload{
		Response: resp.Text,
		Sources:  resp.Sources,
	})

	h.logger.Debug("SSE stream completed", "request_id", requestIDFromContext(ctx))
}

// decodeRequest parses and validates the JSON body for the synchronous
// endpoint, writing the error response itself on failure.
func (h *chatHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large", h.logger)
			return chatRequest{}, false
		}
		WriteError(w, http.StatusBadRequest, "invalid_request", "invalid request body", h.logger)
		return chatRequest{}, false
	}

	if req.Message == "" {
		WriteError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return chatRequest{}, false
	}
	if len(req.History) > chat.MaxHistoryMessages {
		WriteError(w, http.StatusBadRequest, "history_too_long",
			fmt.Sprintf("history must contain %d messages or fewer", chat.MaxHistoryMessages), h.logger)
		return chatRequest{}, false
	}

	return req, true
}

// handleStreamError maps orchestrator errors to SSE error events.
func (h *chatHandler) handleStreamError(w io.Writer, f http.Flusher, err error) {
	code := "stream_error"
	if errors.Is(err, chat.ErrMessageTooLong) {
		code = "message_too_long"
	}

	h.logger.Error("SSE stream failed", "error", err)
	_ = writeEvent(w, f, EventError, ErrorPayload{
		Code:    code,
		Message: err.Error(),
	})
}

// writeEvent writes a single SSE event with JSON-encoded data.
// SSE format: "event: <type>\ndata: <json>\n\n"
func writeEvent[T any](w io.Writer, flusher http.Flusher, event string, data T) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	flusher.Flush()
	return nil
}
