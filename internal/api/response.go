package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/DaBoB6868/dorm-ra-bot/internal/log"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code. The payload is
// encoded into a buffer first so headers only go out after a successful
// encode and a proper 500 can still be returned otherwise.
func WriteJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		logger.Error("encoding JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		logger.Debug("writing response body", "error", err)
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string, logger log.Logger) {
	WriteJSON(w, status, errorBody{Error: code, Message: message}, logger)
}
