package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorBody is the JSON document of every error response
type errorBody struct {
	Detail string `json:"detail"`
}

// ResponseWriterImpl implements ResponseWriter interface
type ResponseWriterImpl struct{}

// NewResponseWriter creates a new response writer instance
func NewResponseWriter() *ResponseWriterImpl {
	return &ResponseWriterImpl{}
}

// WriteJSON writes payload as a JSON document with the given status
func (r *ResponseWriterImpl) WriteJSON(w http.ResponseWriter, statusCode int, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, err = w.Write(body)
	return err
}

// WriteError writes an error response with appropriate status code
func (r *ResponseWriterImpl) WriteError(w http.ResponseWriter, message string, statusCode int) error {
	return r.WriteJSON(w, statusCode, errorBody{Detail: message})
}
