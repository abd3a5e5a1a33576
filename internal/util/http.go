package util

import (
	"encoding/json"
	"net/http"
)

// =============================================================================
// HTTP Response Helpers
// =============================================================================

// SetSVGHeaders sets standard headers for rendered card responses.
// Cards are embedded cross-origin, so CORS is open.
func SetSVGHeaders(w http.ResponseWriter, maxAge string) {
	w.Header().Set("Content-Type", "image/svg+xml;charset=UTF-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "max-age="+maxAge)
}

// WriteSVG writes an SVG document to the response writer.
// Returns any write error (usually safe to ignore for HTTP handlers).
func WriteSVG(w http.ResponseWriter, svg string) error {
	_, err := w.Write([]byte(svg))
	return err
}

// WriteJSON encodes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// =============================================================================
// HTTP Error Helpers
// =============================================================================

// ErrorBody is the structured error payload returned by the API.
type ErrorBody struct {
	Error string `json:"error"`
}

// RespondBadRequest sends a 400 Bad Request error response.
func RespondBadRequest(w http.ResponseWriter, message string) {
	_ = WriteJSON(w, http.StatusBadRequest, ErrorBody{Error: message})
}

// RespondInternalError sends a 500 Internal Server Error response.
func RespondInternalError(w http.ResponseWriter, message string) {
	_ = WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: message})
}
