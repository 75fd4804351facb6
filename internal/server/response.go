package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ZaguanLabs/livelang"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes data with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONSuccess writes a 200 response with "success": true merged into data.
func writeJSONSuccess(w http.ResponseWriter, data map[string]any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, statusCode int, data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}
	data["success"] = true
	writeJSON(w, statusCode, data)
}

// writeJSONError writes a failure response.
func writeJSONError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	body := map[string]any{
		"success": false,
		"code":    code,
		"error":   message,
	}
	if len(details) > 0 {
		body["details"] = details
	}
	writeJSON(w, statusCode, body)
}

// writeError maps domain errors to HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *livelang.ValidationError
	var capacityErr *livelang.CapacityError

	switch {
	case errors.As(err, &validationErr):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error(),
			map[string]string{validationErr.Field: validationErr.Message})
	case errors.Is(err, livelang.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.As(err, &capacityErr):
		writeJSONError(w, http.StatusConflict, "language_limit", err.Error(), nil)
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

// decodeJSON reads a JSON body into v, writing a 400 response on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return false
	}
	return true
}
