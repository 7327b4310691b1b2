package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// errorResponse is the error envelope returned for every non-2xx response:
// a single "cause" field carrying a human-readable message.
type errorResponse struct {
	Cause string `json:"cause"`
}

// writeErrorResponse writes the standard {"cause": "..."} error envelope.
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResponse{Cause: message}); err != nil {
		log.Error().Err(err).Str("message", message).Msg("failed to encode error response")
	}
}
