package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/anhbaysgalan1/leaderboardd/internal/database"
)

// Helper functions
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]string{
		"error": message,
	})
}

// writeStoreError logs the underlying store failure and returns a generic
// server error. Partial state is never presented as success.
func writeStoreError(w http.ResponseWriter, message string, err error) {
	slog.Error(message, "error", err)
	writeErrorResponse(w, http.StatusInternalServerError, message+": "+database.GetErrorMessage(err))
}
