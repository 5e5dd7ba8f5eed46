package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/etheron-labs/etheron-backend/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError converts domain errors to HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoIdentity):
		// The client is expected to redirect the user to configuration.
		writeJSON(w, http.StatusPreconditionFailed, errorResponse{Error: err.Error(), Code: "no_identity"})
		return
	case errors.Is(err, domain.ErrAssetNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "asset_not_found"})
		return
	case errors.Is(err, domain.ErrAssetSold):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "asset_sold"})
		return
	case errors.Is(err, domain.ErrSettlementInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "settlement_in_flight"})
		return
	}

	errorMsg := err.Error()

	// Map common validation errors to 400
	if strings.Contains(errorMsg, "must") ||
		strings.Contains(errorMsg, "invalid") ||
		strings.Contains(errorMsg, "cannot be empty") {
		writeJSONError(w, http.StatusBadRequest, errorMsg)
		return
	}

	writeJSONError(w, http.StatusInternalServerError, errorMsg)
}
