package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"proposal-studio/internal/app"
	"proposal-studio/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps sentinel errors from the core onto HTTP statuses so
// handlers don't repeat the mapping. Unknown errors become a 500 with a
// generic message; the detail stays in the server log.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrWorkspaceNotFound):
		writeError(w, r, "workspace not found or expired", "WORKSPACE_NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrLineNotFound),
		errors.Is(err, core.ErrCatalogItemNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrEmptyProposal):
		writeError(w, r, "proposal has no line items", "EMPTY_PROPOSAL", http.StatusConflict)
	case errors.Is(err, core.ErrMissingClientEmail):
		writeError(w, r, "client email is required", "MISSING_CLIENT_EMAIL", http.StatusConflict)
	case errors.Is(err, core.ErrNotEditable):
		writeError(w, r, "proposal is converted and read-only", "NOT_EDITABLE", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, "invalid lifecycle transition", "INVALID_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrInvalidDiscount),
		errors.Is(err, core.ErrInvalidPrice),
		errors.Is(err, core.ErrInvalidTaxRate):
		writeError(w, r, err.Error(), "VALIDATION_FAILED", http.StatusUnprocessableEntity)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
