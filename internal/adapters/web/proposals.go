package web

import (
	"net/http"
	"strconv"
)

// apiListProposals handles GET /api/proposals?status=.
func (h *Handler) apiListProposals(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	var statusPtr *string
	if statusFilter != "" {
		statusPtr = &statusFilter
	}
	result, err := h.svc.ListProposals(r.Context(), statusPtr)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Proposals)
}

// apiGetProposal handles GET /api/proposals/{id}.
func (h *Handler) apiGetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeError(w, r, "invalid proposal id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	proposal, err := h.svc.GetProposal(r.Context(), id)
	if err != nil {
		writeError(w, r, "proposal not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, proposal)
}

// apiRecentActivity handles GET /api/activity?limit=.
func (h *Handler) apiRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := h.svc.RecentActivity(r.Context(), limit)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Entries)
}
