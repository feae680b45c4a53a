package web

import (
	"net/http"

	"proposal-studio/internal/app"
)

type clientBody struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

// apiListClients handles GET /api/clients.
func (h *Handler) apiListClients(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListClients(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Clients)
}

// apiGetClient handles GET /api/clients/{id}.
func (h *Handler) apiGetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeError(w, r, "invalid client id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	client, err := h.svc.GetClient(r.Context(), id)
	if err != nil {
		writeError(w, r, "client not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, client)
}

// apiCreateClient handles POST /api/clients.
// Body: { name, email?, phone?, company? }
func (h *Handler) apiCreateClient(w http.ResponseWriter, r *http.Request) {
	var body clientBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Name == "" {
		writeError(w, r, "name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	client, err := h.svc.CreateClient(r.Context(), app.ClientRequest{
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
		Company: body.Company,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, client)
}

// apiUpdateClient handles PUT /api/clients/{id} — full overwrite.
func (h *Handler) apiUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeError(w, r, "invalid client id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var body clientBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Name == "" {
		writeError(w, r, "name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	client, err := h.svc.UpdateClient(r.Context(), id, app.ClientRequest{
		Name:    body.Name,
		Email:   body.Email,
		Phone:   body.Phone,
		Company: body.Company,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, client)
}
