package web

import (
	"net/http"

	"proposal-studio/internal/app"

	"github.com/shopspring/decimal"
)

// apiGetCatalog handles GET /api/catalog.
func (h *Handler) apiGetCatalog(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetCatalog(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Items)
}

// apiCreateCatalogItem handles POST /api/catalog.
// Body: { name, unit_price, category?, description? }
func (h *Handler) apiCreateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		UnitPrice   string `json:"unit_price"`
		Category    string `json:"category"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Name == "" {
		writeError(w, r, "name is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	price, err := decimal.NewFromString(body.UnitPrice)
	if err != nil || price.IsNegative() {
		writeError(w, r, "invalid unit_price", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	item, err := h.svc.CreateCatalogItem(r.Context(), app.CreateCatalogItemRequest{
		Name:        body.Name,
		UnitPrice:   price,
		Category:    body.Category,
		Description: body.Description,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, item)
}
