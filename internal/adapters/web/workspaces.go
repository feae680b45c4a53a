package web

import (
	"fmt"
	"net/http"

	"proposal-studio/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// workspaceID extracts the {id} URL parameter.
func workspaceID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// decField parses an optional string-encoded decimal body field; a nil input
// stays nil.
func decField(s *string, name string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &d, nil
}

// apiOpenWorkspace handles POST /api/workspaces — opens a fresh proposal
// editing session for the authenticated user.
func (h *Handler) apiOpenWorkspace(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	result, err := h.svc.OpenWorkspace(r.Context(), claims.Username)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// apiGetWorkspace handles GET /api/workspaces/{id}.
func (h *Handler) apiGetWorkspace(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetWorkspace(r.Context(), workspaceID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCloseWorkspace handles DELETE /api/workspaces/{id}.
func (h *Handler) apiCloseWorkspace(w http.ResponseWriter, r *http.Request) {
	h.svc.CloseWorkspace(r.Context(), workspaceID(r))
	w.WriteHeader(http.StatusNoContent)
}

type addItemBody struct {
	CatalogItemID   int     `json:"catalog_item_id"`
	Quantity        int     `json:"quantity"`
	UnitPrice       *string `json:"unit_price"`
	DiscountPercent *string `json:"discount_percent"`
	Taxable         *bool   `json:"taxable"`
}

func (b addItemBody) toRequest(w http.ResponseWriter, r *http.Request) (app.AddItemRequest, bool) {
	req := app.AddItemRequest{
		CatalogItemID: b.CatalogItemID,
		Quantity:      b.Quantity,
		Taxable:       b.Taxable,
	}
	price, err := decField(b.UnitPrice, "unit_price")
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return req, false
	}
	req.UnitPrice = price
	if b.DiscountPercent != nil {
		d, err := decField(b.DiscountPercent, "discount_percent")
		if err != nil {
			writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
			return req, false
		}
		req.DiscountPercent = *d
	}
	return req, true
}

// apiAddItem handles POST /api/workspaces/{id}/items.
// Body: { catalog_item_id, quantity?, unit_price?, discount_percent?, taxable? }
func (h *Handler) apiAddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemBody
	if !decodeJSON(w, r, &body) {
		return
	}
	req, ok := body.toRequest(w, r)
	if !ok {
		return
	}
	result, err := h.svc.AddItem(r.Context(), workspaceID(r), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiStageInput handles PUT /api/workspaces/{id}/pending/{catalogItemID} —
// records in-progress add-form values without committing a line.
func (h *Handler) apiStageInput(w http.ResponseWriter, r *http.Request) {
	catalogItemID, ok := pathInt(r, "catalogItemID")
	if !ok {
		writeError(w, r, "invalid catalog item id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var body addItemBody
	if !decodeJSON(w, r, &body) {
		return
	}
	req, ok := body.toRequest(w, r)
	if !ok {
		return
	}
	if err := h.svc.StageItemInput(r.Context(), workspaceID(r), catalogItemID, req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiUpdateItem handles PATCH /api/workspaces/{id}/items/{lineID}.
// Body: any of { name, quantity, unit_price, discount_percent, taxable }.
func (h *Handler) apiUpdateItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            *string `json:"name"`
		Quantity        *int    `json:"quantity"`
		UnitPrice       *string `json:"unit_price"`
		DiscountPercent *string `json:"discount_percent"`
		Taxable         *bool   `json:"taxable"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	price, err := decField(body.UnitPrice, "unit_price")
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	discount, err := decField(body.DiscountPercent, "discount_percent")
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.UpdateItem(r.Context(), workspaceID(r), chi.URLParam(r, "lineID"), app.UpdateItemRequest{
		Name:            body.Name,
		Quantity:        body.Quantity,
		UnitPrice:       price,
		DiscountPercent: discount,
		Taxable:         body.Taxable,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiRemoveItem handles DELETE /api/workspaces/{id}/items/{lineID}.
func (h *Handler) apiRemoveItem(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RemoveItem(r.Context(), workspaceID(r), chi.URLParam(r, "lineID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiDuplicateItem handles POST /api/workspaces/{id}/items/{lineID}/duplicate.
func (h *Handler) apiDuplicateItem(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.DuplicateItem(r.Context(), workspaceID(r), chi.URLParam(r, "lineID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiUpdateHeader handles PATCH /api/workspaces/{id}/header.
// Body: any of { client_id, client_name, client_email, company_name, title,
// issue_date, valid_until, terms, notes, tax_rate }.
func (h *Handler) apiUpdateHeader(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientID    *int    `json:"client_id"`
		ClientName  *string `json:"client_name"`
		ClientEmail *string `json:"client_email"`
		CompanyName *string `json:"company_name"`
		Title       *string `json:"title"`
		IssueDate   *string `json:"issue_date"`
		ValidUntil  *string `json:"valid_until"`
		Terms       *string `json:"terms"`
		Notes       *string `json:"notes"`
		TaxRate     *string `json:"tax_rate"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	taxRate, err := decField(body.TaxRate, "tax_rate")
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.UpdateHeader(r.Context(), workspaceID(r), app.UpdateHeaderRequest{
		ClientID:    body.ClientID,
		ClientName:  body.ClientName,
		ClientEmail: body.ClientEmail,
		CompanyName: body.CompanyName,
		Title:       body.Title,
		IssueDate:   body.IssueDate,
		ValidUntil:  body.ValidUntil,
		Terms:       body.Terms,
		Notes:       body.Notes,
		TaxRate:     taxRate,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSaveProposal handles POST /api/workspaces/{id}/save.
func (h *Handler) apiSaveProposal(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.svc.SaveProposal(r.Context(), workspaceID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, proposal)
}

// apiSendProposal handles POST /api/workspaces/{id}/send.
func (h *Handler) apiSendProposal(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.svc.SendProposal(r.Context(), workspaceID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, proposal)
}

// apiConvertProposal handles POST /api/workspaces/{id}/convert.
func (h *Handler) apiConvertProposal(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.svc.ConvertProposal(r.Context(), workspaceID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, proposal)
}

// apiPreviewProposal handles GET /api/workspaces/{id}/preview.
func (h *Handler) apiPreviewProposal(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.svc.PreviewProposal(r.Context(), workspaceID(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, proposal)
}

// apiLoadProposal handles POST /api/workspaces/{id}/load.
// Body: { proposal_id } — replaces the live state with a saved snapshot.
func (h *Handler) apiLoadProposal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProposalID int `json:"proposal_id"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.ProposalID <= 0 {
		writeError(w, r, "proposal_id is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.LoadProposal(r.Context(), workspaceID(r), body.ProposalID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSuggestContent handles POST /api/workspaces/{id}/suggest.
// Body: { brief } — asks the AI assistant to draft title, cover note, and terms.
func (h *Handler) apiSuggestContent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Brief string `json:"brief"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Brief == "" {
		writeError(w, r, "brief is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	suggestion, err := h.svc.SuggestContent(r.Context(), workspaceID(r), body.Brief)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, suggestion)
}
