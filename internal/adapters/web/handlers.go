package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"proposal-studio/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler holds the ApplicationService the route handlers call into.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public) ─────────────────────────────────────────────────────────
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		// Read-only surface: any authenticated role, viewer included.
		r.Get("/api/catalog", h.apiGetCatalog)
		r.Get("/api/clients", h.apiListClients)
		r.Get("/api/clients/{id}", h.apiGetClient)
		r.Get("/api/proposals", h.apiListProposals)
		r.Get("/api/proposals/{id}", h.apiGetProposal)
		r.Get("/api/activity", h.apiRecentActivity)

		// Proposal editing requires the sales role or better.
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole("sales"))

			r.Post("/api/clients", h.apiCreateClient)
			r.Put("/api/clients/{id}", h.apiUpdateClient)

			r.Post("/api/workspaces", h.apiOpenWorkspace)
			r.Get("/api/workspaces/{id}", h.apiGetWorkspace)
			r.Delete("/api/workspaces/{id}", h.apiCloseWorkspace)
			r.Patch("/api/workspaces/{id}/header", h.apiUpdateHeader)
			r.Post("/api/workspaces/{id}/items", h.apiAddItem)
			r.Put("/api/workspaces/{id}/pending/{catalogItemID}", h.apiStageInput)
			r.Patch("/api/workspaces/{id}/items/{lineID}", h.apiUpdateItem)
			r.Delete("/api/workspaces/{id}/items/{lineID}", h.apiRemoveItem)
			r.Post("/api/workspaces/{id}/items/{lineID}/duplicate", h.apiDuplicateItem)
			r.Post("/api/workspaces/{id}/save", h.apiSaveProposal)
			r.Post("/api/workspaces/{id}/send", h.apiSendProposal)
			r.Post("/api/workspaces/{id}/convert", h.apiConvertProposal)
			r.Get("/api/workspaces/{id}/preview", h.apiPreviewProposal)
			r.Post("/api/workspaces/{id}/load", h.apiLoadProposal)
			r.Post("/api/workspaces/{id}/suggest", h.apiSuggestContent)
		})

		// Catalog management is a manager concern.
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole("manager"))
			r.Post("/api/catalog", h.apiCreateCatalogItem)
		})
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// pathInt extracts a named integer URL parameter; ok is false on garbage.
func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	return n, err == nil
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
