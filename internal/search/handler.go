package search

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fare-aggregator/internal/providers"
	"fare-aggregator/pkg/jwt"
	"fare-aggregator/pkg/validation"
)

// Handler exposes ride search HTTP endpoints.
type Handler struct{ svc *Service }

// NewHandler wires a handler to the search service.
func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// Routes returns a chi.Router with all ride routes. Search and select work
// anonymously; history needs an account.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/search", h.Search)
	r.Post("/select", h.Select)
	r.Get("/popular", h.Popular)

	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireAuth)
		r.Get("/history", h.History)
	})

	return r
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if msg := validateSearch(&req); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	rc := RequestContext{
		SessionID: r.Header.Get("X-Session-ID"),
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if claims := jwt.GetClaims(r.Context()); claims != nil {
		rc.UserID = &claims.UserID
	}

	result, err := h.svc.Search(r.Context(), req, rc)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to search rides"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": result})
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if req.QueryID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "queryId is required"})
		return
	}
	if !knownProvider(req.Provider) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid provider"})
		return
	}

	if err := h.svc.SelectProvider(r.Context(), req.QueryID, req.Provider); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ride query not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record selection"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "provider selection recorded"})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	claims := jwt.GetClaims(r.Context())

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	records, total, err := h.svc.History(r.Context(), claims.UserID, page, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch ride history"})
		return
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"rides": records,
			"pagination": map[string]int{
				"page":  page,
				"limit": limit,
				"total": total,
				"pages": pages,
			},
		},
	})
}

func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	routes, err := h.svc.PopularRoutes(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to fetch popular routes"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": routes})
}

func validateSearch(req *SearchRequest) string {
	if !validation.ValidateAddress(req.From.Address) {
		return "source address is required"
	}
	if !validation.ValidateAddress(req.To.Address) {
		return "destination address is required"
	}
	if !validation.ValidateCoordinates(req.From.Coordinates.Lat, req.From.Coordinates.Lng) {
		return "valid source coordinates required"
	}
	if !validation.ValidateCoordinates(req.To.Coordinates.Lat, req.To.Coordinates.Lng) {
		return "valid destination coordinates required"
	}
	if req.VehicleType != "" && !providers.VehicleClass(req.VehicleType).Valid() {
		return "invalid vehicle type"
	}
	return ""
}

func knownProvider(name string) bool {
	switch name {
	case "uber", "ola", "rapido":
		return true
	}
	return false
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
