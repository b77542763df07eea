package analytics

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the trending leaderboard.
type Handler struct{ consumer *Consumer }

// NewHandler wires a handler to the analytics consumer.
func NewHandler(consumer *Consumer) *Handler { return &Handler{consumer: consumer} }

// Routes returns a chi.Router with the analytics routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/routes", h.TrendingRoutes)
	return r
}

func (h *Handler) TrendingRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.consumer.TopRoutes(r.Context(), 10)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": routes})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
