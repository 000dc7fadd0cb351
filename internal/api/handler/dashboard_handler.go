package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
	search    *service.SearchIndex
}

func NewDashboardHandler(d *service.DashboardService, s *service.SearchIndex) *DashboardHandler {
	return &DashboardHandler{dashboard: d, search: s}
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.getDashboard)
	r.Post("/dashboard/refresh", h.refresh)
	r.Get("/search", h.searchAll)
}

// getDashboard returns the last snapshot, loading one first if none was
// ever taken.
func (h *DashboardHandler) getDashboard(w http.ResponseWriter, r *http.Request) {
	if h.dashboard.Generation() == 0 {
		if _, err := h.dashboard.Refresh(r.Context()); err != nil && !errors.Is(err, common.ErrSuperseded) {
			common.RespondWithErr(w, err)
			return
		}
	}
	common.RespondWithJSON(w, http.StatusOK, h.dashboard.Snapshot())
}

func (h *DashboardHandler) refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.dashboard.Refresh(r.Context())
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, snap)
}

func (h *DashboardHandler) searchAll(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.search.Search(r.URL.Query().Get("q")))
}
