package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

// StandingsHandler ranks a board posted by the client; nothing is stored.
type StandingsHandler struct{}

func NewStandingsHandler() *StandingsHandler { return &StandingsHandler{} }

func (h *StandingsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.build)
}

type standingsRequest struct {
	Contestants []model.Contestant `json:"contestants"`
	Letters     []string           `json:"letters"`
	ShowOnlyAC  bool               `json:"showOnlyAC"`
}

func (h *StandingsHandler) build(w http.ResponseWriter, r *http.Request) {
	var req standingsRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	for i, c := range req.Contestants {
		req.Contestants[i] = service.Recalculate(c)
	}
	common.RespondWithJSON(w, http.StatusOK, service.BuildStandings(req.Contestants, req.Letters, req.ShowOnlyAC))
}
