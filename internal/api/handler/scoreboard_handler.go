package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

type ScoreboardHandler struct {
	scoreboards *service.ScoreboardService
}

func NewScoreboardHandler(s *service.ScoreboardService) *ScoreboardHandler {
	return &ScoreboardHandler{scoreboards: s}
}

// RegisterRoutes mounts under /contests/{id}.
func (h *ScoreboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/scoreboard", h.board)
	r.Put("/scoreboard", h.replace)
	r.Put("/scoreboard/{letter}", h.recordResult)
}

func (h *ScoreboardHandler) board(w http.ResponseWriter, r *http.Request) {
	b, err := h.scoreboards.Board(chi.URLParam(r, "id"))
	common.RespondWithResult(w, http.StatusOK, b, err)
}

func (h *ScoreboardHandler) replace(w http.ResponseWriter, r *http.Request) {
	var rec model.ContestRecord
	if err := decodeJSON(r, &rec); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	b, err := h.scoreboards.ReplaceRecord(r.Context(), chi.URLParam(r, "id"), rec)
	common.RespondWithResult(w, http.StatusOK, b, err)
}

func (h *ScoreboardHandler) recordResult(w http.ResponseWriter, r *http.Request) {
	var res model.ProblemResult
	if err := decodeJSON(r, &res); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	b, err := h.scoreboards.RecordResult(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "letter"), res)
	common.RespondWithResult(w, http.StatusOK, b, err)
}
