package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

type GeneratorHandler struct {
	generator *service.Generator
}

func NewGeneratorHandler(g *service.Generator) *GeneratorHandler {
	return &GeneratorHandler{generator: g}
}

func (h *GeneratorHandler) RegisterRoutes(r chi.Router) {
	r.Post("/preview", h.preview)
	r.Get("/counts", h.counts)
	r.Get("/templates/{platform}", h.template)
}

type previewRequest struct {
	Contest model.Contest `json:"contest"`
	Count   int           `json:"count"`
}

func (h *GeneratorHandler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	p, err := h.generator.Preview(req.Contest, req.Count)
	common.RespondWithResult(w, http.StatusOK, p, err)
}

func (h *GeneratorHandler) counts(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, service.SupportedCounts())
}

func (h *GeneratorHandler) template(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.generator.PlatformTemplate(chi.URLParam(r, "platform")))
}
