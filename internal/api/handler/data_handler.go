package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/model"
)

type DataHandler struct {
	data *service.DataService
}

func NewDataHandler(ds *service.DataService) *DataHandler {
	return &DataHandler{data: ds}
}

func (h *DataHandler) RegisterRoutes(r chi.Router) {
	r.Post("/data/import", h.importData)
	r.Get("/data/export/{collection}", h.export)
	r.Post("/data/backup", h.backup)
	r.Delete("/data/cache", h.clearCache)
	r.Get("/settings", h.settings)
	r.Put("/settings", h.updateSettings)
}

func (h *DataHandler) importData(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	report, err := h.data.Import(r.Context(), raw)
	common.RespondWithResult(w, http.StatusOK, report, err)
}

func (h *DataHandler) export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.data.Export(chi.URLParam(r, "collection"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithDownload(w, doc.FileName, doc.Body)
}

// backup downloads a backup document; ?type= defaults to manual.
func (h *DataHandler) backup(w http.ResponseWriter, r *http.Request) {
	doc, err := h.data.Backup(r.URL.Query().Get("type"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithDownload(w, doc.FileName, doc.Body)
}

func (h *DataHandler) clearCache(w http.ResponseWriter, r *http.Request) {
	respondNoContent(w, h.data.ClearCache(r.Context()))
}

func (h *DataHandler) settings(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.data.Settings(r.Context()))
}

func (h *DataHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var patch model.Settings
	if err := decodeJSON(r, &patch); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	s, err := h.data.UpdateSettings(r.Context(), patch)
	common.RespondWithResult(w, http.StatusOK, s, err)
}
