package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
)

type FileHandler struct {
	files *service.FileService
}

func NewFileHandler(fs *service.FileService) *FileHandler {
	return &FileHandler{files: fs}
}

func (h *FileHandler) RegisterRoutes(r chi.Router) {
	r.Post("/check", h.check)
	r.Get("/guidance", h.guidance)
	r.Get("/script", h.script)
	r.Get("/cache", h.cacheStats)
	r.Delete("/cache", h.clearCache)
}

type checkRequest struct {
	Paths []string `json:"paths"`
}

func (h *FileHandler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, h.files.BatchCheck(r.Context(), req.Paths))
}

func (h *FileHandler) guidance(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		common.RespondWithErr(w, fmt.Errorf("path is required: %w", common.ErrBadRequest))
		return
	}
	common.RespondWithJSON(w, http.StatusOK, h.files.UploadGuidance(path, r.URL.Query().Get("type")))
}

// script returns a shell script creating the folder layout for contestId
// and, optionally, problemId with the given authors.
func (h *FileHandler) script(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body := h.files.CreateFoldersScript(q.Get("contestId"), q.Get("problemId"), queryList(r, "authors"))
	w.Header().Set("Content-Type", "text/x-shellscript; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="create-folders.sh"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (h *FileHandler) cacheStats(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.files.CacheStats())
}

func (h *FileHandler) clearCache(w http.ResponseWriter, r *http.Request) {
	h.files.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}
