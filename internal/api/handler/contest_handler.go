package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
)

type ContestHandler struct {
	contestService *service.ContestService
	fileService    *service.FileService
	solutions      solutionRoutes
}

func NewContestHandler(cs *service.ContestService, fs *service.FileService, ss *service.SolutionService) *ContestHandler {
	return &ContestHandler{
		contestService: cs,
		fileService:    fs,
		solutions:      solutionRoutes{svc: ss, owner: service.OwnerContest},
	}
}

// RegisterRoutes mounts the contest routes. Each of perContest is also
// mounted under /{id}.
func (h *ContestHandler) RegisterRoutes(r chi.Router, perContest ...func(chi.Router)) {
	r.Get("/", h.listContests)
	r.Post("/", h.createContest)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.getContest)
		r.Put("/", h.updateContest)
		r.Delete("/", h.deleteContest)
		r.Put("/problems/{index}", h.updateContestProblem)
		r.Post("/generate", h.generateProblems)
		r.Get("/summary", h.summary)
		r.Get("/files", h.files)

		r.Get("/solutions", h.solutions.list)
		r.Post("/solutions", h.solutions.add)
		r.Put("/solutions/{solutionId}", func(w http.ResponseWriter, r *http.Request) {
			h.solutions.update(w, r, chi.URLParam(r, "solutionId"))
		})
		r.Delete("/solutions/{solutionId}", func(w http.ResponseWriter, r *http.Request) {
			h.solutions.remove(w, r, chi.URLParam(r, "solutionId"))
		})

		for _, mount := range perContest {
			mount(r)
		}
	})
}

// listContests accepts platform, dateFrom, dateTo, search, minSolved,
// sortBy and sortOrder query parameters.
func (h *ContestHandler) listContests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListContestsRequest{
		ContestFilter: repository.ContestFilter{
			Platform:  q.Get("platform"),
			DateFrom:  q.Get("dateFrom"),
			DateTo:    q.Get("dateTo"),
			Search:    q.Get("search"),
			MinSolved: queryInt(r, "minSolved"),
		},
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	common.RespondWithJSON(w, http.StatusOK, h.contestService.ListContests(req))
}

func (h *ContestHandler) createContest(w http.ResponseWriter, r *http.Request) {
	var req service.CreateContestRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	result, err := h.contestService.CreateContest(r.Context(), req)
	common.RespondWithResult(w, http.StatusCreated, result, err)
}

func (h *ContestHandler) getContest(w http.ResponseWriter, r *http.Request) {
	c, err := h.contestService.GetContest(chi.URLParam(r, "id"))
	common.RespondWithResult(w, http.StatusOK, c, err)
}

func (h *ContestHandler) updateContest(w http.ResponseWriter, r *http.Request) {
	var patch repository.ContestPatch
	if err := decodeJSON(r, &patch); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	c, err := h.contestService.UpdateContest(r.Context(), chi.URLParam(r, "id"), patch)
	common.RespondWithResult(w, http.StatusOK, c, err)
}

func (h *ContestHandler) deleteContest(w http.ResponseWriter, r *http.Request) {
	respondNoContent(w, h.contestService.DeleteContest(r.Context(), chi.URLParam(r, "id")))
}

func (h *ContestHandler) updateContestProblem(w http.ResponseWriter, r *http.Request) {
	var patch repository.ContestProblemPatch
	if err := decodeJSON(r, &patch); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	c, err := h.contestService.UpdateContestProblem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "index"), patch)
	common.RespondWithResult(w, http.StatusOK, c, err)
}

type generateRequest struct {
	Count int `json:"count"`
}

func (h *ContestHandler) generateProblems(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	ids, err := h.contestService.GenerateProblems(r.Context(), chi.URLParam(r, "id"), req.Count)
	common.RespondWithResult(w, http.StatusCreated, map[string][]string{"generatedProblems": ids}, err)
}

func (h *ContestHandler) summary(w http.ResponseWriter, r *http.Request) {
	md, err := h.contestService.Summary(chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(md))
}

func (h *ContestHandler) files(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.contestService.GetContest(id); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, h.fileService.ScanContestFiles(r.Context(), id))
}
