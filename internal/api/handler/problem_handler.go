package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
	"github.com/zyn-615/ACM-Transit-Template/internal/domain/repository"
)

// solutionIDPrefix tells a solution-list entry apart from an author key on
// /problems/{id}/solutions/{key}.
const solutionIDPrefix = "sol-"

type ProblemHandler struct {
	problemService *service.ProblemService
	fileService    *service.FileService
	solutions      solutionRoutes
}

func NewProblemHandler(ps *service.ProblemService, fs *service.FileService, ss *service.SolutionService) *ProblemHandler {
	return &ProblemHandler{
		problemService: ps,
		fileService:    fs,
		solutions:      solutionRoutes{svc: ss, owner: service.OwnerProblem},
	}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)
	r.Post("/", h.createProblem)
	r.Get("/tags", h.tags)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.getProblem)
		r.Put("/", h.updateProblem)
		r.Delete("/", h.deleteProblem)
		r.Get("/files", h.files)
		r.Put("/statement", h.setStatement)

		r.Get("/solutions", h.solutions.list)
		r.Post("/solutions", h.solutions.add)
		r.Put("/solutions/{key}", h.putSolution)
		r.Delete("/solutions/{key}", h.deleteSolution)
	})
}

// listProblems accepts platform, status, minDifficulty, maxDifficulty, tags
// (comma separated), contestId, search, sortBy, sortOrder, page and
// pageSize. Without pageSize every match is returned.
func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	if pageSize > 100 {
		pageSize = 100
	}

	req := service.ListProblemsRequest{
		ProblemFilter: repository.ProblemFilter{
			Platform:      q.Get("platform"),
			Status:        q.Get("status"),
			MinDifficulty: queryInt(r, "minDifficulty"),
			MaxDifficulty: queryInt(r, "maxDifficulty"),
			Tags:          queryList(r, "tags"),
			ContestID:     q.Get("contestId"),
			Search:        q.Get("search"),
		},
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      page,
		PageSize:  pageSize,
	}
	common.RespondWithJSON(w, http.StatusOK, h.problemService.ListProblems(req))
}

func (h *ProblemHandler) createProblem(w http.ResponseWriter, r *http.Request) {
	var in repository.ProblemInput
	if err := decodeJSON(r, &in); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	p, err := h.problemService.CreateProblem(r.Context(), in)
	common.RespondWithResult(w, http.StatusCreated, p, err)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	p, err := h.problemService.GetProblem(chi.URLParam(r, "id"))
	common.RespondWithResult(w, http.StatusOK, p, err)
}

func (h *ProblemHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	var patch repository.ProblemPatch
	if err := decodeJSON(r, &patch); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	p, err := h.problemService.UpdateProblem(r.Context(), chi.URLParam(r, "id"), patch)
	common.RespondWithResult(w, http.StatusOK, p, err)
}

func (h *ProblemHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	respondNoContent(w, h.problemService.DeleteProblem(r.Context(), chi.URLParam(r, "id")))
}

func (h *ProblemHandler) tags(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, h.problemService.Tags())
}

// files scans the statement plus the solutions of the given authors
// (comma separated); without authors the official solution is checked.
func (h *ProblemHandler) files(w http.ResponseWriter, r *http.Request) {
	p, err := h.problemService.GetProblem(chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, h.fileService.ScanProblemFiles(r.Context(), p.ID, queryList(r, "authors")))
}

type statementRequest struct {
	Path string `json:"path"`
}

func (h *ProblemHandler) setStatement(w http.ResponseWriter, r *http.Request) {
	var req statementRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	p, err := h.problemService.SetStatement(r.Context(), chi.URLParam(r, "id"), req.Path)
	common.RespondWithResult(w, http.StatusOK, p, err)
}

func (h *ProblemHandler) putSolution(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if strings.HasPrefix(key, solutionIDPrefix) {
		h.solutions.update(w, r, key)
		return
	}
	var req service.AuthorSolutionRequest
	if err := decodeJSON(r, &req); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	p, err := h.problemService.SetAuthorSolution(r.Context(), chi.URLParam(r, "id"), key, req)
	common.RespondWithResult(w, http.StatusOK, p, err)
}

func (h *ProblemHandler) deleteSolution(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if strings.HasPrefix(key, solutionIDPrefix) {
		h.solutions.remove(w, r, key)
		return
	}
	respondNoContent(w, h.problemService.RemoveAuthorSolution(r.Context(), chi.URLParam(r, "id"), key))
}
