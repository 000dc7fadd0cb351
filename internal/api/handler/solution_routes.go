package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zyn-615/ACM-Transit-Template/internal/app/service"
	"github.com/zyn-615/ACM-Transit-Template/internal/common"
)

// solutionRoutes serves the solution list of one owner kind. The parent id
// is read from the {id} URL parameter.
type solutionRoutes struct {
	svc   *service.SolutionService
	owner string
}

func (s solutionRoutes) list(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.List(s.owner, chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, list)
}

func (s solutionRoutes) add(w http.ResponseWriter, r *http.Request) {
	var in service.SolutionInput
	if err := decodeJSON(r, &in); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	sol, err := s.svc.Add(r.Context(), s.owner, chi.URLParam(r, "id"), in)
	common.RespondWithResult(w, http.StatusCreated, sol, err)
}

func (s solutionRoutes) update(w http.ResponseWriter, r *http.Request, solutionID string) {
	var patch service.SolutionPatch
	if err := decodeJSON(r, &patch); err != nil {
		common.RespondWithErr(w, err)
		return
	}
	sol, err := s.svc.Update(r.Context(), s.owner, chi.URLParam(r, "id"), solutionID, patch)
	common.RespondWithResult(w, http.StatusOK, sol, err)
}

func (s solutionRoutes) remove(w http.ResponseWriter, r *http.Request, solutionID string) {
	respondNoContent(w, s.svc.Remove(r.Context(), s.owner, chi.URLParam(r, "id"), solutionID))
}
