package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/visit"
)

func listVisitsHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		result, err := svc.ListVisits(r.Context(), page, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := VisitPageResponse{
			Data: make([]VisitResponse, 0, len(result.Data)),
			Meta: PageMeta{
				Page:       result.Page,
				Limit:      result.Limit,
				Total:      result.Total,
				TotalPages: result.TotalPages,
			},
		}
		for _, v := range result.Data {
			resp.Data = append(resp.Data, toVisitDetailResponse(v))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getVisitHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_visit_id", "id must be a valid UUID")
			return
		}

		v, err := svc.GetVisit(r.Context(), id)
		if err != nil {
			handleVisitError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toVisitDetailResponse(*v))
	}
}

func updateVisitHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_visit_id", "id must be a valid UUID")
			return
		}

		var req UpdateVisitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := visit.VisitPatch{
			ChiefComplaint: req.ChiefComplaint,
			Diagnosis:      req.Diagnosis,
			Notes:          req.Notes,
			VisitType:      req.VisitType,
		}
		if req.Status != nil {
			status := visit.Status(*req.Status)
			patch.Status = &status
		}

		updated, err := svc.UpdateVisit(r.Context(), id, patch)
		if err != nil {
			handleVisitError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toVisitDetailResponse(*updated))
	}
}

func deleteVisitHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_visit_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeleteVisit(r.Context(), id); err != nil {
			handleVisitError(w, err)
			return
		}

		writeJSON(w, http.StatusNoContent, nil)
	}
}

func handleVisitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, visit.ErrVisitNotFound):
		writeError(w, http.StatusNotFound, "visit_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
