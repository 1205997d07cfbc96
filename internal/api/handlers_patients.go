package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/patient"
)

func createPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.Create(r.Context(), patient.Patient{
			Name:       req.Name,
			NationalID: req.NationalID,
			Phone:      req.Phone,
			Email:      req.Email,
			Age:        req.Age,
			Gender:     req.Gender,
		})
		if err != nil {
			if errors.Is(err, patient.ErrNameRequired) {
				writeError(w, http.StatusBadRequest, "name_required", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(*created))
	}
}

func listPatientsHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		result, err := svc.List(r.Context(), page, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := PatientPageResponse{
			Data: make([]PatientResponse, 0, len(result.Data)),
			Meta: PageMeta{
				Page:       result.Page,
				Limit:      result.Limit,
				Total:      result.Total,
				TotalPages: result.TotalPages,
			},
		}
		for _, p := range result.Data {
			resp.Data = append(resp.Data, toPatientResponse(p))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getPatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		detail, err := svc.Detail(r.Context(), id)
		if err != nil {
			handlePatientError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientDetailResponse(*detail))
	}
}

func updatePatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		var req UpdatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.Update(r.Context(), id, patient.UpdatePatch{
			Name:       req.Name,
			NationalID: req.NationalID,
			Phone:      req.Phone,
			Email:      req.Email,
			Age:        req.Age,
			Gender:     req.Gender,
		})
		if err != nil {
			handlePatientError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(*updated))
	}
}

func deletePatientHandler(svc *patient.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			handlePatientError(w, err)
			return
		}

		writeJSON(w, http.StatusNoContent, nil)
	}
}

func handlePatientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
