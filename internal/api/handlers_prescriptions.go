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

func createPrescriptionHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		visitID, err := uuid.Parse(req.VisitID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_visit_id", "visit_id must be a valid UUID")
			return
		}

		created, err := svc.CreatePrescription(r.Context(), visit.Prescription{
			VisitID:         visitID,
			AdditionalNotes: req.AdditionalNotes,
			Medications:     toMedications(req.Medications),
		})
		if err != nil {
			handlePrescriptionError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPrescriptionResponse(*created))
	}
}

func listPrescriptionsHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		result, err := svc.ListPrescriptions(r.Context(), page, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := PrescriptionPageResponse{
			Data: make([]PrescriptionSummaryResponse, 0, len(result.Data)),
			Meta: PageMeta{
				Page:       result.Page,
				Limit:      result.Limit,
				Total:      result.Total,
				TotalPages: result.TotalPages,
			},
		}
		for _, s := range result.Data {
			resp.Data = append(resp.Data, toPrescriptionSummaryResponse(s))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listPatientPrescriptionsHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		summaries, err := svc.ListPrescriptionsByPatient(r.Context(), patientID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]PrescriptionSummaryResponse, 0, len(summaries))
		for _, s := range summaries {
			resp = append(resp, toPrescriptionSummaryResponse(s))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getPrescriptionHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_prescription_id", "id must be a valid UUID")
			return
		}

		p, err := svc.GetPrescription(r.Context(), id)
		if err != nil {
			handlePrescriptionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPrescriptionResponse(*p))
	}
}

func updatePrescriptionHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_prescription_id", "id must be a valid UUID")
			return
		}

		var req UpdatePrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.UpdatePrescription(r.Context(), id, req.AdditionalNotes, toMedications(req.Medications))
		if err != nil {
			handlePrescriptionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPrescriptionResponse(*updated))
	}
}

func deletePrescriptionHandler(svc *visit.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_prescription_id", "id must be a valid UUID")
			return
		}

		if err := svc.DeletePrescription(r.Context(), id); err != nil {
			handlePrescriptionError(w, err)
			return
		}

		writeJSON(w, http.StatusNoContent, nil)
	}
}

func handlePrescriptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, visit.ErrPrescriptionNotFound):
		writeError(w, http.StatusNotFound, "prescription_not_found", err.Error())
	case errors.Is(err, visit.ErrVisitNotFound):
		writeError(w, http.StatusNotFound, "visit_not_found", err.Error())
	case errors.Is(err, visit.ErrVisitRequired):
		writeError(w, http.StatusBadRequest, "visit_required", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
