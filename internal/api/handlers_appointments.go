package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/queue"
	redisclient "github.com/clinicdesk/frontdesk/internal/redis"
	"github.com/clinicdesk/frontdesk/internal/scheduling"
)

func createAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		created, err := svc.Create(r.Context(), scheduling.CreateInput{
			PatientID:    patientID,
			ScheduledAt:  req.ScheduledAt,
			VisitType:    req.VisitType,
			IsNewPatient: req.IsNewPatient,
			Notes:        req.Notes,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentDetailResponse(*created))
	}
}

func listAppointmentsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var date *time.Time
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			date = &parsed
		}

		appts, err := svc.List(r.Context(), date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for _, a := range appts {
			resp = append(resp, toAppointmentDetailResponse(a))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentDetailResponse(*appt))
	}
}

func updateAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := scheduling.UpdatePatch{
			ScheduledAt:  req.ScheduledAt,
			VisitType:    req.VisitType,
			IsNewPatient: req.IsNewPatient,
			Notes:        req.Notes,
		}
		if req.Status != nil {
			status := scheduling.Status(*req.Status)
			patch.Status = &status
		}

		updated, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentDetailResponse(*updated))
	}
}

func cancelAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		cancelled, err := svc.Cancel(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*cancelled, nil))
	}
}

func checkInAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		outcome, err := svc.CheckIn(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := CheckInResponse{
			Appointment:      toAppointmentDetailResponse(*outcome.Appointment),
			Visit:            toVisitResponsePtr(outcome.Visit),
			AlreadyCheckedIn: outcome.AlreadyCheckedIn,
		}
		if outcome.Queue != nil {
			entry := toQueueEntryDetailResponse(*outcome.Queue)
			resp.Queue = &entry
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listClinicHoursHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours, err := svc.ListHours(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]ClinicHoursResponse, 0, len(hours))
		for _, h := range hours {
			resp = append(resp, toClinicHoursResponse(h))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func updateClinicHoursHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := strconv.Atoi(chi.URLParam(r, "day"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_day", "day must be an integer between 0 and 6")
			return
		}

		var req UpdateHoursRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.UpdateHours(r.Context(), day, scheduling.HoursPatch{
			OpenTime:    req.OpenTime,
			CloseTime:   req.CloseTime,
			SlotMinutes: req.SlotMinutes,
			IsClosed:    req.IsClosed,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toClinicHoursResponse(*updated))
	}
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPatientRequired),
		errors.Is(err, scheduling.ErrScheduleRequired),
		errors.Is(err, scheduling.ErrInvalidVisitType),
		errors.Is(err, scheduling.ErrInvalidStatus),
		errors.Is(err, scheduling.ErrInvalidDay),
		errors.Is(err, scheduling.ErrInvalidTime),
		errors.Is(err, scheduling.ErrInvalidSlotMinutes):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, scheduling.ErrClinicClosed),
		errors.Is(err, scheduling.ErrHoursNotConfigured),
		errors.Is(err, scheduling.ErrOutsideHours),
		errors.Is(err, scheduling.ErrNotAligned):
		writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
	case errors.Is(err, scheduling.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentCancelled):
		writeError(w, http.StatusBadRequest, "appointment_cancelled", err.Error())
	case errors.Is(err, scheduling.ErrWrongDay):
		writeError(w, http.StatusBadRequest, "wrong_day", err.Error())
	case errors.Is(err, queue.ErrQueueBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "queue_busy", "queue is being updated, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
