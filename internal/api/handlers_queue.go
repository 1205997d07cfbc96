package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/queue"
	redisclient "github.com/clinicdesk/frontdesk/internal/redis"
)

func enqueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		// Older clients sent the visit type in the priority field; accept it
		// there as long as no explicit visit_type is given.
		priority, visitType := req.Priority, req.VisitType
		if priority == queue.VisitConsultation || priority == queue.VisitExamination {
			if visitType == "" {
				visitType = priority
			}
			priority = ""
		}

		result, err := svc.Enqueue(r.Context(), queue.EnqueueInput{
			PatientID: patientID,
			Reason:    req.Reason,
			Priority:  queue.Priority(priority),
			VisitType: visitType,
		})
		if err != nil {
			handleQueueError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, EnqueueResponse{
			Entry: toQueueEntryDetailResponse(*result.Entry),
			Visit: toVisitResponsePtr(result.Visit),
		})
	}
}

func listQueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]QueueEntryResponse, 0, len(entries))
		for _, e := range entries {
			resp = append(resp, toQueueEntryDetailResponse(e))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func queueStatsHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toQueueStatsResponse(*stats))
	}
}

func startQueueEntryHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_queue_id", "id must be a valid UUID")
			return
		}

		updated, err := svc.Start(r.Context(), id)
		if err != nil {
			handleQueueError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toQueueEntryDetailResponse(*updated))
	}
}

func completeQueueEntryHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_queue_id", "id must be a valid UUID")
			return
		}

		result, err := svc.Complete(r.Context(), id)
		if err != nil {
			handleQueueError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CompleteResponse{
			Entry:        toQueueEntryDetailResponse(*result.Entry),
			Visit:        toVisitResponsePtr(result.Visit),
			Prescription: toPrescriptionResponsePtr(result.Prescription),
		})
	}
}

func removeQueueEntryHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_queue_id", "id must be a valid UUID")
			return
		}

		result, err := svc.Remove(r.Context(), id)
		if err != nil {
			handleQueueError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, RemoveResponse{
			Removed:        true,
			CancelledVisit: toVisitResponsePtr(result.CancelledVisit),
		})
	}
}

func handleQueueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "queue_entry_not_found", err.Error())
	case errors.Is(err, queue.ErrPatientRequired),
		errors.Is(err, queue.ErrInvalidPriority),
		errors.Is(err, queue.ErrInvalidVisitType):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, queue.ErrQueueBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "queue_busy", "queue is being updated, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
