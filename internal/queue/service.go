package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/observability/metrics"
	redisclient "github.com/clinicdesk/frontdesk/internal/redis"
	"github.com/clinicdesk/frontdesk/internal/visit"
)

var (
	ErrPatientRequired  = errors.New("patientId is required")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidVisitType = errors.New("invalid visit type")
	ErrQueueBusy        = errors.New("queue is being updated, please retry")
)

// Notifier receives the fire-and-forget "queue state changed" signal. It is
// called strictly after the transaction commits and must never block.
type Notifier interface {
	QueueUpdated()
}

// Service owns the ordered waiting list: positions form a contiguous daily
// sequence starting at 1, renumbered whenever an entry leaves the active set.
type Service struct {
	repo    Repository
	locker  redisclient.Locker
	notify  Notifier
	metrics *metrics.QueueMetrics
	doctor  string
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, notifier Notifier, m *metrics.QueueMetrics, doctor string, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		notify:  notifier,
		metrics: m,
		doctor:  doctor,
		log:     log,
		now:     time.Now,
	}
}

// dayBounds returns local midnight-to-midnight around t. Positions and stats
// are a daily sequence, so every aggregate query is scoped to these bounds.
func dayBounds(t time.Time) (time.Time, time.Time) {
	from := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return from, from.AddDate(0, 0, 1)
}

// Enqueue adds a walk-in to today's queue and opens a pending visit in the
// same transaction. The day lock serializes concurrent position assignment.
func (s *Service) Enqueue(ctx context.Context, in EnqueueInput) (*EnqueueResult, error) {
	if in.PatientID == uuid.Nil {
		return nil, ErrPatientRequired
	}
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	if !in.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if in.VisitType == "" {
		in.VisitType = VisitExamination
	}
	if in.VisitType != VisitConsultation && in.VisitType != VisitExamination {
		return nil, ErrInvalidVisitType
	}

	from, to := dayBounds(s.now())

	var result EnqueueResult
	err := s.locker.WithQueueLock(ctx, from.Format("2006-01-02"), func(lockCtx context.Context) error {
		return s.repo.InTx(lockCtx, func(r Repository) error {
			max, err := r.MaxActivePosition(lockCtx, from, to)
			if err != nil {
				return fmt.Errorf("max position: %w", err)
			}

			entry, err := r.CreateEntry(lockCtx, Entry{
				PatientID: in.PatientID,
				Position:  max + 1,
				Reason:    in.Reason,
				Priority:  in.Priority,
				VisitType: in.VisitType,
				Status:    StatusWaiting,
			})
			if err != nil {
				return fmt.Errorf("create queue entry: %w", err)
			}

			v, err := r.CreateVisit(lockCtx, visit.Visit{
				PatientID:      in.PatientID,
				DoctorUsername: s.doctor,
				Status:         visit.StatusPending,
				ChiefComplaint: in.Reason,
				VisitType:      in.VisitType,
			})
			if err != nil {
				return fmt.Errorf("create pending visit: %w", err)
			}

			result = EnqueueResult{Entry: entry, Visit: v}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrQueueBusy
		}
		return nil, err
	}

	s.metrics.ObserveOperation("enqueue")
	s.queueUpdated()

	return &result, nil
}

// CheckIn converts a checked-in appointment into a queue entry plus a pending
// visit, and stamps the appointment with the new linkage, all in one
// transaction.
func (s *Service) CheckIn(ctx context.Context, in AppointmentCheckIn) (*CheckInResult, error) {
	visitType := in.VisitType
	if visitType != VisitConsultation && visitType != VisitExamination {
		visitType = VisitConsultation
	}

	from, to := dayBounds(s.now())

	var result CheckInResult
	err := s.locker.WithQueueLock(ctx, from.Format("2006-01-02"), func(lockCtx context.Context) error {
		return s.repo.InTx(lockCtx, func(r Repository) error {
			max, err := r.MaxActivePosition(lockCtx, from, to)
			if err != nil {
				return fmt.Errorf("max position: %w", err)
			}

			entry, err := r.CreateEntry(lockCtx, Entry{
				PatientID: in.PatientID,
				Position:  max + 1,
				Reason:    in.Notes,
				Priority:  PriorityNormal,
				VisitType: visitType,
				Status:    StatusWaiting,
			})
			if err != nil {
				return fmt.Errorf("create queue entry: %w", err)
			}

			v, err := r.CreateVisit(lockCtx, visit.Visit{
				PatientID:      in.PatientID,
				DoctorUsername: s.doctor,
				Status:         visit.StatusPending,
				ChiefComplaint: in.Notes,
				VisitType:      visitType,
			})
			if err != nil {
				return fmt.Errorf("create pending visit: %w", err)
			}

			if err := r.StampAppointmentCheckedIn(lockCtx, in.AppointmentID, entry.ID, v.ID); err != nil {
				return fmt.Errorf("stamp appointment: %w", err)
			}

			result = CheckInResult{Entry: entry, Visit: v}
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrQueueBusy
		}
		return nil, err
	}

	s.metrics.ObserveOperation("check_in")
	s.queueUpdated()

	return &result, nil
}

// Entry loads one entry with its patient summary.
func (s *Service) Entry(ctx context.Context, id uuid.UUID) (*EntryDetail, error) {
	return s.repo.GetEntryDetail(ctx, id)
}

// Start marks an entry as in progress. The position is untouched.
func (s *Service) Start(ctx context.Context, id uuid.UUID) (*EntryDetail, error) {
	updated, err := s.repo.UpdateEntryStatus(ctx, id, StatusInProgress)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveOperation("start")
	s.queueUpdated()

	return updated, nil
}

// Complete marks an entry as done, closes the gap in the position sequence,
// completes the patient's pending visit if one exists (auto-creating an empty
// prescription when the visit has none), and completes any appointment
// referencing that visit. A missing pending visit is not an error.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*CompleteResult, error) {
	day, err := s.entryDay(ctx, id)
	if err != nil {
		return nil, err
	}

	var result CompleteResult
	err = s.locker.WithQueueLock(ctx, day, func(lockCtx context.Context) error {
		return s.repo.InTx(lockCtx, func(r Repository) error {
			entry, err := r.GetEntry(lockCtx, id)
			if err != nil {
				return err
			}

			updated, err := r.UpdateEntryStatus(lockCtx, id, StatusCompleted)
			if err != nil {
				return err
			}
			result.Entry = updated

			if err := s.renumberAfter(lockCtx, r, entry); err != nil {
				return err
			}

			pending, err := r.LatestVisitByStatus(lockCtx, entry.PatientID, []visit.Status{visit.StatusPending})
			if err != nil {
				return fmt.Errorf("find pending visit: %w", err)
			}
			if pending == nil {
				return nil
			}

			completedVisit, err := r.CompleteVisit(lockCtx, pending.ID, entry.VisitType)
			if err != nil {
				return fmt.Errorf("complete visit: %w", err)
			}
			result.Visit = completedVisit

			exists, err := r.PrescriptionExists(lockCtx, pending.ID)
			if err != nil {
				return fmt.Errorf("check prescription: %w", err)
			}
			if !exists {
				created, err := r.CreateEmptyPrescription(lockCtx, pending.ID)
				if err != nil {
					return fmt.Errorf("create prescription: %w", err)
				}
				result.Prescription = created
			}

			if err := r.CompleteAppointmentsByVisit(lockCtx, pending.ID); err != nil {
				return fmt.Errorf("complete linked appointments: %w", err)
			}

			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrQueueBusy
		}
		return nil, err
	}

	s.metrics.ObserveOperation("complete")
	s.queueUpdated()

	return &result, nil
}

// Remove deletes an entry, renumbers the remaining active set, and cancels
// the patient's active visit (deleting its prescriptions, keeping the visit
// row).
func (s *Service) Remove(ctx context.Context, id uuid.UUID) (*RemoveResult, error) {
	day, err := s.entryDay(ctx, id)
	if err != nil {
		return nil, err
	}

	var result RemoveResult
	err = s.locker.WithQueueLock(ctx, day, func(lockCtx context.Context) error {
		return s.repo.InTx(lockCtx, func(r Repository) error {
			entry, err := r.GetEntry(lockCtx, id)
			if err != nil {
				return err
			}

			if err := r.DeleteEntry(lockCtx, id); err != nil {
				return err
			}

			if err := s.renumberAfter(lockCtx, r, entry); err != nil {
				return err
			}

			active, err := r.LatestVisitByStatus(lockCtx, entry.PatientID,
				[]visit.Status{visit.StatusPending, visit.StatusInProgress})
			if err != nil {
				return fmt.Errorf("find active visit: %w", err)
			}
			if active == nil {
				return nil
			}

			if err := r.DeletePrescriptionsByVisit(lockCtx, active.ID); err != nil {
				return fmt.Errorf("delete prescriptions: %w", err)
			}

			cancelled, err := r.CancelVisit(lockCtx, active.ID)
			if err != nil {
				return fmt.Errorf("cancel visit: %w", err)
			}
			result.CancelledVisit = cancelled

			return nil
		})
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrQueueBusy
		}
		return nil, err
	}

	s.metrics.ObserveOperation("remove")
	s.queueUpdated()

	return &result, nil
}

// entryDay resolves the lock key for an existing entry: renumbering must run
// under the same per-day lock that serializes position assignment, keyed by
// the day the entry was queued on.
func (s *Service) entryDay(ctx context.Context, id uuid.UUID) (string, error) {
	entry, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return "", err
	}
	return entry.QueuedAt.Format("2006-01-02"), nil
}

// renumberAfter decrements the position of every active entry behind the one
// that left, in ascending order so a unique position constraint never sees a
// transient duplicate.
func (s *Service) renumberAfter(ctx context.Context, r Repository, left *Entry) error {
	from, to := dayBounds(left.QueuedAt)

	remaining, err := r.ActiveEntriesAfterPosition(ctx, from, to, left.Position)
	if err != nil {
		return fmt.Errorf("load entries to renumber: %w", err)
	}

	for _, e := range remaining {
		if err := r.SetEntryPosition(ctx, e.ID, e.Position-1); err != nil {
			return fmt.Errorf("renumber entry %s: %w", e.ID, err)
		}
	}

	return nil
}

// List returns the active queue ordered by urgency then position.
func (s *Service) List(ctx context.Context) ([]EntryDetail, error) {
	entries, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return entries, nil
}

// Stats aggregates today's queue activity.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	from, to := dayBounds(s.now())

	rows, err := s.repo.CountByStatusAndType(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	var stats Stats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case StatusWaiting:
			stats.Waiting += row.Count
		case StatusInProgress:
			stats.InProgress += row.Count
		case StatusCompleted:
			stats.Completed += row.Count
		}
		if row.VisitType == VisitConsultation {
			stats.ConsultationTotal += row.Count
			if row.Status == StatusCompleted {
				stats.CompletedConsultations += row.Count
			}
		} else {
			stats.VisitTotal += row.Count
			if row.Status == StatusCompleted {
				stats.CompletedVisits += row.Count
			}
		}
	}

	return &stats, nil
}

func (s *Service) queueUpdated() {
	if s.notify == nil {
		return
	}
	s.notify.QueueUpdated()
}
