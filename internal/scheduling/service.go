package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/queue"
	"github.com/clinicdesk/frontdesk/internal/visit"
)

var (
	ErrPatientRequired      = errors.New("patientId is required")
	ErrScheduleRequired     = errors.New("scheduledAt is required")
	ErrInvalidVisitType     = errors.New("invalid visit type")
	ErrInvalidStatus        = errors.New("invalid appointment status")
	ErrInvalidDay           = errors.New("dayOfWeek must be between 0 and 6")
	ErrInvalidTime          = errors.New("time must be HH:MM")
	ErrInvalidSlotMinutes   = errors.New("slotMinutes must be positive")
	ErrSlotTaken            = errors.New("appointment time is already booked")
	ErrAppointmentCancelled = errors.New("cancelled appointments cannot be checked in")
	ErrWrongDay             = errors.New("check-in is only allowed on the appointment day")
)

// QueueIntake is the queue orchestrator surface the scheduler hands
// checked-in appointments to.
type QueueIntake interface {
	CheckIn(ctx context.Context, in queue.AppointmentCheckIn) (*queue.CheckInResult, error)
	Entry(ctx context.Context, id uuid.UUID) (*queue.EntryDetail, error)
}

// Service validates appointment placement against clinic hours and the
// day's booked slots, and owns appointment status transitions.
type Service struct {
	repo   Repository
	intake QueueIntake
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, intake QueueIntake, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		intake: intake,
		log:    log,
		now:    time.Now,
	}
}

// HoursForDate resolves the operating window for a date's weekday,
// provisioning the default schedule when the day was never configured.
func (s *Service) HoursForDate(ctx context.Context, date time.Time) (*ClinicHours, error) {
	dayOfWeek := int(date.Weekday())

	hours, err := s.repo.GetHoursByDay(ctx, dayOfWeek)
	if err == nil {
		return hours, nil
	}
	if !errors.Is(err, ErrHoursNotFound) {
		return nil, fmt.Errorf("load clinic hours: %w", err)
	}

	created, err := s.repo.UpsertHours(ctx, DefaultHours(dayOfWeek))
	if err != nil {
		return nil, fmt.Errorf("provision default clinic hours: %w", err)
	}
	s.log.Info().Int("day_of_week", dayOfWeek).Msg("provisioned default clinic hours")
	return created, nil
}

// ListHours returns all seven days, provisioning defaults for any still
// missing.
func (s *Service) ListHours(ctx context.Context) ([]ClinicHours, error) {
	existing, err := s.repo.ListHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clinic hours: %w", err)
	}
	if len(existing) == 7 {
		return existing, nil
	}

	have := make(map[int]bool, len(existing))
	for _, h := range existing {
		have[h.DayOfWeek] = true
	}
	for day := 0; day <= 6; day++ {
		if have[day] {
			continue
		}
		if _, err := s.repo.UpsertHours(ctx, DefaultHours(day)); err != nil {
			return nil, fmt.Errorf("provision default clinic hours: %w", err)
		}
	}

	return s.repo.ListHours(ctx)
}

// UpdateHours applies an explicit schedule change for one weekday.
func (s *Service) UpdateHours(ctx context.Context, dayOfWeek int, patch HoursPatch) (*ClinicHours, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidDay
	}

	current, err := s.repo.GetHoursByDay(ctx, dayOfWeek)
	if errors.Is(err, ErrHoursNotFound) {
		def := DefaultHours(dayOfWeek)
		current = &def
	} else if err != nil {
		return nil, fmt.Errorf("load clinic hours: %w", err)
	}

	next := *current
	if patch.OpenTime != nil {
		next.OpenTime = *patch.OpenTime
	}
	if patch.CloseTime != nil {
		next.CloseTime = *patch.CloseTime
	}
	if patch.SlotMinutes != nil {
		next.SlotMinutes = *patch.SlotMinutes
	}
	if patch.IsClosed != nil {
		next.IsClosed = *patch.IsClosed
	}

	if _, ok := parseTimeToMinutes(next.OpenTime); !ok {
		return nil, ErrInvalidTime
	}
	if _, ok := parseTimeToMinutes(next.CloseTime); !ok {
		return nil, ErrInvalidTime
	}
	if next.SlotMinutes <= 0 {
		return nil, ErrInvalidSlotMinutes
	}

	return s.repo.UpsertHours(ctx, next)
}

type CreateInput struct {
	PatientID    uuid.UUID
	ScheduledAt  time.Time
	VisitType    string
	IsNewPatient bool
	Notes        *string
}

// Create books an appointment after hours and overlap validation. Duration
// is derived from the day's slot size at creation time.
func (s *Service) Create(ctx context.Context, in CreateInput) (*AppointmentDetail, error) {
	if in.PatientID == uuid.Nil {
		return nil, ErrPatientRequired
	}
	if in.ScheduledAt.IsZero() {
		return nil, ErrScheduleRequired
	}
	if in.VisitType == "" {
		in.VisitType = VisitConsultation
	}
	if in.VisitType != VisitConsultation && in.VisitType != VisitExamination {
		return nil, ErrInvalidVisitType
	}

	hours, err := s.HoursForDate(ctx, in.ScheduledAt)
	if err != nil {
		return nil, err
	}

	duration := hours.SlotMinutes
	if duration == 0 {
		duration = 20
	}

	if err := ValidateWithinHours(in.ScheduledAt, hours, duration); err != nil {
		return nil, err
	}
	if err := s.ensureNoOverlap(ctx, in.ScheduledAt, duration, nil); err != nil {
		return nil, err
	}

	created, err := s.repo.CreateAppointment(ctx, Appointment{
		PatientID:       in.PatientID,
		ScheduledAt:     in.ScheduledAt,
		DurationMinutes: duration,
		VisitType:       in.VisitType,
		IsNewPatient:    in.IsNewPatient,
		Notes:           in.Notes,
		Status:          StatusBooked,
	})
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	return created, nil
}

// ensureNoOverlap scans the candidate's calendar day for a half-open
// interval intersection among non-cancelled appointments.
func (s *Service) ensureNoOverlap(ctx context.Context, scheduledAt time.Time, durationMinutes int, exclude *uuid.UUID) error {
	from := time.Date(scheduledAt.Year(), scheduledAt.Month(), scheduledAt.Day(), 0, 0, 0, 0, scheduledAt.Location())
	to := from.AddDate(0, 0, 1)

	booked, err := s.repo.ListActiveBetween(ctx, from, to, exclude)
	if err != nil {
		return fmt.Errorf("load day appointments: %w", err)
	}

	start := scheduledAt
	end := scheduledAt.Add(time.Duration(durationMinutes) * time.Minute)

	for _, appt := range booked {
		apptDuration := appt.DurationMinutes
		if apptDuration == 0 {
			apptDuration = durationMinutes
		}
		apptEnd := appt.ScheduledAt.Add(time.Duration(apptDuration) * time.Minute)
		if overlaps(start, end, appt.ScheduledAt, apptEnd) {
			return ErrSlotTaken
		}
	}

	return nil
}

// Update applies a partial patch. Only a scheduledAt change re-runs the
// hours and overlap validation, excluding the appointment's own slot.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*AppointmentDetail, error) {
	existing, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.VisitType != nil && *patch.VisitType != VisitConsultation && *patch.VisitType != VisitExamination {
		return nil, ErrInvalidVisitType
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	if patch.ScheduledAt != nil {
		scheduledAt := *patch.ScheduledAt

		hours, err := s.HoursForDate(ctx, scheduledAt)
		if err != nil {
			return nil, err
		}

		duration := hours.SlotMinutes
		if duration == 0 {
			duration = existing.DurationMinutes
		}
		if duration == 0 {
			duration = 20
		}

		if err := ValidateWithinHours(scheduledAt, hours, duration); err != nil {
			return nil, err
		}
		if err := s.ensureNoOverlap(ctx, scheduledAt, duration, &id); err != nil {
			return nil, err
		}

		patch.DurationMinutes = &duration
	}

	updated, err := s.repo.UpdateAppointment(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	return updated, nil
}

// Cancel is allowed from any pre-checked-in state; any existing queue or
// visit linkage is left untouched.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	cancelled, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusCancelled)
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	return s.repo.GetAppointmentDetail(ctx, id)
}

// List returns all appointments, or one calendar day when date is set.
func (s *Service) List(ctx context.Context, date *time.Time) ([]AppointmentDetail, error) {
	if date == nil {
		return s.repo.ListAppointments(ctx)
	}
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return s.repo.ListAppointmentsBetween(ctx, from, from.AddDate(0, 0, 1))
}

// CheckInOutcome is what the desk gets back: the stamped appointment and,
// unless this was a repeat check-in, the freshly created queue entry and
// visit.
type CheckInOutcome struct {
	Appointment      *AppointmentDetail
	Queue            *queue.EntryDetail
	Visit            *visit.Visit
	AlreadyCheckedIn bool
}

// CheckIn hands a same-day, non-cancelled appointment to the queue
// orchestrator. Calling it again for an appointment that already holds a
// queue linkage returns the existing linkage instead of erroring.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID) (*CheckInOutcome, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status == StatusCancelled {
		return nil, ErrAppointmentCancelled
	}

	if appt.QueueID != nil {
		return s.existingCheckIn(ctx, id)
	}

	now := s.now()
	sy, sm, sd := appt.ScheduledAt.Date()
	ny, nm, nd := now.Date()
	if sy != ny || sm != nm || sd != nd {
		return nil, ErrWrongDay
	}

	result, err := s.intake.CheckIn(ctx, queue.AppointmentCheckIn{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		Notes:         appt.Notes,
		VisitType:     appt.VisitType,
	})
	if err != nil {
		// A concurrent check-in beat us to the stamp; its entry and visit
		// are the appointment's linkage now, so return those.
		if errors.Is(err, queue.ErrAlreadyCheckedIn) {
			return s.existingCheckIn(ctx, id)
		}
		return nil, fmt.Errorf("queue check-in: %w", err)
	}

	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	return &CheckInOutcome{
		Appointment: detail,
		Queue:       result.Entry,
		Visit:       result.Visit,
	}, nil
}

// existingCheckIn reloads an already-linked appointment and returns its
// current queue entry, marking the outcome as a repeat check-in.
func (s *Service) existingCheckIn(ctx context.Context, id uuid.UUID) (*CheckInOutcome, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	var entry *queue.EntryDetail
	if detail.QueueID != nil {
		entry, err = s.intake.Entry(ctx, *detail.QueueID)
		if err != nil && !errors.Is(err, queue.ErrEntryNotFound) {
			return nil, err
		}
	}

	return &CheckInOutcome{Appointment: detail, Queue: entry, AlreadyCheckedIn: true}, nil
}
