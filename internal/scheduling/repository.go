package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHoursNotFound       = errors.New("clinic hours not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

type Repository interface {
	GetHoursByDay(ctx context.Context, dayOfWeek int) (*ClinicHours, error)
	UpsertHours(ctx context.Context, h ClinicHours) (*ClinicHours, error)
	ListHours(ctx context.Context) ([]ClinicHours, error)

	CreateAppointment(ctx context.Context, a Appointment) (*AppointmentDetail, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context) ([]AppointmentDetail, error)
	ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error)
	// ListActiveBetween returns the day's non-cancelled appointments for the
	// overlap scan, optionally excluding one id (in-place reschedule).
	ListActiveBetween(ctx context.Context, from, to time.Time, exclude *uuid.UUID) ([]Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*AppointmentDetail, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error)
}

// UpdatePatch carries the fields a partial update may change; nil means
// leave as is. DurationMinutes travels with ScheduledAt since rescheduling
// re-derives it from the target day's slot size.
type UpdatePatch struct {
	ScheduledAt     *time.Time
	DurationMinutes *int
	VisitType       *string
	IsNewPatient    *bool
	Notes           *string
	Status          *Status
}

// HoursPatch carries the fields an explicit clinic-hours update may change.
type HoursPatch struct {
	OpenTime    *string
	CloseTime   *string
	SlotMinutes *int
	IsClosed    *bool
}
