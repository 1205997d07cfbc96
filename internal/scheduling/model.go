package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/patient"
)

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCheckedIn Status = "checked_in"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusCheckedIn, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

const (
	VisitConsultation = "consultation"
	VisitExamination  = "examination"
)

// ClinicHours is the operating window for one weekday (0=Sunday..6=Saturday).
// Days never configured are provisioned with the system default on first use.
type ClinicHours struct {
	DayOfWeek   int
	OpenTime    string // HH:MM local
	CloseTime   string // HH:MM local
	SlotMinutes int
	IsClosed    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultHours is the lazily provisioned schedule for unconfigured weekdays.
func DefaultHours(dayOfWeek int) ClinicHours {
	return ClinicHours{
		DayOfWeek:   dayOfWeek,
		OpenTime:    "09:00",
		CloseTime:   "17:00",
		SlotMinutes: 20,
		IsClosed:    false,
	}
}

type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	ScheduledAt     time.Time
	DurationMinutes int
	VisitType       string
	IsNewPatient    bool
	Notes           *string
	Status          Status
	QueueID         *uuid.UUID
	VisitID         *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type AppointmentDetail struct {
	Appointment
	Patient *patient.Summary
}
