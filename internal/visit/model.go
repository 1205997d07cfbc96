package visit

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/patient"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Visit struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	DoctorUsername string
	Status         Status
	ChiefComplaint *string
	VisitType      string
	Diagnosis      *string
	Notes          *string
	VisitDate      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type VisitDetail struct {
	Visit
	Patient       *patient.Summary
	Prescriptions []Prescription
}

type Prescription struct {
	ID               uuid.UUID
	VisitID          uuid.UUID
	AdditionalNotes  *string
	ConsultationDate time.Time
	PrescribedAt     time.Time
	Medications      []Medication
}

type Medication struct {
	ID             uuid.UUID
	PrescriptionID uuid.UUID
	Name           string
	Dosage         *string
	Frequency      *string
	Duration       *string
	Instructions   *string
}

// PrescriptionSummary is the list-view row used by the prescriptions index
// and the per-patient history.
type PrescriptionSummary struct {
	ID               uuid.UUID
	ConsultationDate time.Time
	PatientName      string
	DoctorName       string
	MedicationCount  int
	AdditionalNotes  *string
}

type Page[T any] struct {
	Data       []T
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
