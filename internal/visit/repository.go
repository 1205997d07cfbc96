package visit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrVisitNotFound        = errors.New("visit not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
)

type Repository interface {
	ListVisits(ctx context.Context, limit, offset int) ([]VisitDetail, error)
	CountVisits(ctx context.Context) (int, error)
	GetVisit(ctx context.Context, id uuid.UUID) (*VisitDetail, error)
	UpdateVisit(ctx context.Context, id uuid.UUID, patch VisitPatch) (*VisitDetail, error)
	DeleteVisit(ctx context.Context, id uuid.UUID) error

	CreatePrescription(ctx context.Context, p Prescription) (*Prescription, error)
	GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListPrescriptions(ctx context.Context, limit, offset int) ([]PrescriptionSummary, error)
	CountPrescriptions(ctx context.Context) (int, error)
	ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) ([]PrescriptionSummary, error)
	UpdatePrescription(ctx context.Context, id uuid.UUID, notes *string, meds []Medication) (*Prescription, error)
	DeletePrescription(ctx context.Context, id uuid.UUID) error
}

// VisitPatch carries the fields the doctor edits after a consultation.
type VisitPatch struct {
	ChiefComplaint *string
	Diagnosis      *string
	Notes          *string
	Status         *Status
	VisitType      *string
	VisitDate      *time.Time
}
