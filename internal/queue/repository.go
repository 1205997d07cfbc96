package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/visit"
)

var (
	ErrEntryNotFound = errors.New("queue entry not found")

	// ErrAlreadyCheckedIn is returned when the check-in stamp finds the
	// appointment already linked to a queue entry; a concurrent check-in won
	// the race and this transaction must roll back.
	ErrAlreadyCheckedIn = errors.New("appointment is already checked in")
)

// Repository contains every store interaction the orchestrator needs,
// including the visit, prescription and appointment rows it mutates inside
// its transactions. InTx yields a repository bound to a single transaction;
// any error rolls the whole transaction back.
type Repository interface {
	InTx(ctx context.Context, fn func(r Repository) error) error

	MaxActivePosition(ctx context.Context, from, to time.Time) (int, error)
	CreateEntry(ctx context.Context, e Entry) (*EntryDetail, error)
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetEntryDetail(ctx context.Context, id uuid.UUID) (*EntryDetail, error)
	ListActive(ctx context.Context) ([]EntryDetail, error)
	UpdateEntryStatus(ctx context.Context, id uuid.UUID, status Status) (*EntryDetail, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	ActiveEntriesAfterPosition(ctx context.Context, from, to time.Time, position int) ([]Entry, error)
	SetEntryPosition(ctx context.Context, id uuid.UUID, position int) error
	CountByStatusAndType(ctx context.Context, from, to time.Time) ([]StatRow, error)

	CreateVisit(ctx context.Context, v visit.Visit) (*visit.Visit, error)
	LatestVisitByStatus(ctx context.Context, patientID uuid.UUID, statuses []visit.Status) (*visit.Visit, error)
	CompleteVisit(ctx context.Context, id uuid.UUID, visitType string) (*visit.Visit, error)
	CancelVisit(ctx context.Context, id uuid.UUID) (*visit.Visit, error)
	PrescriptionExists(ctx context.Context, visitID uuid.UUID) (bool, error)
	CreateEmptyPrescription(ctx context.Context, visitID uuid.UUID) (*visit.Prescription, error)
	DeletePrescriptionsByVisit(ctx context.Context, visitID uuid.UUID) error
	CompleteAppointmentsByVisit(ctx context.Context, visitID uuid.UUID) error
	StampAppointmentCheckedIn(ctx context.Context, appointmentID, queueID, visitID uuid.UUID) error
}
