package patient

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID         uuid.UUID
	Name       string
	NationalID *string
	Phone      *string
	Email      *string
	Age        *int
	Gender     *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Summary is the slim projection embedded in appointment and queue listings.
type Summary struct {
	ID         uuid.UUID
	Name       string
	NationalID *string
	Phone      *string
	Age        *int
	Gender     *string
}

// VisitSummary and QueueEntrySummary are the patient-detail projections of
// rows owned by other packages; the detail endpoint shows a patient's history
// without loading full visit or queue aggregates.
type VisitSummary struct {
	ID        uuid.UUID
	Status    string
	VisitType string
	Diagnosis *string
	VisitDate time.Time
}

type QueueEntrySummary struct {
	ID       uuid.UUID
	Position int
	Status   string
	Priority string
	QueuedAt time.Time
}

type Detail struct {
	Patient
	Visits       []VisitSummary
	QueueEntries []QueueEntrySummary
}

// Page wraps a list result with pagination metadata.
type Page struct {
	Data       []Patient
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
