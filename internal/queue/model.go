package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/frontdesk/internal/patient"
	"github.com/clinicdesk/frontdesk/internal/visit"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Priority is the urgency of a waiting patient. The legacy system overloaded
// this field with visit-type markers; entries now carry urgency and visit
// type as separate columns.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for queue listing: urgent ahead of high ahead of
// normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

func (p Priority) Valid() bool {
	return p == PriorityNormal || p == PriorityHigh || p == PriorityUrgent
}

const (
	VisitConsultation = "consultation"
	VisitExamination  = "examination"
)

type Entry struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Position  int
	Reason    *string
	Priority  Priority
	VisitType string
	Status    Status
	QueuedAt  time.Time
}

type EntryDetail struct {
	Entry
	Patient *patient.Summary
}

// Stats summarizes today's queue activity for the dashboard.
type Stats struct {
	Total                  int
	Waiting                int
	InProgress             int
	Completed              int
	ConsultationTotal      int
	VisitTotal             int
	CompletedConsultations int
	CompletedVisits        int
}

// StatRow is one (status, visitType) bucket from the grouped count query.
type StatRow struct {
	Status    Status
	VisitType string
	Count     int
}

type EnqueueInput struct {
	PatientID uuid.UUID
	Reason    *string
	Priority  Priority
	VisitType string
}

type EnqueueResult struct {
	Entry *EntryDetail
	Visit *visit.Visit
}

// AppointmentCheckIn carries what the scheduler hands over when a booked
// appointment arrives at the desk.
type AppointmentCheckIn struct {
	AppointmentID uuid.UUID
	PatientID     uuid.UUID
	Notes         *string
	VisitType     string
}

type CheckInResult struct {
	Entry *EntryDetail
	Visit *visit.Visit
}

type CompleteResult struct {
	Entry        *EntryDetail
	Visit        *visit.Visit        // nil when no pending visit matched
	Prescription *visit.Prescription // nil unless auto-created here
}

type RemoveResult struct {
	CancelledVisit *visit.Visit // nil when no active visit matched
}
