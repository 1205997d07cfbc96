package visit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrVisitRequired = errors.New("visitId is required")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListVisits(ctx context.Context, page, limit int) (*Page[VisitDetail], error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	visits, err := s.repo.ListVisits(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	total, err := s.repo.CountVisits(ctx)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	return &Page[VisitDetail]{
		Data:       visits,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*VisitDetail, error) {
	return s.repo.GetVisit(ctx, id)
}

// UpdateVisit applies the doctor's edits. Status defaults to completed when
// the patch carries none, matching the front desk workflow where saving the
// form closes the visit.
func (s *Service) UpdateVisit(ctx context.Context, id uuid.UUID, patch VisitPatch) (*VisitDetail, error) {
	if patch.Status == nil {
		completed := StatusCompleted
		patch.Status = &completed
	}
	return s.repo.UpdateVisit(ctx, id, patch)
}

func (s *Service) DeleteVisit(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteVisit(ctx, id)
}

func (s *Service) CreatePrescription(ctx context.Context, p Prescription) (*Prescription, error) {
	if p.VisitID == uuid.Nil {
		return nil, ErrVisitRequired
	}
	created, err := s.repo.CreatePrescription(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create prescription: %w", err)
	}
	return created, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetPrescription(ctx, id)
}

func (s *Service) ListPrescriptions(ctx context.Context, page, limit int) (*Page[PrescriptionSummary], error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	prescriptions, err := s.repo.ListPrescriptions(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	total, err := s.repo.CountPrescriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("count prescriptions: %w", err)
	}

	return &Page[PrescriptionSummary]{
		Data:       prescriptions,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func (s *Service) ListPrescriptionsByPatient(ctx context.Context, patientID uuid.UUID) ([]PrescriptionSummary, error) {
	return s.repo.ListPrescriptionsByPatient(ctx, patientID)
}

func (s *Service) UpdatePrescription(ctx context.Context, id uuid.UUID, notes *string, meds []Medication) (*Prescription, error) {
	return s.repo.UpdatePrescription(ctx, id, notes, meds)
}

func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePrescription(ctx, id)
}
