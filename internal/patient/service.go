package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNameRequired = errors.New("patient name is required")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, p Patient) (*Patient, error) {
	if p.Name == "" {
		return nil, ErrNameRequired
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Detail returns the patient together with their visit history and queue
// entries for the front-desk detail view.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	return s.repo.GetDetail(ctx, id)
}

func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	patients, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	return &Page{
		Data:       patients,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*Patient, error) {
	return s.repo.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
