package patient

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type stubRepo struct {
	patients  []Patient
	lastLimit int
	lastOff   int
}

func (s *stubRepo) Create(_ context.Context, p Patient) (*Patient, error) {
	p.ID = uuid.New()
	s.patients = append(s.patients, p)
	return &p, nil
}

func (s *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	for _, p := range s.patients {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (s *stubRepo) GetDetail(_ context.Context, id uuid.UUID) (*Detail, error) {
	p, err := s.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return &Detail{Patient: *p}, nil
}

func (s *stubRepo) List(_ context.Context, limit, offset int) ([]Patient, error) {
	s.lastLimit = limit
	s.lastOff = offset
	if offset >= len(s.patients) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.patients) {
		end = len(s.patients)
	}
	return s.patients[offset:end], nil
}

func (s *stubRepo) Count(_ context.Context) (int, error) {
	return len(s.patients), nil
}

func (s *stubRepo) Update(_ context.Context, id uuid.UUID, patch UpdatePatch) (*Patient, error) {
	for i, p := range s.patients {
		if p.ID == id {
			if patch.Name != nil {
				p.Name = *patch.Name
			}
			s.patients[i] = p
			return &p, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (s *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, p := range s.patients {
		if p.ID == id {
			s.patients = append(s.patients[:i], s.patients[i+1:]...)
			return nil
		}
	}
	return ErrPatientNotFound
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(&stubRepo{})

	if _, err := svc.Create(context.Background(), Patient{}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}

	created, err := svc.Create(context.Background(), Patient{Name: "Mona Hassan"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Error("no id assigned")
	}
}

func TestListClampsPagination(t *testing.T) {
	repo := &stubRepo{}
	for i := 0; i < 25; i++ {
		repo.patients = append(repo.patients, Patient{ID: uuid.New(), Name: "p"})
	}
	svc := NewService(repo)

	tests := []struct {
		name               string
		page, limit        int
		wantLimit, wantOff int
		wantPage           int
	}{
		{"defaults", 0, 0, 10, 0, 1},
		{"negative page", -3, 10, 10, 0, 1},
		{"limit capped at 100", 1, 500, 100, 0, 1},
		{"second page", 2, 10, 10, 10, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.List(context.Background(), tt.page, tt.limit)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if repo.lastLimit != tt.wantLimit || repo.lastOff != tt.wantOff {
				t.Errorf("repo got limit=%d offset=%d, want %d/%d", repo.lastLimit, repo.lastOff, tt.wantLimit, tt.wantOff)
			}
			if result.Page != tt.wantPage || result.Total != 25 {
				t.Errorf("page=%d total=%d", result.Page, result.Total)
			}
		})
	}

	result, _ := svc.List(context.Background(), 1, 10)
	if result.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", result.TotalPages)
	}
}
