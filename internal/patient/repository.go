package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrPatientNotFound = errors.New("patient not found")

type Repository interface {
	Create(ctx context.Context, p Patient) (*Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, limit, offset int) ([]Patient, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, id uuid.UUID, patch UpdatePatch) (*Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UpdatePatch carries the fields a PUT may change; nil means leave as is.
type UpdatePatch struct {
	Name       *string
	NationalID *string
	Phone      *string
	Email      *string
	Age        *int
	Gender     *string
}
