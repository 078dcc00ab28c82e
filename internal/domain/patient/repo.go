package patient

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage operations for patients.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]*Patient, int, error)
	Search(ctx context.Context, q string, limit int) ([]*Patient, error)
	Stats(ctx context.Context) (*Stats, error)
}
