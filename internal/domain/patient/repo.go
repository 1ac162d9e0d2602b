package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/hie/mpi/internal/mpi"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	// FindCandidates returns the blocking cohort for a subject: every patient
	// sharing the subject's date of birth and birth gender.
	FindCandidates(ctx context.Context, dob string, gender mpi.Gender) ([]*Patient, error)
}
