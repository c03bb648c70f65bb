package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ehr/patientlookup/pkg/pagination"
)

// ErrNotFound is returned by repositories when no row matches an id.
var ErrNotFound = errors.New("patient not found")

// PatientRepository persists patients. Lookups of unknown ids return ErrNotFound.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, page pagination.Request) ([]*Patient, int, error)
	// SearchByName matches name as a case-insensitive substring.
	SearchByName(ctx context.Context, name string, page pagination.Request) ([]*Patient, int, error)
}

// SortFields are the accepted sortBy values. The first is the default.
var SortFields = []string{"name", "dateOfBirth", "email", "createdAt", "updatedAt"}

var sortColumns = map[string]string{
	"name":        "name",
	"dateOfBirth": "date_of_birth",
	"email":       "email",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}
