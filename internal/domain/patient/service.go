package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/patientlookup/pkg/pagination"
)

// Service owns patient lifecycle rules. Lookups report absence through a
// found flag rather than an error.
type Service struct {
	repo PatientRepository
	now  func() time.Time
}

// NewService creates a service backed by repo, using the UTC wall clock.
func NewService(repo PatientRepository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// SetClock replaces the time source used for timestamps and age.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Now returns the current time truncated to the microsecond precision that
// PostgreSQL stores.
func (s *Service) Now() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) List(ctx context.Context, nameFilter string, page pagination.Request) (*pagination.Envelope[PatientResponse], error) {
	page = page.Clamp()

	var (
		items []*Patient
		total int
		err   error
	)
	if strings.TrimSpace(nameFilter) != "" {
		items, total, err = s.repo.SearchByName(ctx, nameFilter, page)
	} else {
		items, total, err = s.repo.List(ctx, page)
	}
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return pagination.NewEnvelope(ToResponses(items, s.Now()), total, page.Page), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*PatientResponse, bool, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get patient %s: %w", id, err)
	}
	return ToResponse(p, s.Now()), true, nil
}

// Create stores a new patient. f must already be validated.
func (s *Service) Create(ctx context.Context, f PatientFields) (*PatientResponse, error) {
	now := s.Now()
	p := &Patient{
		ID:          uuid.New(),
		Name:        f.Name,
		DateOfBirth: f.DateOfBirth,
		Email:       f.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return ToResponse(p, now), nil
}

// Update overwrites name, date of birth and email, including when the new
// email is nil.
func (s *Service) Update(ctx context.Context, id uuid.UUID, f PatientFields) (*PatientResponse, bool, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get patient %s: %w", id, err)
	}

	p.Name = f.Name
	p.DateOfBirth = f.DateOfBirth
	p.Email = f.Email
	return s.save(ctx, p)
}

// Patch applies updates in order. An empty list only refreshes updatedAt.
func (s *Service) Patch(ctx context.Context, id uuid.UUID, updates []FieldUpdate) (*PatientResponse, bool, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get patient %s: %w", id, err)
	}

	for _, u := range updates {
		u.apply(p)
	}
	return s.save(ctx, p)
}

func (s *Service) save(ctx context.Context, p *Patient) (*PatientResponse, bool, error) {
	now := s.Now()
	p.UpdatedAt = now
	if p.UpdatedAt.Before(p.CreatedAt) {
		p.UpdatedAt = p.CreatedAt
	}

	err := s.repo.Update(ctx, p)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("update patient %s: %w", p.ID, err)
	}
	return ToResponse(p, now), true, nil
}

// Delete removes a patient, reporting false when none existed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check patient %s: %w", id, err)
	}
	if !exists {
		return false, nil
	}

	err = s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete patient %s: %w", id, err)
	}
	return true, nil
}
