package patient

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ehr/patientlookup/pkg/pagination"
)

// MemoryRepository keeps patients in a map. Stored values are copies, so
// callers never share memory with the store.
type MemoryRepository struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]*Patient
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{patients: make(map[uuid.UUID]*Patient)}
}

func (r *MemoryRepository) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients[p.ID] = p.clone()
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[p.ID]; !ok {
		return ErrNotFound
	}
	r.patients[p.ID] = p.clone()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return ErrNotFound
	}
	delete(r.patients, id)
	return nil
}

func (r *MemoryRepository) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.patients[id]
	return ok, nil
}

func (r *MemoryRepository) List(_ context.Context, page pagination.Request) ([]*Patient, int, error) {
	items, total := r.find(func(*Patient) bool { return true }, page)
	return items, total, nil
}

func (r *MemoryRepository) SearchByName(_ context.Context, name string, page pagination.Request) ([]*Patient, int, error) {
	needle := strings.ToLower(name)
	items, total := r.find(func(p *Patient) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}, page)
	return items, total, nil
}

// find returns the sorted page window of matching patients and the total
// number of matches, both taken from one snapshot.
func (r *MemoryRepository) find(match func(*Patient) bool, page pagination.Request) ([]*Patient, int) {
	r.mu.RLock()
	matched := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		if match(p) {
			matched = append(matched, p.clone())
		}
	}
	r.mu.RUnlock()

	compare := compareBy(page.SortBy)
	desc := page.Direction == pagination.Desc
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if c := compare(a, b); c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		return a.ID.String() < b.ID.String()
	})

	total := len(matched)
	start := page.Offset()
	if start < 0 || start >= total || page.Size <= 0 {
		return nil, total
	}
	end := start + page.Size
	if end > total || end < start {
		end = total
	}
	return matched[start:end], total
}

// compareBy returns a three-way comparison for a sort field. A missing email
// sorts after any present one, as NULLs do in PostgreSQL ascending order.
func compareBy(field string) func(a, b *Patient) int {
	switch field {
	case "dateOfBirth":
		return func(a, b *Patient) int { return a.DateOfBirth.Compare(b.DateOfBirth) }
	case "createdAt":
		return func(a, b *Patient) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case "updatedAt":
		return func(a, b *Patient) int { return a.UpdatedAt.Compare(b.UpdatedAt) }
	case "email":
		return func(a, b *Patient) int {
			switch {
			case a.Email == nil && b.Email == nil:
				return 0
			case a.Email == nil:
				return 1
			case b.Email == nil:
				return -1
			}
			return strings.Compare(*a.Email, *b.Email)
		}
	default:
		return compareNames
	}
}

// compareNames orders names case-insensitively, falling back to byte order
// so that names differing only in case still sort deterministically.
func compareNames(a, b *Patient) int {
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
