package patient

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/patientlookup/pkg/pagination"
)

func seedMemory(t *testing.T, names ...string) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository()
	for i, n := range names {
		p := &Patient{
			ID:          uuid.New(),
			Name:        n,
			DateOfBirth: date(1990+i, 1, 1),
			CreatedAt:   fixedNow.Add(time.Duration(i) * time.Second),
			UpdatedAt:   fixedNow.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(context.Background(), p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	return repo
}

func names(items []*Patient) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return out
}

func TestMemoryRepository_StoresCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	p := &Patient{ID: uuid.New(), Name: "Anna"}
	repo.Create(ctx, p)

	p.Name = "changed"
	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Anna" {
		t.Errorf("store aliased caller value: %s", got.Name)
	}

	got.Name = "changed again"
	again, _ := repo.GetByID(ctx, p.ID)
	if again.Name != "Anna" {
		t.Errorf("store aliased returned value: %s", again.Name)
	}
}

func TestMemoryRepository_NotFound(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	id := uuid.New()

	if _, err := repo.GetByID(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, &Patient{ID: id}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete: expected ErrNotFound, got %v", err)
	}
	if ok, _ := repo.Exists(ctx, id); ok {
		t.Error("expected Exists to be false")
	}
}

func TestMemoryRepository_ListSorting(t *testing.T) {
	repo := seedMemory(t, "Carla", "anna", "Bob")
	ctx := context.Background()

	items, total, err := repo.List(ctx, pagination.Request{Size: 10, SortBy: "name", Direction: pagination.Asc})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3, got %d", total)
	}
	want := []string{"anna", "Bob", "Carla"}
	for i, n := range names(items) {
		if n != want[i] {
			t.Errorf("position %d: got %s, want %s", i, n, want[i])
		}
	}

	items, _, _ = repo.List(ctx, pagination.Request{Size: 10, SortBy: "createdAt", Direction: pagination.Desc})
	want = []string{"Bob", "anna", "Carla"}
	for i, n := range names(items) {
		if n != want[i] {
			t.Errorf("createdAt desc position %d: got %s, want %s", i, n, want[i])
		}
	}
}

func TestMemoryRepository_EmailSortsMissingLast(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	b := "b@example.com"
	a := "a@example.com"
	repo.Create(ctx, &Patient{ID: uuid.New(), Name: "none"})
	repo.Create(ctx, &Patient{ID: uuid.New(), Name: "bee", Email: &b})
	repo.Create(ctx, &Patient{ID: uuid.New(), Name: "ay", Email: &a})

	items, _, _ := repo.List(ctx, pagination.Request{Size: 10, SortBy: "email", Direction: pagination.Asc})
	got := names(items)
	if got[0] != "ay" || got[1] != "bee" || got[2] != "none" {
		t.Errorf("unexpected order %v", got)
	}
}

func TestMemoryRepository_Window(t *testing.T) {
	repo := seedMemory(t, "A", "B", "C", "D", "E")
	ctx := context.Background()

	items, total, _ := repo.List(ctx, pagination.Request{Page: 1, Size: 2, SortBy: "name", Direction: pagination.Asc})
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	got := names(items)
	if len(got) != 2 || got[0] != "C" || got[1] != "D" {
		t.Errorf("unexpected window %v", got)
	}

	items, _, _ = repo.List(ctx, pagination.Request{Page: 2, Size: 2, SortBy: "name", Direction: pagination.Asc})
	if got := names(items); len(got) != 1 || got[0] != "E" {
		t.Errorf("unexpected last window %v", got)
	}

	items, _, _ = repo.List(ctx, pagination.Request{Page: 9, Size: 2, SortBy: "name", Direction: pagination.Asc})
	if len(items) != 0 {
		t.Errorf("expected empty window, got %v", names(items))
	}
}

func TestMemoryRepository_WindowOutOfRange(t *testing.T) {
	repo := seedMemory(t, "A", "B")
	page := pagination.Request{Page: math.MaxInt/2 + 1, Size: 2, SortBy: "name", Direction: pagination.Asc}

	items, total, err := repo.List(context.Background(), page)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(items) != 0 {
		t.Errorf("expected empty window of 2, got %d items, total %d", len(items), total)
	}
}

func TestMemoryRepository_NameSortIgnoresCase(t *testing.T) {
	repo := seedMemory(t, "bob", "Anna", "alice", "Bob")

	items, _, _ := repo.List(context.Background(), pagination.Request{Size: 10, SortBy: "name", Direction: pagination.Asc})
	want := []string{"alice", "Anna", "Bob", "bob"}
	got := names(items)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order %v, want %v", got, want)
		}
	}
}

func TestMemoryRepository_SearchByName(t *testing.T) {
	repo := seedMemory(t, "Anna", "Bob", "Fernando", "JOAN")

	items, total, err := repo.SearchByName(context.Background(), "an", pagination.Request{Size: 10, SortBy: "name", Direction: pagination.Asc})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 matches, got %d: %v", total, names(items))
	}
	for _, n := range names(items) {
		if n == "Bob" {
			t.Error("Bob should not match")
		}
	}
}

func TestMemoryRepository_Concurrent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	page := pagination.Request{Size: 10, SortBy: "name", Direction: pagination.Asc}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			repo.Create(ctx, &Patient{ID: uuid.New(), Name: "P"})
		}()
		go func() {
			defer wg.Done()
			repo.List(ctx, page)
		}()
	}
	wg.Wait()

	_, total, _ := repo.List(ctx, page)
	if total != 20 {
		t.Errorf("expected 20 patients, got %d", total)
	}
}
