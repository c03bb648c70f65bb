package patient

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/patientlookup/internal/platform/db"
	"github.com/ehr/patientlookup/pkg/pagination"
)

// TestPatientRepoPG_Live runs against a real database when TEST_DATABASE_URL
// is set. It migrates the schema and works inside one rolled-back transaction.
func TestPatientRepoPG_Live(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, url, 2, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if _, err := db.NewMigrator(pool, filepath.Join("..", "..", "..", "migrations")).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback(ctx)

	svc := NewService(NewPatientRepoPG(tx))
	svc.SetClock(func() time.Time { return fixedNow.Add(123456789) })

	created := make(map[string]uuid.UUID)
	for _, n := range []string{"Anna", "Bob", "Fernando"} {
		resp, err := svc.Create(ctx, PatientFields{Name: n, DateOfBirth: date(2014, 3, 9), Email: strPtr(n + "@example.com")})
		if err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
		created[n] = resp.ID
	}

	got, found, err := svc.GetByID(ctx, created["Anna"])
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.Name != "Anna" || got.DateOfBirth != "2014-03-09" || got.Age != 10 || *got.Email != "Anna@example.com" {
		t.Errorf("unexpected patient %+v", got)
	}
	if !got.CreatedAt.Equal(svc.Now()) {
		t.Errorf("createdAt did not round trip: %v vs %v", got.CreatedAt, svc.Now())
	}

	page := pagination.Request{Size: 10, SortBy: "name", Direction: pagination.Asc}
	env, err := svc.List(ctx, "AN", page)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if env.Count < 2 {
		t.Errorf("expected at least 2 matches, got %d", env.Count)
	}
	for _, p := range env.Result {
		if p.ID == created["Bob"] {
			t.Error("Bob should not match")
		}
	}

	patched, found, err := svc.Patch(ctx, created["Bob"], []FieldUpdate{EmailUpdate{}})
	if err != nil || !found {
		t.Fatalf("patch: found=%v err=%v", found, err)
	}
	if patched.Email != nil {
		t.Errorf("expected email cleared, got %v", *patched.Email)
	}

	if found, err := svc.Delete(ctx, created["Fernando"]); err != nil || !found {
		t.Fatalf("delete: found=%v err=%v", found, err)
	}
	if _, found, _ := svc.GetByID(ctx, created["Fernando"]); found {
		t.Error("expected Fernando deleted")
	}
}
