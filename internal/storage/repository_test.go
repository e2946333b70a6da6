package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"financecalc/internal/finance"
)

func newTestRepository(t *testing.T) *PolicyRepository {
	t.Helper()
	repo, err := NewPolicyRepository(filepath.Join(t.TempDir(), "data", "policy.db"))
	if err != nil {
		t.Fatalf("NewPolicyRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSeededPolicyMatchesDefault(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := finance.DefaultTaxPolicy(); !reflect.DeepEqual(got, want) {
		t.Errorf("seeded policy = %+v\nwant %+v", got, want)
	}
}

func TestSaveActivatesPolicy(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	next := finance.TaxPolicy{
		Name:              "india-new-regime",
		FiscalYear:        "2025-26",
		StandardDeduction: 75000,
		RebateThreshold:   1200000,
		CessRate:          4,
		Slabs: []finance.TaxSlab{
			{UpperBound: 400000, Rate: 0},
			{UpperBound: 800000, Rate: 5},
			{Rate: 30},
		},
	}
	id, err := repo.Save(ctx, next)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id <= 1 {
		t.Errorf("Save() id = %d, expected after the seeded policy", id)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, next) {
		t.Errorf("Load() = %+v\nwant %+v", got, next)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d policies", len(list))
	}
	if !list[0].Active || list[1].Active {
		t.Errorf("only the newest policy should be active: %+v", list)
	}
}

func TestSaveRejectsInvalidPolicy(t *testing.T) {
	repo := newTestRepository(t)
	if _, err := repo.Save(context.Background(), finance.TaxPolicy{Name: "empty"}); err == nil {
		t.Fatal("expected validation error")
	}
	got, err := repo.Load(context.Background())
	if err != nil || got.FiscalYear != "2024-25" {
		t.Errorf("active policy changed: %+v, %v", got, err)
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")

	first, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("first RunMigrations() error = %v", err)
	}
	if !first.Applied || first.Version != 2 || first.Dirty {
		t.Errorf("first status = %+v", first)
	}

	second, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
	if second.Applied || second.Version != 2 {
		t.Errorf("second status = %+v", second)
	}
}
