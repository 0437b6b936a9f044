package unitconvhistory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
	"unitconv"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := []Entry{
		{Category: "Length", Value: 1, FromUnit: "Kilometer", ToUnit: "Meter", Result: unitconv.NewDecimalFromFloat(1000), CreatedAt: base},
		{Category: "Mass", Value: 1, FromUnit: "Kilogram", ToUnit: "Gram", Result: unitconv.NewDecimalFromFloat(1000), CreatedAt: base.Add(time.Second)},
		{Category: "Plane Angle", Value: 180, FromUnit: "Degree", ToUnit: "Radian", Result: unitconv.NewDecimalFromFloat(3.14159265), CreatedAt: base.Add(2 * time.Second)},
	}
	for _, in := range inputs {
		got, err := s.Record(ctx, in)
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if got.ID == uuid.Nil {
			t.Error("Record() did not assign an ID")
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() len = %d, want 3", len(all))
	}
	if all[0].Category != "Plane Angle" || all[2].Category != "Length" {
		t.Errorf("List() order = %q..%q, want newest first", all[0].Category, all[2].Category)
	}
	if got := all[0].Result.Float64(); got != 3.1416 {
		t.Errorf("Result = %v, want 3.1416", got)
	}
	if !all[1].CreatedAt.Equal(base.Add(time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", all[1].CreatedAt, base.Add(time.Second))
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("List(2) len = %d, want 2", len(limited))
	}
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec, err := s.Record(ctx, Entry{Category: "Time", Value: 1, FromUnit: "Hour", ToUnit: "Minute", Result: unitconv.NewDecimalFromFloat(60)})
	if err != nil {
		t.Fatal(err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Record() did not assign CreatedAt")
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ToUnit != "Minute" || got.Result.Float64() != 60 {
		t.Errorf("Get() = %+v", got)
	}

	if _, err := s.Get(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Record(ctx, Entry{Category: "Speed", Value: 36, FromUnit: "km/h", ToUnit: "m/s", Result: unitconv.NewDecimalFromFloat(10)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("List() after Clear() len = %d, want 0", len(all))
	}
}

func TestStore_DuplicateID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	e := Entry{ID: uuid.New(), Category: "Length", FromUnit: "Meter", ToUnit: "Foot"}
	if _, err := s.Record(ctx, e); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Record(ctx, e); err == nil {
		t.Error("Record() error = nil, want primary key violation")
	}
}
