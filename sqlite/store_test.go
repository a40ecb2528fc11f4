package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "scenario.sqlite"), log.NewNopLogger())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSchedules(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	arrival := time.Date(2021, time.June, 8, 14, 12, 5, 0, time.UTC)
	a := schedule.Schedule{ID: "A", VehicleType: mode.Feeder, ServiceName: "feeder", FirstArrival: arrival,
		AverageVehicleCapacity: 400, AverageMovedCapacity: 300, RecurrenceIntervalDays: schedule.SingleArrival}
	b := schedule.Schedule{ID: "B", VehicleType: mode.DeepSeaVessel, ServiceName: "vessel", FirstArrival: arrival,
		AverageVehicleCapacity: 8000, AverageMovedCapacity: 1200, RecurrenceIntervalDays: 7}

	for _, sch := range []schedule.Schedule{a, b} {
		if err := s.Store(ctx, sch); err != nil {
			t.Fatalf("Store(%s) returned error: %v", sch.ID, err)
		}
	}

	got, err := s.Find(ctx, "B")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if got.VehicleType != mode.DeepSeaVessel || got.RecurrenceIntervalDays != 7 || !got.FirstArrival.Equal(arrival) {
		t.Fatalf("Find = %+v", got)
	}

	a.ServiceName = "renamed"
	if err := s.Store(ctx, a); err != nil {
		t.Fatalf("Store(update) returned error: %v", err)
	}
	all, err := s.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	if len(all) != 2 || all[0].ID != "A" || all[0].ServiceName != "renamed" || all[1].ID != "B" {
		t.Fatalf("FindAll = %+v", all)
	}

	if err := s.Remove(ctx, "A"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, err := s.Find(ctx, "A"); !errors.Is(err, schedule.ErrUnknown) {
		t.Fatalf("Find after Remove = %v, want ErrUnknown", err)
	}
	if err := s.Remove(ctx, "A"); !errors.Is(err, schedule.ErrUnknown) {
		t.Fatalf("Remove(again) = %v, want ErrUnknown", err)
	}
}

func TestStoreWindow(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, err := s.Window(ctx); !errors.Is(err, schedule.ErrNoWindow) {
		t.Fatalf("Window before StoreWindow = %v, want ErrNoWindow", err)
	}
	start := time.Date(2021, time.June, 1, 9, 30, 0, 0, time.UTC)
	for _, days := range []int{14, 21} {
		w := schedule.Window{Start: start, End: start.AddDate(0, 0, days)}
		if err := s.StoreWindow(ctx, w); err != nil {
			t.Fatalf("StoreWindow returned error: %v", err)
		}
		got, err := s.Window(ctx)
		if err != nil {
			t.Fatalf("Window returned error: %v", err)
		}
		if !got.Start.Equal(w.Start) || !got.End.Equal(w.End) {
			t.Fatalf("Window = %+v, want %+v", got, w)
		}
	}
}

func TestStoreDistribution(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, err := s.Table(ctx); !errors.Is(err, distribution.ErrNotConfigured) {
		t.Fatalf("Table before Set = %v, want ErrNotConfigured", err)
	}

	first := distribution.Table{
		mode.Feeder: {mode.Truck: 0.2, mode.Train: 0.8},
		mode.Truck:  {mode.Feeder: 1},
	}
	if err := s.Set(ctx, first); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	bad := distribution.Table{mode.Barge: {mode.Truck: 0.3}}
	var verr *distribution.ValidationError
	if err := s.Set(ctx, bad); !errors.As(err, &verr) {
		t.Fatalf("Set(bad) = %v, want ValidationError", err)
	}

	second := distribution.Table{mode.Barge: {mode.DeepSeaVessel: 1}}
	if err := s.Set(ctx, second); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	got, err := s.Table(ctx)
	if err != nil {
		t.Fatalf("Table returned error: %v", err)
	}
	if len(got) != 1 || got[mode.Barge][mode.DeepSeaVessel] != 1 {
		t.Fatalf("Table = %v, want only the second table", got)
	}
}

func TestReopenKeepsScenario(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scenario.sqlite")

	s, err := Open(ctx, path, log.NewNopLogger())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	w := schedule.Window{Start: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)}
	if err := s.StoreWindow(ctx, w); err != nil {
		t.Fatalf("StoreWindow returned error: %v", err)
	}
	s.Close()

	s, err = Open(ctx, path, log.NewNopLogger())
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer s.Close()
	got, err := s.Window(ctx)
	if err != nil || !got.End.Equal(w.End) {
		t.Fatalf("Window after reopen = %+v, %v", got, err)
	}
}
