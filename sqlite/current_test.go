package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

var (
	_ schedule.Repository       = (*CurrentStore)(nil)
	_ schedule.WindowRepository = (*CurrentStore)(nil)
	_ distribution.Repository   = (*CurrentStore)(nil)
)

func TestCurrentStoreWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	s := NewCurrentStore(NewChooser(t.TempDir(), log.NewNopLogger()))

	if _, err := s.FindAll(ctx); !errors.Is(err, ErrNoCurrentConnection) {
		t.Errorf("FindAll = %v, want ErrNoCurrentConnection", err)
	}
	if _, err := s.Window(ctx); !errors.Is(err, ErrNoCurrentConnection) {
		t.Errorf("Window = %v, want ErrNoCurrentConnection", err)
	}
	if err := s.Set(ctx, distribution.Table{mode.Truck: {mode.Feeder: 1}}); !errors.Is(err, ErrNoCurrentConnection) {
		t.Errorf("Set = %v, want ErrNoCurrentConnection", err)
	}
}

func TestCurrentStoreFollowsChooser(t *testing.T) {
	ctx := context.Background()
	c := NewChooser(t.TempDir(), log.NewNopLogger())
	s := NewCurrentStore(c)

	if err := c.Create(ctx, "first"); err != nil {
		t.Fatalf("Create(first) returned error: %v", err)
	}
	arrival := time.Date(2021, time.June, 8, 14, 0, 0, 0, time.UTC)
	sch := schedule.Schedule{ID: "A", VehicleType: mode.Feeder, ServiceName: "feeder", FirstArrival: arrival,
		AverageVehicleCapacity: 400, AverageMovedCapacity: 300, RecurrenceIntervalDays: 7}
	if err := s.Store(ctx, sch); err != nil {
		t.Fatalf("Store returned error: %v", err)
	}
	w := schedule.Window{Start: arrival, End: arrival.AddDate(0, 0, 14)}
	if err := s.StoreWindow(ctx, w); err != nil {
		t.Fatalf("StoreWindow returned error: %v", err)
	}

	if err := c.Create(ctx, "second"); err != nil {
		t.Fatalf("Create(second) returned error: %v", err)
	}
	all, err := s.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("new database has %d schedules, want none", len(all))
	}
	if _, err := s.Window(ctx); !errors.Is(err, schedule.ErrNoWindow) {
		t.Fatalf("Window = %v, want ErrNoWindow", err)
	}

	if err := c.Load(ctx, "first"); err != nil {
		t.Fatalf("Load(first) returned error: %v", err)
	}
	got, err := s.Find(ctx, "A")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if got.ServiceName != "feeder" || got.RecurrenceIntervalDays != 7 {
		t.Fatalf("Find = %+v", got)
	}
	if err := s.Remove(ctx, "A"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := s.Find(ctx, "A"); !errors.Is(err, ErrNoCurrentConnection) {
		t.Fatalf("Find after Close = %v, want ErrNoCurrentConnection", err)
	}
}
