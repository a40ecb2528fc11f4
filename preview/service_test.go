package preview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/inmem"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

const emptyReport = `
Transshipment share
transshipment proportion (in TEU):       0.00 (-%)
hinterland proportion (in TEU):          0.00 (-%)

Inbound modal split
truck proportion (in TEU):        0.0 (-%)
barge proportion (in TEU):        0.0 (-%)
train proportion (in TEU):        0.0 (-%)

Outbound modal split
truck proportion (in TEU):        0.0 (-%)
barge proportion (in TEU):        0.0 (-%)
train proportion (in TEU):        0.0 (-%)

Absolute modal split (both inbound and outbound)
truck proportion (in TEU):        0.0 (-%)
barge proportion (in TEU):        0.0 (-%)
train proportion (in TEU):        0.0 (-%)
(rounding errors might exist)
`

const singleFeederReport = `
Transshipment share
transshipment proportion (in TEU):      90.00 (25.00%)
hinterland proportion (in TEU):        270.00 (75.00%)

Inbound modal split
truck proportion (in TEU):       60.0 (100.00%)
barge proportion (in TEU):        0.0 (0.00%)
train proportion (in TEU):        0.0 (0.00%)

Outbound modal split
truck proportion (in TEU):       60.0 (28.57%)
barge proportion (in TEU):       30.0 (14.29%)
train proportion (in TEU):      120.0 (57.14%)

Absolute modal split (both inbound and outbound)
truck proportion (in TEU):      120.0 (44.44%)
barge proportion (in TEU):       30.0 (11.11%)
train proportion (in TEU):      120.0 (44.44%)
(rounding errors might exist)
`

var now = time.Date(2021, time.June, 1, 14, 12, 5, 0, time.UTC)

func transitions() distribution.Table {
	toSea := distribution.Row{mode.Feeder: 0.5, mode.DeepSeaVessel: 0.5}
	fromSea := distribution.Row{
		mode.Truck:         0.2,
		mode.Train:         0.4,
		mode.Barge:         0.1,
		mode.Feeder:        0.15,
		mode.DeepSeaVessel: 0.15,
	}
	return distribution.Table{
		mode.Truck:         toSea,
		mode.Train:         toSea,
		mode.Barge:         toSea,
		mode.Feeder:        fromSea,
		mode.DeepSeaVessel: fromSea,
	}
}

func singleFeeder() schedule.Schedule {
	return schedule.Schedule{
		ID:                     "F1",
		VehicleType:            mode.Feeder,
		ServiceName:            "TestFeederService",
		FirstArrival:           now.Add(7 * 24 * time.Hour),
		AverageVehicleCapacity: 400,
		AverageMovedCapacity:   300,
		RecurrenceIntervalDays: schedule.SingleArrival,
	}
}

type scenario struct {
	schedules     schedule.Repository
	windows       schedule.WindowRepository
	distributions distribution.Repository
}

func newScenario(t *testing.T, schedules ...schedule.Schedule) scenario {
	t.Helper()
	ctx := context.Background()
	sc := scenario{
		schedules:     inmem.NewScheduleRepository(),
		windows:       inmem.NewWindowRepository(),
		distributions: inmem.NewDistributionRepository(),
	}
	if err := sc.distributions.Set(ctx, transitions()); err != nil {
		t.Fatalf("Set distribution: %v", err)
	}
	if err := sc.windows.StoreWindow(ctx, schedule.Window{Start: now, End: now.Add(14 * 24 * time.Hour)}); err != nil {
		t.Fatalf("StoreWindow: %v", err)
	}
	for _, s := range schedules {
		if err := sc.schedules.Store(ctx, s); err != nil {
			t.Fatalf("Store schedule: %v", err)
		}
	}
	return sc
}

func (sc scenario) service() Service {
	return NewService(NewInputs(sc.schedules, sc.windows, sc.distributions))
}

func TestModalSplitReportWithoutSchedules(t *testing.T) {
	s := newScenario(t).service()
	got, err := s.ModalSplitReport(context.Background())
	if err != nil {
		t.Fatalf("ModalSplitReport returned error: %v", err)
	}
	if got != emptyReport {
		t.Fatalf("unexpected report:\n%s", got)
	}
}

func TestModalSplitReportSingleFeederCall(t *testing.T) {
	s := newScenario(t, singleFeeder()).service()
	got, err := s.ModalSplitReport(context.Background())
	if err != nil {
		t.Fatalf("ModalSplitReport returned error: %v", err)
	}
	if got != singleFeederReport {
		t.Fatalf("unexpected report:\n%s", got)
	}
}

func TestModalSplitReportIsRepeatable(t *testing.T) {
	s := newScenario(t, singleFeeder()).service()
	first, err := s.ModalSplitReport(context.Background())
	if err != nil {
		t.Fatalf("ModalSplitReport returned error: %v", err)
	}
	second, err := s.ModalSplitReport(context.Background())
	if err != nil {
		t.Fatalf("ModalSplitReport returned error: %v", err)
	}
	if first != second {
		t.Fatalf("reports differ:\n%s\n%s", first, second)
	}
}

func TestModalSplitReflectsChanges(t *testing.T) {
	sc := newScenario(t)
	s := sc.service()
	before, _ := s.ModalSplit(context.Background())
	if err := sc.schedules.Store(context.Background(), singleFeeder()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	after, err := s.ModalSplit(context.Background())
	if err != nil {
		t.Fatalf("ModalSplit returned error: %v", err)
	}
	if before.Transshipment != 0 || after.Transshipment != 90 {
		t.Fatalf("transshipment before %v after %v, want 0 and 90", before.Transshipment, after.Transshipment)
	}
}

func TestModalSplitNotConfigured(t *testing.T) {
	t.Run("distribution", func(t *testing.T) {
		s := NewService(NewInputs(inmem.NewScheduleRepository(), inmem.NewWindowRepository(), inmem.NewDistributionRepository()))
		if _, err := s.ModalSplitReport(context.Background()); !errors.Is(err, distribution.ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}
	})
	t.Run("window", func(t *testing.T) {
		dists := inmem.NewDistributionRepository()
		if err := dists.Set(context.Background(), transitions()); err != nil {
			t.Fatal(err)
		}
		s := NewService(NewInputs(inmem.NewScheduleRepository(), inmem.NewWindowRepository(), dists))
		if _, err := s.ModalSplit(context.Background()); !errors.Is(err, schedule.ErrNoWindow) {
			t.Fatalf("expected ErrNoWindow, got %v", err)
		}
	})
}

type countingInputs struct {
	Inputs
	schedules, windows, distributions int
}

func (c *countingInputs) Schedules(ctx context.Context) ([]schedule.Schedule, error) {
	c.schedules++
	return c.Inputs.Schedules(ctx)
}

func (c *countingInputs) Window(ctx context.Context) (schedule.Window, error) {
	c.windows++
	return c.Inputs.Window(ctx)
}

func (c *countingInputs) Distribution(ctx context.Context) (distribution.Table, error) {
	c.distributions++
	return c.Inputs.Distribution(ctx)
}

func TestModalSplitReadsInputsOnce(t *testing.T) {
	sc := newScenario(t, singleFeeder())
	inputs := &countingInputs{Inputs: NewInputs(sc.schedules, sc.windows, sc.distributions)}
	if _, err := NewService(inputs).ModalSplitReport(context.Background()); err != nil {
		t.Fatalf("ModalSplitReport returned error: %v", err)
	}
	if inputs.schedules != 1 || inputs.windows != 1 || inputs.distributions != 1 {
		t.Fatalf("inputs read %d/%d/%d times, want once each", inputs.schedules, inputs.windows, inputs.distributions)
	}
}
