package scenario

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

type instrumentingService struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	Service
}

// NewInstrumentingService returns an instance of an instrumenting Service.
func NewInstrumentingService(counter metrics.Counter, latency metrics.Histogram, s Service) Service {
	return &instrumentingService{
		requestCount:   counter,
		requestLatency: latency,
		Service:        s,
	}
}

func (s *instrumentingService) observe(method string, begin time.Time) {
	s.requestCount.With("method", method).Add(1)
	s.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (s *instrumentingService) SetDistribution(ctx context.Context, t distribution.Table) error {
	defer s.observe("set_distribution", time.Now())
	return s.Service.SetDistribution(ctx, t)
}

func (s *instrumentingService) Distribution(ctx context.Context) (distribution.Table, error) {
	defer s.observe("distribution", time.Now())
	return s.Service.Distribution(ctx)
}

func (s *instrumentingService) SetWindow(ctx context.Context, start, end time.Time) error {
	defer s.observe("set_window", time.Now())
	return s.Service.SetWindow(ctx, start, end)
}

func (s *instrumentingService) Window(ctx context.Context) (schedule.Window, error) {
	defer s.observe("window", time.Now())
	return s.Service.Window(ctx)
}

func (s *instrumentingService) AddSchedule(ctx context.Context, vehicleType mode.Mode, serviceName string, firstArrival time.Time,
	vehicleCapacity, movedCapacity float64, intervalDays int) (schedule.ID, error) {
	defer s.observe("add_schedule", time.Now())
	return s.Service.AddSchedule(ctx, vehicleType, serviceName, firstArrival, vehicleCapacity, movedCapacity, intervalDays)
}

func (s *instrumentingService) Schedules(ctx context.Context) ([]schedule.Schedule, error) {
	defer s.observe("schedules", time.Now())
	return s.Service.Schedules(ctx)
}

func (s *instrumentingService) RemoveSchedule(ctx context.Context, id schedule.ID) error {
	defer s.observe("remove_schedule", time.Now())
	return s.Service.RemoveSchedule(ctx, id)
}

func (s *instrumentingService) ListDatabases(ctx context.Context) ([]string, error) {
	defer s.observe("list_databases", time.Now())
	return s.Service.ListDatabases(ctx)
}

func (s *instrumentingService) CreateDatabase(ctx context.Context, name string) error {
	defer s.observe("create_database", time.Now())
	return s.Service.CreateDatabase(ctx, name)
}

func (s *instrumentingService) LoadDatabase(ctx context.Context, name string) error {
	defer s.observe("load_database", time.Now())
	return s.Service.LoadDatabase(ctx, name)
}

func (s *instrumentingService) CloseDatabase(ctx context.Context) error {
	defer s.observe("close_database", time.Now())
	return s.Service.CloseDatabase(ctx)
}
