package scenario

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

type loggingService struct {
	logger log.Logger
	Service
}

// NewLoggingService returns a new instance of a logging Service.
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{logger, s}
}

func (s *loggingService) SetDistribution(ctx context.Context, t distribution.Table) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "set_distribution",
			"rows", len(t),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.SetDistribution(ctx, t)
}

func (s *loggingService) Distribution(ctx context.Context) (t distribution.Table, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "distribution",
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.Distribution(ctx)
}

func (s *loggingService) SetWindow(ctx context.Context, start, end time.Time) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "set_window",
			"start", start,
			"end", end,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.SetWindow(ctx, start, end)
}

func (s *loggingService) Window(ctx context.Context) (w schedule.Window, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "window",
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.Window(ctx)
}

func (s *loggingService) AddSchedule(ctx context.Context, vehicleType mode.Mode, serviceName string, firstArrival time.Time,
	vehicleCapacity, movedCapacity float64, intervalDays int) (id schedule.ID, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "add_schedule",
			"vehicle_type", vehicleType,
			"service_name", serviceName,
			"first_arrival", firstArrival,
			"interval_days", intervalDays,
			"id", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.AddSchedule(ctx, vehicleType, serviceName, firstArrival, vehicleCapacity, movedCapacity, intervalDays)
}

func (s *loggingService) Schedules(ctx context.Context) (schedules []schedule.Schedule, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "schedules",
			"count", len(schedules),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.Schedules(ctx)
}

func (s *loggingService) RemoveSchedule(ctx context.Context, id schedule.ID) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "remove_schedule",
			"id", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.RemoveSchedule(ctx, id)
}

func (s *loggingService) ListDatabases(ctx context.Context) (names []string, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "list_databases",
			"count", len(names),
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.ListDatabases(ctx)
}

func (s *loggingService) CreateDatabase(ctx context.Context, name string) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "create_database",
			"name", name,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.CreateDatabase(ctx, name)
}

func (s *loggingService) LoadDatabase(ctx context.Context, name string) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "load_database",
			"name", name,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.LoadDatabase(ctx, name)
}

func (s *loggingService) CloseDatabase(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "close_database",
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.Service.CloseDatabase(ctx)
}
