// Package scenario provides the write side of the service: configuring the
// transition distribution, the generation window and the vehicle call
// schedules a preview is computed from.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

// ErrInvalidArgument is returned when one or more arguments are invalid.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNoDatabases is returned by the database methods when the scenario is
// not kept in switchable database files.
var ErrNoDatabases = errors.New("scenario databases are not supported by this storage")

// Databases switches between scenario database files.
type Databases interface {
	List() ([]string, error)
	Create(ctx context.Context, name string) error
	Load(ctx context.Context, name string) error
	Close() error
}

// Service is the interface that provides the scenario methods.
type Service interface {
	// SetDistribution replaces the mode of transport transition distribution.
	SetDistribution(ctx context.Context, t distribution.Table) error

	// Distribution returns the configured transition distribution.
	Distribution(ctx context.Context) (distribution.Table, error)

	// SetWindow configures the period schedules are projected over.
	SetWindow(ctx context.Context, start, end time.Time) error

	// Window returns the configured generation window.
	Window(ctx context.Context) (schedule.Window, error)

	// AddSchedule registers a new vehicle call schedule and returns its ID.
	AddSchedule(ctx context.Context, vehicleType mode.Mode, serviceName string, firstArrival time.Time,
		vehicleCapacity, movedCapacity float64, intervalDays int) (schedule.ID, error)

	// Schedules returns all registered schedules.
	Schedules(ctx context.Context) ([]schedule.Schedule, error)

	// RemoveSchedule drops a schedule.
	RemoveSchedule(ctx context.Context, id schedule.ID) error

	// ListDatabases returns the names of the scenario databases.
	ListDatabases(ctx context.Context) ([]string, error)

	// CreateDatabase creates a scenario database and switches to it.
	CreateDatabase(ctx context.Context, name string) error

	// LoadDatabase switches to an existing scenario database.
	LoadDatabase(ctx context.Context, name string) error

	// CloseDatabase closes the current scenario database.
	CloseDatabase(ctx context.Context) error
}

type service struct {
	schedules     schedule.Repository
	windows       schedule.WindowRepository
	distributions distribution.Repository
	databases     Databases
}

// NewService returns a new instance of the scenario Service. databases may
// be nil when the repositories are not backed by database files.
func NewService(schedules schedule.Repository, windows schedule.WindowRepository, distributions distribution.Repository,
	databases Databases) Service {
	return &service{
		schedules:     schedules,
		windows:       windows,
		distributions: distributions,
		databases:     databases,
	}
}

func (s *service) SetDistribution(ctx context.Context, t distribution.Table) error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty distribution", ErrInvalidArgument)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return s.distributions.Set(ctx, t)
}

func (s *service) Distribution(ctx context.Context) (distribution.Table, error) {
	return s.distributions.Table(ctx)
}

func (s *service) SetWindow(ctx context.Context, start, end time.Time) error {
	w := schedule.Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return s.windows.StoreWindow(ctx, w)
}

func (s *service) Window(ctx context.Context) (schedule.Window, error) {
	return s.windows.Window(ctx)
}

func (s *service) AddSchedule(ctx context.Context, vehicleType mode.Mode, serviceName string, firstArrival time.Time,
	vehicleCapacity, movedCapacity float64, intervalDays int) (schedule.ID, error) {
	if serviceName == "" {
		return "", fmt.Errorf("%w: service name is missing", ErrInvalidArgument)
	}

	sch := schedule.New(vehicleType, serviceName, firstArrival, vehicleCapacity, movedCapacity, intervalDays)
	if err := sch.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if err := s.schedules.Store(ctx, sch); err != nil {
		return "", err
	}
	return sch.ID, nil
}

func (s *service) Schedules(ctx context.Context) ([]schedule.Schedule, error) {
	return s.schedules.FindAll(ctx)
}

func (s *service) RemoveSchedule(ctx context.Context, id schedule.ID) error {
	if id == "" {
		return ErrInvalidArgument
	}
	return s.schedules.Remove(ctx, id)
}

func (s *service) ListDatabases(_ context.Context) ([]string, error) {
	if s.databases == nil {
		return nil, ErrNoDatabases
	}
	return s.databases.List()
}

func (s *service) CreateDatabase(ctx context.Context, name string) error {
	if s.databases == nil {
		return ErrNoDatabases
	}
	if name == "" {
		return fmt.Errorf("%w: database name is missing", ErrInvalidArgument)
	}
	return s.databases.Create(ctx, name)
}

func (s *service) LoadDatabase(ctx context.Context, name string) error {
	if s.databases == nil {
		return ErrNoDatabases
	}
	if name == "" {
		return fmt.Errorf("%w: database name is missing", ErrInvalidArgument)
	}
	return s.databases.Load(ctx, name)
}

func (s *service) CloseDatabase(_ context.Context) error {
	if s.databases == nil {
		return ErrNoDatabases
	}
	return s.databases.Close()
}
