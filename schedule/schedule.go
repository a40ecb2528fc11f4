package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pborman/uuid"

	"github.com/Qalifah/flowpreview/mode"
)

// ID uniquely identifies a vehicle call schedule
type ID string

// SingleArrival is the recurrence interval of a schedule that calls only once.
const SingleArrival = -1

// Schedule describes the calls of a ship, train or barge service at the
// terminal.
type Schedule struct {
	ID                     ID        `json:"id"`
	VehicleType            mode.Mode `json:"vehicle_type"`
	ServiceName            string    `json:"service_name"`
	FirstArrival           time.Time `json:"first_arrival"`
	AverageVehicleCapacity float64   `json:"average_vehicle_capacity"`
	AverageMovedCapacity   float64   `json:"average_moved_capacity"`
	RecurrenceIntervalDays int       `json:"recurrence_interval_days"`
}

// New creates a schedule with a freshly generated ID.
func New(vehicleType mode.Mode, serviceName string, firstArrival time.Time, vehicleCapacity, movedCapacity float64, intervalDays int) Schedule {
	return Schedule{
		ID:                     NextID(),
		VehicleType:            vehicleType,
		ServiceName:            serviceName,
		FirstArrival:           firstArrival,
		AverageVehicleCapacity: vehicleCapacity,
		AverageMovedCapacity:   movedCapacity,
		RecurrenceIntervalDays: intervalDays,
	}
}

// IsPeriodic reports whether the vehicle returns at a fixed interval.
func (s Schedule) IsPeriodic() bool {
	return s.RecurrenceIntervalDays > 0
}

// Validate checks the schedule before it is stored.
func (s Schedule) Validate() error {
	if !s.VehicleType.Valid() {
		return fmt.Errorf("schedule %q: %w", s.ServiceName, mode.ErrUnknown)
	}
	if s.FirstArrival.IsZero() {
		return fmt.Errorf("schedule %q: first arrival is missing", s.ServiceName)
	}
	if s.AverageVehicleCapacity < 0 || s.AverageMovedCapacity < 0 {
		return fmt.Errorf("schedule %q: capacities must not be negative", s.ServiceName)
	}
	if s.AverageMovedCapacity > s.AverageVehicleCapacity {
		return fmt.Errorf("schedule %q: moved capacity %v exceeds vehicle capacity %v",
			s.ServiceName, s.AverageMovedCapacity, s.AverageVehicleCapacity)
	}
	return checkInterval(s)
}

func checkInterval(s Schedule) error {
	if s.RecurrenceIntervalDays == 0 || s.RecurrenceIntervalDays < SingleArrival {
		return &ConfigurationError{ScheduleID: s.ID, ServiceName: s.ServiceName, Interval: s.RecurrenceIntervalDays}
	}
	return nil
}

// ConfigurationError is returned for a schedule with an unusable recurrence interval.
type ConfigurationError struct {
	ScheduleID  ID
	ServiceName string
	Interval    int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("schedule %s (%q): invalid recurrence interval %d, must be positive or %d",
		e.ScheduleID, e.ServiceName, e.Interval, SingleArrival)
}

// ErrUnknown is used when a schedule can't be found
var ErrUnknown = errors.New("unknown schedule")

// Repository provides access to the schedule store
type Repository interface {
	Store(ctx context.Context, s Schedule) error
	Find(ctx context.Context, id ID) (Schedule, error)
	FindAll(ctx context.Context) ([]Schedule, error)
	Remove(ctx context.Context, id ID) error
}

// NextID generates a new schedule ID.
func NextID() ID {
	return ID(strings.Split(strings.ToUpper(uuid.New()), "-")[0])
}
