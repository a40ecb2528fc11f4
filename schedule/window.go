package schedule

import (
	"context"
	"errors"
	"time"
)

// Window is the half-open period [Start, End) over which schedules are
// projected.
type Window struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

var (
	// ErrNoWindow is used when no generation window has been configured.
	ErrNoWindow = errors.New("generation window not configured")

	// ErrInvalidWindow is used when a window does not end after it starts.
	ErrInvalidWindow = errors.New("generation window must end after it starts")
)

// Validate checks that the window is not empty.
func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether t lies within [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WindowRepository provides access to the configured generation window.
type WindowRepository interface {
	StoreWindow(ctx context.Context, w Window) error
	Window(ctx context.Context) (Window, error)
}
