// Package inmem provides in-memory implementations of the scenario repositories.
package inmem

import (
	"context"
	"sync"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/schedule"
)

type scheduleRepository struct {
	mtx       sync.RWMutex
	schedules map[schedule.ID]schedule.Schedule
	order     []schedule.ID
}

// NewScheduleRepository returns a new instance of an in-memory schedule repository.
func NewScheduleRepository() schedule.Repository {
	return &scheduleRepository{
		schedules: make(map[schedule.ID]schedule.Schedule),
	}
}

func (r *scheduleRepository) Store(_ context.Context, s schedule.Schedule) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.schedules[s.ID]; !ok {
		r.order = append(r.order, s.ID)
	}
	r.schedules[s.ID] = s
	return nil
}

func (r *scheduleRepository) Find(_ context.Context, id schedule.ID) (schedule.Schedule, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if s, ok := r.schedules[id]; ok {
		return s, nil
	}
	return schedule.Schedule{}, schedule.ErrUnknown
}

// FindAll returns the schedules in the order they were first stored.
func (r *scheduleRepository) FindAll(_ context.Context) ([]schedule.Schedule, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	s := make([]schedule.Schedule, 0, len(r.order))
	for _, id := range r.order {
		s = append(s, r.schedules[id])
	}
	return s, nil
}

func (r *scheduleRepository) Remove(_ context.Context, id schedule.ID) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.schedules[id]; !ok {
		return schedule.ErrUnknown
	}
	delete(r.schedules, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

type windowRepository struct {
	mtx    sync.RWMutex
	window *schedule.Window
}

// NewWindowRepository returns a new instance of an in-memory window repository.
func NewWindowRepository() schedule.WindowRepository {
	return &windowRepository{}
}

func (r *windowRepository) StoreWindow(_ context.Context, w schedule.Window) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.window = &w
	return nil
}

func (r *windowRepository) Window(_ context.Context) (schedule.Window, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if r.window == nil {
		return schedule.Window{}, schedule.ErrNoWindow
	}
	return *r.window, nil
}

// NewDistributionRepository returns the in-memory distribution store.
func NewDistributionRepository() distribution.Repository {
	return distribution.NewStore()
}
