package sqlite

import (
	"context"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/schedule"
)

// CurrentStore serves the scenario repositories from whichever database the
// chooser has open. Without an open database every call fails with
// ErrNoCurrentConnection.
type CurrentStore struct {
	chooser *Chooser
}

// NewCurrentStore returns repositories backed by the chooser's open database.
func NewCurrentStore(c *Chooser) *CurrentStore {
	return &CurrentStore{chooser: c}
}

func (c *CurrentStore) Store(ctx context.Context, sch schedule.Schedule) error {
	return c.chooser.use(func(s *Store) error {
		return s.Store(ctx, sch)
	})
}

func (c *CurrentStore) Find(ctx context.Context, id schedule.ID) (sch schedule.Schedule, err error) {
	err = c.chooser.use(func(s *Store) error {
		sch, err = s.Find(ctx, id)
		return err
	})
	return sch, err
}

func (c *CurrentStore) FindAll(ctx context.Context) (schedules []schedule.Schedule, err error) {
	err = c.chooser.use(func(s *Store) error {
		schedules, err = s.FindAll(ctx)
		return err
	})
	return schedules, err
}

func (c *CurrentStore) Remove(ctx context.Context, id schedule.ID) error {
	return c.chooser.use(func(s *Store) error {
		return s.Remove(ctx, id)
	})
}

func (c *CurrentStore) StoreWindow(ctx context.Context, w schedule.Window) error {
	return c.chooser.use(func(s *Store) error {
		return s.StoreWindow(ctx, w)
	})
}

func (c *CurrentStore) Window(ctx context.Context) (w schedule.Window, err error) {
	err = c.chooser.use(func(s *Store) error {
		w, err = s.Window(ctx)
		return err
	})
	return w, err
}

func (c *CurrentStore) Set(ctx context.Context, t distribution.Table) error {
	return c.chooser.use(func(s *Store) error {
		return s.Set(ctx, t)
	})
}

func (c *CurrentStore) Table(ctx context.Context) (t distribution.Table, err error) {
	err = c.chooser.use(func(s *Store) error {
		t, err = s.Table(ctx)
		return err
	})
	return t, err
}
