package distribution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/Qalifah/flowpreview/mode"
)

// Tolerance is the allowed deviation of a row sum from 1.
const Tolerance = 1e-6

// Row maps each target mode to the probability that a container arriving
// by the row's source mode leaves the terminal by it.
type Row map[mode.Mode]float64

// Table is the mode of transport transition distribution, indexed by the
// mode a container arrives with.
type Table map[mode.Mode]Row

// ErrNotConfigured is used when no transition distribution has been set.
var ErrNotConfigured = errors.New("mode of transport distribution not configured")

// ValidationError reports a transition row that does not sum up to 1.
type ValidationError struct {
	Mode mode.Mode
	Sum  float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("distribution for %s sums up to %v instead of 1", e.Mode, e.Sum)
}

// Validate checks that every row of the table sums up to 1 within Tolerance
// and only contains known, non-negative, finite probabilities. Rows and
// targets are checked in mode order.
func (t Table) Validate() error {
	for _, source := range mode.All {
		row, ok := t[source]
		if !ok {
			continue
		}
		if target, ok := unknownMode(row); ok {
			return fmt.Errorf("transition from %s: %w: %d", source, mode.ErrUnknown, int(target))
		}
		values := make([]float64, 0, len(row))
		for _, target := range mode.All {
			p, ok := row[target]
			if !ok {
				continue
			}
			if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return fmt.Errorf("transition from %s to %s has invalid probability %v", source, target, p)
			}
			values = append(values, p)
		}
		if sum := floats.Sum(values); math.Abs(sum-1) > Tolerance {
			return &ValidationError{Mode: source, Sum: sum}
		}
	}
	if source, ok := unknownMode(t); ok {
		return fmt.Errorf("%w: %d", mode.ErrUnknown, int(source))
	}
	return nil
}

// unknownMode returns the smallest key of m that is not a known mode.
func unknownMode[V any](m map[mode.Mode]V) (mode.Mode, bool) {
	var (
		found   bool
		unknown mode.Mode
	)
	for k := range m {
		if !k.Valid() && (!found || k < unknown) {
			unknown, found = k, true
		}
	}
	return unknown, found
}

// Get returns the transition row of source.
func (t Table) Get(source mode.Mode) (Row, error) {
	if t == nil {
		return nil, ErrNotConfigured
	}
	row, ok := t[source]
	if !ok {
		return nil, fmt.Errorf("%w: no transitions from %s", ErrNotConfigured, source)
	}
	return row, nil
}

// Copy returns a deep copy of the table.
func (t Table) Copy() Table {
	if t == nil {
		return nil
	}
	c := make(Table, len(t))
	for source, row := range t {
		r := make(Row, len(row))
		for target, p := range row {
			r[target] = p
		}
		c[source] = r
	}
	return c
}

// Repository provides access to the persisted transition distribution.
type Repository interface {
	Set(ctx context.Context, t Table) error
	Table(ctx context.Context) (Table, error)
}

// Store holds the single active transition distribution. A table is only
// ever replaced as a whole, after it passed validation.
type Store struct {
	mtx   sync.RWMutex
	table Table
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set validates t and replaces the stored table with a copy of it.
func (s *Store) Set(_ context.Context, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	c := t.Copy()
	if c == nil {
		c = Table{}
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.table = c
	return nil
}

// Get returns the transition row for source.
func (s *Store) Get(source mode.Mode) (Row, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	row, err := s.table.Get(source)
	if err != nil {
		return nil, err
	}
	c := make(Row, len(row))
	for target, p := range row {
		c[target] = p
	}
	return c, nil
}

// Table returns a snapshot of the stored table.
func (s *Store) Table(_ context.Context) (Table, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if s.table == nil {
		return nil, ErrNotConfigured
	}
	return s.table.Copy(), nil
}
