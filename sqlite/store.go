// Package sqlite persists a scenario in an SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	_ "modernc.org/sqlite"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/migrate"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps the schedules, the generation window and the transition
// distribution of one scenario.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the database at path and migrates it to the latest schema.
func Open(ctx context.Context, path string, logger log.Logger) (*Store, error) {
	const op = "sqlite.Open"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// a single connection serialises writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	m := migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", "", migrate.SQLite), logger)
	if err := m.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Store(ctx context.Context, sch schedule.Schedule) error {
	const op = "sqlite.Store.Store"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, vehicle_type, service_name, first_arrival,
			average_vehicle_capacity, average_moved_capacity, recurrence_interval_days)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			vehicle_type = excluded.vehicle_type,
			service_name = excluded.service_name,
			first_arrival = excluded.first_arrival,
			average_vehicle_capacity = excluded.average_vehicle_capacity,
			average_moved_capacity = excluded.average_moved_capacity,
			recurrence_interval_days = excluded.recurrence_interval_days`,
		string(sch.ID), sch.VehicleType.String(), sch.ServiceName, formatTime(sch.FirstArrival),
		sch.AverageVehicleCapacity, sch.AverageMovedCapacity, sch.RecurrenceIntervalDays,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

const selectSchedules = `
	SELECT id, vehicle_type, service_name, first_arrival,
		average_vehicle_capacity, average_moved_capacity, recurrence_interval_days
	FROM schedules`

func (s *Store) Find(ctx context.Context, id schedule.ID) (schedule.Schedule, error) {
	const op = "sqlite.Store.Find"

	sch, err := scanSchedule(s.db.QueryRowContext(ctx, selectSchedules+" WHERE id = ?", string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Schedule{}, schedule.ErrUnknown
	}
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("%s: %w", op, err)
	}
	return sch, nil
}

// FindAll returns the schedules in the order they were first stored.
func (s *Store) FindAll(ctx context.Context) ([]schedule.Schedule, error) {
	const op = "sqlite.Store.FindAll"

	rows, err := s.db.QueryContext(ctx, selectSchedules+" ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var schedules []schedule.Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		schedules = append(schedules, sch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return schedules, nil
}

func (s *Store) Remove(ctx context.Context, id schedule.ID) error {
	const op = "sqlite.Store.Remove"

	res, err := s.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return schedule.ErrUnknown
	}
	return nil
}

func (s *Store) StoreWindow(ctx context.Context, w schedule.Window) error {
	const op = "sqlite.Store.StoreWindow"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_window (id, start_date, end_date) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET start_date = excluded.start_date, end_date = excluded.end_date`,
		formatTime(w.Start), formatTime(w.End),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Window(ctx context.Context) (schedule.Window, error) {
	const op = "sqlite.Store.Window"

	var start, end string
	err := s.db.QueryRowContext(ctx, "SELECT start_date, end_date FROM generation_window WHERE id = 1").Scan(&start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Window{}, schedule.ErrNoWindow
	}
	if err != nil {
		return schedule.Window{}, fmt.Errorf("%s: %w", op, err)
	}

	var w schedule.Window
	if w.Start, err = parseTime(start); err != nil {
		return schedule.Window{}, fmt.Errorf("%s: %w", op, err)
	}
	if w.End, err = parseTime(end); err != nil {
		return schedule.Window{}, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}

// Set replaces the whole distribution in one transaction.
func (s *Store) Set(ctx context.Context, t distribution.Table) error {
	const op = "sqlite.Store.Set"

	if err := t.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM mode_of_transport_distribution"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for source, row := range t {
		for target, fraction := range row {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO mode_of_transport_distribution (source, target, fraction) VALUES (?, ?, ?)",
				source.String(), target.String(), fraction,
			)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) Table(ctx context.Context) (distribution.Table, error) {
	const op = "sqlite.Store.Table"

	rows, err := s.db.QueryContext(ctx, "SELECT source, target, fraction FROM mode_of_transport_distribution")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	t := make(distribution.Table)
	for rows.Next() {
		var source, target string
		var fraction float64
		if err := rows.Scan(&source, &target, &fraction); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := addTransition(t, source, target, fraction); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(t) == 0 {
		return nil, distribution.ErrNotConfigured
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row scanner) (schedule.Schedule, error) {
	var (
		sch          schedule.Schedule
		id           string
		vehicleType  string
		firstArrival string
	)
	err := row.Scan(&id, &vehicleType, &sch.ServiceName, &firstArrival,
		&sch.AverageVehicleCapacity, &sch.AverageMovedCapacity, &sch.RecurrenceIntervalDays)
	if err != nil {
		return schedule.Schedule{}, err
	}
	sch.ID = schedule.ID(id)
	if sch.VehicleType, err = mode.Parse(vehicleType); err != nil {
		return schedule.Schedule{}, err
	}
	if sch.FirstArrival, err = parseTime(firstArrival); err != nil {
		return schedule.Schedule{}, err
	}
	return sch, nil
}

func addTransition(t distribution.Table, source, target string, fraction float64) error {
	from, err := mode.Parse(source)
	if err != nil {
		return err
	}
	to, err := mode.Parse(target)
	if err != nil {
		return err
	}
	if t[from] == nil {
		t[from] = make(distribution.Row)
	}
	t[from][to] = fraction
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
