// Package postgres persists a scenario in PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/go-kit/kit/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Qalifah/flowpreview/distribution"
	"github.com/Qalifah/flowpreview/migrate"
	"github.com/Qalifah/flowpreview/mode"
	"github.com/Qalifah/flowpreview/schedule"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store keeps a scenario in PostgreSQL tables.
type Store struct {
	db *pgxpool.Pool
}

// New connects to dsn and migrates the schema.
func New(ctx context.Context, dsn string, logger log.Logger) (*Store, error) {
	poolCfg, err := buildPoolConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	m := migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", "", migrate.Postgres), logger)
	if err := m.Up(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	return &Store{db: pool}, nil
}

func buildPoolConfig(dsn string) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx pool config: %w", err)
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.StatementCacheCapacity = 0
	poolCfg.ConnConfig.DescriptionCacheCapacity = 0

	return poolCfg, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) Store(ctx context.Context, sch schedule.Schedule) error {
	const query = `
		INSERT INTO schedules (
			id,
			vehicle_type,
			service_name,
			first_arrival,
			average_vehicle_capacity,
			average_moved_capacity,
			recurrence_interval_days
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			vehicle_type = EXCLUDED.vehicle_type,
			service_name = EXCLUDED.service_name,
			first_arrival = EXCLUDED.first_arrival,
			average_vehicle_capacity = EXCLUDED.average_vehicle_capacity,
			average_moved_capacity = EXCLUDED.average_moved_capacity,
			recurrence_interval_days = EXCLUDED.recurrence_interval_days
	`

	_, err := s.db.Exec(ctx, query,
		string(sch.ID),
		sch.VehicleType.String(),
		sch.ServiceName,
		sch.FirstArrival,
		sch.AverageVehicleCapacity,
		sch.AverageMovedCapacity,
		sch.RecurrenceIntervalDays,
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

const selectSchedules = `
	SELECT
		id,
		vehicle_type,
		service_name,
		first_arrival,
		average_vehicle_capacity,
		average_moved_capacity,
		recurrence_interval_days
	FROM schedules
`

func (s *Store) Find(ctx context.Context, id schedule.ID) (schedule.Schedule, error) {
	sch, err := scanSchedule(s.db.QueryRow(ctx, selectSchedules+" WHERE id = $1", string(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Schedule{}, schedule.ErrUnknown
		}
		return schedule.Schedule{}, fmt.Errorf("query schedule by id: %w", err)
	}
	return sch, nil
}

func (s *Store) FindAll(ctx context.Context) ([]schedule.Schedule, error) {
	rows, err := s.db.Query(ctx, selectSchedules+" ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []schedule.Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, sch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return schedules, nil
}

func (s *Store) Remove(ctx context.Context, id schedule.ID) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM schedules WHERE id = $1", string(id))
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrUnknown
	}
	return nil
}

func (s *Store) StoreWindow(ctx context.Context, w schedule.Window) error {
	const query = `
		INSERT INTO generation_window (id, start_date, end_date)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date
	`

	if _, err := s.db.Exec(ctx, query, w.Start, w.End); err != nil {
		return fmt.Errorf("upsert generation window: %w", err)
	}
	return nil
}

func (s *Store) Window(ctx context.Context) (schedule.Window, error) {
	var w schedule.Window
	err := s.db.QueryRow(ctx, "SELECT start_date, end_date FROM generation_window WHERE id = 1").Scan(&w.Start, &w.End)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Window{}, schedule.ErrNoWindow
		}
		return schedule.Window{}, fmt.Errorf("query generation window: %w", err)
	}
	return w, nil
}

// Set replaces the whole distribution in one transaction.
func (s *Store) Set(ctx context.Context, t distribution.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin distribution update: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM mode_of_transport_distribution"); err != nil {
		return fmt.Errorf("clear distribution: %w", err)
	}

	batch := &pgx.Batch{}
	for source, row := range t {
		for target, fraction := range row {
			batch.Queue(
				"INSERT INTO mode_of_transport_distribution (source, target, fraction) VALUES ($1, $2, $3)",
				source.String(), target.String(), fraction,
			)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert distribution: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit distribution update: %w", err)
	}
	return nil
}

func (s *Store) Table(ctx context.Context) (distribution.Table, error) {
	rows, err := s.db.Query(ctx, "SELECT source, target, fraction FROM mode_of_transport_distribution")
	if err != nil {
		return nil, fmt.Errorf("query distribution: %w", err)
	}
	defer rows.Close()

	t := make(distribution.Table)
	for rows.Next() {
		var (
			source, target string
			fraction       float64
		)
		if err := rows.Scan(&source, &target, &fraction); err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		from, err := mode.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		to, err := mode.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("scan distribution: %w", err)
		}
		if t[from] == nil {
			t[from] = make(distribution.Row)
		}
		t[from][to] = fraction
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distribution: %w", err)
	}
	if len(t) == 0 {
		return nil, distribution.ErrNotConfigured
	}
	return t, nil
}

func scanSchedule(row pgx.Row) (schedule.Schedule, error) {
	var (
		sch         schedule.Schedule
		id          string
		vehicleType string
	)
	err := row.Scan(
		&id,
		&vehicleType,
		&sch.ServiceName,
		&sch.FirstArrival,
		&sch.AverageVehicleCapacity,
		&sch.AverageMovedCapacity,
		&sch.RecurrenceIntervalDays,
	)
	if err != nil {
		return schedule.Schedule{}, err
	}
	sch.ID = schedule.ID(id)
	if sch.VehicleType, err = mode.Parse(vehicleType); err != nil {
		return schedule.Schedule{}, err
	}
	return sch, nil
}
