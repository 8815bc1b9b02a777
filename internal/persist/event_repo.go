package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRow identifies one simulation run. Every event row references it.
type RunRow struct {
	ID        uuid.UUID
	Seed      string
	MapName   string
	StartedAt time.Time
}

// EventRow is one persisted telemetry event.
type EventRow struct {
	RunID     uuid.UUID
	Seq       uint64 // per-run emission order
	Name      string
	Fields    map[string]string
	CreatedAt time.Time
}

// EventStore is the write side shared by the Postgres and SQLite repos.
type EventStore interface {
	CreateRun(ctx context.Context, run RunRow) error
	// InsertEvents writes the batch in a single transaction.
	InsertEvents(ctx context.Context, rows []EventRow) error
}

func encodeFields(f map[string]string) ([]byte, error) {
	if len(f) == 0 {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return b, nil
}

// EventRepo stores telemetry in Postgres.
type EventRepo struct {
	db *DB
}

func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) CreateRun(ctx context.Context, run RunRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO telemetry_runs (run_id, seed, map_name, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Seed, run.MapName, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *EventRepo) InsertEvents(ctx context.Context, rows []EventRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("events begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range rows {
		fields, err := encodeFields(e.Fields)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO telemetry_events (run_id, seq, name, fields, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.RunID, int64(e.Seq), e.Name, fields, e.CreatedAt,
		); err != nil {
			return fmt.Errorf("events insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// SQLiteEventRepo stores telemetry in a SQLite database. Timestamps are
// unix milliseconds.
type SQLiteEventRepo struct {
	db *sql.DB
}

func NewSQLiteEventRepo(db *sql.DB) *SQLiteEventRepo {
	return &SQLiteEventRepo{db: db}
}

func (r *SQLiteEventRepo) CreateRun(ctx context.Context, run RunRow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO telemetry_runs (run_id, seed, map_name, started_at) VALUES (?, ?, ?, ?)`,
		run.ID.String(), run.Seed, run.MapName, run.StartedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepo) InsertEvents(ctx context.Context, rows []EventRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("events begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO telemetry_events (run_id, seq, name, fields, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("events prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range rows {
		fields, err := encodeFields(e.Fields)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			e.RunID.String(), int64(e.Seq), e.Name, string(fields), e.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("events insert: %w", err)
		}
	}

	return tx.Commit()
}

// CountEvents returns how many events of name the run recorded. An empty
// name counts every event.
func (r *SQLiteEventRepo) CountEvents(ctx context.Context, runID uuid.UUID, name string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM telemetry_events WHERE run_id = ? AND (? = '' OR name = ?)`,
		runID.String(), name, name,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// LoadEvents returns the run's events in emission order.
func (r *SQLiteEventRepo) LoadEvents(ctx context.Context, runID uuid.UUID) ([]EventRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, name, fields, created_at FROM telemetry_events WHERE run_id = ? ORDER BY seq`,
		runID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var (
			seq     int64
			fields  string
			created int64
			e       = EventRow{RunID: runID}
		)
		if err := rows.Scan(&seq, &e.Name, &fields, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &e.Fields); err != nil {
			return nil, fmt.Errorf("decode fields: %w", err)
		}
		e.Seq = uint64(seq)
		e.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
