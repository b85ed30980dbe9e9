// Package runjournal records the outcome of every processed target, good
// or bad, so failed targets can be found and resubmitted in a later run.
// It is bookkeeping beside the ledger, never a source of truth for ids.
package runjournal

import (
	"context"
	"database/sql"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens (or creates) the journal database at path and applies the
// schema.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

type Outcome struct {
	Target     string
	Stage      string
	ClipId     int64
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

func (s Store) Record(ctx context.Context, o Outcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO target_outcome (target, stage, clip_id, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.Target, o.Stage, o.ClipId, o.Error, o.StartedAt.Unix(), o.FinishedAt.Unix(),
	)
	return err
}

// Recent returns the newest outcomes first, at most limit of them.
func (s Store) Recent(ctx context.Context, limit int) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target, stage, clip_id, error, started_at, finished_at
		FROM target_outcome
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		var started, finished int64
		err := rows.Scan(&o.Target, &o.Stage, &o.ClipId, &o.Error, &started, &finished)
		if err != nil {
			return nil, err
		}
		o.StartedAt = time.Unix(started, 0)
		o.FinishedAt = time.Unix(finished, 0)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
