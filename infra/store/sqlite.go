// Package store persists disaggregation reports.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/amice/core/disagg"
)

// ErrRunExists is returned when a report with the same run id was already saved.
var ErrRunExists = errors.New("run already stored")

// Run is the stored summary of one disaggregation run.
type Run struct {
	ID       string    `json:"run_id"`
	Created  time.Time `json:"created"`
	Matches  int       `json:"matches"`
	Residual int       `json:"residual"`
}

// SQLiteStore persists reports in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    created INTEGER,
    matches INTEGER,
    residual INTEGER
);
CREATE TABLE IF NOT EXISTS matches (
    run_id TEXT REFERENCES runs(run_id),
    seq INTEGER,
    appliance TEXT,
    anchor REAL,
    absolute_anchor REAL,
    feature_error REAL,
    time_error REAL,
    ids TEXT,
    PRIMARY KEY(run_id, seq)
);`

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save stores the report and its matches in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, rep disagg.Report, at time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	var n int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, rep.RunID).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%s: %w", rep.RunID, ErrRunExists)
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO runs (run_id, created, matches, residual) VALUES (?, ?, ?, ?)`,
		rep.RunID, at.UnixMilli(), len(rep.Results), rep.Residual); err != nil {
		return err
	}
	for i, r := range rep.Results {
		ids, merr := json.Marshal(r.IDs)
		if merr != nil {
			return merr
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO matches
        (run_id, seq, appliance, anchor, absolute_anchor, feature_error, time_error, ids)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rep.RunID, i, r.Appliance, r.Anchor, r.AbsoluteAnchor, r.FeatureErr, r.TimeErr, string(ids)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Runs returns the stored runs, oldest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, created, matches, residual FROM runs ORDER BY created, run_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Run
	for rows.Next() {
		var r Run
		var ms int64
		if err := rows.Scan(&r.ID, &ms, &r.Matches, &r.Residual); err != nil {
			return nil, err
		}
		r.Created = time.UnixMilli(ms).UTC()
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Results returns the matches of a run in commit order.
func (s *SQLiteStore) Results(ctx context.Context, runID string) ([]disagg.Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT appliance, anchor, absolute_anchor, feature_error, time_error, ids
        FROM matches WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []disagg.Result
	for rows.Next() {
		var r disagg.Result
		var ids string
		if err := rows.Scan(&r.Appliance, &r.Anchor, &r.AbsoluteAnchor, &r.FeatureErr, &r.TimeErr, &ids); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(ids), &r.IDs); err != nil {
			return nil, fmt.Errorf("decode ids: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
