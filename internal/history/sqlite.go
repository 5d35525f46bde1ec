// Package history persists instrument status changes to SQLite so operators
// can audit when an instrument opened or closed. The tracker itself stays
// memory-only; the journal only records the notifications it emits.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"markethours/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS status_changes (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol  TEXT    NOT NULL,
	is_open INTEGER NOT NULL,
	at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_status_changes_symbol_at
	ON status_changes (symbol, at DESC);
`

// SQLiteJournal stores status-change records in a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at dbPath and ensures the
// schema exists.
func Open(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

// Record appends a batch of status changes in one transaction.
func (j *SQLiteJournal) Record(ctx context.Context, changes []domain.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning journal tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO status_changes (symbol, is_open, at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing journal insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range changes {
		isOpen := 0
		if c.IsOpen {
			isOpen = 1
		}
		if _, err := stmt.ExecContext(ctx, c.Symbol, isOpen, c.At.UTC().Unix()); err != nil {
			return fmt.Errorf("inserting journal row for %s: %w", c.Symbol, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit of the most recent status changes for symbol,
// newest first.
func (j *SQLiteJournal) Recent(ctx context.Context, symbol string, limit int) ([]domain.StatusChange, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT symbol, is_open, at FROM status_changes
		 WHERE symbol = ? ORDER BY at DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var (
			c      domain.StatusChange
			isOpen int
			at     int64
		)
		if err := rows.Scan(&c.Symbol, &isOpen, &at); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		c.IsOpen = isOpen != 0
		c.At = time.Unix(at, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}
