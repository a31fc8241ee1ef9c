// Package payout records a payout work order for every accepted dispatch
// order. Records are derived data: they can always be rebuilt from the
// ledger's ORDER_ACCEPTED events.
package payout

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lightningtw/dispatchd/core/ledger"
	"github.com/lightningtw/dispatchd/core/model"
)

// Record is one payout row awaiting settlement.
type Record struct {
	OrderID   string    `json:"order_id"`
	Platform  string    `json:"platform"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists payout records in SQLite. Inserts are idempotent per order
// id so ledger backfills can run repeatedly.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at path and ensures schema.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS payouts (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        order_id TEXT NOT NULL UNIQUE,
        platform TEXT NOT NULL,
        amount REAL NOT NULL,
        created_at TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &Store{db: db}, nil
}

// Add inserts a record, ignoring duplicates for the same order id.
func (s *Store) Add(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO payouts (order_id, platform, amount, created_at) VALUES (?, ?, ?, ?)`,
		rec.OrderID, rec.Platform, rec.Amount, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// List returns all payout records ordered by insertion.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id, platform, amount, created_at FROM payouts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var rec Record
		var ts string
		if err := rows.Scan(&rec.OrderID, &rec.Platform, &rec.Amount, &ts); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// RebuildFromLedger backfills payout records from ORDER_ACCEPTED events.
func (s *Store) RebuildFromLedger(ctx context.Context, lstore ledger.Store) (int, error) {
	events, err := lstore.ReplayAll(ctx)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, ev := range events {
		if ev.Type != model.EventOrderAccepted {
			continue
		}
		id, _ := ev.Data["order_id"].(string)
		if id == "" {
			continue
		}
		platform, _ := ev.Data["platform"].(string)
		amount, _ := ev.Data["price"].(float64)
		if err := s.Add(ctx, Record{OrderID: id, Platform: platform, Amount: amount, CreatedAt: ev.Timestamp}); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
