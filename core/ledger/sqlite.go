package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lightningtw/dispatchd/core/logger"
	"github.com/lightningtw/dispatchd/core/model"
)

// SQLiteStore persists the ledger in a SQLite database. Rows are insert-only;
// the autoincrement id preserves append order.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string, log logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS ledger_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts TEXT NOT NULL,
        event_type TEXT NOT NULL,
        data TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, typ model.EventType, data map[string]any) (model.Event, error) {
	ev := model.Event{Timestamp: time.Now().UTC(), Type: typ, Data: data}
	b, err := json.Marshal(ev.Data)
	if err != nil {
		return model.Event{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ledger_events (ts, event_type, data) VALUES (?, ?, ?)`,
		ev.Timestamp.Format(time.RFC3339Nano), string(ev.Type), string(b))
	if err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (s *SQLiteStore) ReplayAll(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, event_type, data FROM ledger_events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Event
	skipped := 0
	for rows.Next() {
		var ts, typ, data string
		if err := rows.Scan(&ts, &typ, &data); err != nil {
			return nil, err
		}
		ev := model.Event{Type: model.EventType(typ)}
		if ev.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			skipped++
			continue
		}
		if err := json.Unmarshal([]byte(data), &ev.Data); err != nil {
			skipped++
			continue
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 && s.log != nil {
		s.log.Warnf("ledger replay skipped %d malformed row(s)", skipped)
	}
	return res, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
