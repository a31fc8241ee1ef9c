package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lightningtw/dispatchd/core/logger"
	"github.com/lightningtw/dispatchd/core/model"
)

// JSONLStore persists the ledger as newline-delimited JSON, one event per
// line. Appends are serialized by a mutex so concurrent cycles keep a total
// order, and each append is fsynced before returning.
type JSONLStore struct {
	path string
	log  logger.Logger
	mu   sync.Mutex
}

// NewJSONLStore creates the ledger file (and its directory) if needed.
func NewJSONLStore(path string, log logger.Logger) (*JSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLStore{path: path, log: log}, nil
}

func (s *JSONLStore) Append(ctx context.Context, typ model.EventType, data map[string]any) (model.Event, error) {
	ev := model.Event{Timestamp: time.Now().UTC(), Type: typ, Data: data}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return model.Event{}, err
	}
	defer func() { _ = f.Close() }()
	if err := json.NewEncoder(f).Encode(ev); err != nil {
		return model.Event{}, err
	}
	if err := f.Sync(); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

func (s *JSONLStore) ReplayAll(ctx context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var res []model.Event
	skipped := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev model.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			skipped++
			continue
		}
		res = append(res, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if skipped > 0 && s.log != nil {
		s.log.Warnf("ledger replay skipped %d malformed line(s) in %s", skipped, s.path)
	}
	return res, nil
}

func (s *JSONLStore) Close() error { return nil }
