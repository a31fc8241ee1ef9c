package cyclelog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingJSONLStore stores cycle records in a JSONL file with automatic
// size-based rotation. The retention loop may also force a rotation.
type RotatingJSONLStore struct {
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &RotatingJSONLStore{logger: lj, path: path}, nil
}

// Append writes the record and triggers rotation if needed.
func (s *RotatingJSONLStore) Append(ctx context.Context, rec CycleRecord) error {
	_ = ctx
	return json.NewEncoder(s.logger).Encode(rec)
}

// Rotate forces a rotation of the current file.
func (s *RotatingJSONLStore) Rotate() error { return s.logger.Rotate() }

// ReadAll reads all records including rotated, uncompressed files.
func (s *RotatingJSONLStore) ReadAll(ctx context.Context) ([]CycleRecord, error) {
	_ = ctx
	files, err := filepath.Glob(s.path + "*")
	if err != nil {
		return nil, err
	}
	var res []CycleRecord
	for _, name := range files {
		if filepath.Ext(name) == ".gz" {
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var r CycleRecord
			if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
				continue
			}
			res = append(res, r)
		}
		_ = f.Close()
	}
	return res, nil
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error { return s.logger.Close() }
