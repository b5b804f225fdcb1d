package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"signal-watcher/internal/cooldown"
	"signal-watcher/internal/signal"
)

// FileBackend persists cooldown records as a flat JSON file, keyed
// "SYMBOL:signal_type" with RFC3339 timestamps. Used when no database is
// configured.
type FileBackend struct {
	path   string
	logger zerolog.Logger
}

// NewFileBackend constructs a file-based cooldown backend.
func NewFileBackend(path string, logger zerolog.Logger) *FileBackend {
	return &FileBackend{
		path:   path,
		logger: logger.With().Str("component", "history_file").Logger(),
	}
}

// LoadRecords reads the history file. A missing file is an empty set, not an
// error; a corrupt file is an error so the caller can log and start fresh.
func (f *FileBackend) LoadRecords(ctx context.Context) (map[cooldown.Key]time.Time, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[cooldown.Key]time.Time{}, nil
		}
		return nil, fmt.Errorf("read history file: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}

	records := make(map[cooldown.Key]time.Time, len(raw))
	for key, stamp := range raw {
		symbol, typeKey, ok := strings.Cut(key, ":")
		if !ok {
			f.logger.Warn().Str("key", key).Msg("skipping malformed history key")
			continue
		}
		typ, ok := signal.ParseType(typeKey)
		if !ok {
			f.logger.Warn().Str("key", key).Msg("skipping unknown signal type")
			continue
		}
		firedAt, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			f.logger.Warn().Str("key", key).Str("value", stamp).Msg("skipping unparseable timestamp")
			continue
		}
		records[cooldown.Key{Symbol: symbol, Signal: typ}] = firedAt
	}

	return records, nil
}

// SaveRecords writes the full record set back to the history file.
func (f *FileBackend) SaveRecords(ctx context.Context, records map[cooldown.Key]time.Time) error {
	raw := make(map[string]string, len(records))
	for key, firedAt := range records {
		raw[key.Symbol+":"+key.Signal.String()] = firedAt.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

var _ cooldown.Backend = (*FileBackend)(nil)
