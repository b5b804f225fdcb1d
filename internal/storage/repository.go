package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"signal-watcher/internal/cooldown"
	"signal-watcher/internal/signal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	loadCooldownsSQL = `SELECT symbol, signal_type, fired_at FROM cooldown_records;`

	deleteCooldownsSQL = `DELETE FROM cooldown_records;`

	insertCooldownSQL = `INSERT INTO cooldown_records (symbol, signal_type, fired_at)
    VALUES ($1,$2,$3)
    ON CONFLICT (symbol, signal_type) DO UPDATE
    SET fired_at = EXCLUDED.fired_at;`

	insertSignalSQL = `INSERT INTO signal_log (
        symbol,
        signal_type,
        priority,
        price,
        rsi,
        volume_ratio,
        change_24h_pct,
        fired_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    RETURNING id, symbol, signal_type, priority, price, rsi, volume_ratio, change_24h_pct, fired_at, created_at;`

	listRecentSignalsSQL = `SELECT
        id, symbol, signal_type, priority, price, rsi, volume_ratio, change_24h_pct, fired_at, created_at
    FROM signal_log
    ORDER BY fired_at DESC
    LIMIT $1;`

	listSignalsBetweenSQL = `SELECT
        id, symbol, signal_type, priority, price, rsi, volume_ratio, change_24h_pct, fired_at, created_at
    FROM signal_log
    WHERE fired_at >= $1
      AND fired_at < $2
    ORDER BY fired_at;`

	countSignalsSQL = `SELECT COUNT(*) FROM signal_log;`

	deleteSignalsBeforeSQL = `DELETE FROM signal_log WHERE fired_at < $1;`
)

// SignalLog persists emitted signals for auditing and export.
type SignalLog interface {
	InsertSignal(ctx context.Context, rec SignalRecord) (SignalRecord, error)
	ListRecentSignals(ctx context.Context, limit int) ([]SignalRecord, error)
	ListSignalsBetween(ctx context.Context, from, to time.Time) ([]SignalRecord, error)
	CountSignals(ctx context.Context) (int64, error)
	DeleteSignalsBefore(ctx context.Context, olderThan time.Time) error
}

// Store wraps the PostgreSQL pool with typed repository operations. It is
// both the cooldown persistence backend and the signal audit log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store from an initialised pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// LoadRecords reads the full cooldown record set. Rows with a signal type
// this build no longer knows are skipped rather than failing the load.
func (s *Store) LoadRecords(ctx context.Context) (map[cooldown.Key]time.Time, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, loadCooldownsSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("load cooldown records: %w", queryErr)
	}
	defer rows.Close()

	records := make(map[cooldown.Key]time.Time)
	for rows.Next() {
		var symbol, typeKey string
		var firedAt time.Time
		if err := rows.Scan(&symbol, &typeKey, &firedAt); err != nil {
			return nil, err
		}
		typ, ok := signal.ParseType(typeKey)
		if !ok {
			continue
		}
		records[cooldown.Key{Symbol: symbol, Signal: typ}] = firedAt
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// SaveRecords replaces the persisted cooldown set with the given records,
// atomically.
func (s *Store) SaveRecords(ctx context.Context, records map[cooldown.Key]time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin cooldown save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteCooldownsSQL); err != nil {
		return fmt.Errorf("clear cooldown records: %w", err)
	}
	for key, firedAt := range records {
		if _, err := tx.Exec(ctx, insertCooldownSQL, key.Symbol, key.Signal.String(), firedAt); err != nil {
			return fmt.Errorf("save cooldown record %s/%s: %w", key.Symbol, key.Signal, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit cooldown save: %w", err)
	}
	return nil
}

// InsertSignal persists one emitted signal.
func (s *Store) InsertSignal(ctx context.Context, rec SignalRecord) (SignalRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return SignalRecord{}, err
	}

	row := pool.QueryRow(ctx, insertSignalSQL,
		rec.Symbol,
		rec.SignalType,
		rec.Priority,
		rec.Price.String(),
		rec.RSI,
		rec.VolumeRatio,
		rec.Change24hPct.String(),
		rec.FiredAt,
	)

	saved, scanErr := scanSignalRecord(row)
	if scanErr != nil {
		return SignalRecord{}, fmt.Errorf("insert signal: %w", scanErr)
	}
	return saved, nil
}

// ListRecentSignals lists the most recent emitted signals, newest first.
func (s *Store) ListRecentSignals(ctx context.Context, limit int) ([]SignalRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentSignalsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent signals: %w", queryErr)
	}
	defer rows.Close()

	return collectSignalRecords(rows, limit)
}

// ListSignalsBetween lists signals in [from, to), oldest first.
func (s *Store) ListSignalsBetween(ctx context.Context, from, to time.Time) ([]SignalRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listSignalsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list signals between: %w", queryErr)
	}
	defer rows.Close()

	return collectSignalRecords(rows, 0)
}

// CountSignals counts stored signals.
func (s *Store) CountSignals(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countSignalsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count signals: %w", scanErr)
	}
	return count, nil
}

// DeleteSignalsBefore deletes historical signal rows.
func (s *Store) DeleteSignalsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteSignalsBeforeSQL, olderThan); execErr != nil {
		return fmt.Errorf("delete signals before: %w", execErr)
	}
	return nil
}

func collectSignalRecords(rows pgx.Rows, sizeHint int) ([]SignalRecord, error) {
	records := make([]SignalRecord, 0, sizeHint)
	for rows.Next() {
		rec, scanErr := scanSignalRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func scanSignalRecord(row pgx.Row) (SignalRecord, error) {
	var (
		rec       SignalRecord
		priceStr  string
		changeStr string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Symbol,
		&rec.SignalType,
		&rec.Priority,
		&priceStr,
		&rec.RSI,
		&rec.VolumeRatio,
		&changeStr,
		&rec.FiredAt,
		&rec.CreatedAt,
	); err != nil {
		return SignalRecord{}, err
	}

	var convErr error
	rec.Price, convErr = decimal.NewFromString(priceStr)
	if convErr != nil {
		return SignalRecord{}, fmt.Errorf("parse price: %w", convErr)
	}
	rec.Change24hPct, convErr = decimal.NewFromString(changeStr)
	if convErr != nil {
		return SignalRecord{}, fmt.Errorf("parse 24h change: %w", convErr)
	}

	return rec, nil
}

var _ cooldown.Backend = (*Store)(nil)
var _ SignalLog = (*Store)(nil)
