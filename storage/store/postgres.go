package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"

	"logsift/internal/models"
)

// PostgresStore implements Store on a pgx connection pool. It targets the
// external time-series store (TimescaleDB-compatible Postgres); schema
// migration belongs to that store's operators, but the table is created on
// startup if absent so a fresh environment works out of the box.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgresStore creates a PostgresStore with the given pool bounds.
func NewPostgresStore(ctx context.Context, dsn string, minConns, maxConns int, logger *log.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}
	poolCfg.MinConns = int32(minConns)
	poolCfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Printf("Postgres store connected (pool: %d-%d connections)", minConns, maxConns)
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS classified_records (
    id             TEXT PRIMARY KEY,
    ts             TIMESTAMPTZ NOT NULL,
    log_level      TEXT NOT NULL DEFAULT '',
    message        TEXT NOT NULL,
    param_value    TEXT NOT NULL DEFAULT '',
    classification TEXT NOT NULL,
    classified_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_classified_records_class_ts
    ON classified_records (classification, ts);`

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// WriteClassified persists a record. ON CONFLICT DO NOTHING keeps the write
// idempotent across consumer-restart redeliveries of the same id.
func (s *PostgresStore) WriteClassified(ctx context.Context, rec models.ClassifiedRecord) error {
	const q = `
INSERT INTO classified_records (id, ts, log_level, message, param_value, classification, classified_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, q,
		rec.ID, rec.Timestamp, rec.LogLevel, rec.Message, rec.ParamValue,
		string(rec.Classification), rec.ClassifiedAt)
	if err != nil {
		return fmt.Errorf("failed to write classified record %s: %w", rec.ID, err)
	}
	return nil
}

// ListByClassification returns a page of records, newest first.
func (s *PostgresStore) ListByClassification(ctx context.Context, class models.Classification, limit, offset int) ([]models.ClassifiedRecord, error) {
	const q = `
SELECT id, ts, log_level, message, param_value, classification, classified_at
FROM classified_records
WHERE classification = $1
ORDER BY ts DESC
LIMIT $2 OFFSET $3`

	rows, err := s.pool.Query(ctx, q, string(class), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query classified records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByClassificationAsc returns up to limit records in ascending timestamp
// order.
func (s *PostgresStore) ListByClassificationAsc(ctx context.Context, class models.Classification, limit int) ([]models.ClassifiedRecord, error) {
	const q = `
SELECT id, ts, log_level, message, param_value, classification, classified_at
FROM classified_records
WHERE classification = $1
ORDER BY ts ASC
LIMIT $2`

	rows, err := s.pool.Query(ctx, q, string(class), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classified records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanRecords(rows rowScanner) ([]models.ClassifiedRecord, error) {
	var out []models.ClassifiedRecord
	for rows.Next() {
		var rec models.ClassifiedRecord
		var class string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.LogLevel, &rec.Message,
			&rec.ParamValue, &class, &rec.ClassifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan classified record: %w", err)
		}
		rec.Classification = models.Classification(class)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.logger.Println("Closing Postgres store...")
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil)
