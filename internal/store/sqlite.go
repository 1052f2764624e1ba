package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/moideas/internal/batch"
	"github.com/nvandessel/moideas/internal/simulation"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements ResultStore using SQLite for persistence.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (creating if needed) the database at path and initializes the schema.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SaveBatch persists a batch and its summaries in one transaction.
func (s *SQLiteStore) SaveBatch(ctx context.Context, b Batch) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches (id, name, seed, runs, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Seed, b.Runs, b.CreatedAt.UTC().Format(timeLayout)); err != nil {
		return "", fmt.Errorf("failed to insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO summaries (batch_id, position, config, sim_count, av_prop_true, no_beliefs_n)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare summary insert: %w", err)
	}
	defer stmt.Close()

	for i, sum := range b.Summaries {
		cfgJSON, err := json.Marshal(sum.Config)
		if err != nil {
			return "", fmt.Errorf("failed to marshal configuration %d: %w", i, err)
		}
		var avg sql.NullFloat64
		if sum.AvgPropTrue != nil {
			avg = sql.NullFloat64{Float64: *sum.AvgPropTrue, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, b.ID, i, string(cfgJSON), sum.SimCount, avg, sum.NoBeliefRuns); err != nil {
			return "", fmt.Errorf("failed to insert summary %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit batch: %w", err)
	}
	return b.ID, nil
}

// ListBatches returns up to limit batches, newest first.
func (s *SQLiteStore) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, name, seed, runs, created_at FROM batches ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		var createdAt string
		if err := rows.Scan(&b.ID, &b.Name, &b.Seed, &b.Runs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		b.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at for batch %s: %w", b.ID, err)
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// GetSummaries returns the summaries of a batch in sweep order.
func (s *SQLiteStore) GetSummaries(ctx context.Context, batchID string) ([]batch.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM batches WHERE id = ?`, batchID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up batch: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, batchID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT config, sim_count, av_prop_true, no_beliefs_n FROM summaries
		 WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []batch.Summary
	for rows.Next() {
		var sum batch.Summary
		var cfgJSON string
		var avg sql.NullFloat64
		if err := rows.Scan(&cfgJSON, &sum.SimCount, &avg, &sum.NoBeliefRuns); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		var cfg simulation.Configuration
		if err := json.Unmarshal([]byte(cfgJSON), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration: %w", err)
		}
		sum.Config = cfg
		if avg.Valid {
			v := avg.Float64
			sum.AvgPropTrue = &v
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
