// Package store persists batch results so sweeps can be compared later.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nvandessel/moideas/internal/batch"
)

// ErrNotFound is returned when a batch id is unknown.
var ErrNotFound = errors.New("batch not found")

// Batch is one invocation of the batch runner over a set of configurations.
type Batch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"` // preset name or grid file
	Seed      int64     `json:"seed"`
	Runs      int       `json:"runs"`
	CreatedAt time.Time `json:"created_at"`

	// Summaries is empty in listings; GetSummaries loads it.
	Summaries []batch.Summary `json:"summaries,omitempty"`
}

// ResultStore defines the interface for storing and querying batch results.
type ResultStore interface {
	// SaveBatch persists b with its summaries and returns the batch id.
	// A missing ID or CreatedAt is filled in.
	SaveBatch(ctx context.Context, b Batch) (string, error)

	// ListBatches returns up to limit batches, newest first, without
	// summaries. limit <= 0 means no limit.
	ListBatches(ctx context.Context, limit int) ([]Batch, error)

	// GetSummaries returns the summaries of a batch in their original order.
	GetSummaries(ctx context.Context, batchID string) ([]batch.Summary, error)

	Close() error
}
