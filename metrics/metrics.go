package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the book store.
type Metrics struct {
	// Driver is the configured store backend (mongo, redis, postgres, memory)
	Driver string `json:"driver"`

	// BooksStored is the number of books currently persisted
	BooksStored int64 `json:"books_stored"`

	// Timestamp when metrics were collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for collecting metrics from the book store.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// CountBooks returns the number of stored books
	CountBooks(ctx context.Context) (int64, error)

	// Driver names the store backend the counts come from
	Driver() string
}
