package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/library-api/book"
)

// StoreCollector implements the Collector interface on top of any book.Reader
type StoreCollector struct {
	reader book.Reader
	driver string
}

// NewStoreCollector creates a new collector reading from the given store
func NewStoreCollector(reader book.Reader, driver string) *StoreCollector {
	return &StoreCollector{
		reader: reader,
		driver: driver,
	}
}

// Collect gathers all metrics from the store
func (c *StoreCollector) Collect(ctx context.Context) (Metrics, error) {
	count, err := c.CountBooks(ctx)
	if err != nil {
		return Metrics{}, err
	}

	return Metrics{
		Driver:      c.driver,
		BooksStored: count,
		Timestamp:   time.Now(),
	}, nil
}

// CountBooks returns the number of stored books
func (c *StoreCollector) CountBooks(ctx context.Context) (int64, error) {
	count, err := c.reader.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	return count, nil
}

func (c *StoreCollector) Driver() string {
	return c.driver
}
