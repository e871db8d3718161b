package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcelsud/library-api/book"
)

// Result counts what an import did
type Result struct {
	Created int
	Skipped int
}

// Import creates each book through the use case. Books whose ISBN is already
// stored are skipped; any other failure stops the import.
func Import(ctx context.Context, uc book.UseCase, books []book.Book) (Result, error) {
	var result Result
	for _, b := range books {
		_, err := uc.Create(ctx, b)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, book.ErrDuplicateISBN):
			result.Skipped++
		default:
			return result, fmt.Errorf("importing book %s: %w", b.ISBN, err)
		}
	}
	return result, nil
}
