package book

import "context"

/* Small interfaces: they abstract behavior, not things.
 * They are written for the users of the API, not for the tests.
 * Every method takes the ISBN as the key because that is how clients address a book
 */

type Reader interface {
	Select(ctx context.Context, isbn string) (Book, error)
	SelectAll(ctx context.Context) ([]Book, error)
	Count(ctx context.Context) (int64, error)
}

type Writer interface {
	/* Insert stores a new book and returns it with the identifier assigned by the store.
	 * A clashing ISBN yields ErrDuplicateISBN
	 */
	Insert(ctx context.Context, book Book) (Book, error)
	/* Update applies changes to the book stored under isbn and returns the result */
	Update(ctx context.Context, isbn string, changes Changes) (Book, error)
	/* Delete removes the book stored under isbn and returns what was removed */
	Delete(ctx context.Context, isbn string) (Book, error)
}

/* Interface composition */

type Repository interface {
	Reader
	Writer
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
