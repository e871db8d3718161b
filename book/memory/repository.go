package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/marcelsud/library-api/book"
)

/* In-process implementation of book.Repository.
 * Keeps insertion order so listings match what the other stores return
 */

type Repository struct {
	mu    sync.RWMutex
	books map[string]book.Book
	order []string
}

func NewRepository() *Repository {
	return &Repository{
		books: make(map[string]book.Book),
	}
}

func (r *Repository) Select(ctx context.Context, isbn string) (book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[isbn]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	return b, nil
}

func (r *Repository) SelectAll(ctx context.Context) ([]book.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]book.Book, 0, len(r.order))
	for _, isbn := range r.order {
		all = append(all, r.books[isbn])
	}
	return all, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.books)), nil
}

func (r *Repository) Insert(ctx context.Context, b book.Book) (book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.books[b.ISBN]; exists {
		return book.Book{}, book.ErrDuplicateISBN
	}
	b.ID = uuid.New().String()
	r.books[b.ISBN] = b
	r.order = append(r.order, b.ISBN)
	return b, nil
}

func (r *Repository) Update(ctx context.Context, isbn string, changes book.Changes) (book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.books[isbn]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	updated := changes.Apply(current)
	if updated.ISBN != isbn {
		if _, exists := r.books[updated.ISBN]; exists {
			return book.Book{}, book.ErrDuplicateISBN
		}
		delete(r.books, isbn)
		for i, key := range r.order {
			if key == isbn {
				r.order[i] = updated.ISBN
				break
			}
		}
	}
	r.books[updated.ISBN] = updated
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, isbn string) (book.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[isbn]
	if !ok {
		return book.Book{}, book.ErrNotFound
	}
	delete(r.books, isbn)
	for i, key := range r.order {
		if key == isbn {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return b, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

func (r *Repository) Close(ctx context.Context) error {
	return nil
}
