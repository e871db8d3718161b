package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/library-api/book"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of book.Repository
 * Uses one Redis Hash per book, keyed by ISBN, so the key itself is the uniqueness constraint
 * Uses a Sorted Set scored by an insertion counter to list books in the order they were created
 * Writes run inside WATCH/MULTI transactions; a concurrent change to a watched key aborts them
 */

const (
	hashPrefix = "book"      // Hash naming: book:{isbn}
	indexKey   = "books"     // Sorted set of ISBNs, score = insertion sequence
	seqKey     = "books:seq" // Counter feeding the sorted set scores
)

type Repository struct {
	client *redis.Client
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
	}, nil
}

// Select retrieves a book by ISBN from its hash
func (r *Repository) Select(ctx context.Context, isbn string) (book.Book, error) {
	data, err := r.client.HGetAll(ctx, hashKey(isbn)).Result()
	if err != nil {
		return book.Book{}, fmt.Errorf("getting book: %w", err)
	}
	if len(data) == 0 {
		return book.Book{}, book.ErrNotFound
	}
	return fromHash(data), nil
}

// SelectAll reads the index and fetches every hash in one pipeline
func (r *Repository) SelectAll(ctx context.Context) ([]book.Book, error) {
	isbns, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading book index: %w", err)
	}
	if len(isbns) == 0 {
		return []book.Book{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(isbns))
	for i, isbn := range isbns {
		cmds[i] = pipe.HGetAll(ctx, hashKey(isbn))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("executing pipeline: %w", err)
	}

	books := make([]book.Book, 0, len(isbns))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			// Deleted between the index read and the pipeline
			continue
		}
		books = append(books, fromHash(data))
	}
	return books, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.client.ZCard(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	return n, nil
}

// Insert stores the hash and indexes it, failing if the ISBN key already exists
func (r *Repository) Insert(ctx context.Context, b book.Book) (book.Book, error) {
	seq, err := r.client.Incr(ctx, seqKey).Result()
	if err != nil {
		return book.Book{}, fmt.Errorf("allocating sequence: %w", err)
	}
	b.ID = uuid.New().String()
	key := hashKey(b.ISBN)

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("checking isbn: %w", err)
		}
		if exists > 0 {
			return book.ErrDuplicateISBN
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, toHash(b))
			pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(seq), Member: b.ISBN})
			return nil
		})
		return err
	}, key)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		// Someone wrote the same key between WATCH and EXEC
		return book.Book{}, book.ErrDuplicateISBN
	case errors.Is(err, book.ErrDuplicateISBN):
		return book.Book{}, err
	case err != nil:
		return book.Book{}, fmt.Errorf("storing book: %w", err)
	}
	return b, nil
}

// Update rewrites the hash; an ISBN change moves it to the new key keeping its list position
func (r *Repository) Update(ctx context.Context, isbn string, changes book.Changes) (book.Book, error) {
	oldKey := hashKey(isbn)
	watched := []string{oldKey}
	if changes.ISBN != nil && *changes.ISBN != isbn {
		watched = append(watched, hashKey(*changes.ISBN))
	}

	var updated book.Book
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, oldKey).Result()
		if err != nil {
			return fmt.Errorf("getting book: %w", err)
		}
		if len(data) == 0 {
			return book.ErrNotFound
		}
		updated = changes.Apply(fromHash(data))

		if updated.ISBN == isbn {
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, oldKey)
				pipe.HSet(ctx, oldKey, toHash(updated))
				return nil
			})
			return err
		}

		newKey := hashKey(updated.ISBN)
		exists, err := tx.Exists(ctx, newKey).Result()
		if err != nil {
			return fmt.Errorf("checking isbn: %w", err)
		}
		if exists > 0 {
			return book.ErrDuplicateISBN
		}
		score, err := tx.ZScore(ctx, indexKey, isbn).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("reading book position: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, oldKey)
			pipe.HSet(ctx, newKey, toHash(updated))
			pipe.ZRem(ctx, indexKey, isbn)
			pipe.ZAdd(ctx, indexKey, redis.Z{Score: score, Member: updated.ISBN})
			return nil
		})
		return err
	}, watched...)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return book.Book{}, fmt.Errorf("updating book: concurrent modification of %s", isbn)
	case errors.Is(err, book.ErrNotFound), errors.Is(err, book.ErrDuplicateISBN):
		return book.Book{}, err
	case err != nil:
		return book.Book{}, fmt.Errorf("updating book: %w", err)
	}
	return updated, nil
}

// Delete removes the hash and its index entry, returning what was stored
func (r *Repository) Delete(ctx context.Context, isbn string) (book.Book, error) {
	key := hashKey(isbn)

	var removed book.Book
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("getting book: %w", err)
		}
		if len(data) == 0 {
			return book.ErrNotFound
		}
		removed = fromHash(data)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, indexKey, isbn)
			return nil
		})
		return err
	}, key)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return book.Book{}, fmt.Errorf("deleting book: concurrent modification of %s", isbn)
	case errors.Is(err, book.ErrNotFound):
		return book.Book{}, err
	case err != nil:
		return book.Book{}, fmt.Errorf("deleting book: %w", err)
	}
	return removed, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// Helper functions

func hashKey(isbn string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, isbn)
}

func toHash(b book.Book) map[string]interface{} {
	fields := map[string]interface{}{
		"id":     b.ID,
		"title":  b.Title,
		"author": b.Author,
		"isbn":   b.ISBN,
	}
	if b.Price != nil {
		fields["price"] = strconv.FormatFloat(*b.Price, 'f', -1, 64)
	}
	if b.ImageURL != "" {
		fields["image_url"] = b.ImageURL
	}
	return fields
}

func fromHash(data map[string]string) book.Book {
	b := book.Book{
		ID:       data["id"],
		Title:    data["title"],
		Author:   data["author"],
		ISBN:     data["isbn"],
		ImageURL: data["image_url"],
	}
	if s, ok := data["price"]; ok {
		if price, err := strconv.ParseFloat(s, 64); err == nil {
			b.Price = &price
		}
	}
	return b
}
