package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/marcelsud/library-api/book"
)

/*
PostgreSQL Repository Implementation

- Same book.Repository contract as the document stores, backed by one table
- A UNIQUE constraint on isbn enforces one book per ISBN
- UPDATE/DELETE ... RETURNING keep every operation to a single round trip
- Absent update fields are passed as NULL and kept with COALESCE
*/

const uniqueViolation = "23505"

const (
	columns = "id::text, title, author, isbn, price, image_url"

	selectQuery    = "SELECT " + columns + " FROM books WHERE isbn = $1"
	selectAllQuery = "SELECT " + columns + " FROM books ORDER BY created_at, id"
	countQuery     = "SELECT COUNT(*) FROM books"
	insertQuery    = `INSERT INTO books (title, author, isbn, price, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text`
	updateQuery = `UPDATE books
		SET title = COALESCE($1, title),
			author = COALESCE($2, author),
			isbn = COALESCE($3, isbn),
			price = CASE WHEN $7 THEN NULL ELSE COALESCE($4, price) END,
			image_url = CASE WHEN $8 THEN NULL ELSE COALESCE($5, image_url) END
		WHERE isbn = $6
		RETURNING ` + columns
	deleteQuery = "DELETE FROM books WHERE isbn = $1 RETURNING " + columns
)

type Repository struct {
	DB *sql.DB
}

// NewRepository creates a PostgreSQL repository with the default pool (25, 5, 5 min)
func NewRepository(connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(connectionString, 25, 5, 5)
}

// NewRepositoryWithPoolConfig creates a PostgreSQL repository with a custom pool
// maxOpenConns: maximum simultaneous connections (0 = unlimited)
// maxIdleConns: maximum idle connections kept in the pool
// maxLifeMinutes: maximum minutes a connection may be reused
func NewRepositoryWithPoolConfig(connectionString string, maxOpenConns, maxIdleConns, maxLifeMinutes int) (*Repository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxLifeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(maxLifeMinutes) * time.Minute)
	}

	return &Repository{
		DB: db,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (book.Book, error) {
	var (
		b        book.Book
		price    sql.NullFloat64
		imageURL sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &price, &imageURL); err != nil {
		return book.Book{}, err
	}
	if price.Valid {
		p := price.Float64
		b.Price = &p
	}
	b.ImageURL = imageURL.String
	return b, nil
}

// Select fetches a book by ISBN
func (r *Repository) Select(ctx context.Context, isbn string) (book.Book, error) {
	b, err := scanBook(r.DB.QueryRowContext(ctx, selectQuery, isbn))
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("selecting book: %w", err)
	}
	return b, nil
}

// SelectAll returns every book in insertion order
func (r *Repository) SelectAll(ctx context.Context) ([]book.Book, error) {
	rows, err := r.DB.QueryContext(ctx, selectAllQuery)
	if err != nil {
		return nil, fmt.Errorf("selecting books: %w", err)
	}
	defer rows.Close()

	books := []book.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}

	return books, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, countQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	return n, nil
}

// Insert stores a new book and returns it with the generated id
func (r *Repository) Insert(ctx context.Context, b book.Book) (book.Book, error) {
	err := r.DB.QueryRowContext(ctx, insertQuery,
		b.Title, b.Author, b.ISBN, b.Price, nullString(b.ImageURL),
	).Scan(&b.ID)
	if isUniqueViolation(err) {
		return book.Book{}, book.ErrDuplicateISBN
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("inserting book: %w", err)
	}
	return b, nil
}

// Update applies the non-nil fields of changes to the book stored under isbn
func (r *Repository) Update(ctx context.Context, isbn string, changes book.Changes) (book.Book, error) {
	b, err := scanBook(r.DB.QueryRowContext(ctx, updateQuery,
		changes.Title, changes.Author, changes.ISBN, changes.Price, changes.ImageURL, isbn,
		changes.ClearPrice, changes.ClearImageURL,
	))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return book.Book{}, book.ErrNotFound
	case isUniqueViolation(err):
		return book.Book{}, book.ErrDuplicateISBN
	case err != nil:
		return book.Book{}, fmt.Errorf("updating book: %w", err)
	}
	return b, nil
}

// Delete removes a book by ISBN and returns the removed row
func (r *Repository) Delete(ctx context.Context, isbn string) (book.Book, error) {
	b, err := scanBook(r.DB.QueryRowContext(ctx, deleteQuery, isbn))
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, book.ErrNotFound
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("deleting book: %w", err)
	}
	return b, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// Close closes the connection pool
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTable creates the books table when missing
func (r *Repository) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS books (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title TEXT NOT NULL CHECK (title <> ''),
			author TEXT NOT NULL CHECK (author <> ''),
			isbn TEXT NOT NULL UNIQUE CHECK (isbn <> ''),
			price DOUBLE PRECISION,
			image_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`

	_, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	return nil
}

// DropTable removes the books table (useful for tests)
func (r *Repository) DropTable(ctx context.Context) error {
	query := "DROP TABLE IF EXISTS books CASCADE"

	_, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
