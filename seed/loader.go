package seed

import (
	"fmt"
	"os"

	"github.com/marcelsud/library-api/book"
	"gopkg.in/yaml.v3"
)

/* Loader reads seed books from a YAML file
 * Keeps file order and an ISBN index for lookups
 */

// File represents the structure of a seed file
type File struct {
	Books []Entry `yaml:"books"`
}

// Entry represents a single book in the YAML file
type Entry struct {
	Title    string   `yaml:"title"`
	Author   string   `yaml:"author"`
	ISBN     string   `yaml:"isbn"`
	Price    *float64 `yaml:"price"`    // Optional
	ImageURL string   `yaml:"imageUrl"` // Optional
}

// Loader holds the loaded books
type Loader struct {
	books []book.Book
	index map[string]int
}

// NewLoader creates a new seed loader
func NewLoader() *Loader {
	return &Loader{
		index: make(map[string]int),
	}
}

// Load reads and parses a seed file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	return l.Parse(data)
}

// Parse validates every entry before keeping any of them
func (l *Loader) Parse(data []byte) error {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing seed YAML: %w", err)
	}

	books := make([]book.Book, 0, len(file.Books))
	index := make(map[string]int, len(file.Books))
	for i, e := range file.Books {
		b := book.Book{
			Title:    e.Title,
			Author:   e.Author,
			ISBN:     e.ISBN,
			Price:    e.Price,
			ImageURL: e.ImageURL,
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("validating book #%d: %w", i+1, err)
		}
		if _, exists := index[b.ISBN]; exists {
			return fmt.Errorf("validating book #%d: isbn %s repeated in file: %w", i+1, b.ISBN, book.ErrDuplicateISBN)
		}
		index[b.ISBN] = len(books)
		books = append(books, b)
	}

	l.books = books
	l.index = index
	return nil
}

// Get retrieves a book by its ISBN
func (l *Loader) Get(isbn string) (book.Book, error) {
	i, exists := l.index[isbn]
	if !exists {
		return book.Book{}, fmt.Errorf("isbn %s: %w", isbn, book.ErrNotFound)
	}
	return l.books[i], nil
}

// List returns all loaded books in file order
func (l *Loader) List() []book.Book {
	books := make([]book.Book, len(l.books))
	copy(books, l.books)
	return books
}
