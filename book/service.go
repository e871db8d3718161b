package book

import (
	"context"
	"fmt"
)

/* Service is an API, so it uses pointer semantics.
 * Each operation makes exactly one repository call and never retries
 */

type UseCase interface {
	Create(ctx context.Context, b Book) (Book, error)
	List(ctx context.Context) ([]Book, error)
	Get(ctx context.Context, isbn string) (Book, error)
	Update(ctx context.Context, isbn string, changes Changes) (Book, error)
	Delete(ctx context.Context, isbn string) (Book, error)
}

type Service struct {
	Repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{
		Repo: repo,
	}
}

func (s *Service) Create(ctx context.Context, b Book) (Book, error) {
	if err := b.Validate(); err != nil {
		return Book{}, err
	}
	b.ID = ""
	saved, err := s.Repo.Insert(ctx, b)
	if err != nil {
		return Book{}, fmt.Errorf("inserting book: %w", err)
	}
	return saved, nil
}

func (s *Service) List(ctx context.Context) ([]Book, error) {
	all, err := s.Repo.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("selecting books: %w", err)
	}
	if all == nil {
		all = []Book{}
	}
	return all, nil
}

func (s *Service) Get(ctx context.Context, isbn string) (Book, error) {
	b, err := s.Repo.Select(ctx, isbn)
	if err != nil {
		return Book{}, fmt.Errorf("selecting book: %w", err)
	}
	return b, nil
}

// Update with empty changes returns the stored book untouched
func (s *Service) Update(ctx context.Context, isbn string, changes Changes) (Book, error) {
	if err := changes.Validate(); err != nil {
		return Book{}, err
	}
	if changes.IsEmpty() {
		return s.Get(ctx, isbn)
	}
	b, err := s.Repo.Update(ctx, isbn, changes)
	if err != nil {
		return Book{}, fmt.Errorf("updating book: %w", err)
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, isbn string) (Book, error) {
	b, err := s.Repo.Delete(ctx, isbn)
	if err != nil {
		return Book{}, fmt.Errorf("deleting book: %w", err)
	}
	return b, nil
}
