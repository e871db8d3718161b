//go:build integration

package redis_test

import (
	"context"
	"sync"
	"testing"

	"github.com/marcelsud/library-api/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRepository_Integration(t *testing.T) {
	ctx := context.Background()

	rc, cleanup := SetupRedisContainer(t, ctx)
	defer cleanup()

	price := 15.0
	dune := book.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "978-0", Price: &price}

	t.Run("insert then select", func(t *testing.T) {
		repo := CreateTestRepository(t, rc.Addr)

		saved, err := repo.Insert(ctx, dune)
		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.True(t, KeyExists(t, rc.Addr, "book:978-0"))

		got, err := repo.Select(ctx, "978-0")
		require.NoError(t, err)
		assert.Equal(t, saved, got)
	})

	t.Run("duplicate isbn", func(t *testing.T) {
		repo := CreateTestRepository(t, rc.Addr)

		_, err := repo.Insert(ctx, dune)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, book.Book{Title: "Impostor", Author: "Nobody", ISBN: "978-0"})
		assert.ErrorIs(t, err, book.ErrDuplicateISBN)

		got, err := repo.Select(ctx, "978-0")
		require.NoError(t, err)
		assert.Equal(t, "Dune", got.Title)
	})

	t.Run("concurrent duplicate inserts store one book", func(t *testing.T) {
		repo := CreateTestRepository(t, rc.Addr)

		var wg sync.WaitGroup
		results := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Insert(ctx, dune)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 1, succeeded)
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("update moves the hash when the isbn changes", func(t *testing.T) {
		repo := CreateTestRepository(t, rc.Addr)
		for _, isbn := range []string{"a", "b", "c"} {
			_, err := repo.Insert(ctx, book.Book{Title: isbn, Author: "x", ISBN: isbn})
			require.NoError(t, err)
		}

		renamed := "z"
		updated, err := repo.Update(ctx, "b", book.Changes{ISBN: &renamed})
		require.NoError(t, err)
		assert.Equal(t, "z", updated.ISBN)
		assert.False(t, KeyExists(t, rc.Addr, "book:b"))

		all, err := repo.SelectAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"a", "z", "c"}, []string{all[0].ISBN, all[1].ISBN, all[2].ISBN})
	})

	t.Run("update replaces only the given fields", func(t *testing.T) {
		repo := CreateTestRepository(t, rc.Addr)
		_, err := repo.Insert(ctx, dune)
		require.NoError(t, err)

		newPrice := 20.0
		updated, err := repo.Update(ctx, "978-0", book.Changes{Price: &newPrice})
		require.NoError(t, err)
		assert.Equal(t, 20.0, *updated.Price)
		assert.Equal(t, "Frank Herbert", updated.Author)
	})

	t.Run("update clears price and image", func(t *testing.T) {
		repo := CreateTestRepository(t, rc.Addr)
		withImage := dune
		withImage.ImageURL = "https://example.com/dune.jpg"
		_, err := repo.Insert(ctx, withImage)
		require.NoError(t, err)

		updated, err := repo.Update(ctx, "978-0", book.Changes{ClearPrice: true, ClearImageURL: true})
		require.NoError(t, err)
		assert.Nil(t, updated.Price)
		assert.Empty(t, updated.ImageURL)

		got, err := repo.Select(ctx, "978-0")
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("missing isbn", func(t *testing.T) {
		repo := CreateTestRepository(t, rc.Addr)

		_, err := repo.Select(ctx, "nope")
		assert.ErrorIs(t, err, book.ErrNotFound)
		_, err = repo.Update(ctx, "nope", book.Changes{Price: &price})
		assert.ErrorIs(t, err, book.ErrNotFound)
		_, err = repo.Delete(ctx, "nope")
		assert.ErrorIs(t, err, book.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo := CreateTestRepository(t, rc.Addr)
		saved, err := repo.Insert(ctx, dune)
		require.NoError(t, err)

		removed, err := repo.Delete(ctx, "978-0")
		require.NoError(t, err)
		assert.Equal(t, saved, removed)
		assert.False(t, KeyExists(t, rc.Addr, "book:978-0"))

		all, err := repo.SelectAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
