//go:build integration

package mongo

import (
	"context"
	"sync"
	"testing"

	"github.com/marcelsud/library-api/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
Integration tests against a real MongoDB.

Run with: go test -tags=integration ./book/mongo/...
Requires Docker.
*/

func TestMongoRepository_Integration(t *testing.T) {
	ctx := context.Background()

	mc, cleanup := SetupMongoContainer(t, ctx)
	defer cleanup()

	price := 15.0
	dune := book.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "978-0", Price: &price}

	t.Run("insert then select", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, mc.URI)

		saved, err := repo.Insert(ctx, dune)
		require.NoError(t, err)
		assert.Len(t, saved.ID, 24)

		got, err := repo.Select(ctx, "978-0")
		require.NoError(t, err)
		want := dune
		want.ID = saved.ID
		assert.Equal(t, want, got)
	})

	t.Run("duplicate isbn is rejected and the first book kept", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, mc.URI)

		_, err := repo.Insert(ctx, dune)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, book.Book{Title: "Impostor", Author: "Nobody", ISBN: "978-0"})
		assert.ErrorIs(t, err, book.ErrDuplicateISBN)

		all, err := repo.SelectAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Dune", all[0].Title)
	})

	t.Run("concurrent duplicate inserts", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, mc.URI)

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
				continue
			}
			assert.ErrorIs(t, err, book.ErrDuplicateISBN)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("missing isbn yields not found", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, mc.URI)

		_, err := repo.Select(ctx, "nope")
		assert.ErrorIs(t, err, book.ErrNotFound)
		_, err = repo.Update(ctx, "nope", book.Changes{Price: &price})
		assert.ErrorIs(t, err, book.ErrNotFound)
		_, err = repo.Delete(ctx, "nope")
		assert.ErrorIs(t, err, book.ErrNotFound)
	})

	t.Run("update replaces only the given fields", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, mc.URI)
		_, err := repo.Insert(ctx, dune)
		require.NoError(t, err)

		newPrice := 20.0
		updated, err := repo.Update(ctx, "978-0", book.Changes{Price: &newPrice})
		require.NoError(t, err)
		assert.Equal(t, 20.0, *updated.Price)
		assert.Equal(t, "Dune", updated.Title)

		got, err := repo.Select(ctx, "978-0")
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("update clears price and image", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, mc.URI)
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

	t.Run("update onto a taken isbn", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, mc.URI)
		_, err := repo.Insert(ctx, dune)
		require.NoError(t, err)
		_, err = repo.Insert(ctx, book.Book{Title: "Neuromancer", Author: "William Gibson", ISBN: "978-1"})
		require.NoError(t, err)

		taken := "978-0"
		_, err = repo.Update(ctx, "978-1", book.Changes{ISBN: &taken})
		assert.ErrorIs(t, err, book.ErrDuplicateISBN)
	})

	t.Run("delete returns the removed book", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, mc.URI)
		saved, err := repo.Insert(ctx, dune)
		require.NoError(t, err)

		removed, err := repo.Delete(ctx, "978-0")
		require.NoError(t, err)
		assert.Equal(t, saved, removed)

		_, err = repo.Select(ctx, "978-0")
		assert.ErrorIs(t, err, book.ErrNotFound)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, mc.URI)
		for _, isbn := range []string{"3", "1", "2"} {
			_, err := repo.Insert(ctx, book.Book{Title: "t" + isbn, Author: "a", ISBN: isbn})
			require.NoError(t, err)
		}
		all, err := repo.SelectAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "3", all[0].ISBN)
		assert.Equal(t, "1", all[1].ISBN)
		assert.Equal(t, "2", all[2].ISBN)
	})
}
