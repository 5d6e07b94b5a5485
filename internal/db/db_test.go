package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Init("sqlite3", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestUsers(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	_, err := database.GetUserByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := database.CreateUser(ctx, "Alice", "https://example.com/a.png", "alice@example.com")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := database.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Alice", found.Username)
	assert.Equal(t, "https://example.com/a.png", found.Picture)

	n, err := database.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCategories(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	user, err := database.CreateUser(ctx, "Alice", "", "alice@example.com")
	require.NoError(t, err)

	books, err := database.CreateCategory(ctx, "Books", user.ID)
	require.NoError(t, err)
	_, err = database.CreateCategory(ctx, "Appliances", user.ID)
	require.NoError(t, err)

	categories, err := database.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	// Sorted by name.
	assert.Equal(t, "Appliances", categories[0].Name)
	assert.Equal(t, "Books", categories[1].Name)

	byName, err := database.GetCategoryByName(ctx, "Books")
	require.NoError(t, err)
	assert.Equal(t, books.ID, byName.ID)

	byID, err := database.GetCategoryByID(ctx, books.ID)
	require.NoError(t, err)
	assert.Equal(t, "Books", byID.Name)

	_, err = database.GetCategoryByName(ctx, "Nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = database.GetCategoryByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItems(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	user, err := database.CreateUser(ctx, "Alice", "", "alice@example.com")
	require.NoError(t, err)
	books, err := database.CreateCategory(ctx, "Books", user.ID)
	require.NoError(t, err)
	tools, err := database.CreateCategory(ctx, "Tools", user.ID)
	require.NoError(t, err)

	first, err := database.CreateItem(ctx, "Dune", "Sci-fi classic", books.ID, user.ID)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := database.CreateItem(ctx, "Hammer", "Steel head", tools.ID, user.ID)
	require.NoError(t, err)

	t.Run("ListNewestFirst", func(t *testing.T) {
		items, err := database.GetItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID)
		assert.Equal(t, first.ID, items[1].ID)
	})

	t.Run("ListByCategory", func(t *testing.T) {
		items, err := database.GetItemsByCategory(ctx, books.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Dune", items[0].Title)
	})

	t.Run("Lookups", func(t *testing.T) {
		byID, err := database.GetItemByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune", byID.Title)

		byTitle, err := database.GetItemByTitle(ctx, "Hammer")
		require.NoError(t, err)
		assert.Equal(t, second.ID, byTitle.ID)

		byBoth, err := database.GetItemByTitleAndCategory(ctx, "Dune", books.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, byBoth.ID)

		_, err = database.GetItemByTitleAndCategory(ctx, "Dune", tools.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = database.GetItemByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateBumpsTimestamp", func(t *testing.T) {
		before, err := database.GetItemByID(ctx, first.ID)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		require.NoError(t, database.UpdateItem(ctx, first.ID, "Dune Messiah", "The sequel"))

		after, err := database.GetItemByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", after.Title)
		assert.Equal(t, "The sequel", after.Description)
		assert.True(t, after.LastUpdated.After(before.LastUpdated))
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		err := database.UpdateItem(ctx, 9999, "x", "y")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, database.DeleteItem(ctx, second.ID))
		_, err := database.GetItemByID(ctx, second.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, database.DeleteItem(ctx, second.ID), ErrNotFound)
	})
}
