//go:build unit

package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booklore/internal/core/model"
	"booklore/pkg/util"
)

func titledBook(id, title string, created int64) model.Book {
	return model.Book{
		ID:        id,
		Metadata:  &model.BookMetadata{Title: util.GetPtr(title)},
		CreatedAt: time.Unix(created, 0),
	}
}

func TestCreateAndGet(t *testing.T) {
	r := NewBookRepo()
	b := titledBook("b1", "T1", 1000)
	b.ISBN = util.GetPtr("978-0-12-345678-9")

	ctx := context.Background()
	created, err := r.Create(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "b1", created.ID)
	assert.Equal(t, "T1", *created.Metadata.Title)

	got, err := r.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "T1", *got.Metadata.Title)

	got2, err := r.GetByISBN(ctx, "9780123456789")
	require.NoError(t, err)
	assert.Equal(t, "b1", got2.ID)
}

func TestDuplicateISBN(t *testing.T) {
	r := NewBookRepo()
	b1 := titledBook("b1", "A", 0)
	b1.ISBN = util.GetPtr("978-1-23-000000-0")
	b2 := titledBook("b2", "B", 0)
	b2.ISBN = util.GetPtr("9781230000000")

	ctx := context.Background()
	_, err := r.Create(ctx, b1)
	require.NoError(t, err)
	_, err = r.Create(ctx, b2)
	assert.ErrorIs(t, err, errConflict)
}

func TestUpdate(t *testing.T) {
	r := NewBookRepo()
	ctx := context.Background()

	_, err := r.Update(ctx, titledBook("missing", "X", 0))
	assert.ErrorIs(t, err, errNotFound)

	_, err = r.Create(ctx, titledBook("b1", "Old", 0))
	require.NoError(t, err)

	b := titledBook("b1", "New", 0)
	b.ReadStatus = model.ReadStatusReading
	out, err := r.Update(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "New", *out.Metadata.Title)
	assert.Equal(t, model.ReadStatusReading, out.ReadStatus)
}

func TestListAll_DeterministicOrder(t *testing.T) {
	r := NewBookRepo()
	ctx := context.Background()
	for _, b := range []model.Book{
		titledBook("b3", "C", 1020),
		titledBook("b1", "A", 1000),
		titledBook("b2", "B", 1000),
	} {
		_, err := r.Create(ctx, b)
		require.NoError(t, err)
	}

	items, err := r.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "b1", items[0].ID)
	assert.Equal(t, "b2", items[1].ID)
	assert.Equal(t, "b3", items[2].ID)
}

func TestListAll_ReturnsCopies(t *testing.T) {
	r := NewBookRepo()
	ctx := context.Background()
	b := titledBook("b1", "T", 0)
	b.Metadata.Authors = []string{"A"}
	_, err := r.Create(ctx, b)
	require.NoError(t, err)

	items, err := r.ListAll(ctx)
	require.NoError(t, err)
	items[0].Metadata.Authors[0] = "mutated"
	items[0].Metadata.Title = util.GetPtr("mutated")

	got, err := r.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "T", *got.Metadata.Title)
	assert.Equal(t, "A", got.Metadata.Authors[0])
}

func TestDelete(t *testing.T) {
	r := NewBookRepo()
	ctx := context.Background()
	b := titledBook("b1", "T", 0)
	b.ISBN = util.GetPtr("9781230000000")
	_, err := r.Create(ctx, b)
	require.NoError(t, err)
	assert.NoError(t, r.Delete(ctx, "b1"))
	_, err = r.GetByID(ctx, "b1")
	assert.ErrorIs(t, err, errNotFound)

	// The ISBN is free again after delete.
	_, err = r.Create(ctx, b)
	assert.NoError(t, err)
}
