package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/repository/store"
)

func openTemp(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "hisaab.db")
	st, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st, path
}

func TestCollectionRoundTripAndOrder(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	date := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, st.Sales.Put(ctx, models.Sale{ID: "s2", Total: 20, Date: date}))
	require.NoError(t, st.Sales.Put(ctx, models.Sale{ID: "s1", Total: 10, Date: date}))
	require.NoError(t, st.Sales.Put(ctx, models.Sale{ID: "s2", Total: 25, Date: date}))

	list, err := st.Sales.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s2", list[0].ID)
	assert.Equal(t, 25.0, list[0].Total)
	assert.True(t, date.Equal(list[0].Date))
	assert.Equal(t, "s1", list[1].ID)

	got, err := st.Sales.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Total)

	require.NoError(t, st.Sales.Delete(ctx, "s1"))
	_, err = st.Sales.Get(ctx, "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.Sales.Delete(ctx, "s1"), store.ErrNotFound)
}

func TestBucketsAreIsolated(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	require.NoError(t, st.Products.Put(ctx, models.Product{ID: "x", Name: "Tea"}))
	require.NoError(t, st.Customers.Put(ctx, models.Customer{ID: "x", Name: "Awa"}))

	products, err := st.Products.List(ctx)
	require.NoError(t, err)
	customers, err := st.Customers.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Len(t, customers, 1)
	assert.Equal(t, "Tea", products[0].Name)
	assert.Equal(t, "Awa", customers[0].Name)
}

func TestDataSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	st, path := openTemp(t)
	require.NoError(t, st.Branches.Put(ctx, models.Branch{ID: "b1", Name: "Main"}))
	require.NoError(t, st.KV.PutJSON(ctx, "insygth_current_branch:u1", "b1"))
	require.NoError(t, st.Close(ctx))

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close(ctx) }()

	b, err := reopened.Branches.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Main", b.Name)

	var current string
	require.NoError(t, reopened.KV.GetJSON(ctx, "insygth_current_branch:u1", &current))
	assert.Equal(t, "b1", current)
}

func TestKVDeletePrefix(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	require.NoError(t, st.KV.PutJSON(ctx, "cache:a", 1))
	require.NoError(t, st.KV.PutJSON(ctx, "cache:b", 2))
	require.NoError(t, st.KV.PutJSON(ctx, "keep", 3))
	require.NoError(t, st.KV.DeletePrefix(ctx, "cache:"))

	var v int
	assert.ErrorIs(t, st.KV.GetJSON(ctx, "cache:a", &v), store.ErrNotFound)
	require.NoError(t, st.KV.GetJSON(ctx, "keep", &v))
	assert.Equal(t, 3, v)
}
