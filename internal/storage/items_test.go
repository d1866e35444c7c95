package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

func TestCreateItem(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	item := &types.Item{
		Name:          "Desk Lamp",
		Description:   "LED, warm white",
		Category:      "Lighting",
		Price:         decimal.RequireFromString("19.999"),
		StockQuantity: 12,
	}
	require.NoError(t, storage.CreateItem(ctx, item))
	assert.Greater(t, item.ID, int64(0))

	got, err := storage.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", got.Name)
	assert.Equal(t, "20.00", types.FormatMoney(got.Price))
	assert.Equal(t, 12, got.StockQuantity)
	assert.Equal(t, 0, got.LikeCount)
}

func TestCreateItem_Invalid(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	err := storage.CreateItem(ctx, &types.Item{Name: "", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	err = storage.CreateItem(ctx, &types.Item{Name: "Bad", Price: decimal.NewFromInt(1), StockQuantity: -1})
	assert.ErrorIs(t, err, types.ErrInvalidAmount)
}

func TestGetItem_NotFound(t *testing.T) {
	storage := setupTestDB(t)

	_, err := storage.GetItem(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateItem(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, storage, "Chair", "45.00", 3)

	item.Name = "Office Chair"
	item.Price = decimal.RequireFromString("49.50")
	item.StockQuantity = 100 // ignored by UpdateItem
	require.NoError(t, storage.UpdateItem(ctx, item))

	got, err := storage.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office Chair", got.Name)
	assert.Equal(t, "49.50", types.FormatMoney(got.Price))
	assert.Equal(t, 3, got.StockQuantity)

	missing := &types.Item{ID: 404, Name: "Ghost", Price: decimal.NewFromInt(1)}
	assert.ErrorIs(t, storage.UpdateItem(ctx, missing), ErrNotFound)
}

func TestDeleteItem(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, storage, "Rug", "80.00", 1)

	require.NoError(t, storage.DeleteItem(ctx, item.ID))
	_, err := storage.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, storage.DeleteItem(ctx, item.ID), ErrNotFound)
}

func TestDecrementStock(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, storage, "Pen", "1.20", 5)

	tests := []struct {
		name      string
		qty       int
		wantErr   error
		wantStock int
	}{
		{"partial", 2, nil, 3},
		{"exact remainder", 3, nil, 0},
		{"more than remains", 1, types.ErrInsufficientStock, 0},
		{"non-positive", 0, types.ErrInvalidAmount, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.DecrementStock(ctx, item.ID, tt.qty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			got, err := storage.GetItem(ctx, item.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStock, got.StockQuantity)
		})
	}
}

func TestDecrementStock_StockError(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, storage, "Notebook", "3.00", 2)

	err := storage.DecrementStock(ctx, item.ID, 7)
	var se *types.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Notebook", se.ItemName)
	assert.Equal(t, 7, se.Requested)
	assert.Equal(t, 2, se.Available)

	assert.ErrorIs(t, storage.DecrementStock(ctx, 12345, 1), ErrNotFound)
}

func TestRestockItem(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, storage, "Cup", "4.00", 0)

	require.NoError(t, storage.RestockItem(ctx, item.ID, 6))
	got, err := storage.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.StockQuantity)

	assert.ErrorIs(t, storage.RestockItem(ctx, item.ID, -2), types.ErrInvalidAmount)
	assert.ErrorIs(t, storage.RestockItem(ctx, 999, 1), ErrNotFound)
}

func TestListItemsByPopularity(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	alice := createTestAccount(t, storage, "alice", types.RoleCustomer)
	bob := createTestAccount(t, storage, "bob", types.RoleCustomer)

	a := createTestItem(t, storage, "A", "1.00", 1)
	b := createTestItem(t, storage, "B", "1.00", 1)
	c := createTestItem(t, storage, "C", "1.00", 1)

	_, err := storage.LikeItem(ctx, alice.ID, c.ID)
	require.NoError(t, err)
	_, err = storage.LikeItem(ctx, bob.ID, c.ID)
	require.NoError(t, err)
	_, err = storage.LikeItem(ctx, alice.ID, b.ID)
	require.NoError(t, err)

	items, err := storage.ListItemsByPopularity(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, []int64{items[0].ID, items[1].ID, items[2].ID})

	page, err := storage.ListItemsByPopularity(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, a.ID, page[0].ID)

	n, err := storage.CountItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLikeUnlikeItem(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	alice := createTestAccount(t, storage, "alice", types.RoleCustomer)
	item := createTestItem(t, storage, "Plant", "12.00", 2)

	liked, err := storage.LikeItem(ctx, alice.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	// Liking twice changes nothing
	liked, err = storage.LikeItem(ctx, alice.ID, item.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	got, err := storage.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)

	likedItems, err := storage.ListLikedItems(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, likedItems, 1)
	assert.Equal(t, item.ID, likedItems[0].ID)

	unliked, err := storage.UnlikeItem(ctx, alice.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, unliked)

	unliked, err = storage.UnlikeItem(ctx, alice.ID, item.ID)
	require.NoError(t, err)
	assert.False(t, unliked)

	got, err = storage.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikeCount)

	_, err = storage.LikeItem(ctx, alice.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
