package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	t.Helper()
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func createTestAccount(t *testing.T, s Storage, userName string, role types.Role) *types.Account {
	t.Helper()
	account := &types.Account{
		ID:           uuid.NewString(),
		UserName:     userName,
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		Email:        userName + "@example.com",
	}
	require.NoError(t, s.CreateAccount(context.Background(), account))
	return account
}

func createTestItem(t *testing.T, s Storage, name, price string, stock int) *types.Item {
	t.Helper()
	item := &types.Item{
		Name:          name,
		Category:      "General",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
	require.NoError(t, s.CreateItem(context.Background(), item))
	return item
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)

	assert.NotNil(t, storage.db)

	version, err := SchemaVersion(context.Background(), storage.DB())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestNewSQLiteStorage_FileReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")

	first, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	item := createTestItem(t, first, "Kettle", "25.00", 4)
	require.NoError(t, first.Close())

	// Migrations already applied must be skipped
	second, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kettle", got.Name)
}

func TestClose(t *testing.T) {
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	assert.NoError(t, storage.Close())
}

func TestTransaction_Commit(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	var itemID int64
	err := RunInTx(ctx, storage, func(tx Tx) error {
		item := &types.Item{Name: "Mug", Price: decimal.RequireFromString("8.50"), StockQuantity: 10}
		if err := tx.CreateItem(ctx, item); err != nil {
			return err
		}
		itemID = item.ID

		// Reads inside the transaction see its own writes
		got, err := tx.GetItem(ctx, item.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, "Mug", got.Name)
		return tx.DecrementStock(ctx, item.ID, 3)
	})
	require.NoError(t, err)

	got, err := storage.GetItem(ctx, itemID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.StockQuantity)
}

func TestTransaction_Rollback(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	item := createTestItem(t, storage, "Lamp", "30.00", 2)

	err := RunInTx(ctx, storage, func(tx Tx) error {
		if err := tx.DecrementStock(ctx, item.ID, 1); err != nil {
			return err
		}
		return tx.DecrementStock(ctx, item.ID, 5)
	})
	require.ErrorIs(t, err, types.ErrInsufficientStock)

	got, err := storage.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.StockQuantity, "first decrement must be rolled back")
}

func TestTransaction_Nested(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.BeginTx(ctx)
	assert.ErrorIs(t, err, ErrNestedTx)
	assert.NoError(t, tx.Close())
}

func TestTimeFormat_Ordering(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	early := time.Date(2024, 3, 1, 9, 0, 0, 5, loc)
	late := time.Date(2024, 3, 1, 9, 0, 0, 50, loc)

	assert.Less(t, formatTime(early), formatTime(late))

	parsed, err := parseTime(formatTime(early))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(early))

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestIsBusy(t *testing.T) {
	assert.False(t, isBusy(assert.AnError))
	assert.True(t, isBusy(errString("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isBusy(nil))
}

type errString string

func (e errString) Error() string { return string(e) }

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	config := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}

	calls := 0
	got, err := retryWithBackoff(ctx, config, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errString("database is locked")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = retryWithBackoff(ctx, config, func() (int, error) {
		calls++
		return 0, errString("syntax error")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls, "non-busy errors are not retried")
}
