package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

func TestCreateAccount(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	account := createTestAccount(t, storage, "kate", types.RoleStaff)

	got, err := storage.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "kate", got.UserName)
	assert.Equal(t, types.RoleStaff, got.Role)

	byName, err := storage.GetAccountByUserName(ctx, "kate")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byName.ID)

	byEmail, err := storage.GetAccountByEmail(ctx, "kate@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)
}

func TestCreateAccount_Duplicate(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	createTestAccount(t, storage, "liam", types.RoleCustomer)

	dup := &types.Account{
		ID: uuid.NewString(), UserName: "liam", PasswordHash: "h",
		FirstName: "L", LastName: "M", Role: types.RoleCustomer, Email: "other@example.com",
	}
	assert.ErrorIs(t, storage.CreateAccount(ctx, dup), ErrAlreadyExists)

	dup.UserName = "liam2"
	dup.Email = "liam@example.com"
	assert.ErrorIs(t, storage.CreateAccount(ctx, dup), ErrAlreadyExists)

	dup.Email = "fresh@example.com"
	dup.Role = "Admin"
	assert.ErrorIs(t, storage.CreateAccount(ctx, dup), types.ErrInvalidInput)
}

func TestGetAccount_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	_, err := storage.GetAccount(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = storage.GetAccountByUserName(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAccount(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	account := createTestAccount(t, storage, "mia", types.RoleCustomer)
	createTestAccount(t, storage, "noah", types.RoleCustomer)

	account.City = "Denver"
	account.Phone = "5550100"
	require.NoError(t, storage.UpdateAccount(ctx, account))

	got, err := storage.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Denver", got.City)
	assert.Equal(t, "5550100", got.Phone)

	account.Email = "noah@example.com"
	assert.ErrorIs(t, storage.UpdateAccount(ctx, account), ErrAlreadyExists)

	ghost := &types.Account{ID: "ghost", Email: "ghost@example.com"}
	assert.ErrorIs(t, storage.UpdateAccount(ctx, ghost), ErrNotFound)
}

func TestSearchAccounts(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	createTestAccount(t, storage, "olivia", types.RoleCustomer)
	createTestAccount(t, storage, "oscar", types.RoleCustomer)
	createTestAccount(t, storage, "otto", types.RoleStaff)

	found, err := storage.SearchAccounts(ctx, types.RoleCustomer, "O", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "olivia", found[0].UserName)

	found, err = storage.SearchAccounts(ctx, types.RoleCustomer, "oscar@", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	all, err := storage.SearchAccounts(ctx, types.RoleStaff, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "otto", all[0].UserName)
}
