package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/shopmall-mcp/internal/catalog"
	"github.com/dshills/shopmall-mcp/internal/ordering"
	"github.com/dshills/shopmall-mcp/internal/storage"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

type cartFixture struct {
	mr         *miniredis.Miniredis
	cart       *Service
	catalog    *catalog.Service
	store      *storage.SQLiteStorage
	customerID string
}

// setupTestRedis creates a miniredis instance and a client bound to it
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func setupCart(t *testing.T) *cartFixture {
	t.Helper()
	mr, client := setupTestRedis(t)

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	customer := &types.Account{
		ID: uuid.NewString(), UserName: "cartuser", PasswordHash: "hash",
		FirstName: "C", LastName: "U", Role: types.RoleCustomer, Email: "cart@example.com",
	}
	require.NoError(t, store.CreateAccount(context.Background(), customer))

	cat := catalog.New(store, nil)
	svc := New(client, cat, ordering.New(store, nil), Config{KeyPrefix: "test", TTL: time.Hour}, nil)
	return &cartFixture{mr: mr, cart: svc, catalog: cat, store: store, customerID: customer.ID}
}

func (f *cartFixture) item(t *testing.T, name, price string, stock int) *types.Item {
	t.Helper()
	item, err := f.catalog.CreateItem(context.Background(), catalog.NewItem{
		Name: name, Price: decimal.RequireFromString(price), Stock: stock,
	})
	require.NoError(t, err)
	return item
}

func TestAdd(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()
	socks := f.item(t, "Socks", "4.50", 10)

	require.NoError(t, f.cart.Add(ctx, f.customerID, socks.ID, 2))
	require.NoError(t, f.cart.Add(ctx, f.customerID, socks.ID, 3))
	require.NoError(t, f.cart.Add(ctx, f.customerID, socks.ID, 0))
	require.NoError(t, f.cart.Add(ctx, f.customerID, socks.ID, -4))

	quantities, err := f.cart.Quantities(ctx, f.customerID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{socks.ID: 5}, quantities)

	key := "test:cart:" + f.customerID
	assert.True(t, f.mr.Exists(key))
	assert.Equal(t, time.Hour, f.mr.TTL(key))

	err = f.cart.Add(ctx, f.customerID, 404, 1)
	assert.ErrorIs(t, err, types.ErrItemNotFound)
}

func TestSetQuantityAndRemove(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()
	hat := f.item(t, "Hat", "15.00", 10)
	belt := f.item(t, "Belt", "22.00", 10)

	require.NoError(t, f.cart.Add(ctx, f.customerID, hat.ID, 1))
	require.NoError(t, f.cart.SetQuantity(ctx, f.customerID, belt.ID, 4))
	require.NoError(t, f.cart.SetQuantity(ctx, f.customerID, hat.ID, 7))

	quantities, err := f.cart.Quantities(ctx, f.customerID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{hat.ID: 7, belt.ID: 4}, quantities)

	require.NoError(t, f.cart.SetQuantity(ctx, f.customerID, hat.ID, 0))
	require.NoError(t, f.cart.Remove(ctx, f.customerID, belt.ID))

	has, err := f.cart.HasItems(ctx, f.customerID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestList(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()
	first := f.item(t, "Apple", "0.40", 100)
	second := f.item(t, "Bread", "2.25", 10)
	third := f.item(t, "Cheese", "7.10", 5)

	require.NoError(t, f.cart.Add(ctx, f.customerID, third.ID, 1))
	require.NoError(t, f.cart.Add(ctx, f.customerID, first.ID, 6))
	require.NoError(t, f.cart.Add(ctx, f.customerID, second.ID, 2))

	require.NoError(t, f.catalog.DeleteItem(ctx, second.ID))

	lines, err := f.cart.List(ctx, f.customerID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, first.ID, lines[0].Item.ID)
	assert.Equal(t, "2.40", types.FormatMoney(lines[0].SubTotal))
	assert.Equal(t, third.ID, lines[1].Item.ID)
	assert.Equal(t, "9.50", types.FormatMoney(Total(lines)))

	// The deleted item is gone from the cart itself
	quantities, err := f.cart.Quantities(ctx, f.customerID)
	require.NoError(t, err)
	assert.NotContains(t, quantities, second.ID)
}

func TestCheckout_Selected(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()
	pen := f.item(t, "Pen", "1.50", 20)
	pad := f.item(t, "Pad", "3.00", 20)

	require.NoError(t, f.cart.Add(ctx, f.customerID, pen.ID, 4))
	require.NoError(t, f.cart.Add(ctx, f.customerID, pad.ID, 2))

	orderID, err := f.cart.Checkout(ctx, CheckoutRequest{
		CustomerID:    f.customerID,
		ItemIDs:       []int64{pen.ID},
		PaymentMethod: types.PaymentDebit,
	})
	require.NoError(t, err)

	order, err := f.store.GetOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "6.00", types.FormatMoney(order.TotalAmount))

	quantities, err := f.cart.Quantities(ctx, f.customerID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{pad.ID: 2}, quantities)

	item, err := f.catalog.GetItem(ctx, pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 16, item.StockQuantity)
}

func TestCheckout_All(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()
	pen := f.item(t, "Pen", "1.50", 20)
	pad := f.item(t, "Pad", "3.00", 20)
	require.NoError(t, f.cart.Add(ctx, f.customerID, pen.ID, 1))
	require.NoError(t, f.cart.Add(ctx, f.customerID, pad.ID, 1))

	_, err := f.cart.Checkout(ctx, CheckoutRequest{CustomerID: f.customerID, PaymentMethod: types.PaymentCredit})
	require.NoError(t, err)

	has, err := f.cart.HasItems(ctx, f.customerID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCheckout_Failures(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()
	lamp := f.item(t, "Lamp", "30.00", 1)

	_, err := f.cart.Checkout(ctx, CheckoutRequest{CustomerID: f.customerID, PaymentMethod: types.PaymentCredit})
	assert.ErrorIs(t, err, types.ErrEmptyOrder)

	require.NoError(t, f.cart.Add(ctx, f.customerID, lamp.ID, 3))
	_, err = f.cart.Checkout(ctx, CheckoutRequest{CustomerID: f.customerID, PaymentMethod: types.PaymentCredit})
	assert.ErrorIs(t, err, types.ErrInsufficientStock)

	// The cart is untouched after a failed order
	quantities, err := f.cart.Quantities(ctx, f.customerID)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{lamp.ID: 3}, quantities)

	_, err = f.cart.Checkout(ctx, CheckoutRequest{
		CustomerID: f.customerID, ItemIDs: []int64{lamp.ID + 1}, PaymentMethod: types.PaymentCredit,
	})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	require.NoError(t, f.cart.Clear(ctx, f.customerID))
	has, err := f.cart.HasItems(ctx, f.customerID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestNew_Defaults(t *testing.T) {
	_, client := setupTestRedis(t)
	svc := New(client, nil, nil, Config{}, nil)
	assert.Equal(t, DefaultConfig(), svc.config)
	assert.Equal(t, "shopmall:cart:abc", svc.cartKey("abc"))
}
