package ordering

import (
	"context"
	"errors"
	"math"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/shopmall-mcp/internal/storage"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

func setupService(t *testing.T) (*Service, *storage.SQLiteStorage, string) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	customer := &types.Account{
		ID:           uuid.NewString(),
		UserName:     "buyer",
		PasswordHash: "hash",
		FirstName:    "Bea",
		LastName:     "Buyer",
		Role:         types.RoleCustomer,
		Email:        "buyer@example.com",
	}
	require.NoError(t, store.CreateAccount(context.Background(), customer))

	return New(store, nil), store, customer.ID
}

func addItem(t require.TestingT, store storage.Storage, name, price string, stock int) *types.Item {
	item := &types.Item{
		Name:          name,
		Description:   name + " description",
		Category:      "Tools",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
	require.NoError(t, store.CreateItem(context.Background(), item))
	return item
}

func stockOf(t *testing.T, store storage.Storage, id int64) int {
	t.Helper()
	item, err := store.GetItem(context.Background(), id)
	require.NoError(t, err)
	return item.StockQuantity
}

func TestPlaceOrder(t *testing.T) {
	svc, store, customerID := setupService(t)
	ctx := context.Background()
	hammer := addItem(t, store, "Hammer", "12.50", 10)
	nails := addItem(t, store, "Nails", "0.35", 500)

	id, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID:    customerID,
		Quantities:    map[int64]int{hammer.ID: 2, nails.ID: 3},
		Address:       types.Address{State: "CO", City: "Boulder", AddressLine: "1 Main St"},
		PaymentMethod: types.PaymentDebit,
	})
	require.NoError(t, err)

	order, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, order.Status)
	assert.Equal(t, types.PaymentDebit, order.PaymentMethod)
	assert.Equal(t, "Boulder", order.ToCity)
	assert.Equal(t, "26.05", types.FormatMoney(order.TotalAmount))
	require.Len(t, order.Lines, 2)

	// Lines follow ascending item id
	assert.Equal(t, "Hammer", order.Lines[0].ItemName)
	assert.Equal(t, "Hammer description", order.Lines[0].ItemDescription)
	assert.Equal(t, "25.00", types.FormatMoney(order.Lines[0].SubTotal))
	assert.Equal(t, "1.05", types.FormatMoney(order.Lines[1].SubTotal))

	assert.Equal(t, 8, stockOf(t, store, hammer.ID))
	assert.Equal(t, 497, stockOf(t, store, nails.ID))
}

func TestPlaceOrder_ExactStock(t *testing.T) {
	svc, store, customerID := setupService(t)
	item := addItem(t, store, "Lamp", "40.00", 2)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderRequest{
		CustomerID:    customerID,
		Quantities:    map[int64]int{item.ID: 2},
		PaymentMethod: types.PaymentCredit,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, store, item.ID))
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	svc, store, customerID := setupService(t)
	ctx := context.Background()
	plenty := addItem(t, store, "Cup", "3.00", 50)
	scarce := addItem(t, store, "Teapot", "30.00", 1)

	_, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID:    customerID,
		Quantities:    map[int64]int{plenty.ID: 4, scarce.ID: 2},
		PaymentMethod: types.PaymentCredit,
	})
	require.ErrorIs(t, err, types.ErrInsufficientStock)

	var stockErr *types.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce.ID, stockErr.ItemID)
	assert.Equal(t, "Teapot", stockErr.ItemName)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	// Nothing was written
	assert.Equal(t, 50, stockOf(t, store, plenty.ID))
	assert.Equal(t, 1, stockOf(t, store, scarce.ID))
	orders, err := svc.ListOrders(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_UnknownItem(t *testing.T) {
	svc, store, customerID := setupService(t)
	ctx := context.Background()
	item := addItem(t, store, "Rug", "80.00", 3)

	// A missing item fails even when its quantity would be dropped
	_, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID:    customerID,
		Quantities:    map[int64]int{item.ID: 1, 9999: 0},
		PaymentMethod: types.PaymentCredit,
	})
	assert.ErrorIs(t, err, types.ErrItemNotFound)
	assert.Equal(t, 3, stockOf(t, store, item.ID))

	orders, err := svc.ListOrders(ctx, customerID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrder_DropsNonPositive(t *testing.T) {
	svc, store, customerID := setupService(t)
	ctx := context.Background()
	kept := addItem(t, store, "Pen", "1.20", 10)
	dropped := addItem(t, store, "Ink", "4.00", 10)

	id, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID:    customerID,
		Quantities:    map[int64]int{kept.ID: 5, dropped.ID: -1},
		PaymentMethod: types.PaymentCredit,
	})
	require.NoError(t, err)

	order, err := svc.GetOrder(ctx, id)
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Pen", order.Lines[0].ItemName)
	assert.Equal(t, 10, stockOf(t, store, dropped.ID))
}

func TestPlaceOrder_Rejects(t *testing.T) {
	svc, store, customerID := setupService(t)
	ctx := context.Background()
	item := addItem(t, store, "Mug", "5.00", 10)

	tests := []struct {
		name    string
		req     PlaceOrderRequest
		wantErr error
	}{
		{
			name:    "empty selection",
			req:     PlaceOrderRequest{CustomerID: customerID, Quantities: map[int64]int{item.ID: 0}, PaymentMethod: types.PaymentCredit},
			wantErr: types.ErrInvalidAmount,
		},
		{
			name:    "no items",
			req:     PlaceOrderRequest{CustomerID: customerID, PaymentMethod: types.PaymentCredit},
			wantErr: types.ErrEmptyOrder,
		},
		{
			name:    "bad payment",
			req:     PlaceOrderRequest{CustomerID: customerID, Quantities: map[int64]int{item.ID: 1}, PaymentMethod: "Cash"},
			wantErr: types.ErrInvalidInput,
		},
		{
			name:    "missing customer",
			req:     PlaceOrderRequest{Quantities: map[int64]int{item.ID: 1}, PaymentMethod: types.PaymentCredit},
			wantErr: types.ErrInvalidInput,
		},
		{
			name:    "unknown customer",
			req:     PlaceOrderRequest{CustomerID: "ghost", Quantities: map[int64]int{item.ID: 1}, PaymentMethod: types.PaymentCredit},
			wantErr: types.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 10, stockOf(t, store, item.ID))
}

func TestGetCustomerOrder(t *testing.T) {
	svc, store, customerID := setupService(t)
	ctx := context.Background()
	item := addItem(t, store, "Bell", "2.00", 5)

	id, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
		CustomerID:    customerID,
		Quantities:    map[int64]int{item.ID: 1},
		PaymentMethod: types.PaymentCredit,
	})
	require.NoError(t, err)

	_, err = svc.GetCustomerOrder(ctx, customerID, id)
	assert.NoError(t, err)
	_, err = svc.GetCustomerOrder(ctx, "someone-else", id)
	assert.ErrorIs(t, err, types.ErrForbidden)
	_, err = svc.GetOrder(ctx, id+100)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// Stored totals always equal the sum of stored line subtotals, and stock
// drops by exactly the ordered quantity.
func TestPlaceOrder_TotalsProperty(t *testing.T) {
	svc, store, customerID := setupService(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 5).Draw(rt, "items")
		quantities := make(map[int64]int, n)
		before := make(map[int64]int, n)
		expected := decimal.Zero
		for i := 0; i < n; i++ {
			cents := rapid.Int64Range(1, 250000).Draw(rt, "cents")
			qty := rapid.IntRange(1, 20).Draw(rt, "qty")
			price := types.FromCents(cents)
			item := addItem(rt, store, fmt.Sprintf("item-%d", i), price.StringFixed(2), 100)
			quantities[item.ID] = qty
			before[item.ID] = item.StockQuantity
			expected = expected.Add(types.LineSubtotal(price, qty))
		}

		id, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
			CustomerID:    customerID,
			Quantities:    quantities,
			PaymentMethod: types.PaymentCredit,
		})
		require.NoError(rt, err)

		order, err := store.GetOrder(ctx, id)
		require.NoError(rt, err)
		require.Len(rt, order.Lines, n)
		require.True(rt, order.TotalAmount.Equal(order.LinesTotal()),
			"total %s != lines %s", order.TotalAmount, order.LinesTotal())
		require.True(rt, order.TotalAmount.Equal(types.RoundMoney(expected)))

		for itemID, qty := range quantities {
			item, err := store.GetItem(ctx, itemID)
			require.NoError(rt, err)
			require.Equal(rt, before[itemID]-qty, item.StockQuantity)
		}
	})
}

var errInjected = errors.New("injected write failure")

// faultyStore fails the failAt-th call of one transactional write
type faultyStore struct {
	storage.Storage
	failOp string
	failAt int
}

func (f *faultyStore) BeginTx(ctx context.Context) (storage.Tx, error) {
	tx, err := f.Storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, store: f, calls: map[string]int{}}, nil
}

type faultyTx struct {
	storage.Tx
	store *faultyStore
	calls map[string]int
}

func (t *faultyTx) fail(op string) error {
	t.calls[op]++
	if op == t.store.failOp && t.calls[op] == t.store.failAt {
		return errInjected
	}
	return nil
}

func (t *faultyTx) AddOrderLine(ctx context.Context, line *types.OrderLine) error {
	if err := t.fail("AddOrderLine"); err != nil {
		return err
	}
	return t.Tx.AddOrderLine(ctx, line)
}

func (t *faultyTx) DecrementStock(ctx context.Context, itemID int64, qty int) error {
	if err := t.fail("DecrementStock"); err != nil {
		return err
	}
	return t.Tx.DecrementStock(ctx, itemID, qty)
}

func (t *faultyTx) RecomputeOrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	if err := t.fail("RecomputeOrderTotal"); err != nil {
		return decimal.Zero, err
	}
	return t.Tx.RecomputeOrderTotal(ctx, orderID)
}

func countRows(t *testing.T, store *storage.SQLiteStorage, table string) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestPlaceOrder_LateFailureRollsBack(t *testing.T) {
	tests := []struct {
		op     string
		failAt int
	}{
		{"AddOrderLine", 2},
		{"DecrementStock", 2},
		{"RecomputeOrderTotal", 1},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			_, store, customerID := setupService(t)
			ctx := context.Background()
			first := addItem(t, store, "Saw", "30.00", 10)
			second := addItem(t, store, "Drill", "80.00", 4)

			svc := New(&faultyStore{Storage: store, failOp: tt.op, failAt: tt.failAt}, nil)
			_, err := svc.PlaceOrder(ctx, PlaceOrderRequest{
				CustomerID:    customerID,
				Quantities:    map[int64]int{first.ID: 3, second.ID: 1},
				PaymentMethod: types.PaymentCredit,
			})
			require.ErrorIs(t, err, errInjected)

			assert.Equal(t, 0, countRows(t, store, "orders"))
			assert.Equal(t, 0, countRows(t, store, "order_lines"))
			assert.Equal(t, 10, stockOf(t, store, first.ID))
			assert.Equal(t, 4, stockOf(t, store, second.ID))
		})
	}
}

func TestAddLine(t *testing.T) {
	quantities := map[int64]int{}
	require.NoError(t, AddLine(quantities, 1, 5))
	require.NoError(t, AddLine(quantities, 1, -3))
	require.NoError(t, AddLine(quantities, 2, 0))
	require.NoError(t, AddLine(quantities, 1, 2))
	assert.Equal(t, map[int64]int{1: 7}, quantities)

	big := map[int64]int{1: math.MaxInt - 1}
	assert.ErrorIs(t, AddLine(big, 1, 2), types.ErrInvalidAmount)
	assert.Equal(t, math.MaxInt-1, big[1])
}
