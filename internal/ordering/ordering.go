package ordering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshills/shopmall-mcp/internal/logging"
	"github.com/dshills/shopmall-mcp/internal/storage"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

// Service places and reads orders
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
	now     func() time.Time
}

// PlaceOrderRequest is a customer's selection at checkout
type PlaceOrderRequest struct {
	CustomerID string
	// Quantities maps item id to quantity. Non-positive quantities are dropped.
	Quantities    map[int64]int
	Address       types.Address
	PaymentMethod types.PaymentMethod
}

// plannedLine is a validated line waiting to be written
type plannedLine struct {
	item *types.Item
	qty  int
}

// AddLine merges one requested line into a quantity map. Non-positive
// quantities are dropped before merging, so they never offset another line
// for the same item.
func AddLine(quantities map[int64]int, itemID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	if qty > math.MaxInt-quantities[itemID] {
		return fmt.Errorf("%w: quantity for item %d is too large", types.ErrInvalidAmount, itemID)
	}
	quantities[itemID] += qty
	return nil
}

// New creates an ordering service
func New(store storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		logger:  logging.OrDiscard(logger),
		now:     time.Now,
	}
}

// PlaceOrder validates the selection and commits the order, its lines and
// the stock decrements atomically. It returns the new order id.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (int64, error) {
	if req.CustomerID == "" {
		return 0, fmt.Errorf("%w: customer id is required", types.ErrInvalidInput)
	}
	if !req.PaymentMethod.Valid() {
		return 0, fmt.Errorf("%w: payment method %q", types.ErrInvalidInput, req.PaymentMethod)
	}

	var orderID int64
	var total decimal.Decimal
	var lineCount int
	err := storage.RunInTx(ctx, s.storage, func(tx storage.Tx) error {
		plan, planned, err := s.plan(ctx, tx, req.Quantities)
		if err != nil {
			return err
		}

		order := &types.Order{
			CustomerID:    req.CustomerID,
			ToState:       req.Address.State,
			ToCity:        req.Address.City,
			ToAddressLine: req.Address.AddressLine,
			TotalAmount:   planned,
			OrderDate:     s.now(),
			Status:        types.StatusProcessing,
			PaymentMethod: req.PaymentMethod,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		for _, pl := range plan {
			itemID := pl.item.ID
			line := &types.OrderLine{
				OrderID:         order.ID,
				ItemID:          &itemID,
				ItemName:        pl.item.Name,
				ItemDescription: pl.item.Description,
				ItemCategory:    pl.item.Category,
				Quantity:        pl.qty,
				UnitPrice:       pl.item.Price,
			}
			if err := tx.AddOrderLine(ctx, line); err != nil {
				return fmt.Errorf("failed to add line for item %d: %w", itemID, err)
			}
			if err := tx.DecrementStock(ctx, itemID, pl.qty); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("%w: %d", types.ErrItemNotFound, itemID)
				}
				return err
			}
		}

		// Reconcile the header with what was actually written
		if total, err = tx.RecomputeOrderTotal(ctx, order.ID); err != nil {
			return err
		}
		orderID = order.ID
		lineCount = len(plan)
		return nil
	})
	if err != nil {
		s.logger.Warn("order rejected", "customer_id", req.CustomerID, "error", err)
		return 0, err
	}

	s.logger.Info("order placed",
		"order_id", orderID,
		"customer_id", req.CustomerID,
		"lines", lineCount,
		"total", types.FormatMoney(total))
	return orderID, nil
}

// plan checks every requested item in ascending id order and returns the
// lines to write plus their quantized total. Nothing is written here.
func (s *Service) plan(ctx context.Context, st storage.ItemStore, quantities map[int64]int) ([]plannedLine, decimal.Decimal, error) {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var plan []plannedLine
	total := decimal.Zero
	for _, id := range ids {
		// The item must exist even when its quantity is dropped
		item, err := st.GetItem(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, decimal.Zero, fmt.Errorf("%w: %d", types.ErrItemNotFound, id)
		}
		if err != nil {
			return nil, decimal.Zero, err
		}

		qty := quantities[id]
		if qty <= 0 {
			continue
		}
		if !item.InStock(qty) {
			return nil, decimal.Zero, &types.StockError{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Requested: qty,
				Available: item.StockQuantity,
			}
		}

		plan = append(plan, plannedLine{item: item, qty: qty})
		total = total.Add(types.LineSubtotal(item.Price, qty))
	}

	if len(plan) == 0 {
		return nil, decimal.Zero, types.ErrEmptyOrder
	}
	return plan, types.RoundMoney(total), nil
}

// GetOrder returns an order with its lines
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*types.Order, error) {
	order, err := s.storage.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", orderID, err)
	}
	return order, nil
}

// GetCustomerOrder returns the order only when it belongs to customerID
func (s *Service) GetCustomerOrder(ctx context.Context, customerID string, orderID int64) (*types.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, fmt.Errorf("order %d: %w", orderID, types.ErrForbidden)
	}
	return order, nil
}

// ListOrders returns the customer's orders, newest first
func (s *Service) ListOrders(ctx context.Context, customerID string) ([]*types.Order, error) {
	return s.storage.ListOrdersByCustomer(ctx, customerID)
}
