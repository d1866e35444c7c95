// Package cart keeps each customer's pending selection in Redis.
//
// A cart is one Redis hash per customer with the key pattern
// {prefix}:cart:{customer_id}, mapping item id to quantity. The hash expires
// after the configured TTL of inactivity. Checkout hands the selected lines
// to the order builder and removes them from the cart once the order commits.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"github.com/dshills/shopmall-mcp/internal/logging"
	"github.com/dshills/shopmall-mcp/internal/ordering"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

// ItemLookup resolves catalog items
type ItemLookup interface {
	GetItem(ctx context.Context, itemID int64) (*types.Item, error)
}

// OrderPlacer commits an order
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req ordering.PlaceOrderRequest) (int64, error)
}

// Config configures the cart store
type Config struct {
	// KeyPrefix is the prefix for all cart keys (default: "shopmall")
	KeyPrefix string
	// TTL is how long an untouched cart survives (default: 7 days)
	TTL time.Duration
}

// DefaultConfig returns the default cart configuration
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "shopmall",
		TTL:       7 * 24 * time.Hour,
	}
}

// Line is one cart entry joined with its catalog item
type Line struct {
	Item     *types.Item
	Quantity int
	SubTotal decimal.Decimal
}

// Service is the Redis-backed cart
type Service struct {
	client redis.Cmdable
	items  ItemLookup
	orders OrderPlacer
	config Config
	logger *slog.Logger
}

// New creates a cart service. Zero config fields take their defaults.
func New(client redis.Cmdable, items ItemLookup, orders OrderPlacer, config Config, logger *slog.Logger) *Service {
	defaults := DefaultConfig()
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaults.KeyPrefix
	}
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	return &Service{
		client: client,
		items:  items,
		orders: orders,
		config: config,
		logger: logging.OrDiscard(logger),
	}
}

// cartKey returns the Redis key of a customer's cart
func (s *Service) cartKey(customerID string) string {
	return fmt.Sprintf("%s:cart:%s", s.config.KeyPrefix, customerID)
}

func itemField(itemID int64) string {
	return strconv.FormatInt(itemID, 10)
}

// Add puts qty more units of an item in the cart. Non-positive quantities are ignored.
func (s *Service) Add(ctx context.Context, customerID string, itemID int64, qty int) error {
	if qty <= 0 {
		return nil
	}
	if _, err := s.items.GetItem(ctx, itemID); err != nil {
		return err
	}

	key := s.cartKey(customerID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, itemField(itemID), int64(qty))
		pipe.Expire(ctx, key, s.config.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}
	return nil
}

// SetQuantity replaces an item's quantity. A non-positive quantity removes it.
func (s *Service) SetQuantity(ctx context.Context, customerID string, itemID int64, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, customerID, itemID)
	}

	key := s.cartKey(customerID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, itemField(itemID), qty)
		pipe.Expire(ctx, key, s.config.TTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	return nil
}

// Remove drops items from the cart
func (s *Service) Remove(ctx context.Context, customerID string, itemIDs ...int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	fields := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		fields[i] = itemField(id)
	}
	if err := s.client.HDel(ctx, s.cartKey(customerID), fields...).Err(); err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	return nil
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, customerID string) error {
	if err := s.client.Del(ctx, s.cartKey(customerID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// HasItems reports whether the cart holds anything
func (s *Service) HasItems(ctx context.Context, customerID string) (bool, error) {
	n, err := s.client.HLen(ctx, s.cartKey(customerID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read cart: %w", err)
	}
	return n > 0, nil
}

// Quantities returns the raw item id to quantity map
func (s *Service) Quantities(ctx context.Context, customerID string) (map[int64]int, error) {
	raw, err := s.client.HGetAll(ctx, s.cartKey(customerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	out := make(map[int64]int, len(raw))
	for field, value := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt cart field %q: %w", field, err)
		}
		qty, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt cart quantity for item %d: %w", id, err)
		}
		out[id] = qty
	}
	return out, nil
}

// List returns the cart lines in ascending item id order. Items that have
// left the catalog are dropped from the cart.
func (s *Service) List(ctx context.Context, customerID string) ([]Line, error) {
	quantities, err := s.Quantities(ctx, customerID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	lines := make([]Line, 0, len(ids))
	var gone []int64
	for _, id := range ids {
		item, err := s.items.GetItem(ctx, id)
		if errors.Is(err, types.ErrItemNotFound) {
			gone = append(gone, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		qty := quantities[id]
		lines = append(lines, Line{Item: item, Quantity: qty, SubTotal: types.LineSubtotal(item.Price, qty)})
	}

	if len(gone) > 0 {
		s.logger.Debug("dropping deleted items from cart", "customer_id", customerID, "items", gone)
		if err := s.Remove(ctx, customerID, gone...); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

// Total sums the subtotals of lines
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.SubTotal)
	}
	return types.RoundMoney(total)
}

// CheckoutRequest selects cart items to purchase
type CheckoutRequest struct {
	CustomerID string
	// ItemIDs limits the purchase to these cart items; empty buys everything
	ItemIDs       []int64
	Address       types.Address
	PaymentMethod types.PaymentMethod
}

// Checkout places an order for the selected cart items and removes them
// from the cart after the order commits.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (int64, error) {
	quantities, err := s.Quantities(ctx, req.CustomerID)
	if err != nil {
		return 0, err
	}

	selected := quantities
	if len(req.ItemIDs) > 0 {
		selected = make(map[int64]int, len(req.ItemIDs))
		for _, id := range req.ItemIDs {
			qty, ok := quantities[id]
			if !ok {
				return 0, fmt.Errorf("%w: item %d is not in the cart", types.ErrInvalidInput, id)
			}
			selected[id] = qty
		}
	}
	if len(selected) == 0 {
		return 0, types.ErrEmptyOrder
	}

	orderID, err := s.orders.PlaceOrder(ctx, ordering.PlaceOrderRequest{
		CustomerID:    req.CustomerID,
		Quantities:    selected,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return 0, err
	}

	purchased := make([]int64, 0, len(selected))
	for id := range selected {
		purchased = append(purchased, id)
	}
	if err := s.Remove(ctx, req.CustomerID, purchased...); err != nil {
		// The order stands; a stale cart line is only cosmetic
		s.logger.Warn("order placed but cart not cleared", "order_id", orderID, "error", err)
	}
	return orderID, nil
}
