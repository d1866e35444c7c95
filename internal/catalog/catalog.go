// Package catalog manages sellable items, their stock and customer likes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dshills/shopmall-mcp/internal/logging"
	"github.com/dshills/shopmall-mcp/internal/storage"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

// Paging defaults for ListPopular
const (
	DefaultPage     = 1
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// Service is the catalog front for staff and customers
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// NewItem holds the fields staff supply when listing an item
type NewItem struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
}

// Page is one page of items ordered by popularity
type Page struct {
	Items      []*types.Item
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// New creates a catalog service
func New(store storage.Storage, logger *slog.Logger) *Service {
	return &Service{storage: store, logger: logging.OrDiscard(logger)}
}

func itemErr(itemID int64, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %d", types.ErrItemNotFound, itemID)
	}
	return err
}

// CreateItem lists a new item. The price must be positive.
func (s *Service) CreateItem(ctx context.Context, in NewItem) (*types.Item, error) {
	if !in.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be greater than zero", types.ErrInvalidAmount)
	}
	item := &types.Item{
		Name:          in.Name,
		Description:   in.Description,
		Category:      in.Category,
		Price:         in.Price,
		StockQuantity: in.Stock,
	}
	if err := s.storage.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("item created", "item_id", item.ID, "name", item.Name, "stock", item.StockQuantity)
	return item, nil
}

// GetItem returns an item or types.ErrItemNotFound
func (s *Service) GetItem(ctx context.Context, itemID int64) (*types.Item, error) {
	item, err := s.storage.GetItem(ctx, itemID)
	if err != nil {
		return nil, itemErr(itemID, err)
	}
	return item, nil
}

// UpdateItem changes the descriptive fields and price of an item
func (s *Service) UpdateItem(ctx context.Context, item *types.Item) error {
	if !item.Price.IsPositive() {
		return fmt.Errorf("%w: price must be greater than zero", types.ErrInvalidAmount)
	}
	return itemErr(item.ID, s.storage.UpdateItem(ctx, item))
}

// DeleteItem removes an item from the catalog. Past orders keep their snapshot.
func (s *Service) DeleteItem(ctx context.Context, itemID int64) error {
	if err := s.storage.DeleteItem(ctx, itemID); err != nil {
		return itemErr(itemID, err)
	}
	s.logger.Info("item deleted", "item_id", itemID)
	return nil
}

// Restock adds qty units to an item's stock and returns the updated item
func (s *Service) Restock(ctx context.Context, itemID int64, qty int) (*types.Item, error) {
	if err := s.storage.RestockItem(ctx, itemID, qty); err != nil {
		return nil, itemErr(itemID, err)
	}
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("item restocked", "item_id", itemID, "added", qty, "stock", item.StockQuantity)
	return item, nil
}

// ListPopular returns a page of items, most liked first.
// Non-positive page or size fall back to the defaults.
func (s *Service) ListPopular(ctx context.Context, page, pageSize int) (*Page, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total, err := s.storage.CountItems(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.storage.ListItemsByPopularity(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Like records that a customer likes an item. Liking twice is a no-op and
// reports false.
func (s *Service) Like(ctx context.Context, customerID string, itemID int64) (bool, error) {
	var changed bool
	// The liked row and like_count move together
	err := storage.RunInTx(ctx, s.storage, func(tx storage.Tx) error {
		var err error
		changed, err = tx.LikeItem(ctx, customerID, itemID)
		return err
	})
	if err != nil {
		return false, itemErr(itemID, err)
	}
	return changed, nil
}

// Unlike removes a like. The like count never drops below zero.
func (s *Service) Unlike(ctx context.Context, customerID string, itemID int64) (bool, error) {
	var changed bool
	err := storage.RunInTx(ctx, s.storage, func(tx storage.Tx) error {
		var err error
		changed, err = tx.UnlikeItem(ctx, customerID, itemID)
		return err
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// ListLiked returns the customer's liked items, most recent first
func (s *Service) ListLiked(ctx context.Context, customerID string) ([]*types.Item, error) {
	return s.storage.ListLikedItems(ctx, customerID)
}
