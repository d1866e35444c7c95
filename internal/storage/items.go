package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

const itemColumns = `id, name, description, category, price_cents, stock_quantity, like_count, created_at, updated_at`

func scanItem(row scanner) (*types.Item, error) {
	var item types.Item
	var priceCents int64
	var createdAt, updatedAt string
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Category,
		&priceCents, &item.StockQuantity, &item.LikeCount, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	item.Price = types.FromCents(priceCents)
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*types.Item, error) {
	defer rows.Close()
	var items []*types.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *sqlQueries) CreateItem(ctx context.Context, item *types.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	now := time.Now()
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO items (name, description, category, price_cents, stock_quantity, like_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.Name, item.Description, item.Category, types.ToCents(item.Price),
		item.StockQuantity, item.LikeCount, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	item.ID = id
	item.Price = types.RoundMoney(item.Price)
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (s *sqlQueries) GetItem(ctx context.Context, itemID int64) (*types.Item, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, itemID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	return item, nil
}

// UpdateItem rewrites the descriptive fields and price. Stock and likes have
// their own operations and are left untouched.
func (s *sqlQueries) UpdateItem(ctx context.Context, item *types.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}
	now := time.Now()
	result, err := s.q.ExecContext(ctx, `
		UPDATE items
		SET name = ?, description = ?, category = ?, price_cents = ?, updated_at = ?
		WHERE id = ?
	`, item.Name, item.Description, item.Category, types.ToCents(item.Price), formatTime(now), item.ID)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	item.UpdatedAt = now
	return nil
}

// DeleteItem removes an item. Order lines keep their snapshot with a NULL item_id.
func (s *sqlQueries) DeleteItem(ctx context.Context, itemID int64) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlQueries) ListItemsByPopularity(ctx context.Context, limit, offset int) ([]*types.Item, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		ORDER BY like_count DESC, id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return scanItems(rows)
}

func (s *sqlQueries) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return n, nil
}

func (s *sqlQueries) DecrementStock(ctx context.Context, itemID int64, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: decrement quantity must be positive", types.ErrInvalidAmount)
	}
	result, err := s.q.ExecContext(ctx, `
		UPDATE items
		SET stock_quantity = stock_quantity - ?, updated_at = ?
		WHERE id = ? AND stock_quantity >= ?
	`, qty, formatTime(time.Now()), itemID, qty)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: tell a missing item from a short one
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return err
	}
	return &types.StockError{
		ItemID:    itemID,
		ItemName:  item.Name,
		Requested: qty,
		Available: item.StockQuantity,
	}
}

func (s *sqlQueries) RestockItem(ctx context.Context, itemID int64, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: restock quantity must be positive", types.ErrInvalidAmount)
	}
	result, err := s.q.ExecContext(ctx, `
		UPDATE items SET stock_quantity = stock_quantity + ?, updated_at = ? WHERE id = ?
	`, qty, formatTime(time.Now()), itemID)
	if err != nil {
		return fmt.Errorf("failed to restock item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlQueries) LikeItem(ctx context.Context, customerID string, itemID int64) (bool, error) {
	result, err := s.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO liked_items (customer_id, item_id, created_at) VALUES (?, ?, ?)
	`, customerID, itemID, formatTime(time.Now()))
	if isForeignKeyViolation(err) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to like item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return false, nil
	}
	if _, err := s.q.ExecContext(ctx, `UPDATE items SET like_count = like_count + 1 WHERE id = ?`, itemID); err != nil {
		return false, fmt.Errorf("failed to bump like count: %w", err)
	}
	return true, nil
}

func (s *sqlQueries) UnlikeItem(ctx context.Context, customerID string, itemID int64) (bool, error) {
	result, err := s.q.ExecContext(ctx, `
		DELETE FROM liked_items WHERE customer_id = ? AND item_id = ?
	`, customerID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return false, nil
	}
	if _, err := s.q.ExecContext(ctx, `
		UPDATE items SET like_count = MAX(like_count - 1, 0) WHERE id = ?
	`, itemID); err != nil {
		return false, fmt.Errorf("failed to drop like count: %w", err)
	}
	return true, nil
}

func (s *sqlQueries) ListLikedItems(ctx context.Context, customerID string) ([]*types.Item, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT i.id, i.name, i.description, i.category, i.price_cents, i.stock_quantity,
		       i.like_count, i.created_at, i.updated_at
		FROM liked_items l
		JOIN items i ON i.id = l.item_id
		WHERE l.customer_id = ?
		ORDER BY l.created_at DESC, l.id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked items: %w", err)
	}
	return scanItems(rows)
}
