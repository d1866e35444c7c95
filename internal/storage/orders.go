package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

func (s *sqlQueries) CreateOrder(ctx context.Context, order *types.Order) error {
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now()
	}
	if order.Status == "" {
		order.Status = types.StatusProcessing
	}
	if !order.Status.Valid() {
		return fmt.Errorf("%w: order status %q", types.ErrInvalidInput, order.Status)
	}
	if !order.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment method %q", types.ErrInvalidInput, order.PaymentMethod)
	}
	if order.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: order total must not be negative", types.ErrInvalidAmount)
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO orders (customer_id, to_state, to_city, to_address_line, total_cents, order_date, status, payment_method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, order.CustomerID, nullString(order.ToState), nullString(order.ToCity), nullString(order.ToAddressLine),
		types.ToCents(order.TotalAmount), formatTime(order.OrderDate), string(order.Status), string(order.PaymentMethod))
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown customer %q", types.ErrInvalidInput, order.CustomerID)
	}
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	order.ID = id
	order.TotalAmount = types.RoundMoney(order.TotalAmount)
	return nil
}

// AddOrderLine inserts a line. SubTotal is always derived from UnitPrice and Quantity.
func (s *sqlQueries) AddOrderLine(ctx context.Context, line *types.OrderLine) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("%w: line quantity must be positive", types.ErrInvalidAmount)
	}
	if line.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit price must not be negative", types.ErrInvalidAmount)
	}
	line.UnitPrice = types.RoundMoney(line.UnitPrice)
	line.SubTotal = types.LineSubtotal(line.UnitPrice, line.Quantity)

	var itemID sql.NullInt64
	if line.ItemID != nil {
		itemID = sql.NullInt64{Int64: *line.ItemID, Valid: true}
	}

	result, err := s.q.ExecContext(ctx, `
		INSERT INTO order_lines (order_id, item_id, item_name, item_description, item_category,
		                         quantity, unit_price_cents, sub_total_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, line.OrderID, itemID, line.ItemName, line.ItemDescription, line.ItemCategory,
		line.Quantity, types.ToCents(line.UnitPrice), types.ToCents(line.SubTotal))
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to add order line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	line.ID = id
	return nil
}

func (s *sqlQueries) RecomputeOrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	result, err := s.q.ExecContext(ctx, `
		UPDATE orders
		SET total_cents = (SELECT COALESCE(SUM(sub_total_cents), 0) FROM order_lines WHERE order_id = ?)
		WHERE id = ?
	`, orderID, orderID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to recompute order total: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return decimal.Zero, ErrNotFound
	}

	var cents int64
	if err := s.q.QueryRowContext(ctx, `SELECT total_cents FROM orders WHERE id = ?`, orderID).Scan(&cents); err != nil {
		return decimal.Zero, fmt.Errorf("failed to read order total: %w", err)
	}
	return types.FromCents(cents), nil
}

const orderColumns = `id, customer_id, to_state, to_city, to_address_line, total_cents, order_date, status, payment_method`

func scanOrder(row scanner) (*types.Order, error) {
	var order types.Order
	var state, city, line sql.NullString
	var totalCents int64
	var orderDate, status, method string
	err := row.Scan(&order.ID, &order.CustomerID, &state, &city, &line,
		&totalCents, &orderDate, &status, &method)
	if err != nil {
		return nil, err
	}
	order.ToState = state.String
	order.ToCity = city.String
	order.ToAddressLine = line.String
	order.TotalAmount = types.FromCents(totalCents)
	order.Status = types.OrderStatus(status)
	order.PaymentMethod = types.PaymentMethod(method)
	if order.OrderDate, err = parseTime(orderDate); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *sqlQueries) listOrderLines(ctx context.Context, orderID int64) ([]types.OrderLine, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, order_id, item_id, item_name, item_description, item_category,
		       quantity, unit_price_cents, sub_total_cents
		FROM order_lines
		WHERE order_id = ?
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	defer rows.Close()

	var lines []types.OrderLine
	for rows.Next() {
		var l types.OrderLine
		var itemID sql.NullInt64
		var unitCents, subCents int64
		if err := rows.Scan(&l.ID, &l.OrderID, &itemID, &l.ItemName, &l.ItemDescription,
			&l.ItemCategory, &l.Quantity, &unitCents, &subCents); err != nil {
			return nil, err
		}
		if itemID.Valid {
			id := itemID.Int64
			l.ItemID = &id
		}
		l.UnitPrice = types.FromCents(unitCents)
		l.SubTotal = types.FromCents(subCents)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *sqlQueries) GetOrder(ctx context.Context, orderID int64) (*types.Order, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", orderID, err)
	}

	if order.Lines, err = s.listOrderLines(ctx, orderID); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrdersByCustomer returns the customer's orders, newest first, with lines
func (s *sqlQueries) ListOrdersByCustomer(ctx context.Context, customerID string) ([]*types.Order, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_id = ?
		ORDER BY order_date DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var orders []*types.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Release the connection before querying lines
	_ = rows.Close()

	for _, order := range orders {
		if order.Lines, err = s.listOrderLines(ctx, order.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// AggregateSales groups lines of orders dated inside [start, end] by item.
// Lines whose item has been deleted are left out.
func (s *sqlQueries) AggregateSales(ctx context.Context, start, end time.Time) ([]types.SalesRow, error) {
	if end.Before(start) {
		return nil, types.ErrReportWindowInvalid
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT ol.item_id, SUM(ol.quantity), SUM(ol.sub_total_cents)
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		WHERE o.order_date BETWEEN ? AND ?
		  AND ol.item_id IS NOT NULL
		GROUP BY ol.item_id
		ORDER BY ol.item_id ASC
	`, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	defer rows.Close()

	var out []types.SalesRow
	for rows.Next() {
		var row types.SalesRow
		var subCents int64
		if err := rows.Scan(&row.ItemID, &row.ItemSold, &subCents); err != nil {
			return nil, err
		}
		row.SubTotal = types.FromCents(subCents)
		row.UnitPrice = types.WeightedUnitPrice(row.SubTotal, row.ItemSold)
		out = append(out, row)
	}
	return out, rows.Err()
}
