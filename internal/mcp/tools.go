package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/shopmall-mcp/internal/cart"
	"github.com/dshills/shopmall-mcp/internal/ordering"
	"github.com/dshills/shopmall-mcp/internal/storage"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeNotFound          = -32001 // Item, order, report or conversation does not exist
	ErrorCodeInsufficientStock = -32002 // An order line asks for more than is in stock
	ErrorCodeForbidden         = -32003 // Caller does not own the resource
	ErrorCodeConflict          = -32004 // Resource already exists
)

// dateLayout is the calendar date format accepted by report tools
const dateLayout = "2006-01-02"

// timeLayout is the timestamp format of every response
const timeLayout = "2006-01-02T15:04:05Z07:00"

// handlePlaceOrder handles the place_order tool invocation
func (s *Server) handlePlaceOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	customerID, err := requireString(args, "customer_id")
	if err != nil {
		return nil, err
	}
	method, err := paymentMethodArg(args)
	if err != nil {
		return nil, err
	}

	rawItems, ok := args["items"].([]interface{})
	if !ok || len(rawItems) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "items parameter is required", map[string]interface{}{
			"param":  "items",
			"reason": "missing or empty",
		})
	}
	quantities := make(map[int64]int, len(rawItems))
	for i, raw := range rawItems {
		line, ok := raw.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid order line", map[string]interface{}{
				"param": fmt.Sprintf("items[%d]", i),
			})
		}
		itemID, err := requireInt64(line, "item_id")
		if err != nil {
			return nil, err
		}
		qty, err := optionalInt(line, "quantity", 0)
		if err != nil {
			return nil, err
		}
		// Repeated ids accumulate into one line
		if err := ordering.AddLine(quantities, itemID, qty); err != nil {
			return nil, domainError("invalid order line", err)
		}
	}

	orderID, err := s.app.Orders.PlaceOrder(ctx, ordering.PlaceOrderRequest{
		CustomerID:    customerID,
		Quantities:    quantities,
		Address:       addressArg(args),
		PaymentMethod: method,
	})
	if err != nil {
		return nil, domainError("failed to place order", err)
	}

	return s.orderResult(ctx, orderID)
}

// handleCheckoutCart handles the checkout_cart tool invocation
func (s *Server) handleCheckoutCart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	customerID, err := requireString(args, "customer_id")
	if err != nil {
		return nil, err
	}
	method, err := paymentMethodArg(args)
	if err != nil {
		return nil, err
	}

	var itemIDs []int64
	if raw, ok := args["item_ids"].([]interface{}); ok {
		for _, v := range raw {
			id, ok := toInt64(v)
			if !ok {
				return nil, newMCPError(ErrorCodeInvalidParams, "item_ids must be integers", map[string]interface{}{
					"param": "item_ids",
				})
			}
			itemIDs = append(itemIDs, id)
		}
	}

	orderID, err := s.app.Cart.Checkout(ctx, cart.CheckoutRequest{
		CustomerID:    customerID,
		ItemIDs:       itemIDs,
		Address:       addressArg(args),
		PaymentMethod: method,
	})
	if err != nil {
		return nil, domainError("failed to check out cart", err)
	}

	return s.orderResult(ctx, orderID)
}

// handleGetOrder handles the get_order tool invocation
func (s *Server) handleGetOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	orderID, err := requireInt64(args, "order_id")
	if err != nil {
		return nil, err
	}

	var order *types.Order
	if customerID := getStringDefault(args, "customer_id", ""); customerID != "" {
		order, err = s.app.Orders.GetCustomerOrder(ctx, customerID, orderID)
	} else {
		order, err = s.app.Orders.GetOrder(ctx, orderID)
	}
	if err != nil {
		return nil, domainError("failed to get order", err)
	}

	return mcp.NewToolResultText(formatJSON(orderView(order))), nil
}

// handleListOrders handles the list_orders tool invocation
func (s *Server) handleListOrders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	customerID, err := requireString(args, "customer_id")
	if err != nil {
		return nil, err
	}

	orders, err := s.app.Orders.ListOrders(ctx, customerID)
	if err != nil {
		return nil, domainError("failed to list orders", err)
	}

	views := make([]map[string]interface{}, 0, len(orders))
	for _, o := range orders {
		views = append(views, orderView(o))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"orders": views,
		"count":  len(views),
	})), nil
}

// handleGenerateReport handles the generate_report tool invocation
func (s *Server) handleGenerateReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	reportType, err := reportTypeArg(args)
	if err != nil {
		return nil, err
	}

	ref := time.Now()
	if raw := getStringDefault(args, "date", ""); raw != "" {
		if ref, err = parseDate("date", raw); err != nil {
			return nil, err
		}
	}

	report, err := s.app.Reports.GenerateFor(ctx, reportType, ref)
	if err != nil {
		return nil, domainError("failed to generate report", err)
	}

	return mcp.NewToolResultText(formatJSON(reportView(report, true))), nil
}

// handleGetReport handles the get_report tool invocation
func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	reportID, err := requireInt64(args, "report_id")
	if err != nil {
		return nil, err
	}

	report, err := s.app.Reports.Get(ctx, reportID)
	if err != nil {
		return nil, domainError("failed to get report", err)
	}

	return mcp.NewToolResultText(formatJSON(reportView(report, true))), nil
}

// handleListReports handles the list_reports tool invocation
func (s *Server) handleListReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	var (
		reports []*types.Report
		err     error
	)
	if getStringDefault(args, "type", "") == "" {
		reports, err = s.app.Reports.ListAll(ctx)
	} else {
		reportType, perr := reportTypeArg(args)
		if perr != nil {
			return nil, perr
		}
		start, perr := requireDate(args, "start")
		if perr != nil {
			return nil, perr
		}
		end, perr := requireDate(args, "end")
		if perr != nil {
			return nil, perr
		}
		// The end date is inclusive
		reports, err = s.app.Reports.ListByTypeBetween(ctx, reportType, start, end.AddDate(0, 0, 1).Add(-time.Nanosecond))
	}
	if err != nil {
		return nil, domainError("failed to list reports", err)
	}

	views := make([]map[string]interface{}, 0, len(reports))
	for _, r := range reports {
		views = append(views, reportView(r, false))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"reports": views,
		"count":   len(views),
	})), nil
}

// handleBrowseCatalog handles the browse_catalog tool invocation
func (s *Server) handleBrowseCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	pageNum, err := optionalInt(args, "page", 1)
	if err != nil {
		return nil, err
	}
	pageSize, err := optionalInt(args, "page_size", 25)
	if err != nil {
		return nil, err
	}
	page, err := s.app.Catalog.ListPopular(ctx, pageNum, pageSize)
	if err != nil {
		return nil, domainError("failed to browse catalog", err)
	}

	items := make([]map[string]interface{}, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, itemView(item))
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"items":       items,
		"page":        page.Page,
		"page_size":   page.PageSize,
		"total":       page.Total,
		"total_pages": page.TotalPages,
	})), nil
}

// handleLikeItem handles the like_item tool invocation
func (s *Server) handleLikeItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	customerID, err := requireString(args, "customer_id")
	if err != nil {
		return nil, err
	}
	itemID, err := requireInt64(args, "item_id")
	if err != nil {
		return nil, err
	}

	var changed bool
	if getBoolDefault(args, "unlike", false) {
		changed, err = s.app.Catalog.Unlike(ctx, customerID, itemID)
	} else {
		changed, err = s.app.Catalog.Like(ctx, customerID, itemID)
	}
	if err != nil {
		return nil, domainError("failed to update like", err)
	}

	item, err := s.app.Catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, domainError("failed to get item", err)
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"changed": changed,
		"item":    itemView(item),
	})), nil
}

// handleCartAdd handles the cart_add tool invocation
func (s *Server) handleCartAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	customerID, err := requireString(args, "customer_id")
	if err != nil {
		return nil, err
	}
	itemID, err := requireInt64(args, "item_id")
	if err != nil {
		return nil, err
	}
	qty, err := optionalInt(args, "quantity", 1)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "quantity must be positive", map[string]interface{}{
			"param": "quantity",
		})
	}

	if err := s.app.Cart.Add(ctx, customerID, itemID, qty); err != nil {
		return nil, domainError("failed to add to cart", err)
	}
	return s.cartResult(ctx, customerID)
}

// handleCartView handles the cart_view tool invocation
func (s *Server) handleCartView(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	customerID, err := requireString(args, "customer_id")
	if err != nil {
		return nil, err
	}
	return s.cartResult(ctx, customerID)
}

// handleSendMessage handles the send_message tool invocation
func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	userID, err := requireString(args, "user_id")
	if err != nil {
		return nil, err
	}
	content, err := requireString(args, "content")
	if err != nil {
		return nil, err
	}
	from, err := types.ParseMessageRole(getStringDefault(args, "from", string(types.MessageFromCustomer)))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid sender", map[string]interface{}{
			"param":  "from",
			"reason": err.Error(),
		})
	}
	conversationID, hasConversation := toInt64(args["conversation_id"])

	var msg *types.Message
	switch from {
	case types.MessageFromCustomer:
		if !hasConversation {
			subject, err := requireString(args, "subject")
			if err != nil {
				return nil, err
			}
			conversationID, err = s.app.Messaging.StartConversation(ctx, userID, subject, content)
			if err != nil {
				return nil, domainError("failed to start conversation", err)
			}
			break
		}
		msg, err = s.app.Messaging.CustomerReply(ctx, userID, conversationID, content)
	case types.MessageFromStaff:
		if !hasConversation {
			return nil, newMCPError(ErrorCodeInvalidParams, "conversation_id parameter is required", map[string]interface{}{
				"param":  "conversation_id",
				"reason": "staff can only reply to an existing conversation",
			})
		}
		msg, err = s.app.Messaging.StaffReply(ctx, userID, conversationID, content)
	case types.MessageFromSystem:
		return nil, newMCPError(ErrorCodeInvalidParams, "system messages cannot be sent", map[string]interface{}{
			"param": "from",
		})
	}
	if err != nil {
		return nil, domainError("failed to send message", err)
	}

	response := map[string]interface{}{
		"conversation_id": conversationID,
	}
	if msg != nil {
		response["message"] = messageView(msg)
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

func (s *Server) orderResult(ctx context.Context, orderID int64) (*mcp.CallToolResult, error) {
	order, err := s.app.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, domainError("failed to get order", err)
	}
	return mcp.NewToolResultText(formatJSON(orderView(order))), nil
}

func (s *Server) cartResult(ctx context.Context, customerID string) (*mcp.CallToolResult, error) {
	lines, err := s.app.Cart.List(ctx, customerID)
	if err != nil {
		return nil, domainError("failed to list cart", err)
	}

	views := make([]map[string]interface{}, 0, len(lines))
	for _, l := range lines {
		views = append(views, map[string]interface{}{
			"item":      itemView(l.Item),
			"quantity":  l.Quantity,
			"sub_total": types.FormatMoney(l.SubTotal),
		})
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"customer_id": customerID,
		"lines":       views,
		"total":       types.FormatMoney(cart.Total(lines)),
	})), nil
}

// Response views

func itemView(item *types.Item) map[string]interface{} {
	return map[string]interface{}{
		"id":             item.ID,
		"name":           item.Name,
		"description":    item.Description,
		"category":       item.Category,
		"price":          types.FormatMoney(item.Price),
		"stock_quantity": item.StockQuantity,
		"like_count":     item.LikeCount,
	}
}

func orderView(order *types.Order) map[string]interface{} {
	lines := make([]map[string]interface{}, 0, len(order.Lines))
	for _, l := range order.Lines {
		line := map[string]interface{}{
			"item_name":        l.ItemName,
			"item_description": l.ItemDescription,
			"item_category":    l.ItemCategory,
			"quantity":         l.Quantity,
			"unit_price":       types.FormatMoney(l.UnitPrice),
			"sub_total":        types.FormatMoney(l.SubTotal),
		}
		// A deleted item leaves its snapshot behind without an id
		if l.ItemID != nil {
			line["item_id"] = *l.ItemID
		}
		lines = append(lines, line)
	}
	return map[string]interface{}{
		"order_id":       order.ID,
		"customer_id":    order.CustomerID,
		"status":         order.Status.String(),
		"payment_method": order.PaymentMethod.String(),
		"order_date":     order.OrderDate.Format(timeLayout),
		"total_amount":   types.FormatMoney(order.TotalAmount),
		"ship_to": map[string]interface{}{
			"state":        order.ToState,
			"city":         order.ToCity,
			"address_line": order.ToAddressLine,
		},
		"lines": lines,
	}
}

func reportView(report *types.Report, withContents bool) map[string]interface{} {
	view := map[string]interface{}{
		"report_id":     report.ID,
		"type":          report.Type.String(),
		"start_date":    report.StartDate.Format(timeLayout),
		"end_date":      report.EndDate.Format(timeLayout),
		"created_date":  report.CreatedDate.Format(timeLayout),
		"sold_quantity": report.SoldQuantity,
		"total_revenue": types.FormatMoney(report.TotalRevenue),
	}
	if withContents {
		contents := make([]map[string]interface{}, 0, len(report.Contents))
		for _, c := range report.Contents {
			contents = append(contents, map[string]interface{}{
				"item_id":    c.ItemID,
				"item_name":  c.ItemName,
				"item_sold":  c.ItemSold,
				"unit_price": types.FormatMoney(c.UnitPrice),
				"sub_total":  types.FormatMoney(c.SubTotal),
			})
		}
		view["contents"] = contents
	}
	return view
}

func messageView(msg *types.Message) map[string]interface{} {
	return map[string]interface{}{
		"message_id":      msg.ID,
		"conversation_id": msg.ConversationID,
		"user_id":         msg.UserID,
		"role":            msg.Role.String(),
		"content":         msg.Content,
		"is_read":         msg.IsRead,
		"created_at":      msg.CreatedAt.Format(timeLayout),
	}
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// domainError maps a service error onto an MCP error code
func domainError(message string, err error) error {
	data := map[string]interface{}{"error": err.Error()}

	var stockErr *types.StockError
	switch {
	case errors.As(err, &stockErr):
		data["item_id"] = stockErr.ItemID
		data["item_name"] = stockErr.ItemName
		data["requested"] = stockErr.Requested
		data["available"] = stockErr.Available
		return newMCPError(ErrorCodeInsufficientStock, message, data)
	case errors.Is(err, types.ErrItemNotFound),
		errors.Is(err, types.ErrConversationNotFound),
		errors.Is(err, storage.ErrNotFound):
		return newMCPError(ErrorCodeNotFound, message, data)
	case errors.Is(err, types.ErrForbidden):
		return newMCPError(ErrorCodeForbidden, message, data)
	case errors.Is(err, storage.ErrAlreadyExists):
		return newMCPError(ErrorCodeConflict, message, data)
	case errors.Is(err, types.ErrInvalidAmount),
		errors.Is(err, types.ErrInvalidInput),
		errors.Is(err, types.ErrReportWindowInvalid):
		return newMCPError(ErrorCodeInvalidParams, message, data)
	default:
		return newMCPError(ErrorCodeInternalError, message, data)
	}
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// optionalInt extracts a whole-number parameter, using defaultValue when it
// is absent. Fractional or non-numeric values are rejected.
func optionalInt(args map[string]interface{}, key string, defaultValue int) (int, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return defaultValue, nil
	}
	val, ok := toInt64(raw)
	if !ok || val > math.MaxInt32 || val < math.MinInt32 {
		return 0, newMCPError(ErrorCodeInvalidParams, key+" must be an integer", map[string]interface{}{
			"param":  key,
			"reason": "not an integer",
		})
	}
	return int(val), nil
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// toInt64 accepts JSON numbers and Go integers holding a whole value
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func requireString(args map[string]interface{}, key string) (string, error) {
	val, ok := args[key].(string)
	if !ok || val == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return val, nil
}

func requireInt64(args map[string]interface{}, key string) (int64, error) {
	val, ok := toInt64(args[key])
	if !ok {
		return 0, newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or not an integer",
		})
	}
	return val, nil
}

func parseDate(key, raw string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, newMCPError(ErrorCodeInvalidParams, "invalid date", map[string]interface{}{
			"param":  key,
			"reason": "expected YYYY-MM-DD",
		})
	}
	return t, nil
}

func requireDate(args map[string]interface{}, key string) (time.Time, error) {
	raw, err := requireString(args, key)
	if err != nil {
		return time.Time{}, err
	}
	return parseDate(key, raw)
}

func paymentMethodArg(args map[string]interface{}) (types.PaymentMethod, error) {
	raw, err := requireString(args, "payment_method")
	if err != nil {
		return "", err
	}
	method, err := types.ParsePaymentMethod(raw)
	if err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid payment method", map[string]interface{}{
			"param":  "payment_method",
			"reason": err.Error(),
		})
	}
	return method, nil
}

func reportTypeArg(args map[string]interface{}) (types.ReportType, error) {
	raw, err := requireString(args, "type")
	if err != nil {
		return "", err
	}
	reportType, err := types.ParseReportType(raw)
	if err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid report type", map[string]interface{}{
			"param":  "type",
			"reason": err.Error(),
		})
	}
	return reportType, nil
}

func addressArg(args map[string]interface{}) types.Address {
	return types.Address{
		State:       getStringDefault(args, "state", ""),
		City:        getStringDefault(args, "city", ""),
		AddressLine: getStringDefault(args, "address_line", ""),
	}
}
