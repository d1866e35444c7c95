package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dshills/shopmall-mcp/internal/cart"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

func accountView(a *types.Account) gin.H {
	return gin.H{
		"id":           a.ID,
		"user_name":    a.UserName,
		"first_name":   a.FirstName,
		"last_name":    a.LastName,
		"role":         a.Role.String(),
		"email":        a.Email,
		"country":      a.Country,
		"state":        a.State,
		"city":         a.City,
		"address_line": a.AddressLine,
		"zip_code":     a.ZipCode,
		"phone":        a.Phone,
	}
}

func itemView(item *types.Item) gin.H {
	return gin.H{
		"id":             item.ID,
		"name":           item.Name,
		"description":    item.Description,
		"category":       item.Category,
		"price":          types.FormatMoney(item.Price),
		"stock_quantity": item.StockQuantity,
		"like_count":     item.LikeCount,
	}
}

func itemViews(items []*types.Item) []gin.H {
	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, itemView(item))
	}
	return out
}

func cartView(lines []cart.Line) gin.H {
	views := make([]gin.H, 0, len(lines))
	for _, l := range lines {
		views = append(views, gin.H{
			"item":      itemView(l.Item),
			"quantity":  l.Quantity,
			"sub_total": types.FormatMoney(l.SubTotal),
		})
	}
	return gin.H{
		"lines": views,
		"total": types.FormatMoney(cart.Total(lines)),
	}
}

func orderView(order *types.Order) gin.H {
	lines := make([]gin.H, 0, len(order.Lines))
	for _, l := range order.Lines {
		line := gin.H{
			"item_name":        l.ItemName,
			"item_description": l.ItemDescription,
			"item_category":    l.ItemCategory,
			"quantity":         l.Quantity,
			"unit_price":       types.FormatMoney(l.UnitPrice),
			"sub_total":        types.FormatMoney(l.SubTotal),
		}
		if l.ItemID != nil {
			line["item_id"] = *l.ItemID
		}
		lines = append(lines, line)
	}
	return gin.H{
		"id":             order.ID,
		"status":         order.Status.String(),
		"payment_method": order.PaymentMethod.String(),
		"order_date":     order.OrderDate.Format(time.RFC3339),
		"total_amount":   types.FormatMoney(order.TotalAmount),
		"ship_to": gin.H{
			"state":        order.ToState,
			"city":         order.ToCity,
			"address_line": order.ToAddressLine,
		},
		"lines": lines,
	}
}

func reportView(report *types.Report, withContents bool) gin.H {
	view := gin.H{
		"id":            report.ID,
		"type":          report.Type.String(),
		"start_date":    report.StartDate.Format(time.RFC3339),
		"end_date":      report.EndDate.Format(time.RFC3339),
		"created_date":  report.CreatedDate.Format(time.RFC3339),
		"sold_quantity": report.SoldQuantity,
		"total_revenue": types.FormatMoney(report.TotalRevenue),
	}
	if withContents {
		contents := make([]gin.H, 0, len(report.Contents))
		for _, c := range report.Contents {
			contents = append(contents, gin.H{
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

func messageViews(msgs []*types.Message) []gin.H {
	out := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView(m))
	}
	return out
}

func messageView(m *types.Message) gin.H {
	return gin.H{
		"id":         m.ID,
		"user_id":    m.UserID,
		"role":       m.Role.String(),
		"content":    m.Content,
		"is_read":    m.IsRead,
		"created_at": m.CreatedAt.Format(time.RFC3339),
	}
}

func summaryViews(convs []types.ConversationSummary) []gin.H {
	out := make([]gin.H, 0, len(convs))
	for _, c := range convs {
		out = append(out, gin.H{"id": c.ID, "subject": c.Subject})
	}
	return out
}
