package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Shared property definitions

func customerIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Account id of the customer",
	}
}

func paymentMethodProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Mocked payment confirmation method",
		"enum":        []string{"Credit", "Debit"},
	}
}

func addressProperties(props map[string]interface{}) map[string]interface{} {
	props["state"] = map[string]interface{}{
		"type":        "string",
		"description": "Shipping state (optional)",
	}
	props["city"] = map[string]interface{}{
		"type":        "string",
		"description": "Shipping city (optional)",
	}
	props["address_line"] = map[string]interface{}{
		"type":        "string",
		"description": "Shipping street address (optional)",
	}
	return props
}

// placeOrderTool returns the tool definition for place_order
func placeOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "place_order",
		Description: "Place an order for a customer. Stock is checked and decremented atomically; either every line is committed or nothing is.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: addressProperties(map[string]interface{}{
				"customer_id": customerIDProperty(),
				"items": map[string]interface{}{
					"type":        "array",
					"description": "Items to buy. Lines with quantity 0 are ignored.",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"item_id": map[string]interface{}{
								"type":    "integer",
								"minimum": 1,
							},
							"quantity": map[string]interface{}{
								"type":    "integer",
								"minimum": 0,
							},
						},
						"required": []string{"item_id", "quantity"},
					},
				},
				"payment_method": paymentMethodProperty(),
			}),
			Required: []string{"customer_id", "items", "payment_method"},
		},
	}
}

// checkoutCartTool returns the tool definition for checkout_cart
func checkoutCartTool() mcp.Tool {
	return mcp.Tool{
		Name:        "checkout_cart",
		Description: "Turn the selected lines of a customer's cart into an order. Purchased lines leave the cart once the order commits.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: addressProperties(map[string]interface{}{
				"customer_id": customerIDProperty(),
				"item_ids": map[string]interface{}{
					"type":        "array",
					"description": "Cart items to buy. Omit to buy the whole cart.",
					"items": map[string]interface{}{
						"type": "integer",
					},
				},
				"payment_method": paymentMethodProperty(),
			}),
			Required: []string{"customer_id", "payment_method"},
		},
	}
}

// getOrderTool returns the tool definition for get_order
func getOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_order",
		Description: "Fetch an order with its line snapshots",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "integer",
					"description": "Order id",
				},
				"customer_id": map[string]interface{}{
					"type":        "string",
					"description": "If set, the order must belong to this customer",
				},
			},
			Required: []string{"order_id"},
		},
	}
}

// listOrdersTool returns the tool definition for list_orders
func listOrdersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_orders",
		Description: "List a customer's orders, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"customer_id": customerIDProperty(),
			},
			Required: []string{"customer_id"},
		},
	}
}

// generateReportTool returns the tool definition for generate_report
func generateReportTool() mcp.Tool {
	return mcp.Tool{
		Name:        "generate_report",
		Description: "Aggregate sales over a daily, weekly or monthly window and store an immutable report",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Window kind: Daily (the day), Weekly (seven days from the date), Monthly (the calendar month)",
					"enum":        []string{"Daily", "Weekly", "Monthly"},
				},
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Reference date as YYYY-MM-DD (default: today)",
				},
			},
			Required: []string{"type"},
		},
	}
}

// getReportTool returns the tool definition for get_report
func getReportTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_report",
		Description: "Fetch a stored report with its per-item contents",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"report_id": map[string]interface{}{
					"type":        "integer",
					"description": "Report id",
				},
			},
			Required: []string{"report_id"},
		},
	}
}

// listReportsTool returns the tool definition for list_reports
func listReportsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_reports",
		Description: "List stored reports, newest first. With type, start and end, only reports of that type whose window lies inside [start, end].",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"type": map[string]interface{}{
					"type": "string",
					"enum": []string{"Daily", "Weekly", "Monthly"},
				},
				"start": map[string]interface{}{
					"type":        "string",
					"description": "Start date as YYYY-MM-DD",
				},
				"end": map[string]interface{}{
					"type":        "string",
					"description": "End date as YYYY-MM-DD (inclusive)",
				},
			},
		},
	}
}

// browseCatalogTool returns the tool definition for browse_catalog
func browseCatalogTool() mcp.Tool {
	return mcp.Tool{
		Name:        "browse_catalog",
		Description: "Browse catalog items, most liked first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"page": map[string]interface{}{
					"type":    "integer",
					"default": 1,
					"minimum": 1,
				},
				"page_size": map[string]interface{}{
					"type":    "integer",
					"default": 25,
					"minimum": 1,
					"maximum": 200,
				},
			},
		},
	}
}

// likeItemTool returns the tool definition for like_item
func likeItemTool() mcp.Tool {
	return mcp.Tool{
		Name:        "like_item",
		Description: "Like or unlike a catalog item for a customer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"customer_id": customerIDProperty(),
				"item_id": map[string]interface{}{
					"type": "integer",
				},
				"unlike": map[string]interface{}{
					"type":        "boolean",
					"description": "Remove the like instead of adding it",
					"default":     false,
				},
			},
			Required: []string{"customer_id", "item_id"},
		},
	}
}

// cartAddTool returns the tool definition for cart_add
func cartAddTool() mcp.Tool {
	return mcp.Tool{
		Name:        "cart_add",
		Description: "Add units of an item to a customer's cart",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"customer_id": customerIDProperty(),
				"item_id": map[string]interface{}{
					"type": "integer",
				},
				"quantity": map[string]interface{}{
					"type":    "integer",
					"default": 1,
					"minimum": 1,
				},
			},
			Required: []string{"customer_id", "item_id"},
		},
	}
}

// cartViewTool returns the tool definition for cart_view
func cartViewTool() mcp.Tool {
	return mcp.Tool{
		Name:        "cart_view",
		Description: "Show a customer's cart with current prices and the running total",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"customer_id": customerIDProperty(),
			},
			Required: []string{"customer_id"},
		},
	}
}

// sendMessageTool returns the tool definition for send_message
func sendMessageTool() mcp.Tool {
	return mcp.Tool{
		Name:        "send_message",
		Description: "Post to a support conversation. Without conversation_id a customer opens a new thread with the given subject.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Account id of the sender",
				},
				"from": map[string]interface{}{
					"type":    "string",
					"enum":    []string{"Customer", "Staff"},
					"default": "Customer",
				},
				"conversation_id": map[string]interface{}{
					"type":        "integer",
					"description": "Existing conversation to reply to",
				},
				"subject": map[string]interface{}{
					"type":        "string",
					"description": "Subject of a new conversation (max 200 characters)",
				},
				"content": map[string]interface{}{
					"type": "string",
				},
			},
			Required: []string{"user_id", "content"},
		},
	}
}
