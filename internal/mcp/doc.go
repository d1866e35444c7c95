// Package mcp implements the Model Context Protocol (MCP) server for shopmall.
//
// The server exposes the back office to MCP clients over stdio:
//   - place_order, checkout_cart: Commit an order, decrementing stock atomically
//   - get_order, list_orders: Read orders with their line snapshots
//   - generate_report, get_report, list_reports: Daily, weekly and monthly sales reports
//   - browse_catalog, like_item: Page through items by popularity
//   - cart_add, cart_view: Manage a customer's Redis-backed cart
//   - send_message: Open or reply to a support conversation
//
// Stdout carries the protocol; all logging goes to stderr.
//
// # Tool: place_order
//
//	Request:
//	{
//	  "name": "place_order",
//	  "arguments": {
//	    "customer_id": "5f0c...",
//	    "items": [{"item_id": 3, "quantity": 2}, {"item_id": 7, "quantity": 1}],
//	    "payment_method": "Credit",
//	    "city": "Springfield"
//	  }
//	}
//
//	Response:
//	{
//	  "order_id": 42,
//	  "status": "Processing",
//	  "total_amount": "37.49",
//	  "lines": [...]
//	}
//
// # Tool: generate_report
//
//	Request:
//	{
//	  "name": "generate_report",
//	  "arguments": {"type": "Monthly", "date": "2026-12-05"}
//	}
//
// The date selects the window: the day itself, the seven days starting on
// it, or its calendar month. Money is rendered as a string with two decimals.
//
// # Error Handling
//
// Errors carry JSON-RPC style codes:
//   - -32602: Invalid params (missing arguments, bad enum, zero quantity)
//   - -32603: Internal error (database, Redis)
//   - -32001: Item, order, report or conversation not found
//   - -32002: Insufficient stock (data names the item, requested and available)
//   - -32003: Order belongs to another customer
//   - -32004: Resource already exists
package mcp
