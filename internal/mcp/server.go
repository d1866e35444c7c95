package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/shopmall-mcp/internal/app"
)

const (
	// ServerName is the MCP server name
	ServerName = "shopmall-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp *server.MCPServer
	app *app.App
}

// NewServer creates a new MCP server instance over the wired services
func NewServer(a *app.App) *Server {
	s := &Server{
		mcp: server.NewMCPServer(ServerName, ServerVersion),
		app: a,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until the client
// disconnects. The caller owns the App and closes it afterwards.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Ordering
	s.mcp.AddTool(placeOrderTool(), s.handlePlaceOrder)
	s.mcp.AddTool(checkoutCartTool(), s.handleCheckoutCart)
	s.mcp.AddTool(getOrderTool(), s.handleGetOrder)
	s.mcp.AddTool(listOrdersTool(), s.handleListOrders)

	// Reporting
	s.mcp.AddTool(generateReportTool(), s.handleGenerateReport)
	s.mcp.AddTool(getReportTool(), s.handleGetReport)
	s.mcp.AddTool(listReportsTool(), s.handleListReports)

	// Catalog and cart
	s.mcp.AddTool(browseCatalogTool(), s.handleBrowseCatalog)
	s.mcp.AddTool(likeItemTool(), s.handleLikeItem)
	s.mcp.AddTool(cartAddTool(), s.handleCartAdd)
	s.mcp.AddTool(cartViewTool(), s.handleCartView)

	// Messaging
	s.mcp.AddTool(sendMessageTool(), s.handleSendMessage)
}
