// Package httpapi serves the shop over a JSON HTTP API.
//
// Callers register and log in under /auth to obtain an HS256 bearer token
// carrying their account id and role. Every other route except catalog
// browsing requires the token; routes are further gated by role through
// allowed. Money is rendered as decimal strings with two places.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dshills/shopmall-mcp/internal/app"
	"github.com/dshills/shopmall-mcp/internal/logging"
)

const (
	// DefaultMaxWait caps how long a message long-poll may block
	DefaultMaxWait = 30 * time.Second
	// shutdownTimeout bounds graceful shutdown of in-flight requests
	shutdownTimeout = 10 * time.Second
)

// Server is the HTTP transport
type Server struct {
	app          *app.App
	tokens       *TokenIssuer
	logger       *slog.Logger
	engine       *gin.Engine
	pollInterval time.Duration
	maxWait      time.Duration
}

// New builds the router over the wired services
func New(a *app.App) *Server {
	s := &Server{
		app:          a,
		tokens:       NewTokenIssuer(a.Config.Auth.JWTSecret, a.Config.Auth.TokenTTL),
		logger:       logging.OrDiscard(a.Logger).With("component", "http"),
		pollInterval: a.Config.Messaging.PollInterval,
		maxWait:      DefaultMaxWait,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	if origins := a.Config.Transport.CORSOrigins; len(origins) > 0 {
		r.Use(corsMiddleware(origins))
	}
	s.routes(r)
	s.engine = r
	return s
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	// Bearer tokens travel in a header, so cookies are only allowed for named origins
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cors.New(cfg)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", s.register)
		auth.POST("/login", s.login)
	}

	// Catalog browsing is public
	r.GET("/items", s.listItems)
	r.GET("/items/:id", s.getItem)

	api := r.Group("/", requireAuth(s.tokens))
	{
		api.GET("/me", s.getProfile)
		api.PATCH("/me", s.updateProfile)

		api.POST("/items", requirePermission(permManageCatalog), s.createItem)
		api.POST("/items/:id/restock", requirePermission(permManageCatalog), s.restockItem)
		api.DELETE("/items/:id", requirePermission(permManageCatalog), s.deleteItem)
		api.POST("/items/:id/like", requirePermission(permShop), s.likeItem)
		api.DELETE("/items/:id/like", requirePermission(permShop), s.unlikeItem)
		api.GET("/likes", requirePermission(permShop), s.listLiked)

		api.GET("/cart", requirePermission(permShop), s.getCart)
		api.POST("/cart/items", requirePermission(permShop), s.addToCart)
		api.PUT("/cart/items/:id", requirePermission(permShop), s.setCartQuantity)
		api.DELETE("/cart/items/:id", requirePermission(permShop), s.removeFromCart)
		api.POST("/cart/checkout", requirePermission(permShop), s.checkout)

		api.POST("/orders", requirePermission(permShop), s.placeOrder)
		api.GET("/orders", requirePermission(permShop), s.listOrders)
		api.GET("/orders/:id", requirePermission(permShop), s.getOrder)

		api.GET("/customers", requirePermission(permSupport), s.searchCustomers)

		api.POST("/reports", requirePermission(permReports), s.generateReport)
		api.GET("/reports", requirePermission(permReports), s.listReports)
		api.GET("/reports/:id", requirePermission(permReports), s.getReport)
		api.GET("/reports/:id/xlsx", requirePermission(permReports), s.exportReport)

		api.GET("/conversations", s.listConversations)
		api.POST("/conversations", requirePermission(permShop), s.startConversation)
		api.GET("/conversations/:id/messages", s.listMessages)
		api.POST("/conversations/:id/messages", s.postMessage)
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
