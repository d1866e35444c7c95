package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

// Context keys set by the auth middleware
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// permission is a capability granted to roles
type permission int

const (
	permShop          permission = iota // cart, orders, own conversations
	permManageCatalog                   // create, restock and delete items
	permSupport                         // customer lookup and support replies
	permReports                         // sales reports
)

// allowed reports whether role holds p
func allowed(role types.Role, p permission) bool {
	switch role {
	case types.RoleCustomer:
		return p == permShop
	case types.RoleStaff:
		return p == permManageCatalog || p == permSupport
	case types.RoleExecutive:
		return p == permReports
	default:
		return false
	}
}

// requireAuth rejects requests without a valid bearer token
func requireAuth(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// requirePermission rejects authenticated callers whose role lacks p
func requirePermission(p permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allowed(callerRole(c), p) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": types.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func callerRole(c *gin.Context) types.Role {
	role, _ := c.Get(ctxRole)
	r, _ := role.(types.Role)
	return r
}

// requestLogger logs one line per request
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
