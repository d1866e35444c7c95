package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dshills/shopmall-mcp/internal/storage"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

// writeError maps a service error onto a status code and JSON body.
// Unexpected errors are logged and hidden from the caller.
func (s *Server) writeError(c *gin.Context, err error) {
	var stockErr *types.StockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     err.Error(),
			"item_id":   stockErr.ItemID,
			"item_name": stockErr.ItemName,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, types.ErrItemNotFound),
		errors.Is(err, types.ErrConversationNotFound),
		errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrForbidden),
		errors.Is(err, types.ErrRegistrationCode):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrInvalidAmount),
		errors.Is(err, types.ErrInvalidInput),
		errors.Is(err, types.ErrReportWindowInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// idParam parses a positive integer path parameter
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
