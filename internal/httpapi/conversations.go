package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

func (s *Server) listConversations(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		convs []types.ConversationSummary
		err   error
	)
	switch callerRole(c) {
	case types.RoleCustomer:
		convs, err = s.app.Messaging.ListConversations(ctx, callerID(c))
	case types.RoleStaff:
		if c.Query("unread") == "true" {
			convs, err = s.app.Messaging.Unread(ctx)
		} else {
			convs, err = s.app.Messaging.ListAllConversations(ctx)
		}
	case types.RoleExecutive:
		s.writeError(c, types.ErrForbidden)
		return
	default:
		s.writeError(c, types.ErrForbidden)
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaryViews(convs)})
}

type conversationBody struct {
	Subject string `json:"subject" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (s *Server) startConversation(c *gin.Context) {
	var body conversationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "subject and content are required")
		return
	}
	id, err := s.app.Messaging.StartConversation(c.Request.Context(), callerID(c), body.Subject, body.Content)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// authorizeConversation checks the caller may read or write the thread.
// Customers only see their own; another customer's thread reads as missing.
func (s *Server) authorizeConversation(c *gin.Context, conversationID int64) bool {
	switch callerRole(c) {
	case types.RoleCustomer:
		conv, err := s.app.Messaging.Conversation(c.Request.Context(), conversationID)
		if err != nil {
			s.writeError(c, err)
			return false
		}
		if conv.CustomerID != callerID(c) {
			s.writeError(c, types.ErrConversationNotFound)
			return false
		}
		return true
	case types.RoleStaff:
		if _, err := s.app.Messaging.Conversation(c.Request.Context(), conversationID); err != nil {
			s.writeError(c, err)
			return false
		}
		return true
	case types.RoleExecutive:
		s.writeError(c, types.ErrForbidden)
		return false
	default:
		s.writeError(c, types.ErrForbidden)
		return false
	}
}

// listMessages returns messages after the "after" id. With a "wait"
// duration it long-polls until a new message arrives or the wait expires.
func (s *Server) listMessages(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var after int64
	if raw := c.Query("after"); raw != "" {
		var err error
		if after, err = strconv.ParseInt(raw, 10, 64); err != nil || after < 0 {
			badRequest(c, "after must be a message id")
			return
		}
	}
	var wait time.Duration
	if raw := c.Query("wait"); raw != "" {
		var err error
		if wait, err = time.ParseDuration(raw); err != nil || wait < 0 {
			badRequest(c, "wait must be a duration such as 20s")
			return
		}
		if wait > s.maxWait {
			wait = s.maxWait
		}
	}

	if !s.authorizeConversation(c, id) {
		return
	}

	ctx := c.Request.Context()
	msgs, err := s.waitForMessages(ctx, id, after, wait)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if callerRole(c) == types.RoleStaff && len(msgs) > 0 {
		if err := s.app.Messaging.MarkRead(ctx, id); err != nil {
			s.writeError(c, err)
			return
		}
	}

	lastID := after
	if len(msgs) > 0 {
		lastID = msgs[len(msgs)-1].ID
	}
	c.JSON(http.StatusOK, gin.H{"messages": messageViews(msgs), "last_id": lastID})
}

func (s *Server) waitForMessages(ctx context.Context, conversationID, after int64, wait time.Duration) ([]*types.Message, error) {
	msgs, err := s.app.Messaging.Since(ctx, conversationID, after)
	if err != nil || len(msgs) > 0 || wait <= 0 {
		return msgs, err
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	w := s.app.Messaging.Watch(conversationID, after, s.pollInterval)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	defer w.Stop()

	select {
	case batch := <-w.Updates():
		return batch, nil
	case <-ctx.Done():
		return nil, nil
	}
}

type messageBody struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) postMessage(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body messageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "content is required")
		return
	}
	ctx := c.Request.Context()

	var (
		msg *types.Message
		err error
	)
	switch callerRole(c) {
	case types.RoleCustomer:
		msg, err = s.app.Messaging.CustomerReply(ctx, callerID(c), id, body.Content)
	case types.RoleStaff:
		msg, err = s.app.Messaging.StaffReply(ctx, callerID(c), id, body.Content)
	case types.RoleExecutive:
		err = types.ErrForbidden
	default:
		err = types.ErrForbidden
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, messageView(msg))
}
