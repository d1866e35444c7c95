package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/shopmall-mcp/internal/logging"
	"github.com/dshills/shopmall-mcp/internal/storage"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

// Service manages support conversations
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a messaging service
func New(store storage.Storage, logger *slog.Logger) *Service {
	return &Service{storage: store, logger: logging.OrDiscard(logger)}
}

func conversationErr(conversationID int64, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %d", types.ErrConversationNotFound, conversationID)
	}
	return err
}

// StartConversation opens a thread for a customer with its first message
func (s *Service) StartConversation(ctx context.Context, customerID, subject, content string) (int64, error) {
	if err := types.RequireText("customer_id", customerID, 0); err != nil {
		return 0, err
	}
	if err := types.RequireText("subject", subject, types.MaxSubjectLen); err != nil {
		return 0, err
	}
	if err := types.RequireText("content", content, 0); err != nil {
		return 0, err
	}

	var convID int64
	err := storage.RunInTx(ctx, s.storage, func(tx storage.Tx) error {
		conv := &types.Conversation{CustomerID: customerID, Subject: subject}
		if err := tx.CreateConversation(ctx, conv); err != nil {
			return err
		}
		msg := &types.Message{
			ConversationID: conv.ID,
			UserID:         customerID,
			Role:           types.MessageFromCustomer,
			Content:        content,
		}
		if err := tx.CreateMessage(ctx, msg); err != nil {
			return err
		}
		convID = conv.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("conversation started", "conversation_id", convID, "customer_id", customerID)
	return convID, nil
}

// CustomerReply appends a customer message to a conversation the customer owns
func (s *Service) CustomerReply(ctx context.Context, customerID string, conversationID int64, content string) (*types.Message, error) {
	if err := types.RequireText("content", content, 0); err != nil {
		return nil, err
	}
	conv, err := s.Conversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	// Other customers' threads are reported as missing
	if conv.CustomerID != customerID {
		return nil, fmt.Errorf("%w: %d", types.ErrConversationNotFound, conversationID)
	}

	msg := &types.Message{
		ConversationID: conversationID,
		UserID:         customerID,
		Role:           types.MessageFromCustomer,
		Content:        content,
	}
	if err := s.storage.CreateMessage(ctx, msg); err != nil {
		return nil, conversationErr(conversationID, err)
	}
	return msg, nil
}

// StaffReply appends a staff message and marks the customer's messages read
func (s *Service) StaffReply(ctx context.Context, staffID string, conversationID int64, content string) (*types.Message, error) {
	if err := types.RequireText("content", content, 0); err != nil {
		return nil, err
	}

	msg := &types.Message{
		ConversationID: conversationID,
		UserID:         staffID,
		Role:           types.MessageFromStaff,
		Content:        content,
	}
	err := storage.RunInTx(ctx, s.storage, func(tx storage.Tx) error {
		if _, err := tx.GetConversation(ctx, conversationID); err != nil {
			return conversationErr(conversationID, err)
		}
		if err := tx.CreateMessage(ctx, msg); err != nil {
			return err
		}
		return tx.MarkConversationRead(ctx, conversationID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("staff replied", "conversation_id", conversationID, "staff_id", staffID)
	return msg, nil
}

// Conversation returns a conversation or types.ErrConversationNotFound
func (s *Service) Conversation(ctx context.Context, conversationID int64) (*types.Conversation, error) {
	conv, err := s.storage.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, conversationErr(conversationID, err)
	}
	return conv, nil
}

func summaries(convs []*types.Conversation) []types.ConversationSummary {
	out := make([]types.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, types.ConversationSummary{ID: c.ID, Subject: c.Subject})
	}
	return out
}

// ListConversations summarizes a customer's conversations, most recently active first
func (s *Service) ListConversations(ctx context.Context, customerID string) ([]types.ConversationSummary, error) {
	convs, err := s.storage.ListConversationsByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return summaries(convs), nil
}

// ListAllConversations summarizes every conversation for staff
func (s *Service) ListAllConversations(ctx context.Context) ([]types.ConversationSummary, error) {
	convs, err := s.storage.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	return summaries(convs), nil
}

// Messages returns the whole thread in order
func (s *Service) Messages(ctx context.Context, conversationID int64) ([]*types.Message, error) {
	return s.storage.ListMessages(ctx, conversationID)
}

// Since returns messages newer than afterID
func (s *Service) Since(ctx context.Context, conversationID, afterID int64) ([]*types.Message, error) {
	return s.storage.ListMessagesSince(ctx, conversationID, afterID)
}

// Unread lists conversations with unread customer messages
func (s *Service) Unread(ctx context.Context) ([]types.ConversationSummary, error) {
	return s.storage.ListUnreadConversations(ctx)
}

// MarkRead marks a conversation's customer messages read
func (s *Service) MarkRead(ctx context.Context, conversationID int64) error {
	return s.storage.MarkConversationRead(ctx, conversationID)
}

// Watch returns a stopped watcher for a conversation that will deliver
// messages newer than afterID
func (s *Service) Watch(conversationID, afterID int64, interval time.Duration) *Watcher {
	return NewWatcher(s, conversationID, afterID, interval, s.logger)
}
