package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

func scanConversation(row scanner) (*types.Conversation, error) {
	var c types.Conversation
	var createdAt, updatedAt string
	if err := row.Scan(&c.ID, &c.CustomerID, &c.Subject, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanConversations(rows *sql.Rows) ([]*types.Conversation, error) {
	defer rows.Close()
	var convs []*types.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (s *sqlQueries) CreateConversation(ctx context.Context, conv *types.Conversation) error {
	now := time.Now()
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO conversations (customer_id, subject, created_at, updated_at) VALUES (?, ?, ?, ?)
	`, conv.CustomerID, conv.Subject, formatTime(now), formatTime(now))
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown customer %q", types.ErrInvalidInput, conv.CustomerID)
	}
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	conv.ID = id
	conv.CreatedAt = now
	conv.UpdatedAt = now
	return nil
}

func (s *sqlQueries) GetConversation(ctx context.Context, conversationID int64) (*types.Conversation, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, customer_id, subject, created_at, updated_at FROM conversations WHERE id = ?
	`, conversationID)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return c, nil
}

func (s *sqlQueries) ListConversationsByCustomer(ctx context.Context, customerID string) ([]*types.Conversation, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, customer_id, subject, created_at, updated_at
		FROM conversations
		WHERE customer_id = ?
		ORDER BY updated_at DESC, id DESC
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return scanConversations(rows)
}

func (s *sqlQueries) ListConversations(ctx context.Context) ([]*types.Conversation, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, customer_id, subject, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return scanConversations(rows)
}

// CreateMessage appends a message and bumps the conversation's updated_at
func (s *sqlQueries) CreateMessage(ctx context.Context, msg *types.Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("%w: message role %q", types.ErrInvalidInput, msg.Role)
	}
	now := time.Now()
	result, err := s.q.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, user_id, role, content, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ConversationID, msg.UserID, string(msg.Role), msg.Content, msg.IsRead, formatTime(now))
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if _, err := s.q.ExecContext(ctx, `
		UPDATE conversations SET updated_at = ? WHERE id = ?
	`, formatTime(now), msg.ConversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	msg.ID = id
	msg.CreatedAt = now
	return nil
}

func (s *sqlQueries) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*types.Message, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*types.Message
	for rows.Next() {
		var m types.Message
		var role, createdAt string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &role, &m.Content, &m.IsRead, &createdAt); err != nil {
			return nil, err
		}
		m.Role = types.MessageRole(role)
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

func (s *sqlQueries) ListMessages(ctx context.Context, conversationID int64) ([]*types.Message, error) {
	return s.queryMessages(ctx, `
		SELECT id, conversation_id, user_id, role, content, is_read, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`, conversationID)
}

// ListMessagesSince returns messages with an id greater than afterID, in id order
func (s *sqlQueries) ListMessagesSince(ctx context.Context, conversationID, afterID int64) ([]*types.Message, error) {
	return s.queryMessages(ctx, `
		SELECT id, conversation_id, user_id, role, content, is_read, created_at
		FROM messages
		WHERE conversation_id = ? AND id > ?
		ORDER BY id ASC
	`, conversationID, afterID)
}

// ListUnreadConversations lists conversations holding unread customer messages
func (s *sqlQueries) ListUnreadConversations(ctx context.Context) ([]types.ConversationSummary, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT DISTINCT c.id, c.subject
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.role = ? AND m.is_read = 0
		ORDER BY c.id ASC
	`, string(types.MessageFromCustomer))
	if err != nil {
		return nil, fmt.Errorf("failed to list unread conversations: %w", err)
	}
	defer rows.Close()

	var out []types.ConversationSummary
	for rows.Next() {
		var cs types.ConversationSummary
		if err := rows.Scan(&cs.ID, &cs.Subject); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// MarkConversationRead flags every unread customer message in the conversation as read
func (s *sqlQueries) MarkConversationRead(ctx context.Context, conversationID int64) error {
	_, err := s.q.ExecContext(ctx, `
		UPDATE messages SET is_read = 1
		WHERE conversation_id = ? AND role = ? AND is_read = 0
	`, conversationID, string(types.MessageFromCustomer))
	if err != nil {
		return fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return nil
}
