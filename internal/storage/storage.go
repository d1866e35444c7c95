package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

// ItemStore is the catalog and its stock ledger
type ItemStore interface {
	CreateItem(ctx context.Context, item *types.Item) error
	GetItem(ctx context.Context, itemID int64) (*types.Item, error)
	UpdateItem(ctx context.Context, item *types.Item) error
	DeleteItem(ctx context.Context, itemID int64) error
	ListItemsByPopularity(ctx context.Context, limit, offset int) ([]*types.Item, error)
	CountItems(ctx context.Context) (int, error)

	// DecrementStock removes qty units in one conditional statement. It returns
	// types.ErrInsufficientStock when fewer than qty units remain.
	DecrementStock(ctx context.Context, itemID int64, qty int) error
	RestockItem(ctx context.Context, itemID int64, qty int) error

	// Likes report whether the call changed anything
	LikeItem(ctx context.Context, customerID string, itemID int64) (bool, error)
	UnlikeItem(ctx context.Context, customerID string, itemID int64) (bool, error)
	ListLikedItems(ctx context.Context, customerID string) ([]*types.Item, error)
}

// OrderStore persists orders and their lines
type OrderStore interface {
	CreateOrder(ctx context.Context, order *types.Order) error
	AddOrderLine(ctx context.Context, line *types.OrderLine) error
	// RecomputeOrderTotal sets the order total to the sum of its line subtotals
	RecomputeOrderTotal(ctx context.Context, orderID int64) (decimal.Decimal, error)
	GetOrder(ctx context.Context, orderID int64) (*types.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]*types.Order, error)

	// AggregateSales groups order lines dated inside [start, end] by item
	AggregateSales(ctx context.Context, start, end time.Time) ([]types.SalesRow, error)
}

// ReportStore persists sales reports
type ReportStore interface {
	CreateReport(ctx context.Context, report *types.Report) error
	AddReportContent(ctx context.Context, content *types.ReportContent) error
	GetReport(ctx context.Context, reportID int64) (*types.Report, error)
	ListReportContents(ctx context.Context, reportID int64) ([]types.ReportContent, error)
	ListReports(ctx context.Context) ([]*types.Report, error)
	ListReportsByTypeBetween(ctx context.Context, reportType types.ReportType, start, end time.Time) ([]*types.Report, error)
}

// AccountStore persists user accounts
type AccountStore interface {
	CreateAccount(ctx context.Context, account *types.Account) error
	GetAccount(ctx context.Context, accountID string) (*types.Account, error)
	GetAccountByUserName(ctx context.Context, userName string) (*types.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*types.Account, error)
	UpdateAccount(ctx context.Context, account *types.Account) error
	SearchAccounts(ctx context.Context, role types.Role, query string, limit int) ([]*types.Account, error)
}

// MessageStore persists support conversations
type MessageStore interface {
	CreateConversation(ctx context.Context, conv *types.Conversation) error
	GetConversation(ctx context.Context, conversationID int64) (*types.Conversation, error)
	ListConversationsByCustomer(ctx context.Context, customerID string) ([]*types.Conversation, error)
	ListConversations(ctx context.Context) ([]*types.Conversation, error)

	CreateMessage(ctx context.Context, msg *types.Message) error
	ListMessages(ctx context.Context, conversationID int64) ([]*types.Message, error)
	ListMessagesSince(ctx context.Context, conversationID, afterID int64) ([]*types.Message, error)
	ListUnreadConversations(ctx context.Context) ([]types.ConversationSummary, error)
	MarkConversationRead(ctx context.Context, conversationID int64) error
}

// Storage defines the interface for persisting and querying shop data
type Storage interface {
	ItemStore
	OrderStore
	ReportStore
	AccountStore
	MessageStore

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// RunInTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func RunInTx(ctx context.Context, s Storage, fn func(tx Tx) error) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
