package types

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field length limits for catalog text
const (
	MaxItemNameLen        = 100
	MaxItemDescriptionLen = 250
	MaxItemCategoryLen    = 100
)

// Item is a sellable catalog entry with its stock ledger
type Item struct {
	ID            int64
	Name          string
	Description   string
	Category      string
	Price         decimal.Decimal
	StockQuantity int
	LikeCount     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the fields every stored item must satisfy
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: item name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(i.Name) > MaxItemNameLen {
		return fmt.Errorf("%w: item name must be at most %d characters", ErrInvalidInput, MaxItemNameLen)
	}
	if utf8.RuneCountInString(i.Description) > MaxItemDescriptionLen {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, MaxItemDescriptionLen)
	}
	if utf8.RuneCountInString(i.Category) > MaxItemCategoryLen {
		return fmt.Errorf("%w: category must be at most %d characters", ErrInvalidInput, MaxItemCategoryLen)
	}
	if i.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidAmount)
	}
	if i.StockQuantity < 0 {
		return fmt.Errorf("%w: stock quantity must not be negative", ErrInvalidAmount)
	}
	if i.LikeCount < 0 {
		return fmt.Errorf("%w: like count must not be negative", ErrInvalidAmount)
	}
	return nil
}

// InStock reports whether qty units can be taken from the item
func (i *Item) InStock(qty int) bool {
	return qty <= i.StockQuantity
}
