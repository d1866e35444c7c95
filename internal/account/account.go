// Package account registers, authenticates and maintains user accounts.
//
// Staff and executive registrations are gated by registration codes taken
// from configuration. Passwords are stored as bcrypt hashes.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dshills/shopmall-mcp/internal/logging"
	"github.com/dshills/shopmall-mcp/internal/storage"
	"github.com/dshills/shopmall-mcp/pkg/types"
)

// Codes are the registration codes for privileged roles
type Codes struct {
	Staff     string
	Executive string
}

// DefaultCodes returns the stock registration codes
func DefaultCodes() Codes {
	return Codes{Staff: "STAFF_123", Executive: "CEO_123"}
}

// Service manages accounts
type Service struct {
	storage storage.AccountStore
	codes   Codes
	logger  *slog.Logger
	cost    int
}

// RegisterRequest carries a new account's details
type RegisterRequest struct {
	UserName  string `validate:"required,notblank,max=30"`
	Password  string `validate:"required,notblank"`
	FirstName string `validate:"required,notblank,max=50"`
	LastName  string `validate:"required,notblank,max=50"`
	Email     string `validate:"required,email"`
	// Role defaults to customer
	Role types.Role
	// RoleCode must match the configured code for staff and executive roles
	RoleCode string
}

// ProfileUpdate changes only the non-nil fields
type ProfileUpdate struct {
	FirstName   *string `validate:"omitempty,notblank,max=50"`
	LastName    *string `validate:"omitempty,notblank,max=50"`
	Email       *string `validate:"omitempty,email"`
	Country     *string `validate:"omitempty,max=50"`
	State       *string `validate:"omitempty,max=50"`
	City        *string `validate:"omitempty,max=50"`
	AddressLine *string `validate:"omitempty,max=100"`
	ZipCode     *string `validate:"omitempty,max=20"`
	Phone       *string `validate:"omitempty,phone"`
}

// New creates an account service
func New(store storage.AccountStore, codes Codes, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		codes:   codes,
		logger:  logging.OrDiscard(logger),
		cost:    bcrypt.DefaultCost,
	}
}

// checkRoleCode enforces the registration code of privileged roles
func (s *Service) checkRoleCode(role types.Role, code string) error {
	switch role {
	case types.RoleCustomer:
		return nil
	case types.RoleStaff:
		if code != s.codes.Staff {
			return fmt.Errorf("%w for staff", types.ErrRegistrationCode)
		}
		return nil
	case types.RoleExecutive:
		if code != s.codes.Executive {
			return fmt.Errorf("%w for CEO", types.ErrRegistrationCode)
		}
		return nil
	default:
		return fmt.Errorf("%w: role %q", types.ErrInvalidInput, role)
	}
}

// Register validates and creates an account
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*types.Account, error) {
	if err := types.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = types.RoleCustomer
	}
	if err := s.checkRoleCode(req.Role, req.RoleCode); err != nil {
		return nil, err
	}

	if _, err := s.storage.GetAccountByUserName(ctx, req.UserName); err == nil {
		return nil, fmt.Errorf("username %q: %w", req.UserName, storage.ErrAlreadyExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if _, err := s.storage.GetAccountByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email %q: %w", req.Email, storage.ErrAlreadyExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &types.Account{
		ID:           uuid.NewString(),
		UserName:     req.UserName,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		Email:        req.Email,
	}
	// The store's unique constraints catch a concurrent duplicate
	if err := s.storage.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "account_id", account.ID, "role", account.Role)
	return account, nil
}

// Login checks credentials and returns the account
func (s *Service) Login(ctx context.Context, userName, password string) (*types.Account, error) {
	if err := types.RequireText("user_name", userName, 0); err != nil {
		return nil, err
	}
	if err := types.RequireText("password", password, 0); err != nil {
		return nil, err
	}

	account, err := s.storage.GetAccountByUserName(ctx, userName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, types.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug("login failed", "user_name", userName)
		return nil, types.ErrInvalidCredentials
	}
	return account, nil
}

// Get returns an account by id
func (s *Service) Get(ctx context.Context, accountID string) (*types.Account, error) {
	account, err := s.storage.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", accountID, err)
	}
	return account, nil
}

// Search looks up accounts of one role by name, user name or email
func (s *Service) Search(ctx context.Context, role types.Role, query string, limit int) ([]*types.Account, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", types.ErrInvalidInput, role)
	}
	return s.storage.SearchAccounts(ctx, role, query, limit)
}

// UpdateProfile applies a partial profile update and returns the stored account
func (s *Service) UpdateProfile(ctx context.Context, accountID string, upd ProfileUpdate) (*types.Account, error) {
	if err := types.ValidateStruct(upd); err != nil {
		return nil, err
	}

	account, err := s.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&account.FirstName, upd.FirstName)
	set(&account.LastName, upd.LastName)
	set(&account.Email, upd.Email)
	set(&account.Country, upd.Country)
	set(&account.State, upd.State)
	set(&account.City, upd.City)
	set(&account.AddressLine, upd.AddressLine)
	set(&account.ZipCode, upd.ZipCode)
	if upd.Phone != nil {
		account.Phone, _ = types.NormalizePhone(*upd.Phone)
	}

	if err := s.storage.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
