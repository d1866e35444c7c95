package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/shopmall-mcp/pkg/types"
)

const accountColumns = `id, user_name, password_hash, first_name, last_name, role, email,
	country, state, city, address_line, zip_code, phone, created_at, updated_at`

func scanAccount(row scanner) (*types.Account, error) {
	var a types.Account
	var role, createdAt, updatedAt string
	err := row.Scan(&a.ID, &a.UserName, &a.PasswordHash, &a.FirstName, &a.LastName, &role, &a.Email,
		&a.Country, &a.State, &a.City, &a.AddressLine, &a.ZipCode, &a.Phone, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.Role = types.Role(role)
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts an account with a caller-assigned ID.
// Duplicate user names or emails return ErrAlreadyExists.
func (s *sqlQueries) CreateAccount(ctx context.Context, account *types.Account) error {
	if !account.Role.Valid() {
		return fmt.Errorf("%w: role %q", types.ErrInvalidInput, account.Role)
	}
	now := time.Now()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO accounts (id, user_name, password_hash, first_name, last_name, role, email,
		                      country, state, city, address_line, zip_code, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, account.ID, account.UserName, account.PasswordHash, account.FirstName, account.LastName,
		string(account.Role), account.Email, account.Country, account.State, account.City,
		account.AddressLine, account.ZipCode, account.Phone, formatTime(now), formatTime(now))
	if isUniqueViolation(err) {
		return fmt.Errorf("account %q: %w", account.UserName, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (s *sqlQueries) getAccountBy(ctx context.Context, column, value string) (*types.Account, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+column+` = ?`, value)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

func (s *sqlQueries) GetAccount(ctx context.Context, accountID string) (*types.Account, error) {
	return s.getAccountBy(ctx, "id", accountID)
}

func (s *sqlQueries) GetAccountByUserName(ctx context.Context, userName string) (*types.Account, error) {
	return s.getAccountBy(ctx, "user_name", userName)
}

func (s *sqlQueries) GetAccountByEmail(ctx context.Context, email string) (*types.Account, error) {
	return s.getAccountBy(ctx, "email", email)
}

// UpdateAccount rewrites profile and address fields. User name, role and
// password are not changed here.
func (s *sqlQueries) UpdateAccount(ctx context.Context, account *types.Account) error {
	now := time.Now()
	result, err := s.q.ExecContext(ctx, `
		UPDATE accounts
		SET first_name = ?, last_name = ?, email = ?, country = ?, state = ?, city = ?,
		    address_line = ?, zip_code = ?, phone = ?, updated_at = ?
		WHERE id = ?
	`, account.FirstName, account.LastName, account.Email, account.Country, account.State,
		account.City, account.AddressLine, account.ZipCode, account.Phone, formatTime(now), account.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %q: %w", account.Email, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	account.UpdatedAt = now
	return nil
}

// SearchAccounts matches query against user name, email and names. An empty
// query lists every account of the role.
func (s *sqlQueries) SearchAccounts(ctx context.Context, role types.Role, query string, limit int) ([]*types.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE role = ?
		  AND (LOWER(user_name) LIKE ? OR LOWER(email) LIKE ?
		       OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)
		ORDER BY user_name ASC
		LIMIT ?
	`, string(role), pattern, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*types.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
