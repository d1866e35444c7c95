package types

import "time"

// Account is a registered user of any role
type Account struct {
	ID           string
	UserName     string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	Email        string
	Country      string
	State        string
	City         string
	AddressLine  string
	ZipCode      string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name
func (a *Account) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// ShippingAddress returns the account's stored address as an order destination
func (a *Account) ShippingAddress() Address {
	return Address{State: a.State, City: a.City, AddressLine: a.AddressLine}
}
