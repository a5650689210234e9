// ABOUTME: Store interface and data types for floreria persistence
// ABOUTME: Defines Account, PasskeyCredential, catalog types and sentinel errors

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrAccountNotFound is returned when an account doesn't exist.
var ErrAccountNotFound = errors.New("account not found")

// ErrEmailExists is returned when trying to create an account with an existing email.
var ErrEmailExists = errors.New("email already registered")

// ErrCredentialNotFound is returned when an account has no enrolled passkey.
var ErrCredentialNotFound = errors.New("passkey credential not found")

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("session not found")

// ErrCategoryExists is returned when a category with the same name already exists.
var ErrCategoryExists = errors.New("category already exists")

// ErrCategoryInUse is returned when deleting a category that still has products.
var ErrCategoryInUse = errors.New("category has products")

// Account roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Account represents a shop user. Only admin accounts participate in
// passkey ceremonies.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcrypt hash
	Role         string // "customer" or "admin"
	CreatedAt    time.Time
}

// PasskeyCredential is the single enrolled authenticator credential for an
// admin account. Identifier and public key are stored base64-encoded in the
// database; this struct carries the raw bytes.
type PasskeyCredential struct {
	AccountID    string
	CredentialID []byte
	PublicKey    []byte
	SignCount    uint32
	CreatedAt    time.Time
}

// Session maps a browser session id to an authenticated account.
type Session struct {
	ID        string
	AccountID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Category groups products.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Product is a catalog entry. Description is markdown.
type Product struct {
	ID           string
	Name         string
	Description  string
	Price        float64
	Stock        int
	ImageURL     string
	CategoryID   string // empty if uncategorized
	CategoryName string // joined on read, not persisted
	CreatedAt    time.Time
}

// Order is a recorded checkout. Items are kept as the JSON payload the
// cart submitted.
type Order struct {
	ID           string
	AccountID    string // empty for guest checkout
	CustomerName string
	Total        float64
	ItemsJSON    string
	CreatedAt    time.Time
}

// Store defines the persistence interface for the shop.
type Store interface {
	// Accounts
	CreateAccount(ctx context.Context, acct *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
	GetAdminByEmail(ctx context.Context, email string) (*Account, error)

	// Passkey credentials (at most one per account)
	PutCredential(ctx context.Context, cred *PasskeyCredential) error
	GetCredential(ctx context.Context, accountID string) (*PasskeyCredential, error)
	UpdateCredentialSignCount(ctx context.Context, accountID string, signCount uint32) error

	// Sessions
	PutSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) error

	// Categories
	CreateCategory(ctx context.Context, cat *Category) error
	ListCategories(ctx context.Context) ([]*Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// Products
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]*Product, error)

	// Orders
	CreateOrder(ctx context.Context, o *Order) error
	ListOrders(ctx context.Context) ([]*Order, error)

	// Close releases any resources held by the store
	Close() error
}
