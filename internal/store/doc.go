// ABOUTME: Package documentation for the store package
// ABOUTME: Describes the persistence layer and its SQLite implementation

// Package store provides persistence for floreria: accounts, passkey
// credentials, sessions, the product catalog, and recorded orders.
//
// The Store interface defines all operations; SQLiteStore is the
// production implementation backed by modernc.org/sqlite. The schema is
// created automatically on open, timestamps are stored as RFC3339 text,
// and lookups that miss return sentinel errors (ErrNotFound,
// ErrAccountNotFound, ErrCredentialNotFound, ...) rather than nil values.
package store
