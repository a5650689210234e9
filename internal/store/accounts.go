// ABOUTME: Account, passkey credential, and session store methods
// ABOUTME: Supports password login for customers and passkey enrollment for admins

package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// CreateAccount creates a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, acct *Account) error {
	query := `
		INSERT INTO accounts (id, name, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		acct.ID,
		acct.Name,
		acct.Email,
		acct.PasswordHash,
		acct.Role,
		acct.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("inserting account: %w", err)
	}

	s.logger.Info("created account", "id", acct.ID, "email", acct.Email, "role", acct.Role)
	return nil
}

// GetAccount retrieves an account by ID.
func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at
		FROM accounts
		WHERE id = ?
	`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, id))
}

// GetAccountByEmail retrieves an account by email.
func (s *SQLiteStore) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at
		FROM accounts
		WHERE email = ?
	`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, email))
}

// GetAdminByEmail retrieves an admin account by email. Customer accounts
// with the same email are not visible through this method.
func (s *SQLiteStore) GetAdminByEmail(ctx context.Context, email string) (*Account, error) {
	query := `
		SELECT id, name, email, password_hash, role, created_at
		FROM accounts
		WHERE email = ? AND role = 'admin'
	`
	return s.scanAccount(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanAccount(row *sql.Row) (*Account, error) {
	var acct Account
	var passwordHash sql.NullString
	var createdAtStr string

	err := row.Scan(
		&acct.ID,
		&acct.Name,
		&acct.Email,
		&passwordHash,
		&acct.Role,
		&createdAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}

	acct.PasswordHash = passwordHash.String
	acct.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &acct, nil
}

// PutCredential stores the passkey credential for an account, replacing any
// previously enrolled one. Identifier and public key are persisted as
// standard base64 text.
func (s *SQLiteStore) PutCredential(ctx context.Context, cred *PasskeyCredential) error {
	query := `
		INSERT INTO passkey_credentials (account_id, credential_id, public_key, sign_count, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			credential_id = excluded.credential_id,
			public_key = excluded.public_key,
			sign_count = excluded.sign_count,
			created_at = excluded.created_at
	`

	_, err := s.db.ExecContext(ctx, query,
		cred.AccountID,
		base64.StdEncoding.EncodeToString(cred.CredentialID),
		base64.StdEncoding.EncodeToString(cred.PublicKey),
		cred.SignCount,
		cred.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting passkey credential: %w", err)
	}

	s.logger.Info("stored passkey credential", "account_id", cred.AccountID)
	return nil
}

// GetCredential retrieves the passkey credential enrolled for an account.
func (s *SQLiteStore) GetCredential(ctx context.Context, accountID string) (*PasskeyCredential, error) {
	query := `
		SELECT account_id, credential_id, public_key, sign_count, created_at
		FROM passkey_credentials
		WHERE account_id = ?
	`

	var cred PasskeyCredential
	var credIDStr, pubKeyStr, createdAtStr string

	err := s.db.QueryRowContext(ctx, query, accountID).Scan(
		&cred.AccountID,
		&credIDStr,
		&pubKeyStr,
		&cred.SignCount,
		&createdAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying passkey credential: %w", err)
	}

	cred.CredentialID, err = base64.StdEncoding.DecodeString(credIDStr)
	if err != nil {
		return nil, fmt.Errorf("decoding credential_id: %w", err)
	}
	cred.PublicKey, err = base64.StdEncoding.DecodeString(pubKeyStr)
	if err != nil {
		return nil, fmt.Errorf("decoding public_key: %w", err)
	}
	cred.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &cred, nil
}

// UpdateCredentialSignCount updates the signature counter for an account's credential.
func (s *SQLiteStore) UpdateCredentialSignCount(ctx context.Context, accountID string, signCount uint32) error {
	query := `UPDATE passkey_credentials SET sign_count = ? WHERE account_id = ?`

	result, err := s.db.ExecContext(ctx, query, signCount, accountID)
	if err != nil {
		return fmt.Errorf("updating sign count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCredentialNotFound
	}

	return nil
}

// PutSession creates or replaces a session. Replacing happens when the same
// browser session id is promoted again after a fresh login.
func (s *SQLiteStore) PutSession(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (id, account_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_id = excluded.account_id,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.AccountID,
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	s.logger.Debug("stored session", "id", session.ID, "account_id", session.AccountID)
	return nil
}

// GetSession retrieves a valid (non-expired) session.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, account_id, created_at, expires_at
		FROM sessions
		WHERE id = ? AND expires_at > ?
	`

	var session Session
	var createdAtStr, expiresAtStr string
	now := time.Now().UTC().Format(time.RFC3339)

	err := s.db.QueryRowContext(ctx, query, id, now).Scan(
		&session.ID,
		&session.AccountID,
		&createdAtStr,
		&expiresAtStr,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}

	return &session, nil
}

// DeleteSession deletes a session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now)
	if err != nil {
		return fmt.Errorf("deleting expired sessions: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		s.logger.Debug("deleted expired sessions", "count", rowsAffected)
	}
	return nil
}
