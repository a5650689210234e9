// ABOUTME: Browser session manager mapping an opaque cookie to an identity
// ABOUTME: Anonymous sessions exist pre-login so ceremonies have a session key

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/floreria/margarita/internal/store"
)

// CookieName is the name of the session cookie.
const CookieName = "floreria_session"

// ErrNoSession is returned when a request carries no valid authenticated
// session.
var ErrNoSession = errors.New("no authenticated session")

// IdentityStore is the slice of the store the manager needs.
type IdentityStore interface {
	PutSession(ctx context.Context, session *store.Session) error
	GetSession(ctx context.Context, id string) (*store.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) error
	GetAccount(ctx context.Context, id string) (*store.Account, error)
}

// Manager owns the session cookie and the sid → account binding. The sid
// exists for every visitor; the binding only after a successful login,
// when Promote writes it.
type Manager struct {
	store  IdentityStore
	ttl    time.Duration
	logger *slog.Logger
}

// NewManager creates a session manager. ttl bounds how long a promoted
// identity stays valid.
func NewManager(s IdentityStore, ttl time.Duration) *Manager {
	return &Manager{
		store:  s,
		ttl:    ttl,
		logger: slog.Default().With("component", "session"),
	}
}

// Ensure returns the request's session id, minting a fresh anonymous one
// and setting the cookie when none exists. The id alone carries no
// identity; it is the key ceremonies and carts hang their state on.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	sid, err := generateToken(32)
	if err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}

	m.setCookie(w, r, sid)
	return sid, nil
}

// Promote mints a fresh session id, binds it to the account, and sets
// the cookie. The id the browser arrived with is never promoted, so a
// cookie planted before login can't become an authenticated session.
// Any identity bound to the old id is dropped.
func (m *Manager) Promote(ctx context.Context, w http.ResponseWriter, r *http.Request, acct *store.Account) (string, error) {
	sid, err := generateToken(32)
	if err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}

	if old, err := r.Cookie(CookieName); err == nil && old.Value != "" {
		if err := m.store.DeleteSession(ctx, old.Value); err != nil {
			m.logger.Warn("failed to drop previous session", "error", err)
		}
	}

	now := time.Now().UTC()
	err = m.store.PutSession(ctx, &store.Session{
		ID:        sid,
		AccountID: acct.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("promoting session: %w", err)
	}

	m.setCookie(w, r, sid)
	m.logger.Info("session promoted", "account_id", acct.ID, "role", acct.Role)
	return sid, nil
}

func (m *Manager) setCookie(w http.ResponseWriter, r *http.Request, sid string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// Current resolves the request's cookie to its authenticated account.
// Returns ErrNoSession for anonymous, expired, or unknown sessions.
func (m *Manager) Current(ctx context.Context, r *http.Request) (*store.Account, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	sess, err := m.store.GetSession(ctx, cookie.Value)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	acct, err := m.store.GetAccount(ctx, sess.AccountID)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return acct, nil
}

// Clear logs the session out: the identity row is deleted and the cookie
// expired. Safe to call on anonymous sessions.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err == nil && cookie.Value != "" {
		if err := m.store.DeleteSession(ctx, cookie.Value); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return nil
}

// StartCleanup begins periodic removal of expired session rows. It stops
// when ctx is cancelled.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.store.DeleteExpiredSessions(ctx); err != nil {
					m.logger.Warn("session cleanup failed", "error", err)
				}
			}
		}
	}()
}

func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
