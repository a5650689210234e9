// ABOUTME: Tests for session minting, promotion, resolution, and logout
// ABOUTME: Runs against a real SQLite store in a temp dir

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/floreria/margarita/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *store.SQLiteStore) {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "floreria.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return NewManager(s, time.Hour), s
}

func createAccount(t *testing.T, s *store.SQLiteStore, role string) *store.Account {
	t.Helper()
	acct := &store.Account{
		ID:        "acct-" + role,
		Name:      "Test",
		Email:     role + "@floreria.test",
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.CreateAccount(context.Background(), acct); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return acct
}

func requestWithCookie(sid string) *http.Request {
	r := httptest.NewRequest("GET", "/", nil)
	if sid != "" {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: sid})
	}
	return r
}

func TestEnsureMintsCookieForNewVisitor(t *testing.T) {
	m, _ := newTestManager(t)
	w := httptest.NewRecorder()

	sid, err := m.Ensure(w, httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if sid == "" {
		t.Fatal("expected non-empty session id")
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].Name != CookieName || cookies[0].Value != sid {
		t.Errorf("cookie mismatch: %s=%s", cookies[0].Name, cookies[0].Value)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
}

func TestEnsureReusesExistingCookie(t *testing.T) {
	m, _ := newTestManager(t)
	w := httptest.NewRecorder()

	sid, err := m.Ensure(w, requestWithCookie("existing-sid"))
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if sid != "existing-sid" {
		t.Errorf("expected existing sid, got %q", sid)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("expected no new cookie for returning visitor")
	}
}

func TestCurrentAnonymous(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Current(context.Background(), httptest.NewRequest("GET", "/", nil))
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession without cookie, got %v", err)
	}

	// A minted but never promoted sid is still anonymous.
	_, err = m.Current(context.Background(), requestWithCookie("unpromoted-sid"))
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession for unpromoted sid, got %v", err)
	}
}

func TestPromoteThenCurrent(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, s, store.RoleAdmin)

	w := httptest.NewRecorder()
	sid, err := m.Promote(ctx, w, httptest.NewRequest("GET", "/", nil), acct)
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != sid {
		t.Fatalf("expected session cookie %q, got %v", sid, cookies)
	}

	got, err := m.Current(ctx, requestWithCookie(sid))
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if got.ID != acct.ID {
		t.Errorf("expected account %q, got %q", acct.ID, got.ID)
	}
}

func TestPromoteNeverBindsClientChosenSid(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, s, store.RoleAdmin)

	// The browser arrives with a cookie it chose itself. Login must not
	// turn that id into an authenticated session.
	w := httptest.NewRecorder()
	sid, err := m.Promote(ctx, w, requestWithCookie("attacker-sid"), acct)
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if sid == "attacker-sid" {
		t.Fatal("expected a freshly minted sid, got the planted one")
	}

	if _, err := m.Current(ctx, requestWithCookie("attacker-sid")); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected planted sid to stay anonymous, got %v", err)
	}

	got, err := m.Current(ctx, requestWithCookie(sid))
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if got.ID != acct.ID {
		t.Errorf("expected account %q, got %q", acct.ID, got.ID)
	}
}

func TestPromoteDropsPreviousIdentity(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	first := createAccount(t, s, store.RoleCustomer)
	second := createAccount(t, s, store.RoleAdmin)

	firstSid, err := m.Promote(ctx, httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), first)
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	// A fresh login on the logged-in browser mints a new sid and drops
	// the old binding.
	secondSid, err := m.Promote(ctx, httptest.NewRecorder(), requestWithCookie(firstSid), second)
	if err != nil {
		t.Fatalf("second Promote failed: %v", err)
	}
	if secondSid == firstSid {
		t.Fatal("expected a new sid on re-login")
	}

	if _, err := m.Current(ctx, requestWithCookie(firstSid)); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected old sid to be logged out, got %v", err)
	}

	got, err := m.Current(ctx, requestWithCookie(secondSid))
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("expected account %q, got %q", second.ID, got.ID)
	}
}

func TestClearLogsOut(t *testing.T) {
	m, s := newTestManager(t)
	ctx := context.Background()
	acct := createAccount(t, s, store.RoleCustomer)

	sid, err := m.Promote(ctx, httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), acct)
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	w := httptest.NewRecorder()
	if err := m.Clear(ctx, w, requestWithCookie(sid)); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Error("expected expired session cookie")
	}

	_, err = m.Current(ctx, requestWithCookie(sid))
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after Clear, got %v", err)
	}
}

func TestExpiredPromotionIsAnonymous(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "floreria.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	// Zero ttl expires the binding immediately.
	m := NewManager(s, 0)
	ctx := context.Background()
	acct := createAccount(t, s, store.RoleAdmin)

	sid, err := m.Promote(ctx, httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil), acct)
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	_, err = m.Current(ctx, requestWithCookie(sid))
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession for expired session, got %v", err)
	}
}
