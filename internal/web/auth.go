// ABOUTME: Password authentication handlers for customers and admins
// ABOUTME: Uses bcrypt with a dummy comparison to keep login timing flat

package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/floreria/margarita/internal/store"
)

// dummyHash keeps bcrypt comparison time constant when the account does
// not exist, so login timing cannot enumerate emails.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// handleRegister creates a customer account from the signup form.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "/", "Datos inválidos")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	if name == "" || email == "" || password == "" {
		redirectWithError(w, r, "/", "Todos los campos son obligatorios")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		redirectWithError(w, r, "/", "Ocurrió un error")
		return
	}

	acct := &store.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         store.RoleCustomer,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateAccount(r.Context(), acct); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			redirectWithError(w, r, "/", "Ese correo ya está registrado")
			return
		}
		s.logger.Error("failed to create account", "error", err)
		redirectWithError(w, r, "/", "Ocurrió un error")
		return
	}

	if err := s.promote(w, r, acct); err != nil {
		s.logger.Error("failed to create session", "error", err)
		redirectWithError(w, r, "/", "Ocurrió un error")
		return
	}

	s.logger.Info("customer registered", "email", email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogin processes the customer login form.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "/", "Datos inválidos")
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	acct, err := s.store.GetAccountByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			redirectWithError(w, r, "/", "Correo o contraseña incorrectos")
			return
		}
		s.logger.Error("failed to get account", "error", err)
		redirectWithError(w, r, "/", "Ocurrió un error")
		return
	}

	if acct.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		redirectWithError(w, r, "/", "Correo o contraseña incorrectos")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		redirectWithError(w, r, "/", "Correo o contraseña incorrectos")
		return
	}

	if err := s.promote(w, r, acct); err != nil {
		s.logger.Error("failed to create session", "error", err)
		redirectWithError(w, r, "/", "Ocurrió un error")
		return
	}

	s.logger.Info("login successful", "email", email, "role", acct.Role)
	if acct.Role == store.RoleAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleDashboardLogin processes the admin password login form. Only
// admin accounts are visible to this path.
func (s *Server) handleDashboardLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWithError(w, r, "/admin/login", "Datos inválidos")
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	acct, err := s.store.GetAdminByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			redirectWithError(w, r, "/admin/login", "Correo o contraseña incorrectos")
			return
		}
		s.logger.Error("failed to get admin account", "error", err)
		redirectWithError(w, r, "/admin/login", "Ocurrió un error")
		return
	}

	if acct.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		redirectWithError(w, r, "/admin/login", "Correo o contraseña incorrectos")
		return
	}

	if err := s.promote(w, r, acct); err != nil {
		s.logger.Error("failed to create session", "error", err)
		redirectWithError(w, r, "/admin/login", "Ocurrió un error")
		return
	}

	s.logger.Info("admin login successful", "email", email)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// handleLogout clears the session and returns to the storefront.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Clear(r.Context(), w, r); err != nil {
		s.logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// promote binds a freshly minted session to the account and sets its
// cookie.
func (s *Server) promote(w http.ResponseWriter, r *http.Request, acct *store.Account) error {
	_, err := s.sessions.Promote(r.Context(), w, r, acct)
	return err
}

func redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}
