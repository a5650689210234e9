// ABOUTME: HTTP server wiring for storefront and admin routes
// ABOUTME: Owns the ceremony engine and admin-only middleware

package web

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/floreria/margarita/internal/ceremony"
	"github.com/floreria/margarita/internal/session"
	"github.com/floreria/margarita/internal/store"
)

// Config holds web server configuration
type Config struct {
	// ShopName is shown in page titles and headers.
	ShopName string
	// RPDisplayName is what authenticators show during passkey prompts.
	RPDisplayName string
	// UploadsDir is where product images are written and served from.
	UploadsDir string
}

// Server handles all HTTP traffic for the shop.
type Server struct {
	store      store.Store
	sessions   *session.Manager
	engine     *ceremony.Engine
	challenges *ceremony.ChallengeCache
	config     Config
	logger     *slog.Logger
}

// NewServer creates a web server. Close must be called on shutdown to
// stop the challenge cache sweep.
func NewServer(st store.Store, sessions *session.Manager, cfg Config) *Server {
	challenges := ceremony.NewChallengeCache()
	return &Server{
		store:      st,
		sessions:   sessions,
		engine:     ceremony.NewEngine(st, challenges),
		challenges: challenges,
		config:     cfg,
		logger:     slog.Default().With("component", "web"),
	}
}

// Close releases server resources.
func (s *Server) Close() {
	s.challenges.Close()
}

// RegisterRoutes registers all routes on the given mux
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Storefront
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("POST /checkout", s.handleCheckout)

	// Admin pages and password login
	mux.HandleFunc("GET /admin/login", s.handleAdminLoginPage)
	mux.HandleFunc("POST /admin/dashboard-login", s.handleDashboardLogin)
	mux.HandleFunc("GET /admin", s.requireAdmin(s.handleAdmin))

	// Passkey ceremonies. Registration requires an authenticated admin;
	// the login pair is the unauthenticated entry point.
	mux.HandleFunc("GET /admin/webauthn/register/options", s.requireAdmin(s.handleRegisterOptions))
	mux.HandleFunc("POST /admin/webauthn/register/verify", s.requireAdmin(s.handleRegisterVerify))
	mux.HandleFunc("POST /admin/webauthn/login/options", s.handleLoginOptions)
	mux.HandleFunc("POST /admin/webauthn/login/verify", s.handleLoginVerify)

	// Catalog administration
	mux.HandleFunc("POST /admin/categories", s.requireAdmin(s.handleCategoryCreate))
	mux.HandleFunc("POST /admin/categories/{id}/delete", s.requireAdmin(s.handleCategoryDelete))
	mux.HandleFunc("POST /admin/products", s.requireAdmin(s.handleProductCreate))
	mux.HandleFunc("POST /admin/products/{id}/edit", s.requireAdmin(s.handleProductEdit))
	mux.HandleFunc("POST /admin/products/{id}/delete", s.requireAdmin(s.handleProductDelete))

	// Assets
	staticContent, err := fs.Sub(staticFS, "static")
	if err == nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))
	}
	mux.Handle("GET /img/", http.StripPrefix("/img/", http.FileServer(http.Dir(s.config.UploadsDir))))

	s.logger.Info("routes registered")
}

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const accountContextKey contextKey = "account"

// requireAdmin wraps a handler to require an authenticated admin session.
// Browsers are redirected to the admin login page; the passkey endpoints
// are JSON consumers and get a 401 instead.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct, err := s.sessions.Current(r.Context(), r)
		if err != nil || acct.Role != store.RoleAdmin {
			if wantsJSON(r) {
				writeJSONError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, acct)
		next(w, r.WithContext(ctx))
	}
}

// adminFromContext returns the admin account set by requireAdmin.
func adminFromContext(r *http.Request) *store.Account {
	acct, _ := r.Context().Value(accountContextKey).(*store.Account)
	return acct
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" ||
		r.Header.Get("Content-Type") == "application/json" ||
		r.URL.Path == "/admin/webauthn/register/options" ||
		r.URL.Path == "/admin/webauthn/register/verify"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ceremonyError maps the ceremony error taxonomy onto HTTP responses.
// Verification failures get a deliberately generic message; the specific
// failed check is only logged.
func (s *Server) ceremonyError(w http.ResponseWriter, err error) {
	var verr *ceremony.VerificationError
	switch {
	case errors.Is(err, ceremony.ErrNotEnrolled):
		writeJSONError(w, http.StatusBadRequest, "no passkey enrolled for this account")
	case errors.Is(err, ceremony.ErrNoPendingChallenge):
		writeJSONError(w, http.StatusBadRequest, "no ceremony in progress")
	case errors.As(err, &verr):
		s.logger.Warn("ceremony verification failed", "kind", verr.Kind, "error", verr.Unwrap())
		writeJSONError(w, http.StatusBadRequest, "verification failed")
	default:
		s.logger.Error("ceremony error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
