// ABOUTME: Passkey HTTP handlers translating requests into ceremony calls
// ABOUTME: The relying party is derived fresh from every request's host

package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/floreria/margarita/internal/ceremony"
)

// handleRegisterOptions starts passkey enrollment for the logged-in
// admin and returns the creation options.
func (s *Server) handleRegisterOptions(w http.ResponseWriter, r *http.Request) {
	admin := adminFromContext(r)

	sid, err := s.sessions.Ensure(w, r)
	if err != nil {
		s.logger.Error("failed to ensure session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rp := ceremony.FromRequest(r, s.config.RPDisplayName)
	options, err := s.engine.StartRegistration(r.Context(), sid, rp, admin)
	if err != nil {
		s.ceremonyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

// handleRegisterVerify completes passkey enrollment with the browser's
// attestation response.
func (s *Server) handleRegisterVerify(w http.ResponseWriter, r *http.Request) {
	admin := adminFromContext(r)

	sid, err := s.sessions.Ensure(w, r)
	if err != nil {
		s.logger.Error("failed to ensure session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rp := ceremony.FromRequest(r, s.config.RPDisplayName)
	if _, err := s.engine.FinishRegistration(r.Context(), sid, rp, admin, r.Body); err != nil {
		s.ceremonyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLoginOptions starts passkey authentication for a claimed admin
// email. This is the unauthenticated entry point of the login ceremony.
func (s *Server) handleLoginOptions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSONError(w, http.StatusBadRequest, "email required")
		return
	}

	sid, err := s.sessions.Ensure(w, r)
	if err != nil {
		s.logger.Error("failed to ensure session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rp := ceremony.FromRequest(r, s.config.RPDisplayName)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	options, err := s.engine.StartAuthentication(r.Context(), sid, rp, email)
	if err != nil {
		s.ceremonyError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, options)
}

// handleLoginVerify completes passkey authentication and promotes the
// session to the verified admin.
func (s *Server) handleLoginVerify(w http.ResponseWriter, r *http.Request) {
	sid, err := s.sessions.Ensure(w, r)
	if err != nil {
		s.logger.Error("failed to ensure session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	rp := ceremony.FromRequest(r, s.config.RPDisplayName)
	acct, err := s.engine.FinishAuthentication(r.Context(), sid, rp, r.Body)
	if err != nil {
		s.ceremonyError(w, err)
		return
	}

	if _, err := s.sessions.Promote(r.Context(), w, r, acct); err != nil {
		s.logger.Error("failed to promote session", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "redirect": "/admin"})
}
