// ABOUTME: Ceremony engine issuing challenges and verifying passkey responses
// ABOUTME: Enforces challenge, origin, and relying-party binding per session

package ceremony

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/floreria/margarita/internal/store"
)

// CredentialStore is the slice of the store the engine needs.
type CredentialStore interface {
	GetAdminByEmail(ctx context.Context, email string) (*store.Account, error)
	PutCredential(ctx context.Context, cred *store.PasskeyCredential) error
	GetCredential(ctx context.Context, accountID string) (*store.PasskeyCredential, error)
	UpdateCredentialSignCount(ctx context.Context, accountID string, signCount uint32) error
}

// Engine drives registration and authentication ceremonies. It issues
// options, caches the challenge per session, and verifies responses.
// Session identity is the caller's concern; the engine only reports which
// account verified.
type Engine struct {
	store      CredentialStore
	challenges *ChallengeCache
	logger     *slog.Logger
}

// NewEngine creates a ceremony engine.
func NewEngine(s CredentialStore, challenges *ChallengeCache) *Engine {
	return &Engine{
		store:      s,
		challenges: challenges,
		logger:     slog.Default().With("component", "ceremony"),
	}
}

// ceremonyUser adapts an Account to the webauthn.User interface.
type ceremonyUser struct {
	account *store.Account
	cred    *store.PasskeyCredential
}

func (u *ceremonyUser) WebAuthnID() []byte {
	return []byte(u.account.ID)
}

func (u *ceremonyUser) WebAuthnName() string {
	return u.account.Email
}

func (u *ceremonyUser) WebAuthnDisplayName() string {
	if u.account.Name != "" {
		return u.account.Name
	}
	return u.account.Email
}

func (u *ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	if u.cred == nil {
		return nil
	}
	return []webauthn.Credential{{
		ID:        u.cred.CredentialID,
		PublicKey: u.cred.PublicKey,
		Authenticator: webauthn.Authenticator{
			SignCount: u.cred.SignCount,
		},
	}}
}

// relyingParty builds the verification library handle for one request's
// relying-party context. Construction is cheap; building it per call keeps
// the context out of shared state.
func relyingParty(rp RelyingParty) (*webauthn.WebAuthn, error) {
	w, err := webauthn.New(&webauthn.Config{
		RPDisplayName: rp.DisplayName,
		RPID:          rp.ID,
		RPOrigins:     []string{rp.Origin},
	})
	if err != nil {
		return nil, fmt.Errorf("configuring relying party %q: %w", rp.ID, err)
	}
	return w, nil
}

// StartRegistration issues registration options for an admin account and
// caches the challenge under the session. Any pending ceremony for the
// session is discarded.
func (e *Engine) StartRegistration(ctx context.Context, sid string, rp RelyingParty, acct *store.Account) (*protocol.CredentialCreation, error) {
	w, err := relyingParty(rp)
	if err != nil {
		return nil, err
	}

	// A fresh registration replaces the enrolled credential, so the
	// authenticator is told to exclude it rather than mint a duplicate.
	cred, err := e.store.GetCredential(ctx, acct.ID)
	if err != nil && !errors.Is(err, store.ErrCredentialNotFound) {
		return nil, fmt.Errorf("loading credential: %w", err)
	}

	opts := []webauthn.RegistrationOption{
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.Platform,
			ResidentKey:             protocol.ResidentKeyRequirementPreferred,
			UserVerification:        protocol.VerificationPreferred,
		}),
		webauthn.WithConveyancePreference(protocol.PreferNoAttestation),
	}
	if cred != nil {
		opts = append(opts, webauthn.WithExclusions([]protocol.CredentialDescriptor{{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: cred.CredentialID,
		}}))
	}

	user := &ceremonyUser{account: acct, cred: cred}
	options, session, err := w.BeginRegistration(user, opts...)
	if err != nil {
		return nil, fmt.Errorf("generating registration options: %w", err)
	}

	e.challenges.Put(sid, KindRegistration, session, acct.Email)
	e.logger.Debug("registration challenge issued", "account_id", acct.ID, "rp_id", rp.ID)
	return options, nil
}

// FinishRegistration consumes the session's pending registration challenge
// and verifies the attestation response. On success the credential is
// persisted as the account's single enrolled passkey, replacing any prior
// one. The challenge is cleared whether verification succeeds or not.
func (e *Engine) FinishRegistration(ctx context.Context, sid string, rp RelyingParty, acct *store.Account, body io.Reader) (*store.PasskeyCredential, error) {
	session, _, ok := e.challenges.Take(sid, KindRegistration)
	if !ok {
		return nil, ErrNoPendingChallenge
	}

	w, err := relyingParty(rp)
	if err != nil {
		return nil, err
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(body)
	if err != nil {
		return nil, &VerificationError{Kind: KindRegistration, err: err}
	}

	user := &ceremonyUser{account: acct}
	cred, err := w.CreateCredential(user, *session, parsed)
	if err != nil {
		return nil, &VerificationError{Kind: KindRegistration, err: err}
	}

	stored := &store.PasskeyCredential{
		AccountID:    acct.ID,
		CredentialID: cred.ID,
		PublicKey:    cred.PublicKey,
		SignCount:    cred.Authenticator.SignCount,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.store.PutCredential(ctx, stored); err != nil {
		return nil, fmt.Errorf("persisting credential: %w", err)
	}

	e.logger.Info("passkey enrolled", "account_id", acct.ID)
	return stored, nil
}

// StartAuthentication issues authentication options for a claimed admin
// email. The allow-list contains exactly the one enrolled credential.
// Returns ErrNotEnrolled when no admin account or no credential exists for
// the email; no challenge is issued in that case.
func (e *Engine) StartAuthentication(ctx context.Context, sid string, rp RelyingParty, email string) (*protocol.CredentialAssertion, error) {
	acct, err := e.store.GetAdminByEmail(ctx, email)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}

	cred, err := e.store.GetCredential(ctx, acct.ID)
	if errors.Is(err, store.ErrCredentialNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}

	w, err := relyingParty(rp)
	if err != nil {
		return nil, err
	}

	user := &ceremonyUser{account: acct, cred: cred}
	options, session, err := w.BeginLogin(user,
		webauthn.WithUserVerification(protocol.VerificationPreferred),
	)
	if err != nil {
		return nil, fmt.Errorf("generating authentication options: %w", err)
	}

	e.challenges.Put(sid, KindAuthentication, session, acct.Email)
	e.logger.Debug("authentication challenge issued", "account_id", acct.ID, "rp_id", rp.ID)
	return options, nil
}

// FinishAuthentication consumes the session's pending authentication
// challenge and verifies the assertion response against the enrolled
// credential. On success it persists the updated signature counter and
// returns the verified account; promoting the session belongs to the
// caller. The challenge is cleared whether verification succeeds or not.
func (e *Engine) FinishAuthentication(ctx context.Context, sid string, rp RelyingParty, body io.Reader) (*store.Account, error) {
	session, email, ok := e.challenges.Take(sid, KindAuthentication)
	if !ok {
		return nil, ErrNoPendingChallenge
	}

	acct, err := e.store.GetAdminByEmail(ctx, email)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}

	cred, err := e.store.GetCredential(ctx, acct.ID)
	if errors.Is(err, store.ErrCredentialNotFound) {
		return nil, ErrNotEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}

	w, err := relyingParty(rp)
	if err != nil {
		return nil, err
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(body)
	if err != nil {
		return nil, &VerificationError{Kind: KindAuthentication, err: err}
	}

	user := &ceremonyUser{account: acct, cred: cred}
	verified, err := w.ValidateLogin(user, *session, parsed)
	if err != nil {
		return nil, &VerificationError{Kind: KindAuthentication, err: err}
	}

	// Counter persistence is best effort; a lagging counter only weakens
	// clone detection, it does not invalidate this login.
	if err := e.store.UpdateCredentialSignCount(ctx, acct.ID, verified.Authenticator.SignCount); err != nil {
		e.logger.Warn("failed to update sign count", "account_id", acct.ID, "error", err)
	}

	e.logger.Info("passkey login verified", "account_id", acct.ID)
	return acct, nil
}
