// ABOUTME: Sentinel errors and the verification failure type for ceremonies
// ABOUTME: The HTTP layer maps these to status codes and generic messages

package ceremony

import (
	"errors"
	"fmt"
)

// ErrNoPendingChallenge is returned when Finish is called with no prior
// Start in the same session, or after the challenge was already consumed
// or expired.
var ErrNoPendingChallenge = errors.New("no pending challenge for session")

// ErrNotEnrolled is returned when authentication is started for an email
// with no admin account or no enrolled passkey.
var ErrNotEnrolled = errors.New("no passkey enrolled for this account")

// VerificationError wraps a failed signature, challenge, origin, or
// relying-party check. Callers should log the underlying reason but show
// users only a generic failure message.
type VerificationError struct {
	Kind Kind
	err  error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s verification failed: %v", e.Kind, e.err)
}

func (e *VerificationError) Unwrap() error {
	return e.err
}
