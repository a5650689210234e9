// ABOUTME: In-memory single-use challenge cache keyed by browser session id
// ABOUTME: Take atomically clears the pending challenge to prevent replay

package ceremony

import (
	"context"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// Kind distinguishes the two ceremonies.
type Kind string

const (
	KindRegistration   Kind = "registration"
	KindAuthentication Kind = "authentication"
)

// challengeTTL bounds how long an issued challenge stays verifiable.
const challengeTTL = 5 * time.Minute

// pendingChallenge is the single outstanding ceremony for one session.
type pendingChallenge struct {
	kind      Kind
	session   *webauthn.SessionData
	email     string
	expiresAt time.Time
}

// ChallengeCache holds at most one pending challenge per session id.
// Starting a new ceremony overwrites whatever was pending; finishing one
// consumes it whether verification succeeds or not.
type ChallengeCache struct {
	mu      sync.Mutex
	pending map[string]*pendingChallenge
	cancel  context.CancelFunc
}

// NewChallengeCache creates a cache and starts its expiry sweep.
func NewChallengeCache() *ChallengeCache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &ChallengeCache{
		pending: make(map[string]*pendingChallenge),
		cancel:  cancel,
	}
	go c.sweepLoop(ctx)
	return c
}

// Close stops the expiry sweep.
func (c *ChallengeCache) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Put stores the pending challenge for a session, overwriting any prior
// one regardless of kind. Last write wins.
func (c *ChallengeCache) Put(sid string, kind Kind, session *webauthn.SessionData, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[sid] = &pendingChallenge{
		kind:      kind,
		session:   session,
		email:     email,
		expiresAt: time.Now().Add(challengeTTL),
	}
}

// Take removes and returns the pending challenge for a session. The
// removal happens under the lock even when the lookup misses on kind or
// expiry, so two racing Finish calls can never both observe the same
// challenge.
func (c *ChallengeCache) Take(sid string, kind Kind) (*webauthn.SessionData, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.pending[sid]
	if !ok {
		return nil, "", false
	}
	delete(c.pending, sid)

	if data.kind != kind || time.Now().After(data.expiresAt) {
		return nil, "", false
	}
	return data.session, data.email, true
}

func (c *ChallengeCache) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for sid, data := range c.pending {
				if now.After(data.expiresAt) {
					delete(c.pending, sid)
				}
			}
			c.mu.Unlock()
		}
	}
}
