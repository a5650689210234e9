// ABOUTME: Tests for the single-use challenge cache
// ABOUTME: Verifies atomic take semantics, kind matching, and expiry

package ceremony

import (
	"sync"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
)

func newTestCache(t *testing.T) *ChallengeCache {
	t.Helper()
	c := NewChallengeCache()
	t.Cleanup(c.Close)
	return c
}

func TestTakeReturnsPutValue(t *testing.T) {
	c := newTestCache(t)
	session := &webauthn.SessionData{Challenge: "abc"}

	c.Put("sid", KindAuthentication, session, "a@x.com")

	got, email, ok := c.Take("sid", KindAuthentication)
	assert.True(t, ok)
	assert.Equal(t, session, got)
	assert.Equal(t, "a@x.com", email)
}

func TestTakeClearsEntry(t *testing.T) {
	c := newTestCache(t)
	c.Put("sid", KindRegistration, &webauthn.SessionData{}, "")

	_, _, ok := c.Take("sid", KindRegistration)
	assert.True(t, ok)

	_, _, ok = c.Take("sid", KindRegistration)
	assert.False(t, ok, "second take must miss")
}

func TestTakeMissesUnknownSession(t *testing.T) {
	c := newTestCache(t)

	_, _, ok := c.Take("never-seen", KindRegistration)
	assert.False(t, ok)
}

func TestTakeKindMismatchConsumes(t *testing.T) {
	c := newTestCache(t)
	c.Put("sid", KindRegistration, &webauthn.SessionData{}, "")

	// Asking for the wrong ceremony kind misses and still consumes the
	// entry; a pending challenge never survives a finish attempt.
	_, _, ok := c.Take("sid", KindAuthentication)
	assert.False(t, ok)

	_, _, ok = c.Take("sid", KindRegistration)
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	c := newTestCache(t)
	c.Put("sid", KindRegistration, &webauthn.SessionData{Challenge: "first"}, "")
	c.Put("sid", KindAuthentication, &webauthn.SessionData{Challenge: "second"}, "b@x.com")

	got, email, ok := c.Take("sid", KindAuthentication)
	assert.True(t, ok)
	assert.Equal(t, "second", got.Challenge)
	assert.Equal(t, "b@x.com", email)
}

func TestExpiredEntryNotReturned(t *testing.T) {
	c := newTestCache(t)
	c.Put("sid", KindAuthentication, &webauthn.SessionData{}, "")

	// Force expiry rather than waiting out the TTL.
	c.mu.Lock()
	c.pending["sid"].expiresAt = time.Now().Add(-time.Second)
	c.mu.Unlock()

	_, _, ok := c.Take("sid", KindAuthentication)
	assert.False(t, ok)
}

func TestConcurrentTakeYieldsSingleWinner(t *testing.T) {
	c := newTestCache(t)
	c.Put("sid", KindAuthentication, &webauthn.SessionData{}, "")

	const attempts = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, ok := c.Take("sid", KindAuthentication); ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1, "exactly one concurrent take may win")
}
