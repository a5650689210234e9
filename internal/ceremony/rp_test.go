// ABOUTME: Tests for per-request relying-party derivation
// ABOUTME: Covers port stripping, forwarded proto, and TLS detection

package ceremony

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequestPlainHost(t *testing.T) {
	r := httptest.NewRequest("GET", "http://flores.example/admin", nil)
	r.Host = "flores.example"

	rp := FromRequest(r, "Florería")
	assert.Equal(t, "flores.example", rp.ID)
	assert.Equal(t, "http://flores.example", rp.Origin)
	assert.Equal(t, "Florería", rp.DisplayName)
}

func TestFromRequestStripsPortFromID(t *testing.T) {
	r := httptest.NewRequest("GET", "http://localhost:3000/", nil)
	r.Host = "localhost:3000"

	rp := FromRequest(r, "Florería")
	assert.Equal(t, "localhost", rp.ID)
	// Origin keeps the port; browsers include it.
	assert.Equal(t, "http://localhost:3000", rp.Origin)
}

func TestFromRequestHonorsForwardedProto(t *testing.T) {
	r := httptest.NewRequest("GET", "http://flores.example/", nil)
	r.Host = "flores.example"
	r.Header.Set("X-Forwarded-Proto", "https")

	rp := FromRequest(r, "Florería")
	assert.Equal(t, "https://flores.example", rp.Origin)
}

func TestFromRequestDetectsTLS(t *testing.T) {
	r := httptest.NewRequest("GET", "https://flores.example/", nil)
	r.Host = "flores.example"
	r.TLS = &tls.ConnectionState{}

	rp := FromRequest(r, "Florería")
	assert.Equal(t, "https://flores.example", rp.Origin)
}
