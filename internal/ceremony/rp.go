// ABOUTME: Relying-party context derived per request from host and scheme
// ABOUTME: Passed by value into engine calls, never stored between requests

package ceremony

import (
	"net"
	"net/http"
)

// RelyingParty identifies this server to an authenticator. The ID is the
// bare hostname; the Origin is the full scheme://host the browser sees.
// Both must match between the Start and Finish of a ceremony or
// verification fails.
type RelyingParty struct {
	ID          string
	Origin      string
	DisplayName string
}

// FromRequest derives the relying party from the inbound request. The
// scheme honors X-Forwarded-Proto so the derivation works behind a
// TLS-terminating proxy or tunnel.
func FromRequest(r *http.Request, displayName string) RelyingParty {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := r.Host
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}

	return RelyingParty{
		ID:          hostname,
		Origin:      scheme + "://" + host,
		DisplayName: displayName,
	}
}
