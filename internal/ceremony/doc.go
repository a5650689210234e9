// ABOUTME: Package documentation for the ceremony package
// ABOUTME: Describes the passkey registration and authentication engine

// Package ceremony drives the WebAuthn ceremonies for admin passkey login:
// registration (enrolling an authenticator) and authentication (proving
// possession of the enrolled one).
//
// Each ceremony is a Start/Finish pair scoped to a browser session. Start
// issues a fresh challenge and caches it under the session id; Finish
// atomically consumes the cached challenge and verifies the authenticator's
// response against it, the request origin, and the relying-party identifier.
// A challenge is usable by exactly one Finish call, successful or not.
//
// The relying party is a value derived per request, never ambient state, so
// Start and Finish of the same ceremony bind to the same origin only when
// the browser really talked to the same host both times.
package ceremony
