// ABOUTME: Package documentation for the session package
// ABOUTME: Describes the cookie-to-identity session model

// Package session manages browser sessions as typed records in the
// database rather than an untyped per-request bag. Every visitor gets an
// opaque session id cookie on first contact; logging in promotes that id
// to an account binding with a bounded lifetime.
package session
