// ABOUTME: Package documentation for the web package
// ABOUTME: Describes the storefront and admin HTTP surface

// Package web serves the floreria storefront and admin back-office:
// catalog pages, customer accounts, checkout, catalog CRUD, and the
// passkey endpoints that drive the admin login ceremonies.
//
// Handlers stay thin: they translate HTTP into store, session, and
// ceremony calls and map the ceremony error taxonomy onto JSON
// responses. Pages are html/template files embedded in the binary.
package web
