// ABOUTME: Embeds HTML templates and static assets into the binary
// ABOUTME: Provides templateFS and staticFS for runtime loading

package web

import "embed"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS
