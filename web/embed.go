// Package web holds the dashboard templates and static assets.
package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and script served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
