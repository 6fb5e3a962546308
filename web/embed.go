// Package web holds the page templates and static assets.
package web

import "embed"

//go:embed templates static
var FS embed.FS
