// Package web embeds the fallback frontend served when no STATIC_DIR is set.
package web

import (
	"embed"
	"io/fs"
)

//go:embed dist
var distFS embed.FS

// Dist returns the embedded bundle rooted at its index.html.
func Dist() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}
