// Package web holds the dashboard templates and static assets compiled into
// the binary.
package web

import (
	"embed"
	"io/fs"
)

// Templates holds layouts, partials and pages under templates/.
//
//go:embed templates/layouts/*.html templates/partials/*.html templates/pages/*.html
var Templates embed.FS

//go:embed static
var static embed.FS

// Static is the static asset tree rooted at static/, served under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(static, "static")
}
