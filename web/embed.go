// Package web embeds the built front-end bundle served by the main
// window. The dist directory is produced by the front-end build; the
// committed placeholder keeps the shell buildable without it.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:dist
var dist embed.FS

// Dist returns the front-end bundle root.
func Dist() fs.FS {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}
