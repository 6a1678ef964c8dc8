package host

import (
	"bytes"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// assetHandler serves the embedded front-end bundle. Unknown paths
// fall back to index.html so client-side routing works after a reload.
func assetHandler(assets fs.FS) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || name == "." {
			name = "index.html"
		}

		data, err := fs.ReadFile(assets, name)
		if err != nil {
			name = "index.html"
			data, err = fs.ReadFile(assets, name)
			if err != nil {
				http.NotFound(rw, r)
				return
			}
		}

		rw.Header().Set("Content-Type", contentType(name, data))
		http.ServeContent(rw, r, name, time.Time{}, bytes.NewReader(data))
	})
}

// contentType resolves by extension first, then sniffs extension-less
// assets.
func contentType(name string, data []byte) string {
	if ctype := mime.TypeByExtension(path.Ext(name)); ctype != "" {
		return ctype
	}
	return mimetype.Detect(data).String()
}
