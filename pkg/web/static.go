package web

import (
	"io"
	"io/fs"
	"net/http"
)

// Assets serves files under subdir of fsys, stripping urlPrefix from the
// request path. Panics when subdir does not exist.
func Assets(fsys fs.FS, subdir, urlPrefix string) http.Handler {
	sub, err := fs.Sub(fsys, subdir)
	if err != nil {
		panic("web: assets sub-filesystem: " + err.Error())
	}
	return http.StripPrefix(urlPrefix, http.FileServer(http.FS(sub)))
}

// Blob writes data with an explicit content type and disables caching.
// Session images change in place, so responses must not be reused. The body
// is never sniffed and runs no script if opened directly.
func Blob(w http.ResponseWriter, data []byte, contentType string) {
	blobHeaders(w.Header(), contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Stream is Blob for a body read from r.
func Stream(w http.ResponseWriter, r io.Reader, contentType string) error {
	blobHeaders(w.Header(), contentType)
	w.WriteHeader(http.StatusOK)
	_, err := io.Copy(w, r)
	return err
}

func blobHeaders(h http.Header, contentType string) {
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Security-Policy", "default-src 'none'; sandbox")
}
