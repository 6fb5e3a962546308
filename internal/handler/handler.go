// Package handler implements the HTTP endpoints of the site.
//
// Handlers return errors instead of writing error responses themselves. Wrap
// turns a returned error into the error page, so every request ends in a
// rendered page, a redirect, or the error page.
package handler

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/wanderlust/wanderlust-go/internal/service"
	"github.com/wanderlust/wanderlust-go/internal/session"
	"github.com/wanderlust/wanderlust-go/internal/view"
)

// maxMemory is how much of a multipart body is kept in memory before
// spilling files to disk.
const maxMemory = 8 << 20

// HandlerFunc is an http.HandlerFunc that reports failures.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Wrap renders errors returned by fn on the error page.
func Wrap(v *view.Renderer, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			v.Error(w, r, err)
		}
	}
}

// flashRedirect queues a flash message and redirects.
func flashRedirect(w http.ResponseWriter, r *http.Request, kind, msg, to string) error {
	session.FromContext(r.Context()).Flash(kind, msg)
	http.Redirect(w, r, to, http.StatusFound)
	return nil
}

// parseForm parses url-encoded and multipart bodies alike.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &view.HTTPError{Status: http.StatusRequestEntityTooLarge, Message: "File too large"}
	}
	return view.BadRequest("invalid form submission")
}

// formUpload returns the uploaded file in field, or nil when none was sent.
// The returned close func must be called once the upload has been consumed.
func formUpload(r *http.Request, field string) (*service.Upload, func(), error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, func() {}, nil
	}

	fh := r.MultipartForm.File[field][0]
	if fh.Size == 0 && fh.Filename == "" {
		return nil, func() {}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}

	upload, err := sniff(fh, f)
	if err != nil {
		f.Close()
		return nil, func() {}, err
	}
	return upload, func() { f.Close() }, nil
}

func sniff(fh *multipart.FileHeader, f multipart.File) (*service.Upload, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]

	return &service.Upload{
		Filename:    fh.Filename,
		ContentType: http.DetectContentType(head),
		Body:        io.MultiReader(bytes.NewReader(head), f),
	}, nil
}

// localPath keeps post-login redirects on this site.
func localPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/listings"
	}
	return p
}
