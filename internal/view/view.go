package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wanderlust/wanderlust-go/internal/model"
	"github.com/wanderlust/wanderlust-go/internal/session"
)

const internalErrorMessage = "Something went wrong!.."

// Identity is the logged-in user as seen by templates.
type Identity struct {
	ID       string
	Username string
}

// Data is the per-page template payload.
type Data map[string]any

// Renderer executes the page templates inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page under templates/ in fsys. Pages are named by their
// path without extension, for example "listings/show".
func New(fsys fs.FS) (*Renderer, error) {
	printer := message.NewPrinter(language.MustParse("en-IN"))
	funcs := template.FuncMap{
		"price": func(p float64) string { return printer.Sprintf("%d", int64(p)) },
		"owns": func(u *Identity, l *model.Listing) bool {
			return u != nil && l != nil && l.OwnedBy(u.ID)
		},
		"wrote": func(u *Identity, r model.Review) bool {
			return u != nil && r.WrittenBy(u.ID)
		},
	}

	shared := []string{"templates/layouts/*.html", "templates/includes/*.html"}
	pages, err := fs.Glob(fsys, "templates/*/*.html")
	if err != nil {
		return nil, err
	}
	more, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages = append(pages, more...)

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, p := range pages {
		if strings.HasPrefix(p, "templates/layouts/") || strings.HasPrefix(p, "templates/includes/") {
			continue
		}
		t, err := template.New(path.Base(p)).Funcs(funcs).ParseFS(fsys, append(shared, p)...)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".html")
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page with the given status. Pending flashes are consumed and
// exposed as Success and Error, and the session user as CurrUser.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data Data) error {
	t, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	if data == nil {
		data = Data{}
	}

	sess := session.FromContext(r.Context())
	flashes := sess.PopFlashes()
	data["Success"] = flashes[session.FlashSuccess]
	data["Error"] = flashes[session.FlashError]
	if sess.Authenticated() {
		data["CurrUser"] = &Identity{ID: sess.UserID, Username: sess.Username}
	} else {
		data["CurrUser"] = (*Identity)(nil)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "boilerplate", data); err != nil {
		return fmt.Errorf("rendering %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Error renders the error page. Errors that carry a status code show their
// own message; anything else is logged and shown as a 500.
func (v *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, internalErrorMessage

	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		status, msg = sc.StatusCode(), err.Error()
	} else {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	if rerr := v.Render(w, r, status, "error", Data{"Status": status, "Message": msg}); rerr != nil {
		slog.Error("rendering error page", "error", rerr)
		http.Error(w, msg, status)
	}
}
