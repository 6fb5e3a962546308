package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wanderlust/wanderlust-go/internal/crypto"
)

// CookieName is the name of the session cookie.
const CookieName = "wanderlust.sid"

type contextKey string

const sessionKey contextKey = "session"

// Options configures a Manager.
type Options struct {
	Secret     string
	MaxAge     time.Duration
	TouchAfter time.Duration
	Secure     bool
}

// Manager loads the session for each request and persists it before the
// response is written.
type Manager struct {
	store Store
	opts  Options
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, opts Options) *Manager {
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7 * 24 * time.Hour
	}
	return &Manager{store: store, opts: opts}
}

// Handler attaches the session to the request context.
func (m *Manager) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(r)

		sw := &sessionWriter{ResponseWriter: w, commit: func() { m.commit(r.Context(), w, sess) }}
		next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		sw.flush()
	})
}

// FromContext returns the request's session. Outside Manager.Handler it
// returns a detached session that is never persisted.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(sessionKey).(*Session); ok {
		return s
	}
	return newSession()
}

func (m *Manager) load(r *http.Request) *Session {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return newSession()
	}

	id, err := crypto.VerifySession(c.Value, m.opts.Secret)
	if err != nil {
		return newSession()
	}

	sess, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Error("loading session", "error", err)
		}
		return newSession()
	}
	return sess
}

// commit saves the session and sets its cookie when it changed, when it is
// due for a touch, or when it was renewed. Fresh sessions holding no data are
// dropped.
func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, s *Session) {
	if s.renew {
		if !s.isNew && s.ID != "" {
			if err := m.store.Destroy(ctx, s.ID); err != nil {
				slog.Warn("destroying renewed session", "error", err)
			}
		}
		s.ID = ""
		s.isNew = true
		s.renew = false
	}

	now := time.Now()
	switch {
	case s.isNew && s.empty():
		return
	case s.isNew, s.dirty, now.Sub(s.TouchedAt) >= m.opts.TouchAfter:
	default:
		return
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.TouchedAt = now
	s.ExpiresAt = now.Add(m.opts.MaxAge)

	if err := m.store.Save(ctx, s); err != nil {
		slog.Error("saving session", "error", err)
		return
	}

	token, err := crypto.SignSession(s.ID, m.opts.Secret, m.opts.MaxAge)
	if err != nil {
		slog.Error("signing session", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.isNew = false
	s.dirty = false
}

// sessionWriter commits the session right before the first byte of the
// response goes out.
type sessionWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *sessionWriter) flush() {
	if !w.committed {
		w.committed = true
		w.commit()
	}
}

func (w *sessionWriter) WriteHeader(status int) {
	w.flush()
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
