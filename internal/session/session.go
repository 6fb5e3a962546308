package session

import (
	"errors"
	"slices"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Flash kinds rendered by the page layout.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Session is the server-side state behind a session cookie.
type Session struct {
	ID          string              `json:"-" bson:"_id"`
	UserID      string              `json:"userId,omitempty" bson:"userId,omitempty"`
	Username    string              `json:"username,omitempty" bson:"username,omitempty"`
	RedirectURL string              `json:"redirectUrl,omitempty" bson:"redirectUrl,omitempty"`
	Flashes     map[string][]string `json:"flashes,omitempty" bson:"flashes,omitempty"`
	ExpiresAt   time.Time           `json:"expiresAt" bson:"expiresAt"`
	TouchedAt   time.Time           `json:"touchedAt" bson:"touchedAt"`

	isNew bool
	dirty bool
	renew bool
}

func newSession() *Session {
	return &Session{isNew: true}
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

// Login binds the session to a user.
func (s *Session) Login(userID, username string) {
	s.UserID = userID
	s.Username = username
	s.dirty = true
}

// Logout clears the session identity.
func (s *Session) Logout() {
	s.UserID = ""
	s.Username = ""
	s.dirty = true
}

// Renew asks for a fresh session id on commit. The data is carried over and
// the old id is destroyed.
func (s *Session) Renew() {
	s.renew = true
	s.dirty = true
}

// Flash queues a one-shot message for the next rendered page.
func (s *Session) Flash(kind, msg string) {
	if s.Flashes == nil {
		s.Flashes = make(map[string][]string)
	}
	s.Flashes[kind] = append(s.Flashes[kind], msg)
	s.dirty = true
}

// PopFlashes returns and clears the queued messages.
func (s *Session) PopFlashes() map[string][]string {
	if len(s.Flashes) == 0 {
		return map[string][]string{}
	}
	out := s.Flashes
	s.Flashes = nil
	s.dirty = true
	return out
}

// SetRedirect remembers where to send the user after logging in.
func (s *Session) SetRedirect(path string) {
	s.RedirectURL = path
	s.dirty = true
}

// PopRedirect returns and clears the remembered path.
func (s *Session) PopRedirect() string {
	path := s.RedirectURL
	if path != "" {
		s.RedirectURL = ""
		s.dirty = true
	}
	return path
}

func (s *Session) empty() bool {
	return s.UserID == "" && s.RedirectURL == "" && len(s.Flashes) == 0
}

// clone returns a deep copy without the bookkeeping flags.
func (s *Session) clone() *Session {
	c := &Session{
		ID:          s.ID,
		UserID:      s.UserID,
		Username:    s.Username,
		RedirectURL: s.RedirectURL,
		ExpiresAt:   s.ExpiresAt,
		TouchedAt:   s.TouchedAt,
	}
	if s.Flashes != nil {
		c.Flashes = make(map[string][]string, len(s.Flashes))
		for k, v := range s.Flashes {
			c.Flashes[k] = slices.Clone(v)
		}
	}
	return c
}
