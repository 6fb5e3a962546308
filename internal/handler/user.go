package handler

import (
	"errors"
	"net/http"

	"github.com/wanderlust/wanderlust-go/internal/model"
	"github.com/wanderlust/wanderlust-go/internal/service"
	"github.com/wanderlust/wanderlust-go/internal/session"
	"github.com/wanderlust/wanderlust-go/internal/validate"
	"github.com/wanderlust/wanderlust-go/internal/view"
)

// UserHandler handles signup, login and logout.
type UserHandler struct {
	service *service.AuthService
	view    *view.Renderer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.AuthService, v *view.Renderer) *UserHandler {
	return &UserHandler{service: svc, view: v}
}

// SignupForm handles GET /signup.
func (h *UserHandler) SignupForm(w http.ResponseWriter, r *http.Request) error {
	return h.view.Render(w, r, http.StatusOK, "users/signup", nil)
}

// Signup handles POST /signup.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) error {
	if err := parseForm(r); err != nil {
		return err
	}

	in, err := validate.Signup(r.PostForm)
	if err != nil {
		return flashRedirect(w, r, session.FlashError, err.Error(), "/signup")
	}

	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) || errors.Is(err, service.ErrEmailTaken) {
			return flashRedirect(w, r, session.FlashError, err.Error(), "/signup")
		}
		return err
	}

	sess := session.FromContext(r.Context())
	sess.Renew()
	sess.Login(user.ID.Hex(), user.Username)
	return flashRedirect(w, r, session.FlashSuccess, "Welcome to WanderLust!", "/listings")
}

// LoginForm handles GET /login.
func (h *UserHandler) LoginForm(w http.ResponseWriter, r *http.Request) error {
	return h.view.Render(w, r, http.StatusOK, "users/login", nil)
}

// Login handles POST /login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) error {
	if err := parseForm(r); err != nil {
		return err
	}

	user, err := h.service.Login(r.Context(), model.LoginInput{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return flashRedirect(w, r, session.FlashError, "Password or username is incorrect", "/login")
		}
		return err
	}

	sess := session.FromContext(r.Context())
	next := localPath(sess.PopRedirect())
	sess.Renew()
	sess.Login(user.ID.Hex(), user.Username)
	return flashRedirect(w, r, session.FlashSuccess, "Welcome back to WanderLust!", next)
}

// Logout handles GET /logout.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	sess := session.FromContext(r.Context())
	sess.Logout()
	sess.Renew()
	return flashRedirect(w, r, session.FlashSuccess, "you are logged out!", "/listings")
}
