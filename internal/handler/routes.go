package handler

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"

	"github.com/wanderlust/wanderlust-go/internal/middleware"
	"github.com/wanderlust/wanderlust-go/internal/service"
	"github.com/wanderlust/wanderlust-go/internal/session"
	"github.com/wanderlust/wanderlust-go/internal/view"
)

// Deps are the collaborators the router is built from.
type Deps struct {
	Listings *service.ListingService
	Reviews  *service.ReviewService
	Auth     *service.AuthService
	Images   *service.ImageService
	Sessions *session.Manager
	View     *view.Renderer
	Static   fs.FS

	MaxUploadBytes int64
	LoginRate      float64
	LoginBurst     int
}

// NewRouter wires every route of the site.
func NewRouter(d Deps) http.Handler {
	listings := NewListingHandler(d.Listings, d.View)
	reviews := NewReviewHandler(d.Reviews)
	users := NewUserHandler(d.Auth, d.View)
	images := NewImageHandler(d.Images)

	wrap := func(fn HandlerFunc) http.HandlerFunc { return Wrap(d.View, fn) }

	tooMany := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.View.Error(w, r, &view.HTTPError{
			Status:  http.StatusTooManyRequests,
			Message: "Too many attempts, please try again later.",
		})
	})
	throttle := middleware.RateLimit(d.LoginRate, d.LoginBurst, tooMany)
	owner := middleware.RequireListingOwner(d.Listings, d.View.Error)
	author := middleware.RequireReviewAuthor(d.Reviews, d.View.Error)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.MaxBody(d.MaxUploadBytes))
	r.Use(handlers.HTTPMethodOverrideHandler)
	r.Use(d.Sessions.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(d.Static))))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/listings", http.StatusFound)
	})

	r.Route("/listings", func(r chi.Router) {
		r.Get("/", wrap(listings.Index))
		r.With(middleware.RequireLogin).Post("/", wrap(listings.Create))
		r.With(middleware.RequireLogin).Get("/new", wrap(listings.New))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", wrap(listings.Show))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireLogin, owner)
				r.Put("/", wrap(listings.Update))
				r.Delete("/", wrap(listings.Delete))
				r.Get("/edit", wrap(listings.Edit))
			})

			r.With(middleware.RequireLogin).Post("/reviews", wrap(reviews.Create))
			r.With(middleware.RequireLogin, author).Delete("/reviews/{reviewId}", wrap(reviews.Delete))
		})
	})

	r.Get("/signup", wrap(users.SignupForm))
	r.With(throttle).Post("/signup", wrap(users.Signup))
	r.Get("/login", wrap(users.LoginForm))
	r.With(throttle).Post("/login", wrap(users.Login))
	r.Get("/logout", wrap(users.Logout))

	r.Get("/upload/{id}", wrap(images.Serve))
	r.Get("/upload/{transform}/{id}", wrap(images.ServeResized))

	notFound := wrap(func(w http.ResponseWriter, r *http.Request) error { return view.NotFound() })
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}
