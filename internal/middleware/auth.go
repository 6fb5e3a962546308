package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/wanderlust/wanderlust-go/internal/model"
	"github.com/wanderlust/wanderlust-go/internal/service"
	"github.com/wanderlust/wanderlust-go/internal/session"
)

// ErrorFunc renders err as the response.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

// ListingFinder loads a listing by hex id.
type ListingFinder interface {
	Get(ctx context.Context, id string) (*model.Listing, error)
}

// ReviewFinder loads a review belonging to a listing.
type ReviewFinder interface {
	Get(ctx context.Context, listingID, reviewID string) (*model.Review, error)
}

// RequireLogin redirects anonymous users to the login page, remembering
// where they were headed.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess.Authenticated() {
			next.ServeHTTP(w, r)
			return
		}

		sess.SetRedirect(returnPath(r))
		sess.Flash(session.FlashError, "you must be logged in")
		http.Redirect(w, r, "/login", http.StatusFound)
	})
}

// RequireListingOwner lets only the owner of the {id} listing through.
func RequireListingOwner(listings ListingFinder, onError ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			sess := session.FromContext(r.Context())

			l, err := listings.Get(r.Context(), id)
			if err != nil {
				if errors.Is(err, service.ErrListingNotFound) {
					sess.Flash(session.FlashError, "Listing doesn't exist!")
					http.Redirect(w, r, "/listings", http.StatusFound)
					return
				}
				onError(w, r, err)
				return
			}

			if !l.OwnedBy(sess.UserID) {
				sess.Flash(session.FlashError, "you are not the owner")
				http.Redirect(w, r, detailPath(id), http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireReviewAuthor lets only the author of the {reviewId} review through.
func RequireReviewAuthor(reviews ReviewFinder, onError ErrorFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			sess := session.FromContext(r.Context())

			rev, err := reviews.Get(r.Context(), id, chi.URLParam(r, "reviewId"))
			if err != nil {
				if errors.Is(err, service.ErrReviewNotFound) {
					sess.Flash(session.FlashError, "Review doesn't exist!")
					http.Redirect(w, r, detailPath(id), http.StatusFound)
					return
				}
				onError(w, r, err)
				return
			}

			if !rev.WrittenBy(sess.UserID) {
				sess.Flash(session.FlashError, "you are not the author of this review!")
				http.Redirect(w, r, detailPath(id), http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// returnPath is where to resume after login. Form submissions go back to the
// page the form was on.
func returnPath(r *http.Request) string {
	if r.Method == http.MethodGet {
		return r.URL.RequestURI()
	}

	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Host != r.Host || ref.Path == "" {
		return "/listings"
	}
	return ref.RequestURI()
}

func detailPath(id string) string {
	return "/listings/" + url.PathEscape(id)
}
