package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wanderlust/wanderlust-go/internal/service"
	"github.com/wanderlust/wanderlust-go/internal/session"
	"github.com/wanderlust/wanderlust-go/internal/validate"
)

// ReviewHandler handles HTTP requests for reviews.
type ReviewHandler struct {
	service *service.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// Create handles POST /listings/{id}/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	if err := parseForm(r); err != nil {
		return err
	}
	in, err := validate.Review(r.PostForm)
	if err != nil {
		return err
	}

	sess := session.FromContext(r.Context())
	if _, err := h.service.Create(r.Context(), id, sess.UserID, in); err != nil {
		switch {
		case errors.Is(err, service.ErrListingNotFound):
			return listingMissing(w, r)
		case errors.Is(err, service.ErrOwnListing):
			return flashRedirect(w, r, session.FlashError, err.Error(), "/listings/"+id)
		}
		return err
	}

	return flashRedirect(w, r, session.FlashSuccess, "Review Added!", "/listings/"+id)
}

// Delete handles DELETE /listings/{id}/reviews/{reviewId}.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id, chi.URLParam(r, "reviewId")); err != nil {
		switch {
		case errors.Is(err, service.ErrListingNotFound):
			return listingMissing(w, r)
		case errors.Is(err, service.ErrReviewNotFound):
			return flashRedirect(w, r, session.FlashError, "Review doesn't exist!", "/listings/"+id)
		}
		return err
	}

	return flashRedirect(w, r, session.FlashSuccess, "Review Deleted!", "/listings/"+id)
}
