package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wanderlust/wanderlust-go/internal/model"
	"github.com/wanderlust/wanderlust-go/internal/service"
	"github.com/wanderlust/wanderlust-go/internal/session"
	"github.com/wanderlust/wanderlust-go/internal/validate"
	"github.com/wanderlust/wanderlust-go/internal/view"
)

const (
	imageField         = "listing[image]"
	editThumbnailWidth = 250
)

// ListingHandler handles HTTP requests for listings.
type ListingHandler struct {
	service *service.ListingService
	view    *view.Renderer
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(svc *service.ListingService, v *view.Renderer) *ListingHandler {
	return &ListingHandler{service: svc, view: v}
}

// Index handles GET /listings.
func (h *ListingHandler) Index(w http.ResponseWriter, r *http.Request) error {
	listings, err := h.service.List(r.Context())
	if err != nil {
		return err
	}
	return h.view.Render(w, r, http.StatusOK, "listings/index", view.Data{"Listings": listings})
}

// New handles GET /listings/new.
func (h *ListingHandler) New(w http.ResponseWriter, r *http.Request) error {
	return h.view.Render(w, r, http.StatusOK, "listings/new", nil)
}

// Show handles GET /listings/{id}.
func (h *ListingHandler) Show(w http.ResponseWriter, r *http.Request) error {
	d, err := h.service.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			return listingMissing(w, r)
		}
		return err
	}

	return h.view.Render(w, r, http.StatusOK, "listings/show", view.Data{
		"Listing": d.Listing,
		"Owner":   d.Owner,
		"Reviews": d.Reviews,
	})
}

// Create handles POST /listings.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) error {
	if err := parseForm(r); err != nil {
		return err
	}
	in, err := validate.Listing(r.PostForm)
	if err != nil {
		return err
	}

	upload, done, err := formUpload(r, imageField)
	if err != nil {
		return err
	}
	defer done()

	sess := session.FromContext(r.Context())
	if _, err := h.service.Create(r.Context(), sess.UserID, in, upload); err != nil {
		return uploadError(err)
	}

	return flashRedirect(w, r, session.FlashSuccess, "New Listing Added!", "/listings")
}

// Edit handles GET /listings/{id}/edit.
func (h *ListingHandler) Edit(w http.ResponseWriter, r *http.Request) error {
	l, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			return listingMissing(w, r)
		}
		return err
	}

	return h.view.Render(w, r, http.StatusOK, "listings/edit", view.Data{
		"Listing":          l,
		"OriginalImageURL": model.ThumbnailURL(l.Image.URL, editThumbnailWidth),
	})
}

// Update handles PUT /listings/{id}.
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	if err := parseForm(r); err != nil {
		return err
	}
	in, err := validate.Listing(r.PostForm)
	if err != nil {
		return err
	}

	upload, done, err := formUpload(r, imageField)
	if err != nil {
		return err
	}
	defer done()

	if err := h.service.Update(r.Context(), id, in, upload); err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			return listingMissing(w, r)
		}
		return uploadError(err)
	}

	return flashRedirect(w, r, session.FlashSuccess, "Listing Updated!", "/listings/"+id)
}

// Delete handles DELETE /listings/{id}.
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, service.ErrListingNotFound) {
			return listingMissing(w, r)
		}
		return err
	}

	return flashRedirect(w, r, session.FlashSuccess, "Listing Deleted!", "/listings")
}

func listingMissing(w http.ResponseWriter, r *http.Request) error {
	return flashRedirect(w, r, session.FlashError, "Listing doesn't exist!", "/listings")
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, service.ErrImageRequired):
		return view.BadRequest(`"listing.image" is required`)
	case errors.Is(err, service.ErrUnsupportedImage), errors.Is(err, service.ErrImageTooLarge):
		return view.BadRequest(err.Error())
	}
	return err
}
