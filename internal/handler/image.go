package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wanderlust/wanderlust-go/internal/service"
	"github.com/wanderlust/wanderlust-go/internal/view"
)

// ImageHandler serves uploaded listing photos.
type ImageHandler struct {
	service *service.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(svc *service.ImageService) *ImageHandler {
	return &ImageHandler{service: svc}
}

// Serve handles GET /upload/{id}.
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) error {
	data, contentType, err := h.service.Original(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return imageError(err)
	}
	writeImage(w, data, contentType)
	return nil
}

// ServeResized handles GET /upload/{transform}/{id}, where transform is
// w_<width>.
func (h *ImageHandler) ServeResized(w http.ResponseWriter, r *http.Request) error {
	raw, ok := strings.CutPrefix(chi.URLParam(r, "transform"), "w_")
	if !ok {
		return view.NotFound()
	}
	width, err := strconv.Atoi(raw)
	if err != nil {
		return view.BadRequest("invalid image width")
	}

	data, contentType, err := h.service.Resized(r.Context(), chi.URLParam(r, "id"), width)
	if err != nil {
		return imageError(err)
	}
	writeImage(w, data, contentType)
	return nil
}

func writeImage(w http.ResponseWriter, data []byte, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}

func imageError(err error) error {
	switch {
	case errors.Is(err, service.ErrImageNotFound):
		return view.NotFound()
	case errors.Is(err, service.ErrInvalidWidth):
		return view.BadRequest("image width must be between 1 and " + strconv.Itoa(service.MaxImageWidth))
	}
	return err
}
