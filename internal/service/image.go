package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/wanderlust/wanderlust-go/internal/repository"
)

const (
	// MaxImageWidth bounds the width of resized variants.
	MaxImageWidth = 2000
	// MaxImagePixels bounds the canvas of images that are stored or decoded.
	MaxImagePixels = 40_000_000
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidWidth  = errors.New("image width out of range")
	ErrImageTooLarge = errors.New("image dimensions are too large")
)

// ImageService serves stored listing photos.
type ImageService struct {
	images ImageStore
}

// NewImageService creates a new ImageService.
func NewImageService(images ImageStore) *ImageService {
	return &ImageService{images: images}
}

// Original returns the stored bytes and their content type.
func (s *ImageService) Original(ctx context.Context, key string) ([]byte, string, error) {
	data, err := s.images.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return nil, "", ErrImageNotFound
		}
		return nil, "", err
	}
	return data, http.DetectContentType(data), nil
}

// Resized returns the image scaled down to width pixels, keeping the aspect
// ratio. Images already narrower than width, and images whose canvas exceeds
// MaxImagePixels, are returned unchanged.
func (s *ImageService) Resized(ctx context.Context, key string, width int) ([]byte, string, error) {
	if width < 1 || width > MaxImageWidth {
		return nil, "", ErrInvalidWidth
	}

	data, contentType, err := s.Original(ctx, key)
	if err != nil {
		return nil, "", err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image %s: %w", key, err)
	}
	if cfg.Width <= width || exceedsPixelLimit(cfg) {
		return data, contentType, nil
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image %s: %w", key, err)
	}

	b := src.Bounds()
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
		contentType = "image/png"
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
		contentType = "image/jpeg"
	}
	if err != nil {
		return nil, "", fmt.Errorf("encoding image %s: %w", key, err)
	}
	return buf.Bytes(), contentType, nil
}

// checkImage rejects data that is not a decodable png or jpeg, or whose canvas
// exceeds MaxImagePixels. Only the header is decoded.
func checkImage(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ErrUnsupportedImage
	}
	if exceedsPixelLimit(cfg) {
		return ErrImageTooLarge
	}
	return nil
}

func exceedsPixelLimit(cfg image.Config) bool {
	return int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels
}
