package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wanderlust/wanderlust-go/internal/model"
	"github.com/wanderlust/wanderlust-go/internal/repository"
)

var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrImageRequired    = errors.New("listing image is required")
	ErrUnsupportedImage = errors.New("only .png, .jpg and .jpeg images are allowed")
	ErrOwnerNotFound    = errors.New("seed owner not found")
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// Upload is an image file submitted with a listing form.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ListingDetail is a listing with its owner and reviews resolved.
type ListingDetail struct {
	Listing *model.Listing
	Owner   *model.User
	Reviews []ReviewDetail
}

// ReviewDetail is a review with its author resolved.
type ReviewDetail struct {
	model.Review
	Author *model.User
}

// ListingService handles listing business logic.
type ListingService struct {
	listings ListingStore
	reviews  ReviewStore
	users    UserStore
	images   ImageStore
}

// NewListingService creates a new ListingService.
func NewListingService(listings ListingStore, reviews ReviewStore, users UserStore, images ImageStore) *ListingService {
	return &ListingService{listings: listings, reviews: reviews, users: users, images: images}
}

// List returns every listing.
func (s *ListingService) List(ctx context.Context) ([]model.Listing, error) {
	return s.listings.List(ctx)
}

// Get returns a listing by its hex id.
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	oid, err := model.ParseID(id)
	if err != nil {
		return nil, ErrListingNotFound
	}

	l, err := s.listings.GetByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return l, nil
}

// Detail returns a listing with its owner and its reviews, in reference order,
// each with its author.
func (s *ListingService) Detail(ctx context.Context, id string) (*ListingDetail, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.FindByIDs(ctx, l.Reviews)
	if err != nil {
		return nil, fmt.Errorf("loading reviews: %w", err)
	}

	userIDs := []primitive.ObjectID{}
	if !l.Owner.IsZero() {
		userIDs = append(userIDs, l.Owner)
	}
	for _, r := range reviews {
		if !r.Author.IsZero() {
			userIDs = append(userIDs, r.Author)
		}
	}

	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	byUser := make(map[primitive.ObjectID]*model.User, len(users))
	for i := range users {
		byUser[users[i].ID] = &users[i]
	}

	byReview := make(map[primitive.ObjectID]model.Review, len(reviews))
	for _, r := range reviews {
		byReview[r.ID] = r
	}

	detail := &ListingDetail{Listing: l, Owner: byUser[l.Owner], Reviews: []ReviewDetail{}}
	for _, rid := range l.Reviews {
		r, ok := byReview[rid]
		if !ok {
			continue
		}
		detail.Reviews = append(detail.Reviews, ReviewDetail{Review: r, Author: byUser[r.Author]})
	}
	return detail, nil
}

// Create stores the uploaded image and inserts a listing owned by ownerID.
// The image is removed again if the insert fails.
func (s *ListingService) Create(ctx context.Context, ownerID string, in model.ListingInput, upload *Upload) (*model.Listing, error) {
	if upload == nil {
		return nil, ErrImageRequired
	}
	owner, err := model.ParseID(ownerID)
	if err != nil {
		return nil, err
	}

	image, err := s.store(ctx, upload)
	if err != nil {
		return nil, err
	}

	l := &model.Listing{Owner: owner, Image: image}
	l.Apply(in)

	if err := s.listings.Create(ctx, l); err != nil {
		s.discardImage(ctx, image)
		return nil, err
	}
	return l, nil
}

// Update replaces the listing fields, and the image when upload is set. The
// replaced image is removed once the write succeeds.
func (s *ListingService) Update(ctx context.Context, id string, in model.ListingInput, upload *Upload) error {
	oid, err := model.ParseID(id)
	if err != nil {
		return ErrListingNotFound
	}

	var image *model.Image
	if upload != nil {
		img, err := s.store(ctx, upload)
		if err != nil {
			return err
		}
		image = &img
	}

	before, err := s.listings.Update(ctx, oid, in, image)
	if err != nil {
		if image != nil {
			s.discardImage(ctx, *image)
		}
		if errors.Is(err, repository.ErrListingNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	if image != nil && before.Image.Filename != image.Filename {
		s.discardImage(ctx, before.Image)
	}
	return nil
}

// Delete removes a listing, its reviews and its image.
func (s *ListingService) Delete(ctx context.Context, id string) error {
	oid, err := model.ParseID(id)
	if err != nil {
		return ErrListingNotFound
	}

	deleted, err := s.listings.Delete(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	s.discardImage(ctx, deleted.Image)
	return nil
}

// Seed replaces every listing with the given ones, owned by the named user.
// It returns the number of listings removed.
func (s *ListingService) Seed(ctx context.Context, ownerUsername string, listings []model.Listing) (int64, error) {
	owner, err := s.users.GetByUsername(ctx, ownerUsername)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrOwnerNotFound
		}
		return 0, err
	}

	removed, err := s.listings.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clearing listings: %w", err)
	}

	for i := range listings {
		listings[i].ID = primitive.NilObjectID
		listings[i].Owner = owner.ID
		listings[i].Reviews = []primitive.ObjectID{}
	}
	if err := s.listings.InsertMany(ctx, listings); err != nil {
		return removed, fmt.Errorf("inserting listings: %w", err)
	}
	return removed, nil
}

func (s *ListingService) store(ctx context.Context, upload *Upload) (model.Image, error) {
	if !allowedImageTypes[upload.ContentType] {
		return model.Image{}, ErrUnsupportedImage
	}
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return model.Image{}, fmt.Errorf("reading upload: %w", err)
	}
	if err := checkImage(data); err != nil {
		return model.Image{}, err
	}

	image, err := s.images.Upload(ctx, upload.Filename, bytes.NewReader(data))
	if err != nil {
		return model.Image{}, fmt.Errorf("uploading image: %w", err)
	}
	return image, nil
}

// discardImage deletes a stored image. Images hosted elsewhere, such as seed
// data, are left alone.
func (s *ListingService) discardImage(ctx context.Context, image model.Image) {
	if image.Filename == "" || !strings.HasPrefix(image.URL, repository.ImageURLPrefix) {
		return
	}
	if err := s.images.Delete(ctx, image.Filename); err != nil {
		slog.Warn("deleting listing image", "filename", image.Filename, "error", err)
	}
}
