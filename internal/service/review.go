package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wanderlust/wanderlust-go/internal/model"
	"github.com/wanderlust/wanderlust-go/internal/repository"
)

var (
	ErrReviewNotFound = errors.New("review not found")
	ErrOwnListing     = errors.New("you cannot review your own listing")
)

// ReviewService handles review business logic.
type ReviewService struct {
	listings ListingStore
	reviews  ReviewStore
}

// NewReviewService creates a new ReviewService.
func NewReviewService(listings ListingStore, reviews ReviewStore) *ReviewService {
	return &ReviewService{listings: listings, reviews: reviews}
}

// Get returns a review that belongs to the given listing.
func (s *ReviewService) Get(ctx context.Context, listingID, reviewID string) (*model.Review, error) {
	lid, err := model.ParseID(listingID)
	if err != nil {
		return nil, ErrReviewNotFound
	}
	rid, err := model.ParseID(reviewID)
	if err != nil {
		return nil, ErrReviewNotFound
	}

	r, err := s.reviews.GetByID(ctx, rid)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if r.Listing != lid {
		return nil, ErrReviewNotFound
	}
	return r, nil
}

// Create adds a review by authorID to a listing. The review is deleted again
// if it cannot be attached to the listing.
func (s *ReviewService) Create(ctx context.Context, listingID, authorID string, in model.ReviewInput) (*model.Review, error) {
	lid, err := model.ParseID(listingID)
	if err != nil {
		return nil, ErrListingNotFound
	}
	author, err := model.ParseID(authorID)
	if err != nil {
		return nil, err
	}

	l, err := s.listings.GetByID(ctx, lid)
	if err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if l.OwnedBy(authorID) {
		return nil, ErrOwnListing
	}

	r := &model.Review{
		Comment: in.Comment,
		Rating:  in.Rating,
		Author:  author,
		Listing: lid,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, err
	}

	if err := s.listings.AddReview(ctx, lid, r.ID); err != nil {
		if derr := s.reviews.Delete(ctx, r.ID); derr != nil {
			slog.Warn("removing unattached review", "review_id", r.ID.Hex(), "error", derr)
		}
		if errors.Is(err, repository.ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return r, nil
}

// Delete detaches a review from its listing and then deletes it.
func (s *ReviewService) Delete(ctx context.Context, listingID, reviewID string) error {
	lid, err := model.ParseID(listingID)
	if err != nil {
		return ErrListingNotFound
	}
	rid, err := model.ParseID(reviewID)
	if err != nil {
		return ErrReviewNotFound
	}

	if err := s.listings.RemoveReview(ctx, lid, rid); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return ErrListingNotFound
		}
		return err
	}

	if err := s.reviews.Delete(ctx, rid); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	return nil
}
