package service

import (
	"context"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wanderlust/wanderlust-go/internal/model"
)

// ListingStore persists listings. Delete removes the listing's reviews too.
type ListingStore interface {
	List(ctx context.Context) ([]model.Listing, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Listing, error)
	Create(ctx context.Context, l *model.Listing) error
	InsertMany(ctx context.Context, listings []model.Listing) error
	Update(ctx context.Context, id primitive.ObjectID, in model.ListingInput, image *model.Image) (*model.Listing, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*model.Listing, error)
	DeleteAll(ctx context.Context) (int64, error)
	AddReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error
	RemoveReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error
}

// ReviewStore persists reviews.
type ReviewStore interface {
	Create(ctx context.Context, r *model.Review) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.Review, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error)
}

// ImageStore persists uploaded listing photos.
type ImageStore interface {
	Upload(ctx context.Context, filename string, r io.Reader) (model.Image, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
