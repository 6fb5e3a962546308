package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wanderlust/wanderlust-go/internal/model"
)

// ReviewRepository handles review persistence.
type ReviewRepository struct {
	reviews *mongo.Collection
	timeout time.Duration
}

// NewReviewRepository creates a new ReviewRepository.
func NewReviewRepository(db *mongo.Database, timeout time.Duration) *ReviewRepository {
	return &ReviewRepository{reviews: db.Collection(reviewsCollection), timeout: timeout}
}

// Create inserts a review, defaulting its id and creation time.
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	_, err := r.reviews.InsertOne(ctx, review)
	return err
}

// GetByID retrieves a review by id.
func (r *ReviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Review, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var review model.Review
	if err := r.reviews.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

// FindByIDs returns the reviews with the given ids, in no particular order.
func (r *ReviewRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Review, error) {
	if len(ids) == 0 {
		return []model.Review{}, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.reviews.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []model.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}
