package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wanderlust/wanderlust-go/internal/model"
)

// ListingRepository handles listing persistence. Deleting a listing also
// deletes its reviews.
type ListingRepository struct {
	listings *mongo.Collection
	reviews  *mongo.Collection
	timeout  time.Duration
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(db *mongo.Database, timeout time.Duration) *ListingRepository {
	return &ListingRepository{
		listings: db.Collection(listingsCollection),
		reviews:  db.Collection(reviewsCollection),
		timeout:  timeout,
	}
}

// List returns every listing in insertion order.
func (r *ListingRepository) List(ctx context.Context) ([]model.Listing, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.listings.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	listings := []model.Listing{}
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetByID retrieves a listing by id.
func (r *ListingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Listing, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var l model.Listing
	if err := r.listings.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Create inserts a listing and sets its generated id.
func (r *ListingRepository) Create(ctx context.Context, l *model.Listing) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.Reviews == nil {
		l.Reviews = []primitive.ObjectID{}
	}

	_, err := r.listings.InsertOne(ctx, l)
	return err
}

// InsertMany bulk-inserts listings.
func (r *ListingRepository) InsertMany(ctx context.Context, listings []model.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	docs := make([]interface{}, len(listings))
	for i := range listings {
		if listings[i].ID.IsZero() {
			listings[i].ID = primitive.NewObjectID()
		}
		if listings[i].Reviews == nil {
			listings[i].Reviews = []primitive.ObjectID{}
		}
		docs[i] = listings[i]
	}

	_, err := r.listings.InsertMany(ctx, docs)
	return err
}

// Update replaces the editable fields of a listing, and its image when one is
// given, in a single write. It returns the listing as it was before the update.
func (r *ListingRepository) Update(ctx context.Context, id primitive.ObjectID, in model.ListingInput, image *model.Image) (*model.Listing, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.M{
		"title":       in.Title,
		"description": in.Description,
		"price":       in.Price,
		"location":    in.Location,
		"country":     in.Country,
	}
	if image != nil {
		set["image"] = *image
	}

	var before model.Listing
	err := r.listings.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &before, nil
}

// Delete removes a listing and every review that belongs to it. It returns the
// deleted listing.
func (r *ListingRepository) Delete(ctx context.Context, id primitive.ObjectID) (*model.Listing, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var deleted model.Listing
	if err := r.listings.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&deleted); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	if err := r.deleteReviews(ctx, []primitive.ObjectID{id}, deleted.Reviews); err != nil {
		return &deleted, fmt.Errorf("deleting reviews of listing %s: %w", id.Hex(), err)
	}
	return &deleted, nil
}

// DeleteAll removes every listing and every review, returning the number of
// listings removed.
func (r *ListingRepository) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.listings.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	if _, err := r.reviews.DeleteMany(ctx, bson.M{}); err != nil {
		return res.DeletedCount, fmt.Errorf("deleting reviews: %w", err)
	}
	return res.DeletedCount, nil
}

// AddReview appends a review reference to a listing.
func (r *ListingRepository) AddReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.listings.UpdateOne(ctx, bson.M{"_id": listingID}, bson.M{"$push": bson.M{"reviews": reviewID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrListingNotFound
	}
	return nil
}

// RemoveReview pulls a review reference from a listing.
func (r *ListingRepository) RemoveReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.listings.UpdateOne(ctx, bson.M{"_id": listingID}, bson.M{"$pull": bson.M{"reviews": reviewID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) deleteReviews(ctx context.Context, listingIDs, reviewIDs []primitive.ObjectID) error {
	if reviewIDs == nil {
		reviewIDs = []primitive.ObjectID{}
	}

	_, err := r.reviews.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": bson.M{"$in": reviewIDs}},
		bson.M{"listing": bson.M{"$in": listingIDs}},
	}})
	return err
}
