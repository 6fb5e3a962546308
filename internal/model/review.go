package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a rating and comment left by a user on a listing.
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Comment   string             `bson:"comment" json:"comment"`
	Rating    int                `bson:"rating" json:"rating"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Author    primitive.ObjectID `bson:"author,omitempty" json:"author"`
	Listing   primitive.ObjectID `bson:"listing,omitempty" json:"listing"`
}

// WrittenBy reports whether userID (hex) authored the review.
func (r Review) WrittenBy(userID string) bool {
	return userID != "" && !r.Author.IsZero() && r.Author.Hex() == userID
}
