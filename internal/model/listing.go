package model

import (
	"errors"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID is returned when a path parameter is not a valid document id.
var ErrInvalidID = errors.New("invalid id")

// Image points at a stored listing photo. Filename is the storage key.
type Image struct {
	URL      string `bson:"url" json:"url"`
	Filename string `bson:"filename" json:"filename"`
}

// Listing represents a rentable property.
type Listing struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description" json:"description"`
	Image       Image                `bson:"image" json:"image"`
	Price       float64              `bson:"price" json:"price"`
	Location    string               `bson:"location" json:"location"`
	Country     string               `bson:"country" json:"country"`
	Reviews     []primitive.ObjectID `bson:"reviews" json:"reviews"`
	Owner       primitive.ObjectID   `bson:"owner,omitempty" json:"owner"`
}

// OwnedBy reports whether userID (hex) owns the listing.
func (l Listing) OwnedBy(userID string) bool {
	return userID != "" && !l.Owner.IsZero() && l.Owner.Hex() == userID
}

// Apply replaces the editable fields with the given input.
func (l *Listing) Apply(in ListingInput) {
	l.Title = in.Title
	l.Description = in.Description
	l.Price = in.Price
	l.Location = in.Location
	l.Country = in.Country
}

// ThumbnailURL returns a width-constrained variant of the stored image URL.
func (l Listing) ThumbnailURL(width int) string {
	return ThumbnailURL(l.Image.URL, width)
}

// ThumbnailURL rewrites an /upload URL into its /upload/w_<width> variant.
func ThumbnailURL(url string, width int) string {
	if width <= 0 {
		return url
	}
	return strings.Replace(url, "/upload", "/upload/w_"+strconv.Itoa(width), 1)
}

// ParseID converts a hex path parameter into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}
