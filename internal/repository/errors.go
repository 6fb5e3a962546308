package repository

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrListingNotFound   = errors.New("listing not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrImageNotFound     = errors.New("image not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// Unique indexes on the users collection.
const (
	usernameIndex = "username_1"
	emailIndex    = "email_1"
)

// duplicateUserError maps a unique-index violation on the users collection to
// the matching sentinel, keyed on the violated index name.
func duplicateUserError(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	if violatedIndex(err.Error()) == emailIndex {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

// violatedIndex extracts the index name from an E11000 message such as
// "E11000 duplicate key error collection: db.users index: email_1 dup key: ...".
// The key values follow the name, so only the first occurrence is read.
func violatedIndex(msg string) string {
	_, rest, ok := strings.Cut(msg, "index: ")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, " ")
	return name
}
