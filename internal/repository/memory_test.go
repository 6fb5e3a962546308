package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wanderlust/wanderlust-go/internal/model"
)

func TestSentinelErrors(t *testing.T) {
	assert.Equal(t, "user not found", ErrUserNotFound.Error())
	assert.Equal(t, "email already exists", ErrDuplicateEmail.Error())
	assert.Equal(t, "listing not found", ErrListingNotFound.Error())
}

func duplicateKey(index, key, value string) error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code: 11000,
		Message: fmt.Sprintf(`E11000 duplicate key error collection: wanderlust.users index: %s dup key: { %s: "%s" }`,
			index, key, value),
	}}}
}

func TestDuplicateUserError(t *testing.T) {
	assert.NoError(t, duplicateUserError(nil))
	assert.Equal(t, ErrUserNotFound, duplicateUserError(ErrUserNotFound))

	assert.Equal(t, ErrDuplicateUsername, duplicateUserError(duplicateKey("username_1", "username", "alice")))
	assert.Equal(t, ErrDuplicateEmail, duplicateUserError(duplicateKey("email_1", "email", "alice@example.com")))
	assert.Equal(t, ErrDuplicateUsername, duplicateUserError(duplicateKey("username_1", "username", "myemail")))
	assert.Equal(t, ErrDuplicateUsername, duplicateUserError(duplicateKey("username_1", "username", "x index: email_1 y")))
}

func TestMemoryListingCreateAndList(t *testing.T) {
	ctx := context.Background()
	listings := NewMemoryStore().Listings()

	a := &model.Listing{Title: "A"}
	b := &model.Listing{Title: "B"}
	require.NoError(t, listings.Create(ctx, a))
	require.NoError(t, listings.Create(ctx, b))
	assert.False(t, a.ID.IsZero())
	assert.NotNil(t, a.Reviews)

	all, err := listings.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[0].Title)
	assert.Equal(t, "B", all[1].Title)

	_, err = listings.GetByID(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestMemoryListingUpdateReturnsPrevious(t *testing.T) {
	ctx := context.Background()
	listings := NewMemoryStore().Listings()

	l := &model.Listing{Title: "Old", Image: model.Image{URL: "/upload/1", Filename: "1"}}
	require.NoError(t, listings.Create(ctx, l))

	img := model.Image{URL: "/upload/2", Filename: "2"}
	before, err := listings.Update(ctx, l.ID, model.ListingInput{Title: "New", Price: 10}, &img)
	require.NoError(t, err)
	assert.Equal(t, "Old", before.Title)
	assert.Equal(t, "1", before.Image.Filename)

	got, err := listings.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "2", got.Image.Filename)

	_, err = listings.Update(ctx, l.ID, model.ListingInput{Title: "Newer"}, nil)
	require.NoError(t, err)
	got, _ = listings.GetByID(ctx, l.ID)
	assert.Equal(t, "2", got.Image.Filename, "image kept when none supplied")
}

func TestMemoryListingDeleteCascadesReviews(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	listings, reviews := store.Listings(), store.Reviews()

	l := &model.Listing{Title: "A"}
	other := &model.Listing{Title: "B"}
	require.NoError(t, listings.Create(ctx, l))
	require.NoError(t, listings.Create(ctx, other))

	linked := &model.Review{Rating: 5, Listing: l.ID}
	orphan := &model.Review{Rating: 3, Listing: l.ID}
	kept := &model.Review{Rating: 4, Listing: other.ID}
	for _, r := range []*model.Review{linked, orphan, kept} {
		require.NoError(t, reviews.Create(ctx, r))
	}
	require.NoError(t, listings.AddReview(ctx, l.ID, linked.ID))
	require.NoError(t, listings.AddReview(ctx, other.ID, kept.ID))

	deleted, err := listings.Delete(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{linked.ID}, deleted.Reviews)

	_, err = reviews.GetByID(ctx, linked.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
	_, err = reviews.GetByID(ctx, orphan.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
	_, err = reviews.GetByID(ctx, kept.ID)
	assert.NoError(t, err)

	_, err = listings.Delete(ctx, l.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)
}

func TestMemoryListingDeleteAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Listings().InsertMany(ctx, []model.Listing{{Title: "A"}, {Title: "B"}}))
	require.NoError(t, store.Reviews().Create(ctx, &model.Review{Rating: 1}))

	n, err := store.Listings().DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Zero(t, store.Reviews().Count())
}

func TestMemoryAddRemoveReview(t *testing.T) {
	ctx := context.Background()
	listings := NewMemoryStore().Listings()

	l := &model.Listing{Title: "A"}
	require.NoError(t, listings.Create(ctx, l))

	r1, r2 := primitive.NewObjectID(), primitive.NewObjectID()
	require.NoError(t, listings.AddReview(ctx, l.ID, r1))
	require.NoError(t, listings.AddReview(ctx, l.ID, r2))
	require.NoError(t, listings.RemoveReview(ctx, l.ID, r1))

	got, err := listings.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{r2}, got.Reviews)

	assert.ErrorIs(t, listings.AddReview(ctx, primitive.NewObjectID(), r1), ErrListingNotFound)
}

func TestMemoryUserDuplicates(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	require.NoError(t, users.Create(ctx, &model.User{Username: "alice", Email: "alice@example.com"}))

	err := users.Create(ctx, &model.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	err = users.Create(ctx, &model.User{Username: "bob", Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	u, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = users.GetByUsername(ctx, "carol")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryImages(t *testing.T) {
	ctx := context.Background()
	images := NewMemoryStore().Images()

	img, err := images.Upload(ctx, "photo.png", bytes.NewReader([]byte("png")))
	require.NoError(t, err)
	assert.Equal(t, ImageURLPrefix+img.Filename, img.URL)

	data, err := images.Get(ctx, img.Filename)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	require.NoError(t, images.Delete(ctx, img.Filename))
	assert.ErrorIs(t, images.Delete(ctx, img.Filename), ErrImageNotFound)
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().Listings().List(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
