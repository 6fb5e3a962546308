package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wanderlust/wanderlust-go/internal/crypto"
	"github.com/wanderlust/wanderlust-go/internal/model"
	"github.com/wanderlust/wanderlust-go/internal/repository"
)

type fixture struct {
	store    *repository.MemoryStore
	listings *ListingService
	reviews  *ReviewService
	auth     *AuthService
	images   *ImageService
}

func newFixture() *fixture {
	store := repository.NewMemoryStore()
	hasher := crypto.NewPasswordHasher(crypto.HashParams{
		Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16,
	})

	return &fixture{
		store:    store,
		listings: NewListingService(store.Listings(), store.Reviews(), store.Users(), store.Images()),
		reviews:  NewReviewService(store.Listings(), store.Reviews()),
		auth:     NewAuthService(store.Users(), hasher),
		images:   NewImageService(store.Images()),
	}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), model.SignupInput{
		Username: name, Email: name + "@example.com", Password: "secret",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) listing(t *testing.T, owner *model.User) *model.Listing {
	t.Helper()
	l, err := f.listings.Create(context.Background(), owner.ID.Hex(), sampleInput("Cabin"), pngUpload())
	require.NoError(t, err)
	return l
}

func sampleInput(title string) model.ListingInput {
	return model.ListingInput{
		Title: title, Description: "cosy", Location: "Manali", Country: "India", Price: 1200,
	}
}

func pngUpload() *Upload {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 3))); err != nil {
		panic(err)
	}
	return &Upload{Filename: "cabin.png", ContentType: "image/png", Body: &buf}
}

// pngHeader returns a grayscale PNG that declares a w×h canvas but carries no
// pixel data. Its header is valid, so only a full decode fails.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 4, 17)
	copy(ihdr, "IHDR")
	ihdr = binary.BigEndian.AppendUint32(ihdr, w)
	ihdr = binary.BigEndian.AppendUint32(ihdr, h)
	ihdr = append(ihdr, 8, 0, 0, 0, 0)

	out := []byte("\x89PNG\r\n\x1a\n")
	out = binary.BigEndian.AppendUint32(out, 13)
	out = append(out, ihdr...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(ihdr))
}

// failingListings fails the writes that listing and review creation depend
// on and delegates everything else to the memory repository.
type failingListings struct {
	*repository.MemoryListingRepository
	err error
}

func (f failingListings) Create(context.Context, *model.Listing) error { return f.err }

func (f failingListings) AddReview(context.Context, primitive.ObjectID, primitive.ObjectID) error {
	return f.err
}
