package repository

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wanderlust/wanderlust-go/internal/model"
)

// MemoryStore is a process-local document store used for development and
// tests. Its repositories mirror the MongoDB ones, cascade included.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[primitive.ObjectID]model.Listing
	order    []primitive.ObjectID
	reviews  map[primitive.ObjectID]model.Review
	users    map[primitive.ObjectID]model.User
	images   map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listings: make(map[primitive.ObjectID]model.Listing),
		reviews:  make(map[primitive.ObjectID]model.Review),
		users:    make(map[primitive.ObjectID]model.User),
		images:   make(map[string][]byte),
	}
}

func (m *MemoryStore) Listings() *MemoryListingRepository { return &MemoryListingRepository{m} }
func (m *MemoryStore) Reviews() *MemoryReviewRepository   { return &MemoryReviewRepository{m} }
func (m *MemoryStore) Users() *MemoryUserRepository       { return &MemoryUserRepository{m} }
func (m *MemoryStore) Images() *MemoryImageStore          { return &MemoryImageStore{m} }

// MemoryListingRepository is the in-memory ListingRepository.
type MemoryListingRepository struct{ s *MemoryStore }

func (r *MemoryListingRepository) List(ctx context.Context) ([]model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Listing, 0, len(r.s.order))
	for _, id := range r.s.order {
		out = append(out, cloneListing(r.s.listings[id]))
	}
	return out, nil
}

func (r *MemoryListingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	l = cloneListing(l)
	return &l, nil
}

func (r *MemoryListingRepository) Create(ctx context.Context, l *model.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.insertListing(l)
	return nil
}

func (r *MemoryListingRepository) InsertMany(ctx context.Context, listings []model.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range listings {
		r.s.insertListing(&listings[i])
	}
	return nil
}

func (r *MemoryListingRepository) Update(ctx context.Context, id primitive.ObjectID, in model.ListingInput, image *model.Image) (*model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	before := cloneListing(l)

	l.Apply(in)
	if image != nil {
		l.Image = *image
	}
	r.s.listings[id] = l
	return &before, nil
}

func (r *MemoryListingRepository) Delete(ctx context.Context, id primitive.ObjectID) (*model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	delete(r.s.listings, id)
	r.s.order = slices.DeleteFunc(r.s.order, func(o primitive.ObjectID) bool { return o == id })

	for _, rid := range l.Reviews {
		delete(r.s.reviews, rid)
	}
	for rid, rev := range r.s.reviews {
		if rev.Listing == id {
			delete(r.s.reviews, rid)
		}
	}
	return &l, nil
}

func (r *MemoryListingRepository) DeleteAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := int64(len(r.s.listings))
	r.s.listings = make(map[primitive.ObjectID]model.Listing)
	r.s.order = nil
	r.s.reviews = make(map[primitive.ObjectID]model.Review)
	return n, nil
}

func (r *MemoryListingRepository) AddReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[listingID]
	if !ok {
		return ErrListingNotFound
	}
	l.Reviews = append(slices.Clone(l.Reviews), reviewID)
	r.s.listings[listingID] = l
	return nil
}

func (r *MemoryListingRepository) RemoveReview(ctx context.Context, listingID, reviewID primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[listingID]
	if !ok {
		return ErrListingNotFound
	}
	l.Reviews = slices.DeleteFunc(slices.Clone(l.Reviews), func(id primitive.ObjectID) bool { return id == reviewID })
	r.s.listings[listingID] = l
	return nil
}

// MemoryReviewRepository is the in-memory ReviewRepository.
type MemoryReviewRepository struct{ s *MemoryStore }

func (r *MemoryReviewRepository) Create(ctx context.Context, review *model.Review) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	r.s.reviews[review.ID] = *review
	return nil
}

func (r *MemoryReviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rev, ok := r.s.reviews[id]
	if !ok {
		return nil, ErrReviewNotFound
	}
	return &rev, nil
}

func (r *MemoryReviewRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.Review{}
	for _, id := range ids {
		if rev, ok := r.s.reviews[id]; ok {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *MemoryReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reviews[id]; !ok {
		return ErrReviewNotFound
	}
	delete(r.s.reviews, id)
	return nil
}

// Count returns the number of stored reviews.
func (r *MemoryReviewRepository) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.reviews)
}

// MemoryUserRepository is the in-memory UserRepository.
type MemoryUserRepository struct{ s *MemoryStore }

func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username {
			return ErrDuplicateUsername
		}
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicateEmail
		}
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []model.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// MemoryImageStore is the in-memory ImageStore.
type MemoryImageStore struct{ s *MemoryStore }

func (r *MemoryImageStore) Upload(ctx context.Context, _ string, src io.Reader) (model.Image, error) {
	if err := ctx.Err(); err != nil {
		return model.Image{}, err
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return model.Image{}, err
	}

	key := primitive.NewObjectID().Hex()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.images[key] = data
	return model.Image{URL: ImageURLPrefix + key, Filename: key}, nil
}

func (r *MemoryImageStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	data, ok := r.s.images[key]
	if !ok {
		return nil, ErrImageNotFound
	}
	return data, nil
}

func (r *MemoryImageStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.images[key]; !ok {
		return ErrImageNotFound
	}
	delete(r.s.images, key)
	return nil
}

// Len returns the number of stored images.
func (r *MemoryImageStore) Len() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.images)
}

// insertListing must be called with mu held.
func (m *MemoryStore) insertListing(l *model.Listing) {
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	if l.Reviews == nil {
		l.Reviews = []primitive.ObjectID{}
	}
	if _, exists := m.listings[l.ID]; !exists {
		m.order = append(m.order, l.ID)
	}
	m.listings[l.ID] = cloneListing(*l)
}

func cloneListing(l model.Listing) model.Listing {
	l.Reviews = slices.Clone(l.Reviews)
	if l.Reviews == nil {
		l.Reviews = []primitive.ObjectID{}
	}
	return l
}
