package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wanderlust/wanderlust-go/internal/model"
)

// ImageURLPrefix is the public path images are served under.
const ImageURLPrefix = "/upload/"

// ImageStore keeps listing photos in a GridFS bucket.
type ImageStore struct {
	db      *mongo.Database
	bucket  string
	timeout time.Duration
}

// NewImageStore creates an ImageStore writing to the named GridFS bucket.
func NewImageStore(db *mongo.Database, bucket string, timeout time.Duration) *ImageStore {
	return &ImageStore{db: db, bucket: bucket, timeout: timeout}
}

// Upload streams the image into GridFS.
func (s *ImageStore) Upload(ctx context.Context, filename string, r io.Reader) (model.Image, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	bucket, err := s.open(ctx)
	if err != nil {
		return model.Image{}, err
	}

	id, err := bucket.UploadFromStream(filename, r)
	if err != nil {
		return model.Image{}, err
	}

	return model.Image{URL: ImageURLPrefix + id.Hex(), Filename: id.Hex()}, nil
}

// Get returns the stored bytes of an image.
func (s *ImageStore) Get(ctx context.Context, key string) ([]byte, error) {
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return nil, ErrImageNotFound
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	bucket, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := bucket.DownloadToStream(id, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// Delete removes an image and its chunks.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return ErrImageNotFound
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	bucket, err := s.open(ctx)
	if err != nil {
		return err
	}

	if err := bucket.Delete(id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrImageNotFound
		}
		return err
	}
	return nil
}

// open returns a bucket whose read and write deadlines follow ctx. Buckets are
// not safe to share once deadlines are set, so each call gets its own.
func (s *ImageStore) open(ctx context.Context) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucket))
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return bucket, nil
}
