package session

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps sessions in a MongoDB collection. Expired documents are
// removed by a TTL index on expiresAt.
type MongoStore struct {
	sessions *mongo.Collection
	timeout  time.Duration
}

// NewMongoStore creates a MongoStore over the sessions collection of db.
func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	return &MongoStore{sessions: db.Collection("sessions"), timeout: timeout}
}

// EnsureIndexes creates the TTL index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expiresAt_ttl"),
	})
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var sess Session
	filter := bson.M{"_id": id, "expiresAt": bson.M{"$gt": time.Now()}}
	if err := s.sessions.FindOne(ctx, filter).Decode(&sess); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *MongoStore) Save(ctx context.Context, sess *Session) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.sessions.ReplaceOne(ctx, bson.M{"_id": sess.ID}, sess, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Destroy(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.sessions.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
