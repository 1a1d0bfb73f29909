package spec

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection is the collection MongoStore uses when none is given.
const DefaultCollection = "openapi_documents"

// Collection captures the subset of *mongo.Collection used by MongoStore.
type Collection interface {
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
}

type storedDocument struct {
	Key       string    `bson:"_id"`
	Document  string    `bson:"document"`
	Hash      string    `bson:"hash"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStore keeps documents in a MongoDB collection, one record per key.
// Each record carries the sha256 of the document, checked on read.
type MongoStore struct {
	collection Collection
	now        func() time.Time
}

// NewMongoStore returns a MongoStore backed by the DefaultCollection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return NewMongoStoreWithCollection(db.Collection(DefaultCollection))
}

// NewMongoStoreWithCollection returns a MongoStore backed by c.
func NewMongoStoreWithCollection(c Collection) *MongoStore {
	return &MongoStore{collection: c, now: time.Now}
}

func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec storedDocument
	err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", key, err)
	}

	data := []byte(rec.Document)
	if rec.Hash != "" && rec.Hash != Hash(data) {
		return nil, fmt.Errorf("document %s: hash mismatch", key)
	}
	return data, nil
}

func (s *MongoStore) Put(ctx context.Context, key string, data []byte) error {
	rec := storedDocument{
		Key:       key,
		Document:  string(data),
		Hash:      Hash(data),
		UpdatedAt: s.now().UTC(),
	}
	_, err := s.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: key}}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Hash returns the hex encoded sha256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
