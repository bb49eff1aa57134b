package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDatabase   = "wheelforge"
	mongoCollection = "records"
	mongoTimeout    = 10 * time.Second
)

// MongoStore persists records in a shared MongoDB collection, upserting on
// the wheel URL so concurrent builders converge on the same state.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects and verifies the server is reachable before
// returning; a dead DSN fails here, not on the first Put.
func NewMongoStore(ctx context.Context, dsn string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
	if err != nil {
		return nil, fmt.Errorf("connecting to record store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("record store unreachable: %w", err)
	}

	coll := client.Database(mongoDatabase).Collection(mongoCollection)
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Put(ctx context.Context, rec Record) error {
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"url": rec.URL}, rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("storing record %s: %w", rec.URL, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, url string) (Record, bool, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"url": url}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("loading record %s: %w", url, err)
	}
	return rec, true, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Record, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"url": 1}))
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer cur.Close(ctx)

	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
