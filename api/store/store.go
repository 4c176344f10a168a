/* store.go
 * Contains the Store struct and NewStore function. The methods for this package are split into two files:
 * stage_records (the pending / passed / failed buckets of each stage) and mentions (mention counting and the
 * general roster)
 */

package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"bootcamp-grader/api/shared"
)

// BucketKey identifies one bucket collection of one stage
type BucketKey struct {
	Stage  shared.Stage
	Bucket shared.Bucket
}

// CollectionName is the collection backing a bucket, e.g. stage1_passed
func (k BucketKey) CollectionName() string {
	return fmt.Sprintf("%s_%s", k.Stage, k.Bucket)
}

type Store struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Collections struct {
		Buckets            map[BucketKey]*mongo.Collection
		MentionSubmissions *mongo.Collection
		MentionCounts      *mongo.Collection
		General            *mongo.Collection
	}
	now func() time.Time
	log *zap.Logger
}

// Stages lists every stage the store keeps buckets for
var Stages = []shared.Stage{shared.Stage1, shared.Stage2}

// NewStore connects to MongoDB and returns a Store over the named database
// Preconditions: Receives a context bounding the connection attempt, the db name and the mongo uri
// Postconditions: Returns pointer to the Store object, or error if the connection could not be established
func NewStore(ctx context.Context, dbName string, mongoURI string, log *zap.Logger) (*Store, error) {
	if dbName == "" {
		return nil, fmt.Errorf("db name cannot be empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	return NewStoreFromDatabase(client, client.Database(dbName), log), nil
}

// NewStoreFromDatabase wires a Store to an existing client and database
func NewStoreFromDatabase(client *mongo.Client, db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{Client: client, Database: db, now: time.Now, log: log}
	s.Collections.Buckets = make(map[BucketKey]*mongo.Collection)
	for _, stage := range Stages {
		for _, bucket := range shared.Buckets {
			key := BucketKey{Stage: stage, Bucket: bucket}
			s.Collections.Buckets[key] = db.Collection(key.CollectionName())
		}
	}
	s.Collections.MentionSubmissions = db.Collection("mention_submissions")
	s.Collections.MentionCounts = db.Collection("mention_counts")
	s.Collections.General = db.Collection("general_users")
	return s
}

func (s *Store) bucket(stage shared.Stage, bucket shared.Bucket) (*mongo.Collection, error) {
	coll, ok := s.Collections.Buckets[BucketKey{Stage: stage, Bucket: bucket}]
	if !ok {
		if _, err := shared.ParseStage(string(stage)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownBucket, bucket)
	}
	return coll, nil
}

// EnsureIndexes creates the unique indexes every collection relies on: email for stage buckets and
// username for the mention and general collections
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}

	for _, stage := range Stages {
		for _, bucket := range shared.Buckets {
			key := BucketKey{Stage: stage, Bucket: bucket}
			if _, err := s.Collections.Buckets[key].Indexes().CreateOne(ctx, unique("email")); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", key.CollectionName(), err)
			}
		}
	}
	for _, coll := range []*mongo.Collection{s.Collections.MentionSubmissions, s.Collections.MentionCounts, s.Collections.General} {
		if _, err := coll.Indexes().CreateOne(ctx, unique("username")); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", coll.Name(), err)
		}
	}
	s.log.Info("mongo indexes ensured", zap.String("db", s.Database.Name()))
	return nil
}

// Disconnect closes the underlying client
func (s *Store) Disconnect(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}
