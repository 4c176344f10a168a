/* stage_records.go
 * Contains the methods for interacting with the pending, passed and failed collections of each stage. Every record is
 * keyed by its normalised email. Keeping the three buckets exclusive is the caller's job.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bootcamp-grader/api/shared"
)

// FindByKey returns the record stored under email in the bucket, or nil if there is none
func (s *Store) FindByKey(ctx context.Context, stage shared.Stage, bucket shared.Bucket, email string) (*StageRecord, error) {
	coll, err := s.bucket(stage, bucket)
	if err != nil {
		return nil, err
	}

	var record StageRecord
	err = coll.FindOne(ctx, bson.M{"email": shared.NormalizeEmail(email)}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error fetching %s record from db: %w", bucket, err)
	}
	return &record, nil
}

// Upsert inserts or overwrites the record stored under its email. A new passed record starts unpromoted;
// an existing record keeps its promoted flag and createdAt.
// Preconditions: Receives the stage, bucket and record to write. record.Email must be set
// Postconditions: The bucket holds exactly one record for the email, or an error is returned
func (s *Store) Upsert(ctx context.Context, stage shared.Stage, bucket shared.Bucket, record StageRecord) error {
	coll, err := s.bucket(stage, bucket)
	if err != nil {
		return err
	}
	key := shared.NormalizeEmail(record.Email)
	if key == "" {
		return fmt.Errorf("record has no email")
	}

	now := s.now().UTC()
	set := bson.M{
		"username":   record.Username,
		"email":      key,
		"hostedLink": record.HostedLink,
		"updatedAt":  now,
	}
	if bucket != shared.BucketPending {
		set["grade"] = record.Grade
	}
	setOnInsert := bson.M{"createdAt": now}
	if bucket == shared.BucketPassed {
		setOnInsert["promoted"] = false
	}

	update := bson.M{"$set": set, "$setOnInsert": setOnInsert}
	_, err = coll.UpdateOne(ctx, bson.M{"email": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert %s record: %w", bucket, err)
	}
	return nil
}

// Delete removes the record stored under email, reporting whether one existed
func (s *Store) Delete(ctx context.Context, stage shared.Stage, bucket shared.Bucket, email string) (bool, error) {
	coll, err := s.bucket(stage, bucket)
	if err != nil {
		return false, err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"email": shared.NormalizeEmail(email)})
	if err != nil {
		return false, fmt.Errorf("failed to delete %s record: %w", bucket, err)
	}
	return res.DeletedCount > 0, nil
}

// DeleteMany removes every record matching the filter and returns how many were removed
func (s *Store) DeleteMany(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter Filter) (int64, error) {
	coll, err := s.bucket(stage, bucket)
	if err != nil {
		return 0, err
	}
	res, err := coll.DeleteMany(ctx, filter.toBSON())
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s records: %w", bucket, err)
	}
	return res.DeletedCount, nil
}

// UpdateMany applies the patch to every record matching the filter and returns how many were matched
func (s *Store) UpdateMany(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter Filter, patch Patch) (int64, error) {
	if patch.Empty() {
		return 0, nil
	}
	coll, err := s.bucket(stage, bucket)
	if err != nil {
		return 0, err
	}

	set := bson.M{"updatedAt": s.now().UTC()}
	if patch.Promote {
		set["promoted"] = true
	}
	res, err := coll.UpdateMany(ctx, filter.toBSON(), bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("failed to update %s records: %w", bucket, err)
	}
	return res.MatchedCount, nil
}

// Find returns every record matching the filter, oldest first
func (s *Store) Find(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter Filter) ([]StageRecord, error) {
	coll, err := s.bucket(stage, bucket)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := coll.Find(ctx, filter.toBSON(), opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s records from db: %w", bucket, err)
	}

	records := []StageRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("error unpacking cursor into slice of records: %w", err)
	}
	return records, nil
}
