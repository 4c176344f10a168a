/* mentions.go
 * Contains the methods for interacting with the mention_submissions, mention_counts and general_users collections
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bootcamp-grader/api/shared"
)

// InsertMentionSubmissions stores submissions whose username is not stored yet. Existing usernames are left untouched.
// Postconditions: Returns how many submissions were newly stored
func (s *Store) InsertMentionSubmissions(ctx context.Context, subs []shared.MentionSubmission) (int, error) {
	inserted := 0
	for _, sub := range subs {
		update := bson.M{"$setOnInsert": bson.M{"username": sub.Username, "friends": sub.Friends}}
		res, err := s.Collections.MentionSubmissions.UpdateOne(ctx, bson.M{"username": sub.Username}, update, options.Update().SetUpsert(true))
		if err != nil {
			return inserted, fmt.Errorf("failed to insert mention submission for %s: %w", sub.Username, err)
		}
		if res.UpsertedCount > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// MentionSubmissions returns every stored mention submission
func (s *Store) MentionSubmissions(ctx context.Context) ([]shared.MentionSubmission, error) {
	subs := []shared.MentionSubmission{}
	if err := findAll(ctx, s.Collections.MentionSubmissions, bson.M{}, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// DeleteMentionSubmissions clears the mention submissions
func (s *Store) DeleteMentionSubmissions(ctx context.Context) (int64, error) {
	res, err := s.Collections.MentionSubmissions.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete mention submissions: %w", err)
	}
	return res.DeletedCount, nil
}

// ReplaceMentionCounts replaces every stored count with counts
func (s *Store) ReplaceMentionCounts(ctx context.Context, counts []shared.MentionCount) error {
	if _, err := s.Collections.MentionCounts.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear mention counts: %w", err)
	}
	if len(counts) == 0 {
		return nil
	}

	docs := make([]interface{}, len(counts))
	for i, c := range counts {
		docs[i] = c
	}
	if _, err := s.Collections.MentionCounts.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert mention counts: %w", err)
	}
	return nil
}

// MentionCounts returns the stored counts, highest first, optionally only those equal to counter
func (s *Store) MentionCounts(ctx context.Context, counter *int) ([]shared.MentionCount, error) {
	filter := bson.M{}
	if counter != nil {
		filter["counter"] = *counter
	}
	opts := options.Find().SetSort(bson.D{{Key: "counter", Value: -1}, {Key: "username", Value: 1}})

	counts := []shared.MentionCount{}
	if err := findAll(ctx, s.Collections.MentionCounts, filter, &counts, opts); err != nil {
		return nil, err
	}
	return counts, nil
}

// InsertGeneralUsers stores usernames not already present in the general roster
func (s *Store) InsertGeneralUsers(ctx context.Context, users []shared.GeneralUser) (int, error) {
	inserted := 0
	for _, u := range users {
		update := bson.M{"$setOnInsert": bson.M{"username": u.Username}}
		res, err := s.Collections.General.UpdateOne(ctx, bson.M{"username": u.Username}, update, options.Update().SetUpsert(true))
		if err != nil {
			return inserted, fmt.Errorf("failed to insert general user %s: %w", u.Username, err)
		}
		if res.UpsertedCount > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// GeneralUsers returns the general roster
func (s *Store) GeneralUsers(ctx context.Context) ([]shared.GeneralUser, error) {
	users := []shared.GeneralUser{}
	if err := findAll(ctx, s.Collections.General, bson.M{}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteGeneralUsers clears the general roster
func (s *Store) DeleteGeneralUsers(ctx context.Context) (int64, error) {
	res, err := s.Collections.General.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete general users: %w", err)
	}
	return res.DeletedCount, nil
}

func findAll(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("error fetching results from %s: %w", coll.Name(), err)
	}
	if err = cursor.All(ctx, out); err != nil {
		return fmt.Errorf("error unpacking cursor from %s: %w", coll.Name(), err)
	}
	return nil
}
