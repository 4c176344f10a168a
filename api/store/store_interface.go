/* store_interface.go
 * Contains the Store interface for dependency injection and testing
 */

package store

import (
	"context"

	"bootcamp-grader/api/shared"
)

// Interface defines the methods that Store implements.
// This allows for mocking in tests.
type Interface interface {
	// Stage buckets
	FindByKey(ctx context.Context, stage shared.Stage, bucket shared.Bucket, email string) (*StageRecord, error)
	Upsert(ctx context.Context, stage shared.Stage, bucket shared.Bucket, record StageRecord) error
	Delete(ctx context.Context, stage shared.Stage, bucket shared.Bucket, email string) (bool, error)
	DeleteMany(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter Filter) (int64, error)
	UpdateMany(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter Filter, patch Patch) (int64, error)
	Find(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter Filter) ([]StageRecord, error)

	// Mention counting and the general roster
	InsertMentionSubmissions(ctx context.Context, subs []shared.MentionSubmission) (int, error)
	MentionSubmissions(ctx context.Context) ([]shared.MentionSubmission, error)
	DeleteMentionSubmissions(ctx context.Context) (int64, error)
	ReplaceMentionCounts(ctx context.Context, counts []shared.MentionCount) error
	MentionCounts(ctx context.Context, counter *int) ([]shared.MentionCount, error)
	InsertGeneralUsers(ctx context.Context, users []shared.GeneralUser) (int, error)
	GeneralUsers(ctx context.Context) ([]shared.GeneralUser, error)
	DeleteGeneralUsers(ctx context.Context) (int64, error)

	EnsureIndexes(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// Ensure Store implements Interface
var _ Interface = (*Store)(nil)
