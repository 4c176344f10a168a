/* stages.go
 * Stage record operations used by the operator surfaces: uploading pending submissions, listing, searching,
 * deleting and promoting records
 */

package api

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"bootcamp-grader/api/shared"
	"bootcamp-grader/api/store"
)

// UploadResult counts what an upload did
type UploadResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// UploadPending adds submissions to a stage's pending bucket.
// Preconditions: Receives a context, a stage and the roster rows
// Postconditions: Every valid row whose email is in no bucket of the stage is stored as pending. Invalid rows, repeated
// emails and emails that already have a record are skipped.
func (a *API) UploadPending(ctx context.Context, stage shared.Stage, subs []shared.Submission) (UploadResult, error) {
	var res UploadResult
	if _, err := a.stage(stage); err != nil {
		return res, err
	}

	seen := make(map[string]bool)
	for _, sub := range subs {
		if !sub.Valid() || seen[sub.Key()] {
			res.Skipped++
			continue
		}
		seen[sub.Key()] = true

		exists, err := a.hasRecord(ctx, stage, sub.Key())
		if err != nil {
			return res, err
		}
		if exists {
			res.Skipped++
			continue
		}

		rec := store.RecordFromSubmission(shared.Submission{
			Username:   strings.TrimSpace(sub.Username),
			HostedLink: strings.TrimSpace(sub.HostedLink),
			Email:      sub.Email,
		})
		if err := a.Store.Upsert(ctx, stage, shared.BucketPending, rec); err != nil {
			return res, fmt.Errorf("failed to store pending record for %s: %w", rec.Email, err)
		}
		res.Inserted++
	}
	return res, nil
}

func (a *API) hasRecord(ctx context.Context, stage shared.Stage, email string) (bool, error) {
	for _, bucket := range shared.Buckets {
		rec, err := a.Store.FindByKey(ctx, stage, bucket, email)
		if err != nil {
			return false, err
		}
		if rec != nil {
			return true, nil
		}
	}
	return false, nil
}

// List returns the records of a bucket matching filter, oldest first
func (a *API) List(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter store.Filter) ([]store.StageRecord, error) {
	if _, err := a.stage(stage); err != nil {
		return nil, err
	}
	return a.Store.Find(ctx, stage, bucket, filter)
}

// Delete removes one record by email. It returns shared.ErrNotFound when there was nothing to delete.
func (a *API) Delete(ctx context.Context, stage shared.Stage, bucket shared.Bucket, email string) error {
	if _, err := a.stage(stage); err != nil {
		return err
	}
	deleted, err := a.Store.Delete(ctx, stage, bucket, email)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s in %s %s", shared.ErrNotFound, shared.NormalizeEmail(email), stage, bucket)
	}
	return nil
}

// DeleteAll empties a bucket
func (a *API) DeleteAll(ctx context.Context, stage shared.Stage, bucket shared.Bucket) (int64, error) {
	if _, err := a.stage(stage); err != nil {
		return 0, err
	}
	return a.Store.DeleteMany(ctx, stage, bucket, store.Filter{})
}

// Promote marks passed records as promoted to the next stage. No emails promotes every passed record.
// Promotion is one way; promoting a promoted record changes nothing.
func (a *API) Promote(ctx context.Context, stage shared.Stage, emails ...string) (int64, error) {
	if _, err := a.stage(stage); err != nil {
		return 0, err
	}
	filter := store.Filter{}
	if len(emails) > 0 {
		filter.Emails = emails
	}
	matched, err := a.Store.UpdateMany(ctx, stage, shared.BucketPassed, filter, store.Patch{Promote: true})
	if err != nil {
		return 0, err
	}
	if len(emails) > 0 && matched == 0 {
		return 0, fmt.Errorf("%w: no passed record for %s", shared.ErrNotFound, strings.Join(emails, ", "))
	}
	return matched, nil
}

// FindRecords searches a bucket by approximate username. Results are ranked best match first.
func (a *API) FindRecords(ctx context.Context, stage shared.Stage, bucket shared.Bucket, query string) ([]store.StageRecord, error) {
	records, err := a.List(ctx, stage, bucket, store.Filter{})
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records, nil
	}

	usernames := make([]string, len(records))
	for i, r := range records {
		usernames[i] = strings.ToLower(r.Username)
	}
	ranks := fuzzy.RankFindFold(query, usernames)
	sort.Stable(ranks)

	found := make([]store.StageRecord, len(ranks))
	for i, rank := range ranks {
		found[i] = records[rank.OriginalIndex]
	}
	return found, nil
}
