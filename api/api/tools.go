/* tools.go
 * Roster tools that sit beside grading: diffing two rosters and counting friend mentions
 */

package api

import (
	"context"
	"fmt"

	"bootcamp-grader/api/logic"
	"bootcamp-grader/api/shared"
)

// Diff lists every general roster entry that is missing from, or has a different email in, the next stage roster.
// The result is "username,email" CSV, or the empty string when the rosters agree.
func (a *API) Diff(general, nextStage []shared.DiffRow) (string, error) {
	return logic.Diff(general, nextStage)
}

// UploadMentions stores mention submissions, skipping usernames that already submitted
func (a *API) UploadMentions(ctx context.Context, subs []shared.MentionSubmission) (UploadResult, error) {
	inserted, err := a.Store.InsertMentionSubmissions(ctx, subs)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to store mention submissions: %w", err)
	}
	return UploadResult{Inserted: inserted, Skipped: len(subs) - inserted}, nil
}

// CountMentions counts how often each friend was named across every stored submission and replaces the stored counts
func (a *API) CountMentions(ctx context.Context) ([]shared.MentionCount, error) {
	subs, err := a.Store.MentionSubmissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load mention submissions: %w", err)
	}
	counts := logic.CountMentions(subs)
	if err := a.Store.ReplaceMentionCounts(ctx, counts); err != nil {
		return nil, fmt.Errorf("failed to store mention counts: %w", err)
	}
	return counts, nil
}

// MentionCounts lists the stored counts, optionally only those equal to counter
func (a *API) MentionCounts(ctx context.Context, counter *int) ([]shared.MentionCount, error) {
	return a.Store.MentionCounts(ctx, counter)
}

// DeleteMentions clears the stored mention submissions and counts
func (a *API) DeleteMentions(ctx context.Context) (int64, error) {
	deleted, err := a.Store.DeleteMentionSubmissions(ctx)
	if err != nil {
		return 0, err
	}
	if err := a.Store.ReplaceMentionCounts(ctx, nil); err != nil {
		return deleted, fmt.Errorf("failed to clear mention counts: %w", err)
	}
	return deleted, nil
}

// UploadGeneral stores the general roster, skipping usernames already present
func (a *API) UploadGeneral(ctx context.Context, users []shared.GeneralUser) (UploadResult, error) {
	inserted, err := a.Store.InsertGeneralUsers(ctx, users)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to store general users: %w", err)
	}
	return UploadResult{Inserted: inserted, Skipped: len(users) - inserted}, nil
}

func (a *API) DeleteGeneral(ctx context.Context) (int64, error) {
	return a.Store.DeleteGeneralUsers(ctx)
}

// NoMentions lists the general roster users that nobody mentioned, using the stored counts
func (a *API) NoMentions(ctx context.Context) ([]shared.GeneralUser, error) {
	general, err := a.Store.GeneralUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load general users: %w", err)
	}
	counts, err := a.Store.MentionCounts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load mention counts: %w", err)
	}
	return logic.NoMentions(general, counts), nil
}
