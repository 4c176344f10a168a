/* test_mocks.go
 * Contains an in-memory store.Interface for testing the API package and the operator surfaces
 */

package api

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"bootcamp-grader/api/shared"
	"bootcamp-grader/api/store"
)

// MockStore implements store.Interface in memory. Writes are atomic per call.
type MockStore struct {
	mu       sync.Mutex
	records  map[store.BucketKey]map[string]store.StageRecord
	mentions []shared.MentionSubmission
	counts   []shared.MentionCount
	general  []shared.GeneralUser
	clock    time.Time
	tick     int

	// Error injection for testing error paths
	FindByKeyError  error
	UpsertError     error
	UpsertErrors    map[shared.Bucket]error
	DeleteError     error
	DeleteManyError error
	UpdateManyError error
	FindError       error
	MentionsError   error
	GeneralError    error

	Disconnected bool
}

var _ store.Interface = (*MockStore)(nil)

// NewMockStore creates an empty MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		records: make(map[store.BucketKey]map[string]store.StageRecord),
		clock:   time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	}
}

// now advances a fake clock so records keep their insertion order
func (m *MockStore) now() time.Time {
	m.tick++
	return m.clock.Add(time.Duration(m.tick) * time.Millisecond)
}

func (m *MockStore) bucket(stage shared.Stage, bucket shared.Bucket) (map[string]store.StageRecord, error) {
	if !slices.Contains(store.Stages, stage) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownStage, stage)
	}
	if !slices.Contains(shared.Buckets, bucket) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownBucket, bucket)
	}
	key := store.BucketKey{Stage: stage, Bucket: bucket}
	if m.records[key] == nil {
		m.records[key] = make(map[string]store.StageRecord)
	}
	return m.records[key], nil
}

// Seed writes a record directly, bypassing error injection
func (m *MockStore) Seed(stage shared.Stage, bucket shared.Bucket, rec store.StageRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, err := m.bucket(stage, bucket)
	if err != nil {
		panic(err)
	}
	rec.Email = shared.NormalizeEmail(rec.Email)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now()
	}
	coll[rec.Email] = rec
}

// Record returns the record stored under email, if any
func (m *MockStore) Record(stage shared.Stage, bucket shared.Bucket, email string) (store.StageRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[store.BucketKey{Stage: stage, Bucket: bucket}][shared.NormalizeEmail(email)]
	return rec, ok
}

// Len returns how many records a bucket holds
func (m *MockStore) Len(stage shared.Stage, bucket shared.Bucket) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[store.BucketKey{Stage: stage, Bucket: bucket}])
}

// BucketsOf lists the buckets of a stage holding email
func (m *MockStore) BucketsOf(stage shared.Stage, email string) []shared.Bucket {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found []shared.Bucket
	for _, b := range shared.Buckets {
		if _, ok := m.records[store.BucketKey{Stage: stage, Bucket: b}][shared.NormalizeEmail(email)]; ok {
			found = append(found, b)
		}
	}
	return found
}

// region stage records

func (m *MockStore) FindByKey(ctx context.Context, stage shared.Stage, bucket shared.Bucket, email string) (*store.StageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindByKeyError != nil {
		return nil, m.FindByKeyError
	}
	coll, err := m.bucket(stage, bucket)
	if err != nil {
		return nil, err
	}
	rec, ok := coll[shared.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MockStore) Upsert(ctx context.Context, stage shared.Stage, bucket shared.Bucket, record store.StageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertError != nil {
		return m.UpsertError
	}
	if err := m.UpsertErrors[bucket]; err != nil {
		return err
	}
	coll, err := m.bucket(stage, bucket)
	if err != nil {
		return err
	}
	key := shared.NormalizeEmail(record.Email)
	if key == "" {
		return fmt.Errorf("record has no email")
	}

	now := m.now()
	existing, ok := coll[key]
	if !ok {
		existing = store.StageRecord{CreatedAt: now}
	}
	existing.Username = record.Username
	existing.Email = key
	existing.HostedLink = record.HostedLink
	existing.UpdatedAt = now
	if bucket != shared.BucketPending {
		existing.Grade = record.Grade
	}
	coll[key] = existing
	return nil
}

func (m *MockStore) Delete(ctx context.Context, stage shared.Stage, bucket shared.Bucket, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return false, m.DeleteError
	}
	coll, err := m.bucket(stage, bucket)
	if err != nil {
		return false, err
	}
	key := shared.NormalizeEmail(email)
	_, ok := coll[key]
	delete(coll, key)
	return ok, nil
}

func (m *MockStore) DeleteMany(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter store.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteManyError != nil {
		return 0, m.DeleteManyError
	}
	coll, err := m.bucket(stage, bucket)
	if err != nil {
		return 0, err
	}
	var deleted int64
	for key, rec := range coll {
		if filter.Matches(rec) {
			delete(coll, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockStore) UpdateMany(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter store.Filter, patch store.Patch) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateManyError != nil {
		return 0, m.UpdateManyError
	}
	if patch.Empty() {
		return 0, nil
	}
	coll, err := m.bucket(stage, bucket)
	if err != nil {
		return 0, err
	}
	var matched int64
	for key, rec := range coll {
		if filter.Matches(rec) {
			patch.Apply(&rec)
			rec.UpdatedAt = m.now()
			coll[key] = rec
			matched++
		}
	}
	return matched, nil
}

func (m *MockStore) Find(ctx context.Context, stage shared.Stage, bucket shared.Bucket, filter store.Filter) ([]store.StageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	coll, err := m.bucket(stage, bucket)
	if err != nil {
		return nil, err
	}
	records := []store.StageRecord{}
	for _, rec := range coll {
		if filter.Matches(rec) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}

// endregion

// region mentions and general roster

func (m *MockStore) InsertMentionSubmissions(ctx context.Context, subs []shared.MentionSubmission) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MentionsError != nil {
		return 0, m.MentionsError
	}
	inserted := 0
	for _, sub := range subs {
		if slices.ContainsFunc(m.mentions, func(s shared.MentionSubmission) bool { return s.Username == sub.Username }) {
			continue
		}
		m.mentions = append(m.mentions, sub)
		inserted++
	}
	return inserted, nil
}

func (m *MockStore) MentionSubmissions(ctx context.Context) ([]shared.MentionSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MentionsError != nil {
		return nil, m.MentionsError
	}
	return append([]shared.MentionSubmission{}, m.mentions...), nil
}

func (m *MockStore) DeleteMentionSubmissions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MentionsError != nil {
		return 0, m.MentionsError
	}
	deleted := int64(len(m.mentions))
	m.mentions = nil
	return deleted, nil
}

func (m *MockStore) ReplaceMentionCounts(ctx context.Context, counts []shared.MentionCount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MentionsError != nil {
		return m.MentionsError
	}
	m.counts = append([]shared.MentionCount{}, counts...)
	return nil
}

func (m *MockStore) MentionCounts(ctx context.Context, counter *int) ([]shared.MentionCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MentionsError != nil {
		return nil, m.MentionsError
	}
	counts := []shared.MentionCount{}
	for _, c := range m.counts {
		if counter == nil || c.Counter == *counter {
			counts = append(counts, c)
		}
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Counter != counts[j].Counter {
			return counts[i].Counter > counts[j].Counter
		}
		return counts[i].Username < counts[j].Username
	})
	return counts, nil
}

func (m *MockStore) InsertGeneralUsers(ctx context.Context, users []shared.GeneralUser) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GeneralError != nil {
		return 0, m.GeneralError
	}
	inserted := 0
	for _, u := range users {
		if slices.Contains(m.general, u) {
			continue
		}
		m.general = append(m.general, u)
		inserted++
	}
	return inserted, nil
}

func (m *MockStore) GeneralUsers(ctx context.Context) ([]shared.GeneralUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GeneralError != nil {
		return nil, m.GeneralError
	}
	return append([]shared.GeneralUser{}, m.general...), nil
}

func (m *MockStore) DeleteGeneralUsers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GeneralError != nil {
		return 0, m.GeneralError
	}
	deleted := int64(len(m.general))
	m.general = nil
	return deleted, nil
}

// endregion

func (m *MockStore) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *MockStore) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Disconnected = true
	return nil
}
