/* models.go
 * This file contain the structs and helper functions that are shared between sub packages
 */

package shared

import (
	"fmt"
	"strings"
)

// Stage names a pipeline stage. Each stage has its own three buckets and its own rubric.
type Stage string

const (
	Stage1 Stage = "stage1"
	Stage2 Stage = "stage2"
)

// ParseStage converts user input such as "Stage1" or " stage2 " into a Stage
func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(s)))
	switch stage {
	case Stage1, Stage2:
		return stage, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
}

// Bucket is one of the three lifecycle buckets a record can live in for a stage.
type Bucket string

const (
	BucketPending Bucket = "pending"
	BucketPassed  Bucket = "passed"
	BucketFailed  Bucket = "failed"
)

// Buckets lists every bucket in lifecycle order
var Buckets = []Bucket{BucketPending, BucketPassed, BucketFailed}

// ParseBucket converts user input into a Bucket. "users" is accepted as an alias for passed.
func ParseBucket(s string) (Bucket, error) {
	b := strings.ToLower(strings.TrimSpace(s))
	switch b {
	case "pending":
		return BucketPending, nil
	case "passed", "users", "user":
		return BucketPassed, nil
	case "failed":
		return BucketFailed, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

// Submission is one row of a roster: who submitted, where their page is hosted and how to reach them.
type Submission struct {
	Username   string `json:"username"`
	HostedLink string `json:"hostedLink"`
	Email      string `json:"email"`
}

// Valid reports whether all three fields are present
func (s Submission) Valid() bool {
	return strings.TrimSpace(s.Username) != "" &&
		strings.TrimSpace(s.HostedLink) != "" &&
		strings.TrimSpace(s.Email) != ""
}

// Key is the canonical identity of a submission across every bucket and stage
func (s Submission) Key() string {
	return NormalizeEmail(s.Email)
}

// NormalizeEmail trims and lower-cases an email so it can be used as a record key
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GradeResult is the output of grading a single submission. Link is the sanitised link.
type GradeResult struct {
	Username string `json:"username"`
	Link     string `json:"link"`
	Email    string `json:"email"`
	Grade    int    `json:"grade"`
}

// DiffRow is a single username/email pair used when diffing two rosters
type DiffRow struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// MentionSubmission is a participant naming the friends who helped them
type MentionSubmission struct {
	Username string   `json:"username" bson:"username"`
	Friends  []string `json:"friends" bson:"friends"`
}

// MentionCount is how many submissions named a given user
type MentionCount struct {
	Username string `json:"username" bson:"username"`
	Counter  int    `json:"counter" bson:"counter"`
}

// GeneralUser is a row of the general roster used to find users nobody mentioned
type GeneralUser struct {
	Username string `json:"username" bson:"username"`
}
