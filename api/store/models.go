/* models.go
 * This file contain the structs and helper functions that relate to DB objects
 */

package store

import (
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"bootcamp-grader/api/shared"
)

// StageRecord is a document in one of a stage's bucket collections. Grade is unset for pending records;
// Promoted is only ever set on passed records.
type StageRecord struct {
	Username   string    `bson:"username" json:"username"`
	Email      string    `bson:"email" json:"email"`
	HostedLink string    `bson:"hostedLink" json:"hostedLink"`
	Grade      int       `bson:"grade,omitempty" json:"grade"`
	Promoted   bool      `bson:"promoted,omitempty" json:"promoted"`
	CreatedAt  time.Time `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt,omitempty" json:"updatedAt"`
}

// RecordFromResult builds the record written for a graded submission
func RecordFromResult(r shared.GradeResult) StageRecord {
	return StageRecord{Username: r.Username, Email: r.Email, HostedLink: r.Link, Grade: r.Grade}
}

// RecordFromSubmission builds the pending record for a submission
func RecordFromSubmission(s shared.Submission) StageRecord {
	return StageRecord{Username: s.Username, Email: s.Key(), HostedLink: s.HostedLink}
}

// Submission returns the record as a grading input
func (r StageRecord) Submission() shared.Submission {
	return shared.Submission{Username: r.Username, HostedLink: r.HostedLink, Email: r.Email}
}

// Filter selects records in a bucket. Zero fields match everything.
type Filter struct {
	Emails   []string
	Promoted *bool
	Grade    *int
}

// ByEmail is a filter matching a single key
func ByEmail(email string) Filter {
	return Filter{Emails: []string{shared.NormalizeEmail(email)}}
}

// Bool and Int return pointers for filter fields
func Bool(b bool) *bool { return &b }
func Int(i int) *int    { return &i }

func (f Filter) toBSON() bson.M {
	filter := bson.M{}
	if f.Emails != nil {
		emails := make([]string, len(f.Emails))
		for i, e := range f.Emails {
			emails[i] = shared.NormalizeEmail(e)
		}
		filter["email"] = bson.M{"$in": emails}
	}
	if f.Promoted != nil {
		if *f.Promoted {
			filter["promoted"] = true
		} else {
			// records written before promotion existed carry no promoted field
			filter["promoted"] = bson.M{"$ne": true}
		}
	}
	if f.Grade != nil {
		filter["grade"] = *f.Grade
	}
	return filter
}

// Matches applies the filter to a record in memory
func (f Filter) Matches(r StageRecord) bool {
	if f.Emails != nil && !slices.ContainsFunc(f.Emails, func(e string) bool {
		return shared.NormalizeEmail(e) == shared.NormalizeEmail(r.Email)
	}) {
		return false
	}
	if f.Promoted != nil && *f.Promoted != r.Promoted {
		return false
	}
	if f.Grade != nil && *f.Grade != r.Grade {
		return false
	}
	return true
}

// Patch is a bulk update. Promotion is the only patch and it is one way.
type Patch struct {
	Promote bool
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return !p.Promote
}

// Apply applies the patch to a record in memory
func (p Patch) Apply(r *StageRecord) {
	if p.Promote {
		r.Promoted = true
	}
}
