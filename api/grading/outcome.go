/* outcome.go
 * The tagged result of grading a single submission, and the error reported when grading could not finish
 */

package grading

import (
	"fmt"

	"bootcamp-grader/api/shared"
)

// Kind tags an Outcome
type Kind int

const (
	// Invalid submissions are missing a field and produce no result anywhere
	Invalid Kind = iota
	// Skipped submissions were short-circuited by the first check
	Skipped
	Passed
	Failed
	// Pending submissions could not be graded and are eligible for retry
	Pending
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case Skipped:
		return "skipped"
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	case Pending:
		return "pending"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome is what grading one submission produced. Result.Link is always the sanitised link;
// Result.Grade is only meaningful for Passed and Failed.
type Outcome struct {
	Kind   Kind
	Result shared.GradeResult
}

// Submission returns the outcome as a submission record, with the sanitised link
func (o Outcome) Submission() shared.Submission {
	return shared.Submission{Username: o.Result.Username, HostedLink: o.Result.Link, Email: o.Result.Email}
}

// GradeError identifies the submission whose grading failed
type GradeError struct {
	Username string
	Err      error
}

func (e *GradeError) Error() string {
	return fmt.Sprintf("failed to grade - %s: %v", e.Username, e.Err)
}

func (e *GradeError) Unwrap() error {
	return e.Err
}
