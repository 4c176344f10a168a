/* rubric.go
 * A Rubric describes what a stage grades: the views visited, the checks scored on each, an optional
 * navigation between views and the pass mark. Adding a stage is a new Rubric value, not new code.
 */

package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bootcamp-grader/api/browser"
	"bootcamp-grader/api/external"
	"bootcamp-grader/api/shared"
)

// Reference supplies the reference data a rubric's checks compare against
type Reference interface {
	Get(ctx context.Context) (external.Movie, error)
}

// Inputs is everything a check can see. Checks must be pure functions of it.
type Inputs struct {
	Submission shared.Submission
	Page       browser.Snapshot
	Reference  external.Movie
	Now        time.Time
}

// Check scores one property of a view. Score results are clamped to [0, Points].
type Check struct {
	Name   string
	Points int
	Score  func(in Inputs) int
}

// View is one page visited during grading: the fields to read and the checks to score on them
type View struct {
	Texts  []browser.Field
	Counts []browser.Field
	Checks []Check
}

// Navigation moves from the landing view to a second view. The link on the landing page whose href
// contains Path is followed if present, otherwise Path is resolved against the submitted link.
type Navigation struct {
	Name   string
	Points int
	Path   func(in Inputs) string
	View   View
}

// Rubric is a complete grading scheme for one stage
type Rubric struct {
	Name       string
	PassMark   int
	Reference  Reference
	Landing    View
	Navigation *Navigation
}

// MaxScore is the sum of every check and navigation point in the rubric
func (r Rubric) MaxScore() int {
	total := r.Landing.maxScore()
	if r.Navigation != nil {
		total += r.Navigation.Points + r.Navigation.View.maxScore()
	}
	return total
}

// Validate reports configuration mistakes that would make every submission pass or fail
func (r Rubric) Validate() error {
	var errs []error
	if r.PassMark <= 0 {
		errs = append(errs, fmt.Errorf("pass mark must be positive, got %d", r.PassMark))
	}
	if maxScore := r.MaxScore(); r.PassMark > maxScore {
		errs = append(errs, fmt.Errorf("pass mark %d exceeds max score %d", r.PassMark, maxScore))
	}
	if r.Navigation != nil && r.Navigation.Path == nil {
		errs = append(errs, errors.New("navigation has no path"))
	}
	for _, c := range r.checks() {
		if c.Score == nil {
			errs = append(errs, fmt.Errorf("check %q has no score function", c.Name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("rubric %s: %w", r.Name, errors.Join(errs...))
	}
	return nil
}

func (r Rubric) checks() []Check {
	checks := append([]Check{}, r.Landing.Checks...)
	if r.Navigation != nil {
		checks = append(checks, r.Navigation.View.Checks...)
	}
	return checks
}

func (v View) maxScore() int {
	total := 0
	for _, c := range v.Checks {
		total += c.Points
	}
	return total
}

func (v View) score(in Inputs) int {
	total := 0
	for _, c := range v.Checks {
		total += clamp(c.Score(in), 0, c.Points)
	}
	return total
}

// binary builds a check worth all of its points when pred holds and nothing otherwise
func binary(name string, points int, pred func(in Inputs) bool) Check {
	return Check{
		Name:   name,
		Points: points,
		Score: func(in Inputs) int {
			if pred(in) {
				return points
			}
			return 0
		},
	}
}

// containsFold reports whether substr occurs in s ignoring case and surrounding space.
// An empty substr never matches.
func containsFold(s, substr string) bool {
	substr = strings.ToLower(strings.TrimSpace(substr))
	if substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), substr)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
