/* engine.go
 * Grades one submission against a rubric: validates it, runs the caller's first check, sanitises the
 * link, opens a page in the shared browser, scores each view and classifies the result. The engine holds
 * no persistence logic; callers act on the returned Outcome.
 */

package grading

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"bootcamp-grader/api/browser"
	"bootcamp-grader/api/external"
	"bootcamp-grader/api/shared"
)

// FirstCheck decides whether a submission can skip grading, e.g. because it already holds the max score
type FirstCheck func(ctx context.Context, sub shared.Submission) (bool, error)

// Engine grades submissions. It is safe for concurrent use.
type Engine struct {
	Now func() time.Time
	log *zap.Logger
}

// NewEngine creates an engine using the wall clock
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{Now: time.Now, log: log}
}

// Grade walks one submission through the grading state machine.
// Preconditions: Receives a live browser shared by the batch, the stage rubric and an optional first check
// Postconditions: Returns Invalid or Skipped with a nil error when nothing was graded, Passed or Failed with the
// grade, or Pending together with a *GradeError when the first check, navigation or scoring failed
func (e *Engine) Grade(ctx context.Context, b browser.Browser, r Rubric, sub shared.Submission, first FirstCheck) (Outcome, error) {
	if !sub.Valid() {
		return Outcome{Kind: Invalid}, nil
	}

	sub = shared.Submission{
		Username:   strings.TrimSpace(sub.Username),
		HostedLink: SanitizeLink(sub.HostedLink),
		Email:      shared.NormalizeEmail(sub.Email),
	}
	result := shared.GradeResult{Username: sub.Username, Link: sub.HostedLink, Email: sub.Email}

	pending := func(err error) (Outcome, error) {
		e.log.Warn("grading failed", zap.String("username", sub.Username), zap.String("link", sub.HostedLink), zap.Error(err))
		return Outcome{Kind: Pending, Result: result}, &GradeError{Username: sub.Username, Err: err}
	}

	if first != nil {
		skip, err := first(ctx, sub)
		if err != nil {
			return pending(fmt.Errorf("first check: %w", err))
		}
		if skip {
			return Outcome{Kind: Skipped, Result: result}, nil
		}
	}

	grade, err := e.score(ctx, b, r, sub)
	if err != nil {
		return pending(err)
	}

	result.Grade = grade
	kind := Failed
	if grade >= r.PassMark {
		kind = Passed
	}
	e.log.Debug("graded", zap.String("rubric", r.Name), zap.String("username", sub.Username), zap.Int("grade", grade), zap.Stringer("outcome", kind))
	return Outcome{Kind: kind, Result: result}, nil
}

func (e *Engine) score(ctx context.Context, b browser.Browser, r Rubric, sub shared.Submission) (int, error) {
	target, err := parseLink(sub.HostedLink)
	if err != nil {
		return 0, err
	}

	var reference external.Movie
	if r.Reference != nil {
		if reference, err = r.Reference.Get(ctx); err != nil {
			return 0, fmt.Errorf("reference data: %w", err)
		}
	}

	page, err := b.NewPage(ctx)
	if err != nil {
		return 0, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.Goto(ctx, target.String()); err != nil {
		return 0, err
	}

	in := Inputs{Submission: sub, Reference: reference}
	total, err := e.visit(ctx, page, r.Landing, &in)
	if err != nil {
		return 0, err
	}

	if nav := r.Navigation; nav != nil {
		if path := nav.Path(in); path != "" {
			if err := navigate(ctx, page, target, path); err != nil {
				return 0, fmt.Errorf("%s: %w", nav.Name, err)
			}
			total += nav.Points

			detail, err := e.visit(ctx, page, nav.View, &in)
			if err != nil {
				return 0, err
			}
			total += detail
		}
	}

	return clamp(total, 0, r.MaxScore()), nil
}

// visit reads a view's fields from the current page and scores its checks
func (e *Engine) visit(ctx context.Context, page browser.Page, v View, in *Inputs) (int, error) {
	snap, err := browser.Inspect(ctx, page, v.Texts, v.Counts)
	if err != nil {
		return 0, err
	}
	in.Page = snap
	in.Now = e.Now()
	return v.score(*in), nil
}

// navigate follows an on-page link to path when one exists, otherwise goes to path on the submitted site
func navigate(ctx context.Context, page browser.Page, base *url.URL, path string) error {
	followed, err := page.FollowLink(ctx, path)
	if err != nil || followed {
		return err
	}
	return page.Goto(ctx, base.ResolveReference(&url.URL{Path: path}).String())
}
