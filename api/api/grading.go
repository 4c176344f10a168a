/* grading.go
 * Runs grading batches for a stage and turns each grading outcome into stage record writes. The engine only
 * classifies; this file owns the bucket transitions and keeps a key in at most one bucket per stage.
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bootcamp-grader/api/batch"
	"bootcamp-grader/api/browser"
	"bootcamp-grader/api/grading"
	"bootcamp-grader/api/logic"
	"bootcamp-grader/api/shared"
	"bootcamp-grader/api/store"
)

// GradeRun is the result of one grading batch
type GradeRun struct {
	RunID       uuid.UUID                           `json:"runId"`
	Stage       shared.Stage                        `json:"stage"`
	Report      logic.Report                        `json:"report"`
	Passed      int                                 `json:"passed"`
	Failed      int                                 `json:"failed"`
	Pending     int                                 `json:"pending"`
	Fulfilled   int                                 `json:"fulfilled"`
	Rejected    int                                 `json:"rejected"`
	StartedAt   time.Time                           `json:"startedAt"`
	Duration    time.Duration                       `json:"duration"`
	Settlements []batch.Settlement[grading.Outcome] `json:"-"`
}

// Errors returns the reason of every rejected settlement
func (r *GradeRun) Errors() []string {
	var reasons []string
	for _, s := range r.Settlements {
		if !s.Fulfilled() && s.Reason != nil {
			reasons = append(reasons, s.Reason.Error())
		}
	}
	return reasons
}

// GradeStage grades a roster for a stage and records every outcome.
// Preconditions: Receives a context, a configured stage and the roster
// Postconditions: Returns the run with its report, or an error if the stage is unknown, busy or the browser could not
// start. Per submission failures never fail the run; they show up as pending entries and rejected settlements.
func (a *API) GradeStage(ctx context.Context, stage shared.Stage, subs []shared.Submission) (*GradeRun, error) {
	return a.run(ctx, stage, subs)
}

// RunPending grades every pending record of a stage
func (a *API) RunPending(ctx context.Context, stage shared.Stage) (*GradeRun, error) {
	if _, err := a.stage(stage); err != nil {
		return nil, err
	}
	records, err := a.Store.Find(ctx, stage, shared.BucketPending, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load pending records: %w", err)
	}
	return a.run(ctx, stage, submissions(records))
}

// RegradePassed grades every passed record of a stage again. Records already at full marks are skipped, records that no
// longer meet the pass mark move to failed, and records that could not be graded stay passed.
func (a *API) RegradePassed(ctx context.Context, stage shared.Stage) (*GradeRun, error) {
	if _, err := a.stage(stage); err != nil {
		return nil, err
	}
	records, err := a.Store.Find(ctx, stage, shared.BucketPassed, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load passed records: %w", err)
	}
	return a.run(ctx, stage, submissions(records))
}

func submissions(records []store.StageRecord) []shared.Submission {
	subs := make([]shared.Submission, len(records))
	for i, r := range records {
		subs[i] = r.Submission()
	}
	return subs
}

func (a *API) run(ctx context.Context, stage shared.Stage, subs []shared.Submission) (*GradeRun, error) {
	cfg, err := a.stage(stage)
	if err != nil {
		return nil, err
	}

	release, err := a.Locker.Acquire(ctx, string(stage))
	if err != nil {
		return nil, err
	}

	gr := &GradeRun{RunID: uuid.New(), Stage: stage, StartedAt: a.Now()}
	log := a.Logger.With(zap.String("stage", string(stage)), zap.String("run_id", gr.RunID.String()))
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to release stage lock", zap.Error(err))
		}
	}()

	b, err := a.Launcher.Launch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	b = a.Metrics.InstrumentBrowser(b)
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("failed to close browser", zap.Error(err))
		}
	}()

	first := a.hasMaxScore(stage, cfg.Rubric.MaxScore())

	log.Info("grading batch started", zap.Int("submissions", len(subs)), zap.Int("concurrency", cfg.Concurrency))
	report := logic.NewReportBuilder()
	gr.Settlements = batch.Run(ctx, subs, cfg.Concurrency, func(ctx context.Context, sub shared.Submission) (grading.Outcome, error) {
		outcome, err := a.gradeOne(ctx, b, stage, cfg.Rubric, sub, first, report)
		a.Metrics.ObserveOutcome(string(stage), outcome.Kind.String())
		if err != nil {
			log.Warn("submission not graded",
				zap.String("username", outcome.Result.Username),
				zap.String("email", outcome.Result.Email),
				zap.Error(err))
		}
		return outcome, err
	})

	gr.Duration = a.Now().Sub(gr.StartedAt)
	gr.Fulfilled, gr.Rejected = batch.Counts(gr.Settlements)
	a.Metrics.ObserveBatch(string(stage), gr.Duration, gr.Fulfilled, gr.Rejected)

	if gr.Report, err = report.Report(); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	gr.Passed, gr.Failed, gr.Pending = report.Counts()
	log.Info("grading batch finished",
		zap.Int("passed", gr.Passed),
		zap.Int("failed", gr.Failed),
		zap.Int("pending", gr.Pending),
		zap.Int("rejected", gr.Rejected),
		zap.Duration("duration", gr.Duration))
	return gr, nil
}

// hasMaxScore is the first check: a submission already passed at full marks is not graded again
func (a *API) hasMaxScore(stage shared.Stage, maxScore int) grading.FirstCheck {
	return func(ctx context.Context, sub shared.Submission) (bool, error) {
		rec, err := a.Store.FindByKey(ctx, stage, shared.BucketPassed, sub.Email)
		if err != nil {
			return false, err
		}
		return rec != nil && rec.Grade >= maxScore, nil
	}
}

// gradeOne grades a submission and records the outcome. A write that fails for a graded submission demotes it to
// pending, the same as a grading failure.
func (a *API) gradeOne(ctx context.Context, b browser.Browser, stage shared.Stage, r grading.Rubric, sub shared.Submission,
	first grading.FirstCheck, report *logic.ReportBuilder) (grading.Outcome, error) {
	outcome, err := a.Engine.Grade(ctx, b, r, sub, first)
	if err == nil {
		recordErr := a.record(ctx, stage, outcome, report)
		if recordErr == nil {
			return outcome, nil
		}
		if outcome.Kind != grading.Passed && outcome.Kind != grading.Failed {
			return outcome, recordErr
		}
		err = &grading.GradeError{Username: outcome.Result.Username, Err: recordErr}
		outcome.Kind = grading.Pending
		outcome.Result.Grade = 0
	}

	if outcome.Kind == grading.Pending {
		if recordErr := a.record(ctx, stage, outcome, report); recordErr != nil {
			err = errors.Join(err, recordErr)
		}
	}
	return outcome, err
}

// record applies an outcome to the stage buckets and adds it to the report
func (a *API) record(ctx context.Context, stage shared.Stage, o grading.Outcome, report *logic.ReportBuilder) error {
	switch o.Kind {
	case grading.Passed:
		if err := a.move(ctx, stage, shared.BucketPassed, store.RecordFromResult(o.Result)); err != nil {
			return err
		}
		report.AddPassed(o.Result)
	case grading.Failed:
		if err := a.move(ctx, stage, shared.BucketFailed, store.RecordFromResult(o.Result)); err != nil {
			return err
		}
		report.AddFailed(o.Result)
	case grading.Pending:
		return a.recordPending(ctx, stage, o.Submission(), report)
	case grading.Skipped:
		if _, err := a.Store.Delete(ctx, stage, shared.BucketPending, o.Result.Email); err != nil {
			return fmt.Errorf("failed to clear pending record: %w", err)
		}
	}
	return nil
}

// recordPending stores a submission that could not be graded. A passed record under the same key is left as it is,
// promotion included, until a completed grade replaces it.
func (a *API) recordPending(ctx context.Context, stage shared.Stage, sub shared.Submission, report *logic.ReportBuilder) error {
	passed, lookupErr := a.Store.FindByKey(ctx, stage, shared.BucketPassed, sub.Email)
	if lookupErr == nil && passed != nil {
		return nil
	}
	if lookupErr != nil {
		lookupErr = fmt.Errorf("failed to check passed record: %w", lookupErr)
	}

	report.AddPending(sub)
	if err := a.move(ctx, stage, shared.BucketPending, store.RecordFromSubmission(sub)); err != nil {
		return errors.Join(lookupErr, err)
	}
	return lookupErr
}

// move removes the record's key from every other bucket of the stage, then upserts it into target
func (a *API) move(ctx context.Context, stage shared.Stage, target shared.Bucket, rec store.StageRecord) error {
	for _, bucket := range shared.Buckets {
		if bucket == target {
			continue
		}
		if _, err := a.Store.Delete(ctx, stage, bucket, rec.Email); err != nil {
			return fmt.Errorf("failed to clear %s record: %w", bucket, err)
		}
	}
	if err := a.Store.Upsert(ctx, stage, target, rec); err != nil {
		return fmt.Errorf("failed to store %s record: %w", target, err)
	}
	return nil
}
