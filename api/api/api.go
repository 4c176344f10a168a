/* api.go
 * This file contains the public entry point for the grader's data layer. Operator surfaces (bot, web, cli) should
 * only call the methods on API, never the sub packages directly. Grading runs live in grading.go, the stage record
 * operations in stages.go and the roster tools in tools.go.
 */

package api

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bootcamp-grader/api/browser"
	"bootcamp-grader/api/grading"
	"bootcamp-grader/api/lock"
	"bootcamp-grader/api/metrics"
	"bootcamp-grader/api/shared"
	"bootcamp-grader/api/store"
)

// StageConfig is how one pipeline stage is graded
type StageConfig struct {
	Rubric      grading.Rubric
	Concurrency int
}

// API provides methods for grading rosters and managing stage records
type API struct {
	Store    store.Interface
	Launcher browser.Launcher
	Engine   *grading.Engine
	Stages   map[shared.Stage]StageConfig
	Locker   lock.Locker
	Metrics  *metrics.Recorder
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewAPI creates a new API instance. It uses an in-process lock and no metrics until the caller sets
// Locker and Metrics.
func NewAPI(s store.Interface, launcher browser.Launcher, stages map[shared.Stage]StageConfig, log *zap.Logger) (*API, error) {
	if s == nil || launcher == nil {
		return nil, errors.New("store and browser launcher are required")
	}
	if len(stages) == 0 {
		return nil, errors.New("at least one stage must be configured")
	}
	for stage, cfg := range stages {
		if err := cfg.Rubric.Validate(); err != nil {
			return nil, fmt.Errorf("invalid rubric for %s: %w", stage, err)
		}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &API{
		Store:    s,
		Launcher: launcher,
		Engine:   grading.NewEngine(log.Named("grading")),
		Stages:   stages,
		Locker:   lock.NewLocalLocker(),
		Logger:   log,
		Now:      time.Now,
	}, nil
}

// stage returns the configuration of a known stage
func (a *API) stage(stage shared.Stage) (StageConfig, error) {
	cfg, ok := a.Stages[stage]
	if !ok {
		return StageConfig{}, fmt.Errorf("%w: %s", shared.ErrUnknownStage, stage)
	}
	return cfg, nil
}

// ConfiguredStages lists the stages this API grades
func (a *API) ConfiguredStages() []shared.Stage {
	var stages []shared.Stage
	for _, s := range []shared.Stage{shared.Stage1, shared.Stage2} {
		if _, ok := a.Stages[s]; ok {
			stages = append(stages, s)
		}
	}
	return stages
}
