/* utils.go
 * Utility functions used by main.go
 */

package main

import (
	"fmt"
	"io"
	"strings"

	"bootcamp-grader/api/api"
	"bootcamp-grader/api/grading"
	"bootcamp-grader/api/shared"
	"bootcamp-grader/config"
)

// Mode selects which surfaces the process runs
type Mode string

const (
	ModeAll   Mode = "all"
	ModeBot   Mode = "bot"
	ModeWeb   Mode = "web"
	ModeGrade Mode = "grade"
)

// parseMode converts the -mode flag into a Mode
// Preconditions: Receives the flag value (case insensitive)
// Postconditions: Returns the Mode or an error if the value is not a known mode
func parseMode(str string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(str)))
	switch mode {
	case ModeAll, ModeBot, ModeWeb, ModeGrade:
		return mode, nil
	}
	return "", fmt.Errorf("invalid mode %q: expected all, bot, web or grade", str)
}

func (m Mode) runsWeb() bool { return m == ModeAll || m == ModeWeb }

func (m Mode) runsBot() bool { return m == ModeAll || m == ModeBot }

// stageConfigs pairs each stage with its rubric. Stage 2 compares listings against the reference catalog.
func stageConfigs(cfg *config.Config, reference grading.Reference) map[shared.Stage]api.StageConfig {
	return map[shared.Stage]api.StageConfig{
		shared.Stage1: {Rubric: grading.ProfileRubric(cfg.Stage1.PassMark), Concurrency: cfg.Stage1.Concurrency},
		shared.Stage2: {Rubric: grading.ListingRubric(cfg.Stage2.PassMark, reference), Concurrency: cfg.Stage2.Concurrency},
	}
}

// writeReport prints a grading run in the layout the operators paste into their sheets
func writeReport(w io.Writer, gr *api.GradeRun) error {
	var res strings.Builder
	res.WriteString(fmt.Sprintf("run %s (%s): %d passed, %d failed, %d pending, %d errors\n",
		gr.RunID, gr.Stage, gr.Passed, gr.Failed, gr.Pending, gr.Rejected))
	res.WriteString("\nPassed:\n")
	writeSection(&res, gr.Report.Passed)
	res.WriteString("\nFailed:\n")
	writeSection(&res, gr.Report.Failed)
	res.WriteString("\nPending:\n")
	writeSection(&res, gr.Report.Pending)
	for _, reason := range gr.Errors() {
		res.WriteString("error: " + reason + "\n")
	}
	_, err := io.WriteString(w, res.String())
	return err
}

func writeSection(res *strings.Builder, section string) {
	if section == "" {
		res.WriteString("(none)\n")
		return
	}
	res.WriteString(strings.TrimSuffix(section, "\n") + "\n")
}
