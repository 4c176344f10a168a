/* report.go
 * Accumulates per-submission grading results into the three-list report returned to callers. Results arrive
 * from concurrent grading tasks in completion order.
 */

package logic

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"bootcamp-grader/api/shared"
)

// PendingHeader is the header row of the pending CSV
var PendingHeader = []string{"username", "link", "email"}

// Report is the aggregated outcome of a grading run.
// Passed lines are "username, email, grade", failed lines are "username,link,email,grade",
// and Pending is CSV text with a header row. Each field is the empty string when it has no entries.
type Report struct {
	Passed  string `json:"passed"`
	Failed  string `json:"failed"`
	Pending string `json:"pending"`
}

// Empty reports whether nothing was classified
func (r Report) Empty() bool {
	return r.Passed == "" && r.Failed == "" && r.Pending == ""
}

// ReportBuilder collects results. It is safe for concurrent use.
type ReportBuilder struct {
	mu      sync.Mutex
	passed  []string
	failed  []string
	pending [][]string
}

func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{}
}

func (b *ReportBuilder) AddPassed(r shared.GradeResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.passed = append(b.passed, fmt.Sprintf("%s, %s, %d", r.Username, r.Email, r.Grade))
}

func (b *ReportBuilder) AddFailed(r shared.GradeResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = append(b.failed, strings.Join([]string{r.Username, r.Link, r.Email, strconv.Itoa(r.Grade)}, ","))
}

func (b *ReportBuilder) AddPending(s shared.Submission) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, []string{s.Username, s.HostedLink, s.Email})
}

// Counts returns how many results of each kind were added
func (b *ReportBuilder) Counts() (passed, failed, pending int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.passed), len(b.failed), len(b.pending)
}

// Report renders the collected results
func (b *ReportBuilder) Report() (Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending, err := renderCSV(PendingHeader, b.pending)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Passed:  strings.Join(b.passed, "\n"),
		Failed:  strings.Join(b.failed, "\n"),
		Pending: pending,
	}, nil
}
