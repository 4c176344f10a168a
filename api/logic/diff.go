/* diff.go
 * Compares the general roster with the roster of the next stage
 */

package logic

import (
	"strings"

	"bootcamp-grader/api/shared"
)

// DiffHeader is the header row of the diff CSV
var DiffHeader = []string{"username", "email"}

// DiffRows returns every general row whose username is missing from nextStage, and the nextStage row
// wherever the username matches but the email differs. Output follows the order of general.
func DiffRows(general, nextStage []shared.DiffRow) []shared.DiffRow {
	byUsername := make(map[string]shared.DiffRow, len(nextStage))
	for _, n := range nextStage {
		// first occurrence wins
		if _, ok := byUsername[n.Username]; !ok {
			byUsername[n.Username] = n
		}
	}

	diffed := []shared.DiffRow{}
	for _, g := range general {
		found, ok := byUsername[g.Username]
		switch {
		case !ok:
			diffed = append(diffed, g)
		case found.Email != g.Email:
			diffed = append(diffed, found)
		}
	}
	return diffed
}

// Diff renders DiffRows as "username,email" CSV, or the empty string when the rosters agree
func Diff(general, nextStage []shared.DiffRow) (string, error) {
	diffed := DiffRows(general, nextStage)
	rows := make([][]string, len(diffed))
	for i, d := range diffed {
		rows[i] = []string{strings.TrimSpace(d.Username), strings.TrimSpace(d.Email)}
	}
	return renderCSV(DiffHeader, rows)
}
