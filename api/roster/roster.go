/* roster.go
 * Reads uploaded rosters (CSV or XLSX) into tables and maps their columns onto the records the api works with.
 * Columns are found by header name, so column order and extra columns do not matter.
 */

package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"bootcamp-grader/api/shared"
)

// Table is a parsed roster: one header row and the rows below it
type Table struct {
	Header []string
	Rows   [][]string
}

// Load parses a roster, choosing the format from the file extension. Anything but .xlsx is read as CSV.
func Load(filename string, r io.Reader) (Table, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ParseXLSX(r)
	}
	return ParseCSV(r)
}

// ParseCSV reads comma separated text with RFC 4180 quoting. Rows may have differing lengths.
func ParseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", shared.ErrInvalidRoster, err)
	}
	return newTable(records)
}

// ParseXLSX reads the first sheet of a workbook
func ParseXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", shared.ErrInvalidRoster, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("%w: workbook has no sheets", shared.ErrInvalidRoster)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", shared.ErrInvalidRoster, err)
	}
	return newTable(records)
}

func newTable(records [][]string) (Table, error) {
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%w: roster is empty", shared.ErrInvalidRoster)
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows [][]string
	for _, row := range records[1:] {
		if !blank(row) {
			rows = append(rows, row)
		}
	}
	return Table{Header: header, Rows: rows}, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeHeader folds a header to lower-case letters and digits, so "Hosted Link" and "hosted_link" agree
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// column returns the index of the first header matching any alias, or -1
func (t Table) column(aliases ...string) int {
	for i, h := range t.Header {
		n := normalizeHeader(h)
		for _, alias := range aliases {
			if n == alias {
				return i
			}
		}
	}
	return -1
}

// columns returns every header index whose normalised name contains any of the fragments
func (t Table) columns(fragments ...string) []int {
	var idx []int
	for i, h := range t.Header {
		n := normalizeHeader(h)
		for _, f := range fragments {
			if strings.Contains(n, f) {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var (
	usernameAliases = []string{"username", "user", "name", "slackname", "slackusername", "yourslackname"}
	linkAliases     = []string{"hostedlink", "link", "url", "hostedurl", "website"}
	emailAliases    = []string{"email", "emailaddress", "mail"}
)

// ErrMissingColumn is wrapped with the name of a required column that the header lacks
var ErrMissingColumn = errors.New("missing column")

func (t Table) require(name string, aliases []string) (int, error) {
	i := t.column(aliases...)
	if i < 0 {
		return -1, fmt.Errorf("%w: %w %q", shared.ErrInvalidRoster, ErrMissingColumn, name)
	}
	return i, nil
}

// Submissions maps the table onto grading submissions. Rows with empty fields are kept;
// grading skips them.
func (t Table) Submissions() ([]shared.Submission, error) {
	ui, err := t.require("username", usernameAliases)
	if err != nil {
		return nil, err
	}
	li, err := t.require("hostedLink", linkAliases)
	if err != nil {
		return nil, err
	}
	ei, err := t.require("email", emailAliases)
	if err != nil {
		return nil, err
	}

	subs := make([]shared.Submission, 0, len(t.Rows))
	for _, row := range t.Rows {
		subs = append(subs, shared.Submission{Username: cell(row, ui), HostedLink: cell(row, li), Email: cell(row, ei)})
	}
	return subs, nil
}

// DiffRows maps the table onto username / email pairs
func (t Table) DiffRows() ([]shared.DiffRow, error) {
	ui, err := t.require("username", usernameAliases)
	if err != nil {
		return nil, err
	}
	ei, err := t.require("email", emailAliases)
	if err != nil {
		return nil, err
	}

	rows := make([]shared.DiffRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		rows = append(rows, shared.DiffRow{Username: cell(row, ui), Email: cell(row, ei)})
	}
	return rows, nil
}

// MentionSubmissions maps the table onto mention submissions. Friends come from every column whose header
// mentions a friend or saving grace; a single friends column may hold a comma separated list.
// Rows without a username are dropped.
func (t Table) MentionSubmissions() ([]shared.MentionSubmission, error) {
	ui, err := t.require("username", usernameAliases)
	if err != nil {
		return nil, err
	}
	friendCols := t.columns("friend", "savinggrace")
	if len(friendCols) == 0 {
		return nil, fmt.Errorf("%w: %w %q", shared.ErrInvalidRoster, ErrMissingColumn, "friends")
	}

	subs := []shared.MentionSubmission{}
	for _, row := range t.Rows {
		username := cell(row, ui)
		if username == "" {
			continue
		}
		friends := []string{}
		for _, c := range friendCols {
			for _, f := range strings.Split(cell(row, c), ",") {
				if f = strings.TrimSpace(f); f != "" {
					friends = append(friends, f)
				}
			}
		}
		subs = append(subs, shared.MentionSubmission{Username: username, Friends: friends})
	}
	return subs, nil
}

// GeneralUsers maps the table onto general roster users, dropping rows without a username
func (t Table) GeneralUsers() ([]shared.GeneralUser, error) {
	ui, err := t.require("username", usernameAliases)
	if err != nil {
		return nil, err
	}

	users := []shared.GeneralUser{}
	for _, row := range t.Rows {
		if username := cell(row, ui); username != "" {
			users = append(users, shared.GeneralUser{Username: username})
		}
	}
	return users, nil
}
