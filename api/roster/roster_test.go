/* roster_test.go
 * Contains unit tests for roster.go
 */

package roster

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bootcamp-grader/api/shared"
)

func TestParseCSV_Submissions(t *testing.T) {
	data := "\ufeffEmail,Username,Hosted Link,Track\n" +
		"a@x.com,alice,alice.dev,frontend\n" +
		"\n" +
		"b@x.com, bob ,\"https://bob.dev/?a=1,2\",backend\n" +
		"c@x.com,carol\n"

	table, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)

	subs, err := table.Submissions()
	require.NoError(t, err)
	assert.Equal(t, []shared.Submission{
		{Username: "alice", HostedLink: "alice.dev", Email: "a@x.com"},
		{Username: "bob", HostedLink: "https://bob.dev/?a=1,2", Email: "b@x.com"},
		{Username: "carol", HostedLink: "", Email: "c@x.com"},
	}, subs)
	assert.False(t, subs[2].Valid())
}

func TestParseCSV_HeaderAliases(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("slack_name,hosted_link,email_address\nalice,alice.dev,a@x.com\n"))
	require.NoError(t, err)

	subs, err := table.Submissions()
	require.NoError(t, err)
	assert.Equal(t, []shared.Submission{{Username: "alice", HostedLink: "alice.dev", Email: "a@x.com"}}, subs)
}

func TestParseCSV_MissingColumn(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("username,email\nalice,a@x.com\n"))
	require.NoError(t, err)

	_, err = table.Submissions()
	assert.ErrorIs(t, err, shared.ErrInvalidRoster)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "hostedLink")

	rows, err := table.DiffRows()
	require.NoError(t, err)
	assert.Equal(t, []shared.DiffRow{{Username: "alice", Email: "a@x.com"}}, rows)
}

func TestParseCSV_Errors(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, shared.ErrInvalidRoster)

	_, err = ParseCSV(strings.NewReader("username,email\n\"alice,a@x.com\n"))
	assert.ErrorIs(t, err, shared.ErrInvalidRoster)
}

func TestMentionSubmissions(t *testing.T) {
	data := "Timestamp,Your Slack Name,First Saving Grace Slack Name,Second Saving Grace Slack Name,Third Saving Grace Slack Name\n" +
		"1,alice,bob,carol,\n" +
		"2,,bob,bob,bob\n" +
		"3,dave,carol,erin,bob\n"

	table, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)

	subs, err := table.MentionSubmissions()
	require.NoError(t, err)
	assert.Equal(t, []shared.MentionSubmission{
		{Username: "alice", Friends: []string{"bob", "carol"}},
		{Username: "dave", Friends: []string{"carol", "erin", "bob"}},
	}, subs)
}

func TestMentionSubmissions_FriendsList(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("username,friends\nalice,\"bob, carol\"\n"))
	require.NoError(t, err)

	subs, err := table.MentionSubmissions()
	require.NoError(t, err)
	assert.Equal(t, []shared.MentionSubmission{{Username: "alice", Friends: []string{"bob", "carol"}}}, subs)

	table, err = ParseCSV(strings.NewReader("username,email\nalice,a@x.com\n"))
	require.NoError(t, err)
	_, err = table.MentionSubmissions()
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestGeneralUsers(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("Username\nalice\n \nbob\n"))
	require.NoError(t, err)

	users, err := table.GeneralUsers()
	require.NoError(t, err)
	assert.Equal(t, []shared.GeneralUser{{Username: "alice"}, {Username: "bob"}}, users)
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"username", "hostedLink", "email"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"alice", "alice.dev", "a@x.com"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"bob", "bob.dev", "b@x.com"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	table, err := Load("Roster.XLSX", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	subs, err := table.Submissions()
	require.NoError(t, err)
	assert.Equal(t, []shared.Submission{
		{Username: "alice", HostedLink: "alice.dev", Email: "a@x.com"},
		{Username: "bob", HostedLink: "bob.dev", Email: "b@x.com"},
	}, subs)
}

func TestLoad_DefaultsToCSV(t *testing.T) {
	table, err := Load("roster.txt", strings.NewReader("username\nalice\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"username"}, table.Header)

	_, err = ParseXLSX(strings.NewReader("not a workbook"))
	assert.ErrorIs(t, err, shared.ErrInvalidRoster)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "hostedlink", normalizeHeader(" Hosted_Link "))
	assert.Equal(t, "emailaddress", normalizeHeader("E-mail Address"))
}
