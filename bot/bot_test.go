/* bot_test.go
 * Contains unit tests for the helpers in bot.go
 */

package bot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootcamp-grader/api/shared"
)

// region parseArgs tests

func TestParseArgs_Plain(t *testing.T) {
	assert.Equal(t, []string{"list", "stage1", "passed"}, parseArgs("list stage1 passed"))
}

func TestParseArgs_QuotedValue(t *testing.T) {
	assert.Equal(t, []string{"find", "stage1", "passed", "Jane Doe"}, parseArgs(`find stage1 passed "Jane Doe"`))
}

func TestParseArgs_CurlyQuotes(t *testing.T) {
	assert.Equal(t, []string{"find", "stage1", "failed", "Jane Doe"}, parseArgs("find stage1 failed “Jane Doe”"))
}

func TestParseArgs_RepeatedSpaces(t *testing.T) {
	assert.Equal(t, []string{"promote", "stage1", "a@x.com"}, parseArgs("  promote   stage1  a@x.com "))
}

func TestParseArgs_Empty(t *testing.T) {
	assert.Empty(t, parseArgs(""))
	assert.Empty(t, parseArgs("   "))
}

// endregion

// region splitMessage tests

func TestSplitMessage_Short(t *testing.T) {
	assert.Equal(t, []string{"hello\nworld"}, splitMessage("hello\nworld", 20))
}

func TestSplitMessage_Empty(t *testing.T) {
	assert.Nil(t, splitMessage("", 20))
}

func TestSplitMessage_BreaksBetweenLines(t *testing.T) {
	chunks := splitMessage("aaaa\nbbbb\ncccc\n", 10)

	assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, chunks)
}

func TestSplitMessage_LongLine(t *testing.T) {
	chunks := splitMessage("ab\n"+strings.Repeat("x", 25), 10)

	assert.Equal(t, []string{"ab\n", "xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
}

func TestSplitMessage_KeepsEveryByte(t *testing.T) {
	var content strings.Builder
	for i := 0; i < 300; i++ {
		content.WriteString("someone, someone@example.com, 10\n")
	}

	chunks := splitMessage(content.String(), MaxMessageLength)

	assert.Greater(t, len(chunks), 1)
	assert.Equal(t, content.String(), strings.Join(chunks, ""))
}

// endregion

// region attachments tests

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/roster.csv" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("username,email\nalice,a@x.com\n"))
	}))
	defer server.Close()

	f := HTTPFetcher{Client: server.Client()}

	body, err := f.Fetch(context.Background(), server.URL+"/roster.csv")
	require.NoError(t, err)
	content, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	assert.Equal(t, "username,email\nalice,a@x.com\n", string(content))

	_, err = f.Fetch(context.Background(), server.URL+"/missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestReadAttachment_Missing(t *testing.T) {
	b, _, _ := createTestBot(t)

	_, err := b.readAttachment(context.Background(), createMockMessage("$grade stage1"), 0)

	assert.ErrorIs(t, err, shared.ErrMissingAttachment)
}

func TestReadAttachment_XLSXByFilename(t *testing.T) {
	b, _, _ := createTestBot(t)
	b.Fetcher = MockFetcher{"https://cdn/roster.xlsx": "not a spreadsheet"}

	_, err := b.readAttachment(context.Background(), createMockMessage("$grade stage1",
		&discordgo.MessageAttachment{URL: "https://cdn/roster.xlsx", Filename: "roster.xlsx"}), 0)

	assert.Error(t, err)
}

// endregion
