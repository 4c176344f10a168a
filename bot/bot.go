/* bot.go
 * Contains the Bot type and the helpers shared by its commands: argument parsing, attachment download and message
 * splitting. Requires a discord bot token and an API, both of which are passed in from main.go
 */

package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-andiamo/splitter"
	"go.uber.org/zap"

	"bootcamp-grader/api/api"
	"bootcamp-grader/api/roster"
	"bootcamp-grader/api/shared"
)

// MaxMessageLength is the longest message discord accepts
const MaxMessageLength = 2000

type Bot struct {
	BotToken string
	Prefix   string
	APIPtr   *api.API
	Fetcher  AttachmentFetcher
	Logger   *zap.Logger
}

func NewBot(botToken string, prefix string, apiPtr *api.API, log *zap.Logger) (*Bot, error) {
	if botToken == "" {
		return nil, fmt.Errorf("botToken is required but none was provided")
	}
	if apiPtr == nil {
		return nil, fmt.Errorf("api is required but none was provided")
	}
	if prefix == "" {
		prefix = "$"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Bot{
		BotToken: botToken,
		Prefix:   prefix,
		APIPtr:   apiPtr,
		Fetcher:  HTTPFetcher{Client: &http.Client{Timeout: 30 * time.Second}},
		Logger:   log,
	}, nil
}

// AttachmentFetcher downloads a message attachment
type AttachmentFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPFetcher downloads attachments from the discord CDN
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download attachment: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download attachment: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// readAttachment loads the i-th attachment of a message as a roster table
func (b *Bot) readAttachment(ctx context.Context, message *discordgo.MessageCreate, i int) (roster.Table, error) {
	if i >= len(message.Attachments) {
		return roster.Table{}, shared.ErrMissingAttachment
	}
	att := message.Attachments[i]
	body, err := b.Fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return roster.Table{}, err
	}
	defer body.Close()
	return roster.Load(att.Filename, body)
}

// parseArgs splits a message on spaces. Values holding spaces need to be encased in " (e.g. "Jane Doe")
func parseArgs(content string) []string {
	spaceSplitter, _ := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	parts, err := spaceSplitter.Split(strings.TrimSpace(content))
	if err != nil {
		// unbalanced quotes
		parts = strings.Fields(content)
	}

	args := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.NewReplacer("\"", "", "“", "", "”", "").Replace(p)
		if p = strings.TrimSpace(p); p != "" {
			args = append(args, p)
		}
	}
	return args
}

// splitMessage breaks content into chunks no longer than limit, preferring to break between lines
func splitMessage(content string, limit int) []string {
	if content == "" {
		return nil
	}
	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, line := range strings.SplitAfter(content, "\n") {
		for len(line) > limit {
			flush()
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if current.Len()+len(line) > limit {
			flush()
		}
		current.WriteString(line)
	}
	flush()
	return chunks
}
