/* mock_session.go
 * Contains mock implementations of DiscordSession and AttachmentFetcher for testing
 */

package bot

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// MockDiscordSession implements DiscordSession for testing purposes
type MockDiscordSession struct {
	// SentMessages stores all messages sent during tests
	SentMessages []MockMessage
	// ErrorToReturn allows tests to simulate errors
	ErrorToReturn error
}

// MockMessage represents a message sent to a channel. Files holds the content of each attached file by name.
type MockMessage struct {
	ChannelID string
	Content   string
	Files     map[string]string
}

// ChannelMessageSend implements DiscordSession.ChannelMessageSend
func (m *MockDiscordSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return m.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: content}, options...)
}

// ChannelMessageSendComplex implements DiscordSession.ChannelMessageSendComplex
func (m *MockDiscordSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.ErrorToReturn != nil {
		return nil, m.ErrorToReturn
	}

	msg := MockMessage{ChannelID: channelID, Content: data.Content}
	for _, f := range data.Files {
		if msg.Files == nil {
			msg.Files = make(map[string]string)
		}
		content, err := io.ReadAll(f.Reader)
		if err != nil {
			return nil, err
		}
		msg.Files[f.Name] = string(content)
	}
	m.SentMessages = append(m.SentMessages, msg)

	return &discordgo.Message{
		ID:        "mock_message_id",
		ChannelID: channelID,
		Content:   data.Content,
	}, nil
}

// GetLastMessage returns the last message sent, or empty MockMessage if none
func (m *MockDiscordSession) GetLastMessage() MockMessage {
	if len(m.SentMessages) == 0 {
		return MockMessage{}
	}
	return m.SentMessages[len(m.SentMessages)-1]
}

// AllContent joins the content of every sent message
func (m *MockDiscordSession) AllContent() string {
	parts := make([]string, len(m.SentMessages))
	for i, msg := range m.SentMessages {
		parts[i] = msg.Content
	}
	return strings.Join(parts, "\n")
}

// ClearMessages clears all stored messages
func (m *MockDiscordSession) ClearMessages() {
	m.SentMessages = nil
}

// NewMockDiscordSession creates a new MockDiscordSession for testing
func NewMockDiscordSession() *MockDiscordSession {
	return &MockDiscordSession{
		SentMessages: make([]MockMessage, 0),
	}
}

// MockFetcher serves attachment content by url
type MockFetcher map[string]string

func (f MockFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	content, ok := f[url]
	if !ok {
		return nil, fmt.Errorf("failed to download attachment: status 404")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}
