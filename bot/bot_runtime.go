//go:build !test

/* bot_runtime.go
 * Contains runtime-only Discord bot methods that use *discordgo.Session directly.
 * Delegates to testable handlers in handlers.go to avoid code duplication.
 */

package bot

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// Run starts the Discord bot and handles messages until ctx is cancelled
func (b *Bot) Run(ctx context.Context) error {
	// create a session
	discord, err := discordgo.New("Bot " + b.BotToken)
	if err != nil {
		return err
	}
	discord.Identify.Intents = discordgo.IntentGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent

	// *discordgo.Session implements DiscordSession
	discord.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.newMessageHandler(ctx, s, m, s.State.User.ID)
	})

	if err := discord.Open(); err != nil {
		return err
	}
	defer discord.Close()

	b.Logger.Info("Discord bot started")
	<-ctx.Done()
	b.Logger.Info("Discord bot stopping")
	return nil
}
