/* handlers.go
 * Contains the command handlers. Each accepts the DiscordSession interface so it can be driven by a mock session in
 * tests.
 */

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"bootcamp-grader/api/api"
	"bootcamp-grader/api/shared"
	"bootcamp-grader/api/store"
)

// newMessageHandler routes messages to the matching command. botUserID is the bot's user ID to prevent self-responses
func (b *Bot) newMessageHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, botUserID string) {
	if message.Author == nil || message.Author.ID == botUserID {
		return
	}
	if !strings.HasPrefix(message.Content, b.Prefix) {
		return
	}
	args := parseArgs(strings.TrimPrefix(message.Content, b.Prefix))
	if len(args) == 0 {
		return
	}

	command, args := strings.ToLower(args[0]), args[1:]
	switch command {
	case "help":
		b.helpMessageHandler(session, message)
	case "grade":
		b.gradeHandler(ctx, session, message, args)
	case "upload":
		b.uploadHandler(ctx, session, message, args)
	case "runpending":
		b.rerunHandler(ctx, session, message, args, "runpending", b.APIPtr.RunPending)
	case "regrade":
		b.rerunHandler(ctx, session, message, args, "regrade", b.APIPtr.RegradePassed)
	case "list":
		b.listHandler(ctx, session, message, args)
	case "find":
		b.findHandler(ctx, session, message, args)
	case "promote":
		b.promoteHandler(ctx, session, message, args)
	case "delete":
		b.deleteHandler(ctx, session, message, args)
	case "diff":
		b.diffHandler(ctx, session, message)
	case "mentions":
		b.mentionsHandler(ctx, session, message, args)
	case "general":
		b.generalHandler(ctx, session, message, args)
	}
}

// region messaging

// send posts content to a channel, split into as many messages as discord requires
func (b *Bot) send(session DiscordSession, channelID string, content string) {
	for _, chunk := range splitMessage(content, MaxMessageLength) {
		if _, err := session.ChannelMessageSend(channelID, chunk); err != nil {
			b.Logger.Warn("failed to send message", zap.String("channel", channelID), zap.Error(err))
			return
		}
	}
}

// sendFile posts content with body attached as a file
func (b *Bot) sendFile(session DiscordSession, channelID string, content string, name string, body string) {
	_, err := session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files: []*discordgo.File{{
			Name:        name,
			ContentType: "text/csv",
			Reader:      strings.NewReader(body),
		}},
	})
	if err != nil {
		b.Logger.Warn("failed to send file", zap.String("channel", channelID), zap.String("file", name), zap.Error(err))
	}
}

func (b *Bot) sendError(session DiscordSession, message *discordgo.MessageCreate, action string, err error) {
	b.Logger.Warn("command failed",
		zap.String("action", action),
		zap.String("user", message.Author.Username),
		zap.Error(err))
	b.send(session, message.ChannelID, fmt.Sprintf("An error occurred %s: %s", action, err))
}

func (b *Bot) usage(session DiscordSession, message *discordgo.MessageCreate, usage string) {
	b.send(session, message.ChannelID, fmt.Sprintf("Usage: `%s%s`", b.Prefix, usage))
}

// endregion

// helpMessageHandler handles the help command
func (b *Bot) helpMessageHandler(session DiscordSession, message *discordgo.MessageCreate) {
	p := b.Prefix
	var res strings.Builder
	res.WriteString("Bootcamp Grader\n")
	res.WriteString("Stages are `stage1` (profile page) and `stage2` (movie listing). Buckets are `passed`, `failed` and `pending`. Values containing spaces need to be encased in \" (e.g. \"Jane Doe\")\n")
	res.WriteString(fmt.Sprintf("`%sgrade <stage>`: grades the attached roster (csv or xlsx with username, hosted link and email columns)\n", p))
	res.WriteString(fmt.Sprintf("`%supload <stage>`: adds the attached roster to the stage's pending submissions without grading\n", p))
	res.WriteString(fmt.Sprintf("`%srunpending <stage>`: grades every pending submission\n", p))
	res.WriteString(fmt.Sprintf("`%sregrade <stage>`: grades every passed submission again\n", p))
	res.WriteString(fmt.Sprintf("`%slist <stage> <bucket> [promoted|unpromoted]`: lists a bucket\n", p))
	res.WriteString(fmt.Sprintf("`%sfind <stage> <bucket> <username>`: searches a bucket by approximate username\n", p))
	res.WriteString(fmt.Sprintf("`%spromote <stage> [email ...]`: promotes the given passed users to the next stage, or all of them\n", p))
	res.WriteString(fmt.Sprintf("`%sdelete <stage> <bucket> <email|all>`: deletes one record or a whole bucket\n", p))
	res.WriteString(fmt.Sprintf("`%sdiff`: compares the first attached roster (general) with the second (next stage)\n", p))
	res.WriteString(fmt.Sprintf("`%smentions upload|count|list [n]|clear`: manages the friend mention submissions and their counts\n", p))
	res.WriteString(fmt.Sprintf("`%sgeneral upload|unmentioned|clear`: manages the general roster and lists users nobody mentioned\n", p))
	b.send(session, message.ChannelID, res.String())
}

// region grading

func (b *Bot) gradeHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		b.usage(session, message, "grade <stage>")
		return
	}
	stage, err := shared.ParseStage(args[0])
	if err != nil {
		b.sendError(session, message, "grading", err)
		return
	}
	table, err := b.readAttachment(ctx, message, 0)
	if err != nil {
		b.sendError(session, message, "reading the roster", err)
		return
	}
	subs, err := table.Submissions()
	if err != nil {
		b.sendError(session, message, "reading the roster", err)
		return
	}

	b.send(session, message.ChannelID, fmt.Sprintf("Grading %d submissions for %s...", len(subs), stage))
	run, err := b.APIPtr.GradeStage(ctx, stage, subs)
	if err != nil {
		b.sendError(session, message, "grading", err)
		return
	}
	b.sendRun(session, message.ChannelID, run)
}

func (b *Bot) rerunHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, args []string,
	command string, run func(context.Context, shared.Stage) (*api.GradeRun, error)) {
	if len(args) < 1 {
		b.usage(session, message, command+" <stage>")
		return
	}
	stage, err := shared.ParseStage(args[0])
	if err != nil {
		b.sendError(session, message, "grading", err)
		return
	}

	b.send(session, message.ChannelID, fmt.Sprintf("Grading %s...", stage))
	gr, err := run(ctx, stage)
	if err != nil {
		b.sendError(session, message, "grading", err)
		return
	}
	b.sendRun(session, message.ChannelID, gr)
}

// sendRun posts the summary of a run, its passed and failed lists, and the pending submissions as a csv file
func (b *Bot) sendRun(session DiscordSession, channelID string, run *api.GradeRun) {
	var res strings.Builder
	res.WriteString(fmt.Sprintf("Run %s for %s finished in %s: %d passed, %d failed, %d pending",
		run.RunID, run.Stage, run.Duration.Round(time.Second), run.Passed, run.Failed, run.Pending))
	if run.Rejected > 0 {
		res.WriteString(fmt.Sprintf(" (%d errors)", run.Rejected))
	}
	res.WriteString("\n")
	if run.Report.Passed != "" {
		res.WriteString("Passed:\n" + run.Report.Passed + "\n")
	}
	if run.Report.Failed != "" {
		res.WriteString("Failed:\n" + run.Report.Failed + "\n")
	}
	b.send(session, channelID, res.String())

	if run.Report.Pending != "" {
		b.sendFile(session, channelID, "Pending submissions:", fmt.Sprintf("pending-%s.csv", run.Stage), run.Report.Pending)
	}
}

// endregion

// region records

func (b *Bot) uploadHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		b.usage(session, message, "upload <stage>")
		return
	}
	stage, err := shared.ParseStage(args[0])
	if err != nil {
		b.sendError(session, message, "uploading", err)
		return
	}
	table, err := b.readAttachment(ctx, message, 0)
	if err != nil {
		b.sendError(session, message, "reading the roster", err)
		return
	}
	subs, err := table.Submissions()
	if err != nil {
		b.sendError(session, message, "reading the roster", err)
		return
	}
	res, err := b.APIPtr.UploadPending(ctx, stage, subs)
	if err != nil {
		b.sendError(session, message, "uploading", err)
		return
	}
	b.send(session, message.ChannelID, fmt.Sprintf("Added %d pending submissions to %s, skipped %d", res.Inserted, stage, res.Skipped))
}

func stageAndBucket(args []string) (shared.Stage, shared.Bucket, error) {
	stage, err := shared.ParseStage(args[0])
	if err != nil {
		return "", "", err
	}
	bucket, err := shared.ParseBucket(args[1])
	if err != nil {
		return "", "", err
	}
	return stage, bucket, nil
}

func formatRecords(bucket shared.Bucket, records []store.StageRecord) string {
	var res strings.Builder
	for _, r := range records {
		switch bucket {
		case shared.BucketPending:
			res.WriteString(fmt.Sprintf("%s, %s, %s\n", r.Username, r.HostedLink, r.Email))
		default:
			res.WriteString(fmt.Sprintf("%s, %s, %d", r.Username, r.Email, r.Grade))
			if r.Promoted {
				res.WriteString(" (promoted)")
			}
			res.WriteString("\n")
		}
	}
	return res.String()
}

func (b *Bot) listHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if len(args) < 2 {
		b.usage(session, message, "list <stage> <bucket> [promoted|unpromoted]")
		return
	}
	stage, bucket, err := stageAndBucket(args)
	if err != nil {
		b.sendError(session, message, "listing records", err)
		return
	}
	filter := store.Filter{}
	if len(args) > 2 {
		switch strings.ToLower(args[2]) {
		case "promoted":
			filter.Promoted = store.Bool(true)
		case "unpromoted":
			filter.Promoted = store.Bool(false)
		default:
			b.usage(session, message, "list <stage> <bucket> [promoted|unpromoted]")
			return
		}
	}

	records, err := b.APIPtr.List(ctx, stage, bucket, filter)
	if err != nil {
		b.sendError(session, message, "listing records", err)
		return
	}
	if len(records) == 0 {
		b.send(session, message.ChannelID, fmt.Sprintf("No records in %s %s", stage, bucket))
		return
	}
	b.send(session, message.ChannelID, fmt.Sprintf("%d records in %s %s:\n%s", len(records), stage, bucket, formatRecords(bucket, records)))
}

func (b *Bot) findHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if len(args) < 3 {
		b.usage(session, message, "find <stage> <bucket> <username>")
		return
	}
	stage, bucket, err := stageAndBucket(args)
	if err != nil {
		b.sendError(session, message, "searching records", err)
		return
	}
	query := strings.Join(args[2:], " ")
	records, err := b.APIPtr.FindRecords(ctx, stage, bucket, query)
	if err != nil {
		b.sendError(session, message, "searching records", err)
		return
	}
	if len(records) == 0 {
		b.send(session, message.ChannelID, fmt.Sprintf("No records in %s %s match %q", stage, bucket, query))
		return
	}
	b.send(session, message.ChannelID, fmt.Sprintf("Matches for %q in %s %s:\n%s", query, stage, bucket, formatRecords(bucket, records)))
}

func (b *Bot) promoteHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if len(args) < 1 {
		b.usage(session, message, "promote <stage> [email ...]")
		return
	}
	stage, err := shared.ParseStage(args[0])
	if err != nil {
		b.sendError(session, message, "promoting", err)
		return
	}
	n, err := b.APIPtr.Promote(ctx, stage, args[1:]...)
	if err != nil {
		b.sendError(session, message, "promoting", err)
		return
	}
	b.send(session, message.ChannelID, fmt.Sprintf("Promoted %d records in %s", n, stage))
}

func (b *Bot) deleteHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, args []string) {
	if len(args) < 3 {
		b.usage(session, message, "delete <stage> <bucket> <email|all>")
		return
	}
	stage, bucket, err := stageAndBucket(args)
	if err != nil {
		b.sendError(session, message, "deleting", err)
		return
	}

	if strings.EqualFold(args[2], "all") {
		n, err := b.APIPtr.DeleteAll(ctx, stage, bucket)
		if err != nil {
			b.sendError(session, message, "deleting", err)
			return
		}
		b.send(session, message.ChannelID, fmt.Sprintf("Deleted %d records from %s %s", n, stage, bucket))
		return
	}

	if err := b.APIPtr.Delete(ctx, stage, bucket, args[2]); err != nil {
		b.sendError(session, message, "deleting", err)
		return
	}
	b.send(session, message.ChannelID, fmt.Sprintf("Deleted %s from %s %s", shared.NormalizeEmail(args[2]), stage, bucket))
}

// endregion

// region tools

// diffHandler compares the first attachment (general roster) with the second (next stage roster)
func (b *Bot) diffHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate) {
	if len(message.Attachments) < 2 {
		b.send(session, message.ChannelID, fmt.Sprintf("Usage: `%sdiff` with the general roster and the next stage roster attached, in that order", b.Prefix))
		return
	}
	general, err := b.readAttachment(ctx, message, 0)
	if err != nil {
		b.sendError(session, message, "reading the general roster", err)
		return
	}
	next, err := b.readAttachment(ctx, message, 1)
	if err != nil {
		b.sendError(session, message, "reading the next stage roster", err)
		return
	}
	generalRows, err := general.DiffRows()
	if err != nil {
		b.sendError(session, message, "reading the general roster", err)
		return
	}
	nextRows, err := next.DiffRows()
	if err != nil {
		b.sendError(session, message, "reading the next stage roster", err)
		return
	}

	out, err := b.APIPtr.Diff(generalRows, nextRows)
	if err != nil {
		b.sendError(session, message, "diffing", err)
		return
	}
	if out == "" {
		b.send(session, message.ChannelID, "No differences between the rosters")
		return
	}
	b.sendFile(session, message.ChannelID, "Differences between the rosters:", "diff.csv", out)
}

func formatCounts(counts []shared.MentionCount) string {
	var res strings.Builder
	for _, c := range counts {
		res.WriteString(fmt.Sprintf("%s: %d\n", c.Username, c.Counter))
	}
	return res.String()
}

func (b *Bot) mentionsHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, args []string) {
	const usage = "mentions upload|count|list [n]|clear"
	if len(args) < 1 {
		b.usage(session, message, usage)
		return
	}

	switch strings.ToLower(args[0]) {
	case "upload":
		table, err := b.readAttachment(ctx, message, 0)
		if err != nil {
			b.sendError(session, message, "reading the mentions", err)
			return
		}
		subs, err := table.MentionSubmissions()
		if err != nil {
			b.sendError(session, message, "reading the mentions", err)
			return
		}
		res, err := b.APIPtr.UploadMentions(ctx, subs)
		if err != nil {
			b.sendError(session, message, "uploading mentions", err)
			return
		}
		b.send(session, message.ChannelID, fmt.Sprintf("Stored %d mention submissions, skipped %d", res.Inserted, res.Skipped))

	case "count":
		counts, err := b.APIPtr.CountMentions(ctx)
		if err != nil {
			b.sendError(session, message, "counting mentions", err)
			return
		}
		if len(counts) == 0 {
			b.send(session, message.ChannelID, "Nobody has been mentioned")
			return
		}
		b.send(session, message.ChannelID, "Mention counts:\n"+formatCounts(counts))

	case "list":
		var counter *int
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				b.usage(session, message, usage)
				return
			}
			counter = &n
		}
		counts, err := b.APIPtr.MentionCounts(ctx, counter)
		if err != nil {
			b.sendError(session, message, "listing mention counts", err)
			return
		}
		if len(counts) == 0 {
			b.send(session, message.ChannelID, "No mention counts found")
			return
		}
		b.send(session, message.ChannelID, "Mention counts:\n"+formatCounts(counts))

	case "clear":
		n, err := b.APIPtr.DeleteMentions(ctx)
		if err != nil {
			b.sendError(session, message, "clearing mentions", err)
			return
		}
		b.send(session, message.ChannelID, fmt.Sprintf("Deleted %d mention submissions", n))

	default:
		b.usage(session, message, usage)
	}
}

func (b *Bot) generalHandler(ctx context.Context, session DiscordSession, message *discordgo.MessageCreate, args []string) {
	const usage = "general upload|unmentioned|clear"
	if len(args) < 1 {
		b.usage(session, message, usage)
		return
	}

	switch strings.ToLower(args[0]) {
	case "upload":
		table, err := b.readAttachment(ctx, message, 0)
		if err != nil {
			b.sendError(session, message, "reading the general roster", err)
			return
		}
		users, err := table.GeneralUsers()
		if err != nil {
			b.sendError(session, message, "reading the general roster", err)
			return
		}
		res, err := b.APIPtr.UploadGeneral(ctx, users)
		if err != nil {
			b.sendError(session, message, "uploading the general roster", err)
			return
		}
		b.send(session, message.ChannelID, fmt.Sprintf("Stored %d general users, skipped %d", res.Inserted, res.Skipped))

	case "unmentioned":
		users, err := b.APIPtr.NoMentions(ctx)
		if err != nil {
			b.sendError(session, message, "listing unmentioned users", err)
			return
		}
		if len(users) == 0 {
			b.send(session, message.ChannelID, "Every general user has been mentioned")
			return
		}
		var res strings.Builder
		res.WriteString(fmt.Sprintf("%d users nobody mentioned:\n", len(users)))
		for _, u := range users {
			res.WriteString(u.Username + "\n")
		}
		b.send(session, message.ChannelID, res.String())

	case "clear":
		n, err := b.APIPtr.DeleteGeneral(ctx)
		if err != nil {
			b.sendError(session, message, "clearing the general roster", err)
			return
		}
		b.send(session, message.ChannelID, fmt.Sprintf("Deleted %d general users", n))

	default:
		b.usage(session, message, usage)
	}
}

// endregion
