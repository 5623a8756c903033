// Package chatbot routes chat commands to the drawing engine. It owns no
// giveaway state itself; everything it touches lives on the drawing manager
// or in the database, keyed by the chat identity that issued the command.
package chatbot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nantokaworks/twitch-giveaway/internal/drawing"
	"github.com/nantokaworks/twitch-giveaway/internal/entry"
	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"go.uber.org/zap"
)

const commandPrefix = "!"

// Bot dispatches prefixed chat commands. Replies go through the same
// announcer the drawing cycle uses.
type Bot struct {
	manager   *drawing.Manager
	announcer drawing.Announcer
}

func New(manager *drawing.Manager, announcer drawing.Announcer) *Bot {
	return &Bot{
		manager:   manager,
		announcer: announcer,
	}
}

// HandleMessage processes one chat line. Non-command messages are ignored.
func (b *Bot) HandleMessage(author, text string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, commandPrefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(text, commandPrefix))
	if len(fields) == 0 {
		return
	}

	command := strings.ToLower(fields[0])
	args := fields[1:]

	logger.Debug("Chat command received",
		zap.String("author", author),
		zap.String("command", command))

	switch command {
	case "enter":
		b.handleEnter(author)
	case "startgiveaway":
		b.handleStart(author, args)
	case "endgiveaway":
		b.handleEnd(author)
	case "listgiveaways":
		b.handleList(author)
	}
}

// reply delivers a chat response best-effort, same as cycle announcements.
func (b *Bot) reply(text string) {
	if _, ok := b.announcer.Channel(); !ok {
		logger.Warn("No connected channel, skipping reply", zap.String("text", text))
		return
	}
	if err := b.announcer.Announce(text); err != nil {
		logger.Error("Failed to send chat reply",
			zap.String("text", text),
			zap.Error(err))
	}
}

func (b *Bot) handleEnter(author string) {
	_, registry, ok := b.manager.Current()
	if !ok {
		b.reply("There is no active giveaway to join.")
		return
	}

	switch registry.Register(author) {
	case entry.Registered:
		logger.Info("Entrant registered", zap.String("name", author))
		b.reply(fmt.Sprintf("%s, you have been entered into the giveaway!", author))
	case entry.AlreadyRegistered:
		b.reply(fmt.Sprintf("%s, you are already entered!", author))
	case entry.RoundClosed:
		b.reply(fmt.Sprintf("%s, entries are closed right now. Wait for the next item!", author))
	case entry.NotEligible:
		b.reply(fmt.Sprintf("%s, you already won an item in this giveaway!", author))
	}
}

func (b *Bot) handleStart(author string, args []string) {
	if len(args) == 0 {
		b.reply("Please provide a giveaway ID. Use !listgiveaways to see your options.")
		return
	}

	giveawayID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply("Invalid giveaway ID provided.")
		return
	}

	giveaway, err := localdb.GetGiveaway(giveawayID)
	if errors.Is(err, localdb.ErrNotFound) {
		b.reply("Invalid giveaway ID provided.")
		return
	}
	if err != nil {
		logger.Error("Failed to load giveaway for start command", zap.Error(err))
		return
	}

	if !b.isCreator(author, giveaway.CreatorID) {
		b.reply(fmt.Sprintf("%s, only the creator can start this giveaway.", author))
		return
	}

	if err := b.manager.Start(giveawayID); err != nil {
		if errors.Is(err, drawing.ErrAlreadyRunning) {
			b.reply("A giveaway is already active!")
			return
		}
		logger.Error("Failed to start drawing from chat",
			zap.Int64("giveaway_id", giveawayID),
			zap.Error(err))
		b.reply("The giveaway could not be started.")
		return
	}

	b.reply(fmt.Sprintf("A giveaway has started: %s! Type !enter to participate.", giveaway.Title))
}

func (b *Bot) handleEnd(author string) {
	giveaway, _, ok := b.manager.Current()
	if !ok {
		b.reply("There is no active giveaway to end.")
		return
	}

	if !b.isCreator(author, giveaway.CreatorID) {
		b.reply(fmt.Sprintf("%s, only the creator can end this giveaway.", author))
		return
	}

	if err := b.manager.Stop(giveaway.ID); err != nil {
		// The run may have concluded between Current and Stop.
		if errors.Is(err, drawing.ErrNotRunning) {
			b.reply("There is no active giveaway to end.")
			return
		}
		logger.Error("Failed to stop drawing from chat",
			zap.Int64("giveaway_id", giveaway.ID),
			zap.Error(err))
	}
}

func (b *Bot) handleList(author string) {
	user, err := localdb.GetUserByUsername(author)
	if errors.Is(err, localdb.ErrNotFound) {
		b.reply("You are not authorized to list giveaways.")
		return
	}
	if err != nil {
		logger.Error("Failed to resolve chat user", zap.Error(err))
		return
	}

	giveaways, err := localdb.ListGiveawaysByCreator(user.ID)
	if err != nil {
		logger.Error("Failed to list giveaways", zap.Error(err))
		return
	}
	if len(giveaways) == 0 {
		b.reply("You have no giveaways available.")
		return
	}

	parts := make([]string, len(giveaways))
	for i, g := range giveaways {
		parts[i] = fmt.Sprintf("ID #%d: %s", g.ID, g.Title)
	}
	b.reply(fmt.Sprintf("Your giveaways: %s", strings.Join(parts, ", ")))
}

// isCreator reports whether the chat author owns the giveaway. Chat-only
// identities that never logged into the site own nothing.
func (b *Bot) isCreator(author string, creatorID int64) bool {
	user, err := localdb.GetUserByUsername(author)
	if err != nil {
		if !errors.Is(err, localdb.ErrNotFound) {
			logger.Error("Failed to resolve chat user", zap.Error(err))
		}
		return false
	}
	return user.ID == creatorID
}
