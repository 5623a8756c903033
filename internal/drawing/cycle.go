package drawing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nantokaworks/twitch-giveaway/internal/broadcast"
	"github.com/nantokaworks/twitch-giveaway/internal/entry"
	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
	"go.uber.org/zap"
)

// intervalUnit scales the giveaway's reveal interval. Tests shrink it so a
// round closes in milliseconds.
var intervalUnit = time.Second

// Cycle drives one drawing run: item by item, announce → entry window →
// close → draw → record → advance. All state is per-instance; nothing is
// shared between runs.
type Cycle struct {
	Giveaway  types.Giveaway
	Registry  *entry.Registry
	Announcer Announcer
}

// announce delivers a chat message best-effort. Transport failures are
// logged and the cycle proceeds.
func (c *Cycle) announce(text string) {
	if _, ok := c.Announcer.Channel(); !ok {
		logger.Warn("No connected channel, skipping announcement", zap.String("text", text))
		return
	}
	if err := c.Announcer.Announce(text); err != nil {
		logger.Error("Failed to send chat announcement",
			zap.String("text", text),
			zap.Error(err))
	}
}

// Run processes every unawarded item of the giveaway. It returns nil when
// the run concluded normally (including the no-items case), ctx.Err() when
// canceled mid-run, and the underlying error when a round faulted.
func (c *Cycle) Run(ctx context.Context) error {
	items, err := localdb.ListUnawardedItems(c.Giveaway.ID)
	if err != nil {
		return fmt.Errorf("failed to load item queue: %w", err)
	}

	queue := NewItemQueue(items)

	if queue.Len() == 0 {
		logger.Info("No items available, concluding giveaway without drawing",
			zap.Int64("giveaway_id", c.Giveaway.ID))
		c.announce(fmt.Sprintf("No items are available for giveaway '%s'. The giveaway cannot proceed.", c.Giveaway.Title))
		broadcast.Send("giveaway_concluded", map[string]interface{}{
			"giveaway_id": c.Giveaway.ID,
			"reason":      "no_items",
		})
		return nil
	}

	for {
		item, ok := queue.NextUnawarded()
		if !ok {
			break
		}

		if err := c.runRound(ctx, item); err != nil {
			return err
		}
	}

	logger.Info("Giveaway concluded",
		zap.Int64("giveaway_id", c.Giveaway.ID),
		zap.String("title", c.Giveaway.Title))
	c.announce(fmt.Sprintf("The giveaway '%s' has ended. Thank you for participating!", c.Giveaway.Title))
	broadcast.Send("giveaway_concluded", map[string]interface{}{
		"giveaway_id": c.Giveaway.ID,
	})

	return nil
}

// runRound runs one item's announce→wait→draw round. A canceled context
// aborts before the draw; a persistence failure aborts the whole run.
func (c *Cycle) runRound(ctx context.Context, item *types.Item) error {
	logger.Info("Round opened",
		zap.Int64("giveaway_id", c.Giveaway.ID),
		zap.Int64("item_id", item.ID),
		zap.String("item", item.Name))

	c.announce(fmt.Sprintf("Giving away: %s! Type !enter to participate.", item.Name))

	c.Registry.OpenRound()
	broadcast.Send("round_opened", map[string]interface{}{
		"giveaway_id": c.Giveaway.ID,
		"item_id":     item.ID,
		"item_name":   item.Name,
	})

	if !c.waitEntryWindow(ctx) {
		// Stop interrupts the wait; the current round is not drawn.
		c.Registry.CloseRound()
		return ctx.Err()
	}

	snapshot := c.Registry.CloseRound()

	if len(snapshot) == 0 {
		logger.Info("No entries for item, carrying over",
			zap.Int64("item_id", item.ID),
			zap.String("item", item.Name))
		c.announce(fmt.Sprintf("No entries for %s. It carries over unawarded.", item.Name))
		broadcast.Send("round_skipped", map[string]interface{}{
			"giveaway_id": c.Giveaway.ID,
			"item_id":     item.ID,
		})
		return nil
	}

	winnerName, err := pickWinner(snapshot)
	if err != nil {
		return fmt.Errorf("failed to pick winner: %w", err)
	}

	// Registered site users get a user reference; chat-only entrants keep
	// just the name snapshot.
	var winnerID *int64
	if user, err := localdb.GetUserByUsername(winnerName); err == nil {
		winnerID = &user.ID
	} else if !errors.Is(err, localdb.ErrNotFound) {
		return fmt.Errorf("failed to resolve winner: %w", err)
	}

	if err := localdb.AwardItem(item.ID, c.Giveaway.ID, winnerID, winnerName); err != nil {
		// Never risk an unrecorded win: abort the run instead of retrying.
		logger.Error("Failed to record winner, aborting run",
			zap.Int64("item_id", item.ID),
			zap.String("winner", winnerName),
			zap.Error(err))
		return fmt.Errorf("failed to record winner: %w", err)
	}

	c.Registry.ExcludeWinner(winnerName)

	logger.Info("Winner drawn",
		zap.Int64("item_id", item.ID),
		zap.String("item", item.Name),
		zap.String("winner", winnerName),
		zap.Int("entrants", len(snapshot)))
	c.announce(fmt.Sprintf("Congratulations %s! You've won %s!", winnerName, item.Name))
	broadcast.Send("winner_drawn", map[string]interface{}{
		"giveaway_id": c.Giveaway.ID,
		"item_id":     item.ID,
		"item_name":   item.Name,
		"winner":      winnerName,
		"entrants":    len(snapshot),
	})

	return nil
}

// waitEntryWindow suspends for the reveal interval. Returns false when the
// context is canceled before the window elapses.
func (c *Cycle) waitEntryWindow(ctx context.Context) bool {
	timer := time.NewTimer(time.Duration(c.Giveaway.Frequency) * intervalUnit)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
