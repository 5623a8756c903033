package drawing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nantokaworks/twitch-giveaway/internal/entry"
	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
)

func TestCycleRun_NoItemsConcludesImmediately(t *testing.T) {
	setupDrawingTestDB(t)
	shortenInterval(t)

	giveaway := createTestGiveaway(t, 1)
	announcer := &fakeAnnouncer{}
	cycle := &Cycle{Giveaway: *giveaway, Registry: entry.NewRegistry(), Announcer: announcer}

	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	messages := announcer.sent()
	if len(messages) != 1 {
		t.Fatalf("unexpected message count: got=%d want=1", len(messages))
	}
	if !strings.Contains(messages[0], "cannot proceed") {
		t.Fatalf("unexpected announcement: %q", messages[0])
	}
	if cycle.Registry.IsOpen() {
		t.Fatalf("no entry round should have opened")
	}
}

func TestCycleRun_SingleRoundAwardsExactlyOneWinner(t *testing.T) {
	setupDrawingTestDB(t)
	shortenInterval(t)

	giveaway := createTestGiveaway(t, 2, "Mug")
	announcer := &fakeAnnouncer{}
	registry := entry.NewRegistry()
	cycle := &Cycle{Giveaway: *giveaway, Registry: registry, Announcer: announcer}

	done := make(chan error, 1)
	go func() {
		done <- cycle.Run(context.Background())
	}()

	waitForOpenRound(t, registry.IsOpen)
	if got := registry.Register("alice"); got != entry.Registered {
		t.Fatalf("alice registration: got=%v want=%v", got, entry.Registered)
	}
	if got := registry.Register("bob"); got != entry.Registered {
		t.Fatalf("bob registration: got=%v want=%v", got, entry.Registered)
	}

	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	items, err := localdb.ListItemsByGiveaway(giveaway.ID)
	if err != nil {
		t.Fatalf("ListItemsByGiveaway failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("unexpected item count: got=%d want=1", len(items))
	}
	item := items[0]
	if !item.IsWon {
		t.Fatalf("item was not awarded")
	}
	if item.WinnerUsername != "alice" && item.WinnerUsername != "bob" {
		t.Fatalf("unexpected winner: %q", item.WinnerUsername)
	}

	records, err := localdb.ListWinnerRecordsByItem(item.ID)
	if err != nil {
		t.Fatalf("ListWinnerRecordsByItem failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("unexpected winner record count: got=%d want=1", len(records))
	}

	// The round is closed once the run ends.
	if got := registry.Register("carol"); got != entry.RoundClosed {
		t.Fatalf("late registration: got=%v want=%v", got, entry.RoundClosed)
	}
}

func TestCycleRun_ZeroEntrantsCarriesItemOver(t *testing.T) {
	setupDrawingTestDB(t)
	shortenInterval(t)

	giveaway := createTestGiveaway(t, 1, "Sticker")
	announcer := &fakeAnnouncer{}
	cycle := &Cycle{Giveaway: *giveaway, Registry: entry.NewRegistry(), Announcer: announcer}

	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	items, err := localdb.ListUnawardedItems(giveaway.ID)
	if err != nil {
		t.Fatalf("ListUnawardedItems failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("item should remain unawarded: got=%d want=1", len(items))
	}

	var carried bool
	for _, msg := range announcer.sent() {
		if strings.Contains(msg, "No entries for Sticker") {
			carried = true
		}
	}
	if !carried {
		t.Fatalf("carry-over was not announced: %v", announcer.sent())
	}
}

func TestCycleRun_WinnerExcludedFromLaterRounds(t *testing.T) {
	setupDrawingTestDB(t)
	shortenInterval(t)

	originalRandom := drawRandomInt
	drawRandomInt = func(max int) (int, error) { return 0, nil }
	defer func() { drawRandomInt = originalRandom }()

	giveaway := createTestGiveaway(t, 2, "Mug", "Shirt")
	announcer := &fakeAnnouncer{}
	registry := entry.NewRegistry()
	cycle := &Cycle{Giveaway: *giveaway, Registry: registry, Announcer: announcer}

	done := make(chan error, 1)
	go func() {
		done <- cycle.Run(context.Background())
	}()

	// Round 1: alice registers first and wins (index 0).
	waitForOpenRound(t, registry.IsOpen)
	registry.Register("alice")
	registry.Register("bob")

	// Round 2: alice is no longer eligible, bob wins.
	waitForOpenRound(t, func() bool {
		return registry.IsOpen() && registry.Count() == 0
	})
	if got := registry.Register("alice"); got != entry.NotEligible {
		t.Fatalf("past winner registration: got=%v want=%v", got, entry.NotEligible)
	}
	registry.Register("bob")

	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	items, err := localdb.ListItemsByGiveaway(giveaway.ID)
	if err != nil {
		t.Fatalf("ListItemsByGiveaway failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("unexpected item count: got=%d want=2", len(items))
	}
	if items[0].WinnerUsername != "alice" {
		t.Fatalf("round 1 winner mismatch: got=%q want=%q", items[0].WinnerUsername, "alice")
	}
	if items[1].WinnerUsername != "bob" {
		t.Fatalf("round 2 winner mismatch: got=%q want=%q", items[1].WinnerUsername, "bob")
	}
}

func TestCycleRun_AnnounceFailureDoesNotAbort(t *testing.T) {
	setupDrawingTestDB(t)
	shortenInterval(t)

	giveaway := createTestGiveaway(t, 1, "Mug")
	announcer := &fakeAnnouncer{fail: errors.New("transport down")}
	registry := entry.NewRegistry()
	cycle := &Cycle{Giveaway: *giveaway, Registry: registry, Announcer: announcer}

	done := make(chan error, 1)
	go func() {
		done <- cycle.Run(context.Background())
	}()

	waitForOpenRound(t, registry.IsOpen)
	registry.Register("alice")

	if err := <-done; err != nil {
		t.Fatalf("Run should survive transport failures: %v", err)
	}

	items, err := localdb.ListItemsByGiveaway(giveaway.ID)
	if err != nil {
		t.Fatalf("ListItemsByGiveaway failed: %v", err)
	}
	if !items[0].IsWon {
		t.Fatalf("item should be awarded despite announce failures")
	}
}

func TestCycleRun_DrawFaultAbortsRun(t *testing.T) {
	setupDrawingTestDB(t)
	shortenInterval(t)

	originalRandom := drawRandomInt
	drawRandomInt = func(max int) (int, error) { return 0, errors.New("entropy exhausted") }
	defer func() { drawRandomInt = originalRandom }()

	giveaway := createTestGiveaway(t, 1, "Mug", "Shirt")
	registry := entry.NewRegistry()
	cycle := &Cycle{Giveaway: *giveaway, Registry: registry, Announcer: &fakeAnnouncer{}}

	done := make(chan error, 1)
	go func() {
		done <- cycle.Run(context.Background())
	}()

	waitForOpenRound(t, registry.IsOpen)
	registry.Register("alice")

	if err := <-done; err == nil {
		t.Fatalf("Run should abort on draw fault")
	}

	// The faulted item is not retried and later items are never reached.
	items, err := localdb.ListUnawardedItems(giveaway.ID)
	if err != nil {
		t.Fatalf("ListUnawardedItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("no item should be awarded after abort: got=%d unawarded want=2", len(items))
	}
}
