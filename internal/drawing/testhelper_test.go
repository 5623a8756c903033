package drawing

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
)

// fakeAnnouncer is the chat-transport test double.
type fakeAnnouncer struct {
	mu        sync.Mutex
	messages  []string
	fail      error
	noChannel bool
}

func (f *fakeAnnouncer) Announce(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail != nil {
		return f.fail
	}
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeAnnouncer) Channel() (string, bool) {
	if f.noChannel {
		return "", false
	}
	return "testchannel", true
}

func (f *fakeAnnouncer) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.messages))
	copy(out, f.messages)
	return out
}

func setupDrawingTestDB(t *testing.T) {
	t.Helper()

	if localdb.DBClient != nil {
		localdb.CloseDB()
	}

	dbPath := filepath.Join(t.TempDir(), "giveaway.db")
	if _, err := localdb.SetupDB(dbPath); err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}

	t.Cleanup(func() {
		localdb.CloseDB()
	})
}

// createTestGiveaway seeds a creator, a giveaway and its items.
func createTestGiveaway(t *testing.T, frequency int, itemNames ...string) *types.Giveaway {
	t.Helper()

	creator, err := localdb.UpsertUser("tw-creator", "creator")
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	giveaway, err := localdb.CreateGiveaway("Stream Prizes", frequency, 0, creator.ID)
	if err != nil {
		t.Fatalf("CreateGiveaway failed: %v", err)
	}

	for _, name := range itemNames {
		if _, err := localdb.AddItem(giveaway.ID, name, name+"-code"); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
	}

	return giveaway
}

// shortenInterval makes one frequency unit last 50ms for the test.
func shortenInterval(t *testing.T) {
	t.Helper()

	original := intervalUnit
	intervalUnit = 50 * time.Millisecond
	t.Cleanup(func() {
		intervalUnit = original
	})
}

// waitForOpenRound polls until the registry accepts entrants.
func waitForOpenRound(t *testing.T, isOpen func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if isOpen() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("round never opened")
}
