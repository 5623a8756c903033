package localdb

import (
	"path/filepath"
	"testing"

	"github.com/nantokaworks/twitch-giveaway/internal/types"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	if DBClient != nil {
		CloseDB()
	}

	dbPath := filepath.Join(t.TempDir(), "giveaway.db")
	if _, err := SetupDB(dbPath); err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}

	t.Cleanup(CloseDB)
}

func seedUser(t *testing.T, twitchID, username string) *types.User {
	t.Helper()

	user, err := UpsertUser(twitchID, username)
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	return user
}

func seedGiveaway(t *testing.T, creatorID int64) *types.Giveaway {
	t.Helper()

	giveaway, err := CreateGiveaway("Stream Prizes", 10, 0, creatorID)
	if err != nil {
		t.Fatalf("CreateGiveaway failed: %v", err)
	}
	return giveaway
}
