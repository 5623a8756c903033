package types

import "time"

// User is a Twitch account known to the system. Created on first login,
// immutable afterwards except for display-name refresh.
type User struct {
	ID        int64     `json:"id"`
	TwitchID  string    `json:"twitch_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Giveaway is a configured giveaway. Frequency is the per-item reveal
// interval in seconds, Threshold the minimum-entrants hint shown to viewers.
// Active marks dashboard viewability, not drawing status.
type Giveaway struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Frequency int       `json:"frequency"`
	Threshold int       `json:"threshold"`
	CreatorID int64     `json:"creator_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Item is a prize attached to a giveaway. GiveawayID is nullable so a won
// item survives deletion of its giveaway. Once IsWon is true the winner
// fields and the giveaway reference are immutable.
type Item struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Code           string `json:"code"`
	IsWon          bool   `json:"is_won"`
	GiveawayID     *int64 `json:"giveaway_id"`
	WinnerID       *int64 `json:"winner_id"`
	WinnerUsername string `json:"winner_username"`
}

// WinnerRecord is the permanent win-ledger entry, kept separately from the
// item's embedded winner fields so per-user winnings survive item retention
// decisions.
type WinnerRecord struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	GiveawayID int64     `json:"giveaway_id"`
	ItemID     int64     `json:"item_id"`
	WonAt      time.Time `json:"won_at"`
}
