package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
	"go.uber.org/zap"
)

// WinnerSummary is a dashboard row joining the ledger with item and winner
// names.
type WinnerSummary struct {
	Record         types.WinnerRecord
	ItemName       string
	WinnerUsername string
	GiveawayTitle  string
}

// ListWinnersByCreator returns the win ledger for every giveaway a creator
// owns, newest first.
func ListWinnersByCreator(creatorID int64) ([]WinnerSummary, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`
		SELECT w.id, COALESCE(w.user_id, 0), COALESCE(w.giveaway_id, 0), w.item_id, w.won_at,
		       i.name, COALESCE(i.winner_username, ''), g.title
		FROM winners w
		JOIN items i ON i.id = w.item_id
		JOIN giveaways g ON g.id = w.giveaway_id
		WHERE g.creator_id = ?
		ORDER BY w.won_at DESC, w.id DESC
	`, creatorID)
	if err != nil {
		logger.Error("Failed to list winners", zap.Int64("creator_id", creatorID), zap.Error(err))
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	defer rows.Close()

	summaries := []WinnerSummary{}
	for rows.Next() {
		var s WinnerSummary
		if err := rows.Scan(
			&s.Record.ID,
			&s.Record.UserID,
			&s.Record.GiveawayID,
			&s.Record.ItemID,
			&s.Record.WonAt,
			&s.ItemName,
			&s.WinnerUsername,
			&s.GiveawayTitle,
		); err != nil {
			logger.Error("Failed to scan winner row", zap.Error(err))
			continue
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate winners: %w", err)
	}

	return summaries, nil
}

// ListWinnerRecordsByItem returns ledger rows for one item. Used to verify
// the at-most-once award invariant.
func ListWinnerRecordsByItem(itemID int64) ([]types.WinnerRecord, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`
		SELECT id, COALESCE(user_id, 0), COALESCE(giveaway_id, 0), item_id, won_at
		FROM winners WHERE item_id = ? ORDER BY id ASC
	`, itemID)
	if err != nil {
		logger.Error("Failed to list winner records", zap.Int64("item_id", itemID), zap.Error(err))
		return nil, fmt.Errorf("failed to list winner records: %w", err)
	}
	defer rows.Close()

	records := []types.WinnerRecord{}
	for rows.Next() {
		var r types.WinnerRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.GiveawayID, &r.ItemID, &r.WonAt); err != nil {
			logger.Error("Failed to scan winner record", zap.Error(err))
			continue
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate winner records: %w", err)
	}

	return records, nil
}

// GetWinnerRecord returns one ledger row.
func GetWinnerRecord(id int64) (*types.WinnerRecord, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var r types.WinnerRecord
	err := db.QueryRow(`
		SELECT id, COALESCE(user_id, 0), COALESCE(giveaway_id, 0), item_id, won_at
		FROM winners WHERE id = ?
	`, id).Scan(&r.ID, &r.UserID, &r.GiveawayID, &r.ItemID, &r.WonAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get winner record: %w", err)
	}

	return &r, nil
}
