package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
	"go.uber.org/zap"
)

// AddItem attaches a prize item to a giveaway.
func AddItem(giveawayID int64, name, code string) (*types.Item, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	result, err := db.Exec(`
		INSERT INTO items (name, code, giveaway_id) VALUES (?, ?, ?)
	`, name, code, giveawayID)
	if err != nil {
		logger.Error("Failed to add item",
			zap.Int64("giveaway_id", giveawayID),
			zap.String("name", name),
			zap.Error(err))
		return nil, fmt.Errorf("failed to add item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read item id: %w", err)
	}

	return GetItem(id)
}

func GetItem(id int64) (*types.Item, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var item types.Item
	var code, winnerUsername sql.NullString
	var giveawayID, winnerID sql.NullInt64
	err := db.QueryRow(`
		SELECT id, name, code, is_won, giveaway_id, winner_id, winner_username
		FROM items WHERE id = ?
	`, id).Scan(&item.ID, &item.Name, &code, &item.IsWon, &giveawayID, &winnerID, &winnerUsername)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error("Failed to get item", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	item.Code = code.String
	item.WinnerUsername = winnerUsername.String
	if giveawayID.Valid {
		item.GiveawayID = &giveawayID.Int64
	}
	if winnerID.Valid {
		item.WinnerID = &winnerID.Int64
	}

	return &item, nil
}

// DeleteItem removes an unawarded item. Awarded items are never deleted.
func DeleteItem(id int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	result, err := db.Exec(`DELETE FROM items WHERE id = ? AND is_won = false`, id)
	if err != nil {
		logger.Error("Failed to delete item", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListItemsByGiveaway returns all items of a giveaway in creation order.
func ListItemsByGiveaway(giveawayID int64) ([]types.Item, error) {
	return queryItems(`
		SELECT id, name, code, is_won, giveaway_id, winner_id, winner_username
		FROM items WHERE giveaway_id = ? ORDER BY id ASC
	`, giveawayID)
}

// ListUnawardedItems returns the drawing queue: not-yet-won items in
// creation order.
func ListUnawardedItems(giveawayID int64) ([]types.Item, error) {
	return queryItems(`
		SELECT id, name, code, is_won, giveaway_id, winner_id, winner_username
		FROM items WHERE giveaway_id = ? AND is_won = false ORDER BY id ASC
	`, giveawayID)
}

// ListWonItemsByUsername returns the items a chat identity has won. Matches
// the name snapshot taken at draw time.
func ListWonItemsByUsername(username string) ([]types.Item, error) {
	return queryItems(`
		SELECT id, name, code, is_won, giveaway_id, winner_id, winner_username
		FROM items WHERE is_won = true AND winner_username = ? ORDER BY id ASC
	`, username)
}

func queryItems(query string, args ...interface{}) ([]types.Item, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		logger.Error("Failed to query items", zap.Error(err))
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []types.Item{}
	for rows.Next() {
		var item types.Item
		var code, winnerUsername sql.NullString
		var giveawayID, winnerID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.Name, &code, &item.IsWon, &giveawayID, &winnerID, &winnerUsername); err != nil {
			logger.Error("Failed to scan item row", zap.Error(err))
			continue
		}
		item.Code = code.String
		item.WinnerUsername = winnerUsername.String
		if giveawayID.Valid {
			item.GiveawayID = &giveawayID.Int64
		}
		if winnerID.Valid {
			item.WinnerID = &winnerID.Int64
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

// AwardItem records a win atomically: the item's won flag flips false→true
// exactly once, the winner snapshot is written, and a winner-ledger row is
// appended in the same transaction. A second award attempt for the same item
// returns ErrAlreadyAwarded with nothing committed.
func AwardItem(itemID, giveawayID int64, winnerID *int64, winnerUsername string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin award transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE items SET is_won = true, winner_id = ?, winner_username = ?
		WHERE id = ? AND is_won = false
	`, winnerID, winnerUsername, itemID)
	if err != nil {
		logger.Error("Failed to mark item won", zap.Int64("item_id", itemID), zap.Error(err))
		return fmt.Errorf("failed to mark item won: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read award result: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyAwarded
	}

	if _, err := tx.Exec(`
		INSERT INTO winners (user_id, giveaway_id, item_id) VALUES (?, ?, ?)
	`, winnerID, giveawayID, itemID); err != nil {
		logger.Error("Failed to append winner record",
			zap.Int64("item_id", itemID),
			zap.String("winner", winnerUsername),
			zap.Error(err))
		return fmt.Errorf("failed to append winner record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit award", zap.Int64("item_id", itemID), zap.Error(err))
		return fmt.Errorf("failed to commit award: %w", err)
	}

	return nil
}
