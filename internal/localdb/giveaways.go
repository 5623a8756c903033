package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
	"go.uber.org/zap"
)

// CreateGiveaway inserts a configured giveaway and returns it with its ID.
func CreateGiveaway(title string, frequency, threshold int, creatorID int64) (*types.Giveaway, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	result, err := db.Exec(`
		INSERT INTO giveaways (title, frequency, threshold, creator_id, active)
		VALUES (?, ?, ?, ?, true)
	`, title, frequency, threshold, creatorID)
	if err != nil {
		logger.Error("Failed to create giveaway", zap.String("title", title), zap.Error(err))
		return nil, fmt.Errorf("failed to create giveaway: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read giveaway id: %w", err)
	}

	return GetGiveaway(id)
}

func GetGiveaway(id int64) (*types.Giveaway, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var g types.Giveaway
	err := db.QueryRow(`
		SELECT id, title, frequency, threshold, creator_id, active, created_at
		FROM giveaways WHERE id = ?
	`, id).Scan(&g.ID, &g.Title, &g.Frequency, &g.Threshold, &g.CreatorID, &g.Active, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error("Failed to get giveaway", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get giveaway: %w", err)
	}

	return &g, nil
}

// UpdateGiveaway mutates title, frequency and threshold. Other fields are
// not editable after creation.
func UpdateGiveaway(id int64, title string, frequency, threshold int) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	result, err := db.Exec(`
		UPDATE giveaways SET title = ?, frequency = ?, threshold = ? WHERE id = ?
	`, title, frequency, threshold, id)
	if err != nil {
		logger.Error("Failed to update giveaway", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update giveaway: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetGiveawayActive flips dashboard viewability. This is independent of the
// drawing runtime state.
func SetGiveawayActive(id int64, active bool) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`UPDATE giveaways SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		logger.Error("Failed to set giveaway active flag", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set giveaway active flag: %w", err)
	}

	return nil
}

func ListGiveawaysByCreator(creatorID int64) ([]types.Giveaway, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`
		SELECT id, title, frequency, threshold, creator_id, active, created_at
		FROM giveaways WHERE creator_id = ? ORDER BY id ASC
	`, creatorID)
	if err != nil {
		logger.Error("Failed to list giveaways", zap.Int64("creator_id", creatorID), zap.Error(err))
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}
	defer rows.Close()

	giveaways := []types.Giveaway{}
	for rows.Next() {
		var g types.Giveaway
		if err := rows.Scan(&g.ID, &g.Title, &g.Frequency, &g.Threshold, &g.CreatorID, &g.Active, &g.CreatedAt); err != nil {
			logger.Error("Failed to scan giveaway row", zap.Error(err))
			continue
		}
		giveaways = append(giveaways, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate giveaways: %w", err)
	}

	return giveaways, nil
}

// DeleteGiveaway removes a giveaway atomically: unawarded items are deleted,
// awarded items keep their win record with the giveaway reference nulled, then
// the giveaway row itself goes. On any failure nothing is committed.
func DeleteGiveaway(id int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRow(`SELECT id FROM giveaways WHERE id = ?`, id).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check giveaway: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM items WHERE giveaway_id = ? AND is_won = false`, id); err != nil {
		logger.Error("Failed to delete unawarded items", zap.Int64("giveaway_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete unawarded items: %w", err)
	}

	// 獲得済みアイテムは勝者情報ごと保持する
	if _, err := tx.Exec(`UPDATE items SET giveaway_id = NULL WHERE giveaway_id = ? AND is_won = true`, id); err != nil {
		logger.Error("Failed to detach won items", zap.Int64("giveaway_id", id), zap.Error(err))
		return fmt.Errorf("failed to detach won items: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM giveaways WHERE id = ?`, id); err != nil {
		logger.Error("Failed to delete giveaway", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete giveaway: %w", err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit giveaway deletion", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to commit giveaway deletion: %w", err)
	}

	return nil
}
