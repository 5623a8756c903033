package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
	"go.uber.org/zap"
)

// UpsertUser は初回ログイン時にユーザーを作成し、既存ならdisplay nameを更新する
func UpsertUser(twitchID, username string) (*types.User, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`
		INSERT INTO users (twitch_id, username) VALUES (?, ?)
		ON CONFLICT(twitch_id) DO UPDATE SET username = excluded.username
	`, twitchID, username)
	if err != nil {
		logger.Error("Failed to upsert user",
			zap.String("twitch_id", twitchID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return GetUserByTwitchID(twitchID)
}

// GetUserByTwitchID returns the user for an external Twitch identity.
func GetUserByTwitchID(twitchID string) (*types.User, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var user types.User
	err := db.QueryRow(`
		SELECT id, twitch_id, username, created_at FROM users WHERE twitch_id = ?
	`, twitchID).Scan(&user.ID, &user.TwitchID, &user.Username, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error("Failed to get user by twitch_id", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func GetUserByID(id int64) (*types.User, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var user types.User
	err := db.QueryRow(`
		SELECT id, twitch_id, username, created_at FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.TwitchID, &user.Username, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error("Failed to get user by id", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername resolves a chat participant to a registered user, if any.
func GetUserByUsername(username string) (*types.User, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var user types.User
	err := db.QueryRow(`
		SELECT id, twitch_id, username, created_at FROM users WHERE username = ?
	`, username).Scan(&user.ID, &user.TwitchID, &user.Username, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error("Failed to get user by username", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
