package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
	"go.uber.org/zap"
)

// CreateSession stores a login session token for a user.
func CreateSession(token string, userID int64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`INSERT INTO sessions (token, user_id) VALUES (?, ?)`, token, userID)
	if err != nil {
		logger.Error("Failed to create session", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSessionUser resolves a session token to its user.
func GetSessionUser(token string) (*types.User, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var user types.User
	err := db.QueryRow(`
		SELECT u.id, u.twitch_id, u.username, u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?
	`, token).Scan(&user.ID, &user.TwitchID, &user.Username, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error("Failed to resolve session", zap.Error(err))
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	return &user, nil
}

// DeleteSession invalidates a session token.
func DeleteSession(token string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	if _, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token); err != nil {
		logger.Error("Failed to delete session", zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
