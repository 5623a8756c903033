package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"go.uber.org/zap"
)

// Token is the bot account's OAuth token used for chat announcements and
// EventSub. A single row is kept.
type Token struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    int64
}

// SaveToken upserts the bot token row.
func SaveToken(t Token) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`
		INSERT INTO tokens (id, access_token, refresh_token, scope, expires_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			scope = excluded.scope,
			expires_at = excluded.expires_at
	`, t.AccessToken, t.RefreshToken, t.Scope, t.ExpiresAt)
	if err != nil {
		logger.Error("Failed to save token", zap.Error(err))
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// GetToken returns the stored bot token, or ErrNotFound if none exists.
func GetToken() (Token, error) {
	db := GetDB()
	if db == nil {
		return Token{}, fmt.Errorf("database not initialized")
	}

	var t Token
	err := db.QueryRow(`
		SELECT COALESCE(access_token, ''), COALESCE(refresh_token, ''), COALESCE(scope, ''), COALESCE(expires_at, 0)
		FROM tokens WHERE id = 1
	`).Scan(&t.AccessToken, &t.RefreshToken, &t.Scope, &t.ExpiresAt)
	if err == sql.ErrNoRows {
		return Token{}, ErrNotFound
	}
	if err != nil {
		logger.Error("Failed to get token", zap.Error(err))
		return Token{}, fmt.Errorf("failed to get token: %w", err)
	}

	return t, nil
}
