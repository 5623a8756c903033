package twitchapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nantokaworks/twitch-giveaway/internal/env"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"go.uber.org/zap"
)

// SendChatMessage posts a message to the broadcaster's chat as the bot user.
func SendChatMessage(text string) error {
	if env.Value.BroadcasterUserID == nil || *env.Value.BroadcasterUserID == "" {
		return fmt.Errorf("broadcaster user ID not configured")
	}
	senderID := ""
	if env.Value.BotUserID != nil && *env.Value.BotUserID != "" {
		senderID = *env.Value.BotUserID
	} else {
		// ボットユーザー未設定の場合は配信者自身として送信
		senderID = *env.Value.BroadcasterUserID
	}

	body, err := json.Marshal(map[string]string{
		"broadcaster_id": *env.Value.BroadcasterUserID,
		"sender_id":      senderID,
		"message":        text,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	resp, err := makeAuthenticatedRequest("POST", helixBaseURL+"/chat/messages", body)
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		logger.Error("Twitch API returned error for chat message",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
		return fmt.Errorf("twitch API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	logger.Debug("Chat message sent", zap.String("text", text))
	return nil
}

// ChatAnnouncer delivers drawing announcements over Helix chat. It satisfies
// the drawing engine's announcer capability.
type ChatAnnouncer struct{}

func (ChatAnnouncer) Announce(text string) error {
	return SendChatMessage(text)
}

// Channel reports the configured channel name. Announcements are skipped
// when no channel is configured.
func (ChatAnnouncer) Channel() (string, bool) {
	if env.Value.ChannelName == nil || *env.Value.ChannelName == "" {
		return "", false
	}
	return *env.Value.ChannelName, true
}
