// Package twitcheventsub keeps the EventSub websocket alive and feeds
// channel chat messages into the command router.
package twitcheventsub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/joeyak/go-twitch-eventsub/v3"
	"github.com/nantokaworks/twitch-giveaway/internal/env"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/twitchtoken"
	"go.uber.org/zap"
)

// MessageHandler receives the author login and text of each chat message.
type MessageHandler func(author, text string)

var (
	client         *twitch.Client
	messageHandler MessageHandler
	isRunning      bool
	isConnected    bool
	lastError      error
)

// SetMessageHandler installs the chat message sink. Must be called before
// Start.
func SetMessageHandler(handler MessageHandler) {
	messageHandler = handler
}

// Start starts the EventSub client
func Start() error {
	if isRunning {
		return nil
	}

	token, valid, err := twitchtoken.GetLatestToken()
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	if token.AccessToken == "" {
		return fmt.Errorf("no access token available")
	}

	// トークンの有効期限をチェック
	if !valid {
		logger.Info("Token expired or about to expire, refreshing...")
		if err := token.RefreshTwitchToken(); err != nil {
			return fmt.Errorf("failed to refresh token: %w", err)
		}
		token, _, err = twitchtoken.GetLatestToken()
		if err != nil {
			return fmt.Errorf("failed to get refreshed token: %w", err)
		}
		logger.Info("Token refreshed successfully")
	} else {
		// 期限が30分以内の場合も事前にリフレッシュ
		timeUntilExpiry := token.ExpiresAt - time.Now().Unix()
		if timeUntilExpiry <= 30*60 {
			logger.Info("Token expires in less than 30 minutes, refreshing proactively...",
				zap.Int64("seconds_until_expiry", timeUntilExpiry))
			if err := token.RefreshTwitchToken(); err != nil {
				logger.Warn("Failed to refresh token proactively", zap.Error(err))
			} else if token, _, err = twitchtoken.GetLatestToken(); err != nil {
				logger.Warn("Failed to get refreshed token", zap.Error(err))
			} else {
				logger.Info("Token refreshed proactively")
			}
		}
	}

	SetupEventSub(&token)

	if client != nil {
		go func() {
			logger.Info("Connecting to EventSub...")
			if err := client.Connect(); err != nil {
				logger.Error("Failed to connect EventSub", zap.Error(err))
				lastError = err
				isConnected = false
			}
		}()
		isRunning = true
	}

	return nil
}

// Stop stops the EventSub client
func Stop() {
	if client != nil && isRunning {
		client.Close()
		isRunning = false
		isConnected = false
	}
}

// IsConnected returns whether EventSub is connected
func IsConnected() bool {
	return isConnected
}

// GetLastError returns the last EventSub error
func GetLastError() error {
	return lastError
}

func SetupEventSub(token *twitchtoken.Token) {
	client = twitch.NewClient()

	client.OnError(func(err error) {
		logger.Error("EventSub error", zap.Error(err))
		lastError = err
		isConnected = false
	})
	client.OnWelcome(func(message twitch.WelcomeMessage) {
		logger.Info("EventSub connected successfully")
		isConnected = true
		lastError = nil

		logger.Info("Subscribing to EventSub event",
			zap.String("event", string(twitch.SubChannelChatMessage)))

		_, err := twitch.SubscribeEvent(twitch.SubscribeRequest{
			SessionID:   message.Payload.Session.ID,
			ClientID:    *env.Value.ClientID,
			AccessToken: token.AccessToken,
			Event:       twitch.SubChannelChatMessage,
			Condition: map[string]string{
				"broadcaster_user_id": *env.Value.BroadcasterUserID,
				"user_id":             *env.Value.BroadcasterUserID,
			},
		})
		if err != nil {
			logger.Error("Failed to subscribe to chat messages", zap.Error(err))
			lastError = err
			return
		}
		logger.Info("Successfully subscribed to chat messages")
	})
	client.OnNotification(func(message twitch.NotificationMessage) {
		switch message.Payload.Subscription.Type {

		case twitch.SubChannelChatMessage:
			var evt twitch.EventChannelChatMessage
			if err := json.Unmarshal(*message.Payload.Event, &evt); err != nil {
				logger.Error("Failed to parse channel chat message event", zap.Error(err))
			} else {
				HandleChannelChatMessage(evt)
			}

		default:
			logger.Debug("Unhandled EventSub notification",
				zap.String("type", string(message.Payload.Subscription.Type)))
		}
	})
	client.OnKeepAlive(func(message twitch.KeepAliveMessage) {
		isConnected = true
	})
	client.OnRevoke(func(message twitch.RevokeMessage) {
		logger.Warn("EventSub subscription revoked",
			zap.String("type", string(message.Payload.Subscription.Type)),
			zap.String("status", message.Payload.Subscription.Status))
	})

	// Connect処理はStart()関数で行うため、ここでは接続しない
}

// HandleChannelChatMessage forwards a chat line to the command router. The
// bot's own messages are dropped so replies never loop back as commands.
func HandleChannelChatMessage(message twitch.EventChannelChatMessage) {
	if env.Value.BotUserID != nil && message.Chatter.ChatterUserId == *env.Value.BotUserID {
		return
	}

	logger.Debug("Chat message received",
		zap.String("user", message.Chatter.ChatterUserName),
		zap.String("message", message.Message.Text))

	if messageHandler != nil {
		messageHandler(message.Chatter.ChatterUserName, message.Message.Text)
	}
}
