package main

import (
	"time"

	"github.com/nantokaworks/twitch-giveaway/internal/env"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/twitcheventsub"
	"github.com/nantokaworks/twitch-giveaway/internal/twitchtoken"
	"go.uber.org/zap"
)

// refreshMargin is how long before expiry a token gets refreshed.
const refreshMargin = 30 * time.Minute

func startTwitchBackground(tokenRefreshDone <-chan struct{}) {
	if env.Value.ClientID == nil || env.Value.ClientSecret == nil {
		return
	}
	if *env.Value.ClientID == "" || *env.Value.ClientSecret == "" {
		return
	}

	token, isValid, err := twitchtoken.GetOrRefreshToken()
	if err != nil || !isValid || token.AccessToken == "" {
		logger.Info("No valid Twitch token yet, chat bot will start after login")
		return
	}

	logger.Info("Valid Twitch token found, starting EventSub and token refresh goroutine")

	go func() {
		if err := twitcheventsub.Start(); err != nil {
			logger.Error("Failed to start EventSub", zap.Error(err))
		}
	}()

	go refreshTokenPeriodically(tokenRefreshDone)
}

func sleepOrDone(done <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return false
	case <-timer.C:
		return true
	}
}

// refreshTokenPeriodically keeps the bot credential fresh: it sleeps until
// the token is within refreshMargin of expiry, refreshes it, and restarts
// EventSub so the websocket picks up the new token.
func refreshTokenPeriodically(done <-chan struct{}) {
	logger.Info("Starting token refresh goroutine")

	for {
		select {
		case <-done:
			logger.Info("Stopping token refresh goroutine")
			return
		default:
		}

		token, _, err := twitchtoken.GetLatestToken()
		if err != nil {
			if !sleepOrDone(done, time.Minute) {
				return
			}
			continue
		}

		untilExpiry := time.Until(time.Unix(token.ExpiresAt, 0))
		if untilExpiry > refreshMargin {
			sleepDuration := untilExpiry - refreshMargin
			if sleepDuration > time.Hour {
				sleepDuration = time.Hour
			}
			logger.Debug("Next token refresh check",
				zap.Duration("sleep_duration", sleepDuration))
			if !sleepOrDone(done, sleepDuration) {
				return
			}
			continue
		}

		logger.Info("Token near or past expiry, refreshing",
			zap.Duration("until_expiry", untilExpiry))
		if err := token.RefreshTwitchToken(); err != nil {
			logger.Error("Failed to refresh token", zap.Error(err))
			if !sleepOrDone(done, 5*time.Minute) {
				return
			}
			continue
		}

		logger.Info("Token refreshed successfully")
		restartEventSub()
	}
}

func restartEventSub() {
	twitcheventsub.Stop()
	time.Sleep(1 * time.Second)

	if err := twitcheventsub.Start(); err != nil {
		logger.Error("Failed to restart EventSub after token refresh", zap.Error(err))
		return
	}

	logger.Info("EventSub restarted with refreshed token")
}
