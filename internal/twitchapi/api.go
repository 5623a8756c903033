// Package twitchapi wraps the Helix endpoints the giveaway bot needs:
// profile lookup during login and chat message delivery for announcements.
package twitchapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nantokaworks/twitch-giveaway/internal/env"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/twitchtoken"
	"go.uber.org/zap"
)

// helixBaseURL is a var so tests can point requests at a local server.
var helixBaseURL = "https://api.twitch.tv/helix"

var httpClient = &http.Client{Timeout: 10 * time.Second}

// makeAuthenticatedRequest performs a Helix request with the bot's stored
// token, refreshing it first when expired.
func makeAuthenticatedRequest(method, reqURL string, body []byte) (*http.Response, error) {
	token, valid, err := twitchtoken.GetOrRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if !valid {
		return nil, fmt.Errorf("no valid access token, re-authentication required")
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if env.Value.ClientID != nil {
		req.Header.Set("Client-Id", *env.Value.ClientID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return httpClient.Do(req)
}

// TwitchUser is the profile returned by the users endpoint.
type TwitchUser struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// GetAuthenticatedUser fetches the profile of the user the access token
// belongs to. Used by the login callback, so it takes the freshly exchanged
// token rather than the bot's stored one.
func GetAuthenticatedUser(accessToken string) (*TwitchUser, error) {
	req, err := http.NewRequest("GET", helixBaseURL+"/users", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if env.Value.ClientID != nil {
		req.Header.Set("Client-Id", *env.Value.ClientID)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Data []TwitchUser `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("user not found")
	}

	user := result.Data[0]
	if user.Login == "" {
		return nil, fmt.Errorf("profile data missing login")
	}

	logger.Debug("Fetched authenticated user",
		zap.String("login", user.Login),
		zap.String("id", user.ID))

	return &user, nil
}
