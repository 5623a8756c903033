// Package twitchtoken manages the OAuth token the bot acts with: the
// authorization-code exchange at login, persistence, and refresh before
// expiry. The web login flow and the chat transport both draw from here.
package twitchtoken

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nantokaworks/twitch-giveaway/internal/env"
	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
)

var scopes = []string{
	"user:read:chat",
	"user:write:chat",
	"user:read:email",
	"chat:read",
	"chat:edit",
}

// oauthTokenURL is a var so tests can point the exchange at a local server.
var oauthTokenURL = "https://id.twitch.tv/oauth2/token"

// Token is the bot's OAuth credential. ExpiresAt is a Unix timestamp.
type Token struct {
	AccessToken  string
	RefreshToken string
	Scope        string
	ExpiresAt    int64
}

// SaveToken persists the token as the single stored credential.
func (t *Token) SaveToken() error {
	return localdb.SaveToken(localdb.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Scope:        t.Scope,
		ExpiresAt:    t.ExpiresAt,
	})
}

// GetLatestToken loads the stored token. The bool reports whether it is
// still valid (not yet expired).
func GetLatestToken() (Token, bool, error) {
	stored, err := localdb.GetToken()
	if err != nil {
		return Token{}, false, err
	}

	token := Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		Scope:        stored.Scope,
		ExpiresAt:    stored.ExpiresAt,
	}
	return token, token.ExpiresAt > time.Now().Unix(), nil
}

// GetOrRefreshToken は有効なトークンを取得するか、無効な場合はリフレッシュを試みます
// 戻り値: (token, isValid, error)
func GetOrRefreshToken() (Token, bool, error) {
	token, isValid, err := GetLatestToken()
	if err != nil {
		return Token{}, false, err
	}

	if isValid {
		return token, true, nil
	}

	if token.RefreshToken == "" {
		// 再認証が必要
		return token, false, nil
	}

	if err := token.RefreshTwitchToken(); err != nil {
		return token, false, err
	}

	return GetLatestToken()
}

// GetTwitchToken exchanges an authorization code for a token and persists it.
func GetTwitchToken(code string) (Token, error) {
	clientID := ""
	if env.Value.ClientID != nil {
		clientID = *env.Value.ClientID
	}
	clientSecret := ""
	if env.Value.ClientSecret != nil {
		clientSecret = *env.Value.ClientSecret
	}

	resp, err := http.PostForm(oauthTokenURL, url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {env.Value.CallbackURL},
	})
	if err != nil {
		return Token{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var result struct {
		AccessToken      string   `json:"access_token"`
		RefreshToken     string   `json:"refresh_token"`
		ExpiresIn        int64    `json:"expires_in"`
		Scope            []string `json:"scope"`
		Error            string   `json:"error"`
		ErrorDescription string   `json:"error_description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return Token{}, fmt.Errorf("failed to parse response: %w, body: %s", err, string(body))
	}

	if result.Error != "" {
		return Token{}, fmt.Errorf("Twitch API error: %s, description: %s", result.Error, result.ErrorDescription)
	}
	if result.AccessToken == "" {
		return Token{}, fmt.Errorf("access_token not found in response, body: %s", string(body))
	}

	token := Token{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		Scope:        strings.Join(result.Scope, " "),
		ExpiresAt:    time.Now().Unix() + result.ExpiresIn,
	}
	if err := token.SaveToken(); err != nil {
		return Token{}, fmt.Errorf("failed to save token: %w", err)
	}
	return token, nil
}

// RefreshTwitchToken exchanges the refresh token for a new credential and
// persists the result.
func (t *Token) RefreshTwitchToken() error {
	clientID := ""
	if env.Value.ClientID != nil {
		clientID = *env.Value.ClientID
	}
	clientSecret := ""
	if env.Value.ClientSecret != nil {
		clientSecret = *env.Value.ClientSecret
	}

	resp, err := http.PostForm(oauthTokenURL, url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"refresh_token": {t.RefreshToken},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken  string   `json:"access_token"`
		RefreshToken string   `json:"refresh_token"`
		ExpiresIn    int64    `json:"expires_in"`
		Scope        []string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	if result.AccessToken == "" {
		return errors.New("access_token not found in response")
	}
	if result.RefreshToken == "" {
		return errors.New("refresh_token not found in response")
	}
	if result.ExpiresIn == 0 {
		return errors.New("expires_in not found in response")
	}

	t.AccessToken = result.AccessToken
	t.RefreshToken = result.RefreshToken
	t.Scope = strings.Join(result.Scope, " ")
	t.ExpiresAt = time.Now().Unix() + result.ExpiresIn
	return t.SaveToken()
}

// GetAuthURL builds the authorization redirect for the login flow.
func GetAuthURL() string {
	clientID := ""
	if env.Value.ClientID != nil {
		clientID = *env.Value.ClientID
	}
	return fmt.Sprintf(
		"https://id.twitch.tv/oauth2/authorize?response_type=code&client_id=%s&redirect_uri=%s&scope=%s",
		url.QueryEscape(clientID),
		url.QueryEscape(env.Value.CallbackURL),
		url.QueryEscape(strings.Join(scopes, " ")),
	)
}
