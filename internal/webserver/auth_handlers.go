package webserver

import (
	"net/http"

	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/twitchapi"
	"github.com/nantokaworks/twitch-giveaway/internal/twitchtoken"
	"go.uber.org/zap"
)

// handleAuth redirects into the Twitch authorization flow.
func handleAuth(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, twitchtoken.GetAuthURL(), http.StatusFound)
}

// handleCallback completes the login: exchange the code, fetch the profile,
// upsert the user and open a session. Every upstream failure is a 400.
func handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Authorization failed: missing code", http.StatusBadRequest)
		return
	}

	token, err := twitchtoken.GetTwitchToken(code)
	if err != nil {
		logger.Error("Token exchange failed", zap.Error(err))
		http.Error(w, "Authorization failed due to Twitch API error", http.StatusBadRequest)
		return
	}

	profile, err := twitchapi.GetAuthenticatedUser(token.AccessToken)
	if err != nil {
		logger.Error("Profile fetch failed", zap.Error(err))
		http.Error(w, "Authorization failed: unable to fetch user data", http.StatusBadRequest)
		return
	}

	displayName := profile.DisplayName
	if displayName == "" {
		displayName = profile.Login
	}

	user, err := localdb.UpsertUser(profile.ID, displayName)
	if err != nil {
		logger.Error("Failed to upsert user on login", zap.Error(err))
		http.Error(w, "Authorization failed due to an unexpected error", http.StatusBadRequest)
		return
	}

	if err := startSession(w, user.ID); err != nil {
		logger.Error("Failed to open session", zap.Error(err))
		http.Error(w, "Authorization failed due to an unexpected error", http.StatusBadRequest)
		return
	}

	logger.Info("User logged in",
		zap.String("username", user.Username),
		zap.Int64("user_id", user.ID))

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}
