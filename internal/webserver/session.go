package webserver

import (
	"errors"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
	"go.uber.org/zap"
)

const sessionCookieName = "session_token"

// startSession issues a fresh opaque token for the user and sets the cookie.
func startSession(w http.ResponseWriter, userID int64) error {
	token, err := gonanoid.New(32)
	if err != nil {
		return err
	}
	if err := localdb.CreateSession(token, userID); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// currentUser resolves the request's session cookie to a user, or nil when
// unauthenticated.
func currentUser(r *http.Request) *types.User {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}

	user, err := localdb.GetSessionUser(cookie.Value)
	if err != nil {
		if !errors.Is(err, localdb.ErrNotFound) {
			logger.Error("Failed to resolve session", zap.Error(err))
		}
		return nil
	}
	return user
}

// redirectToLogin sends an unauthenticated request into the OAuth flow.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/auth/twitch", http.StatusFound)
}
