package twitchapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/nantokaworks/twitch-giveaway/internal/env"
	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/twitchtoken"
)

func setupAPITest(t *testing.T, handler http.HandlerFunc) {
	t.Helper()

	localdb.CloseDB()
	if _, err := localdb.SetupDB(filepath.Join(t.TempDir(), "giveaway.db")); err != nil {
		t.Fatalf("SetupDB failed: %v", err)
	}
	t.Cleanup(localdb.CloseDB)

	clientID := "test-client"
	broadcasterID := "12345"
	botID := "67890"
	channel := "testchannel"
	env.Value.ClientID = &clientID
	env.Value.BroadcasterUserID = &broadcasterID
	env.Value.BotUserID = &botID
	env.Value.ChannelName = &channel

	token := twitchtoken.Token{
		AccessToken:  "bot-access",
		RefreshToken: "bot-refresh",
		ExpiresAt:    time.Now().Unix() + 3600,
	}
	if err := token.SaveToken(); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	server := httptest.NewServer(handler)
	previous := helixBaseURL
	helixBaseURL = server.URL
	t.Cleanup(func() {
		helixBaseURL = previous
		server.Close()
	})
}

func TestGetAuthenticatedUser(t *testing.T) {
	setupAPITest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-access" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		fmt.Fprint(w, `{"data":[{"id":"111","login":"alice","display_name":"Alice","email":"alice@example.com"}]}`)
	})

	user, err := GetAuthenticatedUser("user-access")
	if err != nil {
		t.Fatalf("GetAuthenticatedUser failed: %v", err)
	}
	if user.ID != "111" || user.Login != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestGetAuthenticatedUser_EmptyProfile(t *testing.T) {
	setupAPITest(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	if _, err := GetAuthenticatedUser("user-access"); err == nil {
		t.Fatalf("expected error for empty profile data")
	}
}

func TestSendChatMessage(t *testing.T) {
	var received map[string]string
	setupAPITest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer bot-access" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		fmt.Fprint(w, `{"data":[{"message_id":"abc","is_sent":true}]}`)
	})

	if err := SendChatMessage("Giving away: Mug! Type !enter to participate."); err != nil {
		t.Fatalf("SendChatMessage failed: %v", err)
	}
	if received["broadcaster_id"] != "12345" {
		t.Fatalf("unexpected broadcaster_id: %q", received["broadcaster_id"])
	}
	if received["sender_id"] != "67890" {
		t.Fatalf("unexpected sender_id: %q", received["sender_id"])
	}
	if received["message"] == "" {
		t.Fatalf("message missing from request body")
	}
}

func TestSendChatMessage_APIFailure(t *testing.T) {
	setupAPITest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":"Forbidden","status":403,"message":"missing scope"}`)
	})

	if err := SendChatMessage("hello"); err == nil {
		t.Fatalf("expected error for rejected message")
	}
}

func TestChatAnnouncer_Channel(t *testing.T) {
	channel := "testchannel"
	env.Value.ChannelName = &channel

	announcer := ChatAnnouncer{}
	if got, ok := announcer.Channel(); !ok || got != "testchannel" {
		t.Fatalf("unexpected channel: got=%q ok=%v", got, ok)
	}

	env.Value.ChannelName = nil
	if _, ok := announcer.Channel(); ok {
		t.Fatalf("channel reported with no configuration")
	}
}
