package env

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
)

// Value holds the loaded configuration. Optional credentials are pointers so
// "not configured" is distinguishable from empty.
var Value Values

type Values struct {
	ClientID          *string
	ClientSecret      *string
	BroadcasterUserID *string
	BotUserID         *string
	ChannelName       *string
	CallbackURL       string
	ServerPort        int
	DebugMode         bool
}

// LoadEnv reads .env (if present) and process environment into Value.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}

	Value = Values{
		ClientID:          optional("TWITCH_CLIENT_ID"),
		ClientSecret:      optional("TWITCH_CLIENT_SECRET"),
		BroadcasterUserID: optional("TWITCH_BROADCASTER_USER_ID"),
		BotUserID:         optional("TWITCH_BOT_USER_ID"),
		ChannelName:       optional("TWITCH_CHANNEL_NAME"),
		CallbackURL:       withDefault("TWITCH_CALLBACK_URL", "http://localhost:8080/auth/twitch/callback"),
		ServerPort:        intValue("SERVER_PORT", 8080),
		DebugMode:         os.Getenv("DEBUG_MODE") == "true",
	}
}

func optional(key string) *string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	return &v
}

func withDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intValue(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("Invalid integer in environment, using default")
		return fallback
	}
	return n
}
