package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nantokaworks/twitch-giveaway/internal/chatbot"
	"github.com/nantokaworks/twitch-giveaway/internal/drawing"
	"github.com/nantokaworks/twitch-giveaway/internal/env"
	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/paths"
	"github.com/nantokaworks/twitch-giveaway/internal/twitchapi"
	"github.com/nantokaworks/twitch-giveaway/internal/twitcheventsub"
	"github.com/nantokaworks/twitch-giveaway/internal/version"
	"github.com/nantokaworks/twitch-giveaway/internal/webserver"
	"go.uber.org/zap"
)

func main() {
	logger.Init(false)
	defer logger.Sync()

	logger.Info("Starting twitch-giveaway server", zap.String("version", version.String()))

	if err := paths.EnsureDataDirs(); err != nil {
		logger.Fatal("Failed to ensure data directories", zap.Error(err))
	}

	if _, err := localdb.SetupDB(paths.GetDBPath()); err != nil {
		logger.Fatal("Failed to setup database", zap.Error(err))
	}

	// env.LoadEnv must run after DB initialization.
	env.LoadEnv()
	if env.Value.DebugMode {
		logger.Init(true)
		logger.Info("Debug mode enabled")
	}

	announcer := &twitchapi.ChatAnnouncer{}
	manager := drawing.NewManager(announcer, paths.GetRunLockPath())

	bot := chatbot.New(manager, announcer)
	twitcheventsub.SetMessageHandler(bot.HandleMessage)

	port := env.Value.ServerPort
	if port == 0 {
		port = 8080
	}

	if err := webserver.StartWebServer(port, manager); err != nil {
		logger.Fatal("Failed to start web server", zap.Error(err))
	}

	tokenRefreshDone := make(chan struct{})
	startTwitchBackground(tokenRefreshDone)

	logger.Info("Server started",
		zap.Int("port", port),
		zap.String("dashboard", fmt.Sprintf("http://localhost:%d/dashboard", port)))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")

	close(tokenRefreshDone)
	twitcheventsub.Stop()
	if giveaway, _, ok := manager.Current(); ok {
		if err := manager.Stop(giveaway.ID); err != nil {
			logger.Warn("Failed to stop drawing on shutdown", zap.Error(err))
		}
	}
	webserver.Shutdown()
	localdb.CloseDB()

	logger.Info("Shutdown complete")
}
