// Package webserver serves the creator dashboard: login, giveaway CRUD,
// drawing start/stop and the live-update websocket.
package webserver

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/nantokaworks/twitch-giveaway/internal/broadcast"
	"github.com/nantokaworks/twitch-giveaway/internal/drawing"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	httpServer *http.Server
	templates  *template.Template
	manager    *drawing.Manager
)

// webSocketBroadcaster implements the MessageBroadcaster interface using WebSocket
type webSocketBroadcaster struct{}

func (w *webSocketBroadcaster) BroadcastMessage(msgType string, data interface{}) {
	BroadcastWSMessage(msgType, data)
}

// newHandler wires templates, the shared drawing manager and all routes.
// Split from StartWebServer so handler tests can serve it directly.
func newHandler(drawManager *drawing.Manager) (http.Handler, error) {
	manager = drawManager

	parsed, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	templates = parsed

	// Register WebSocket broadcaster
	broadcast.SetBroadcaster(&webSocketBroadcaster{})

	mux := http.NewServeMux()

	mux.HandleFunc("/", handleHome)

	// OAuth endpoints
	mux.HandleFunc("/auth/twitch", handleAuth)
	mux.HandleFunc("/auth/twitch/callback", handleCallback)

	// Dashboard and giveaway endpoints
	mux.HandleFunc("/dashboard", handleDashboard)
	mux.HandleFunc("/giveaways", handleListGiveaways)
	mux.HandleFunc("/giveaway/create", handleCreateGiveaway)
	mux.HandleFunc("/giveaway/edit/", handleEditGiveaway)
	mux.HandleFunc("/giveaway/view/", handleViewGiveaway)
	mux.HandleFunc("/giveaway/add-item/", handleAddItem)
	mux.HandleFunc("/giveaway/remove-item/", handleRemoveItem)
	mux.HandleFunc("/giveaway/delete/", handleDeleteGiveaway)
	mux.HandleFunc("/giveaway/start/", handleStartGiveaway)
	mux.HandleFunc("/giveaway/stop/", handleStopGiveaway)
	mux.HandleFunc("/winnings", handleWinnings)

	// WebSocket endpoint for dashboard live updates
	RegisterWebSocketRoute(mux)

	return mux, nil
}

// StartWebServer starts the dashboard server. The drawing manager is shared
// with the chat surface so both see the same single run.
func StartWebServer(port int, drawManager *drawing.Manager) error {
	handler, err := newHandler(drawManager)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", port)
	logger.Info("Starting web server", zap.String("address", addr))

	httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine and wait briefly to check for immediate errors
	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			logger.Error("Failed to start web server", zap.Error(err))
			return fmt.Errorf("failed to start web server on port %d: %w", port, err)
		}
	case <-time.After(100 * time.Millisecond):
		// Server started successfully
	}

	return nil
}

// Shutdown gracefully shuts down the web server
func Shutdown() {
	if httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown web server gracefully", zap.Error(err))
	} else {
		logger.Info("Web server shutdown complete")
	}
}

// renderTemplate writes an HTML page; template faults become a 500.
func renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("Failed to render template",
			zap.String("template", name),
			zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	renderTemplate(w, "home.html", nil)
}
