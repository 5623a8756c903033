package webserver

import (
	"errors"
	"net/http"

	"github.com/nantokaworks/twitch-giveaway/internal/drawing"
	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"go.uber.org/zap"
)

// handleStartGiveaway launches the drawing cycle for a giveaway. The manager
// enforces the one-drawing-at-a-time invariant, reclaiming stale markers left
// by dead processes.
func handleStartGiveaway(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r, "/giveaway/start/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := manager.Start(id); err != nil {
		switch {
		case errors.Is(err, drawing.ErrAlreadyRunning):
			http.Error(w, "A drawing is already running. Please wait for it to finish.", http.StatusBadRequest)
		case errors.Is(err, localdb.ErrNotFound):
			http.Error(w, "Giveaway not found.", http.StatusNotFound)
		default:
			logger.Error("Failed to start drawing", zap.Int64("giveaway_id", id), zap.Error(err))
			http.Error(w, "Failed to start the drawing.", http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// handleStopGiveaway terminates an active drawing run and clears its marker.
func handleStopGiveaway(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r, "/giveaway/stop/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := manager.Stop(id); err != nil {
		http.Error(w, "No running drawing found for this giveaway.", http.StatusNotFound)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}
