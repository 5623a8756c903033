package webserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/nantokaworks/twitch-giveaway/internal/localdb"
	"github.com/nantokaworks/twitch-giveaway/internal/shared/logger"
	"github.com/nantokaworks/twitch-giveaway/internal/types"
	"go.uber.org/zap"
)

// parsePathID extracts the trailing numeric ID from routes like
// /giveaway/edit/{id}.
func parsePathID(r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// isDrawing reports whether the given giveaway has an active drawing run.
// Item and field edits are rejected while the queue is being consumed.
func isDrawing(giveawayID int64) bool {
	if manager == nil {
		return false
	}
	current, _, ok := manager.Current()
	return ok && current.ID == giveawayID
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validateGiveawayForm checks the create/edit form fields. Returns the
// parsed numbers and an empty message, or a user-facing rejection message.
func validateGiveawayForm(title, frequencyRaw, thresholdRaw string) (int, int, string) {
	if title == "" {
		return 0, 0, "Invalid input: Title is required."
	}
	if !digitsOnly(frequencyRaw) || !digitsOnly(thresholdRaw) {
		return 0, 0, "Invalid input: Frequency and threshold must be valid numbers."
	}
	frequency, err := strconv.Atoi(frequencyRaw)
	if err != nil {
		return 0, 0, "Invalid input: Frequency and threshold must be valid numbers."
	}
	threshold, err := strconv.Atoi(thresholdRaw)
	if err != nil {
		return 0, 0, "Invalid input: Frequency and threshold must be valid numbers."
	}
	if frequency <= 0 || threshold < 0 || frequency > 1_000_000 {
		return 0, 0, "Invalid input: Frequency or threshold out of valid range."
	}
	if strings.ContainsAny(title, ";'") || strings.Contains(title, "--") {
		return 0, 0, "Invalid input detected. Special characters are not allowed."
	}
	if len(title) > 255 {
		return 0, 0, "Title exceeds the maximum length of 255 characters."
	}
	return frequency, threshold, ""
}

type dashboardData struct {
	User      *types.User
	Giveaways []types.Giveaway
	Winners   []localdb.WinnerSummary
}

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		redirectToLogin(w, r)
		return
	}

	giveaways, err := localdb.ListGiveawaysByCreator(user.ID)
	if err != nil {
		logger.Error("Failed to list giveaways", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	winners, err := localdb.ListWinnersByCreator(user.ID)
	if err != nil {
		logger.Error("Failed to list winners", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	renderTemplate(w, "dashboard.html", dashboardData{
		User:      user,
		Giveaways: giveaways,
		Winners:   winners,
	})
}

func handleListGiveaways(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		return
	}

	giveaways, err := localdb.ListGiveawaysByCreator(user.ID)
	if err != nil {
		logger.Error("Failed to list giveaways", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	lines := make([]string, len(giveaways))
	for i, g := range giveaways {
		lines[i] = fmt.Sprintf("ID: %d, Title: %s", g.ID, g.Title)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, strings.Join(lines, "<br>"))
}

func handleCreateGiveaway(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		redirectToLogin(w, r)
		return
	}

	if r.Method != http.MethodPost {
		renderTemplate(w, "create_giveaway.html", nil)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	frequencyRaw := strings.TrimSpace(r.FormValue("frequency"))
	thresholdRaw := strings.TrimSpace(r.FormValue("threshold"))

	frequency, threshold, msg := validateGiveawayForm(title, frequencyRaw, thresholdRaw)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	if _, err := localdb.CreateGiveaway(title, frequency, threshold, user.ID); err != nil {
		logger.Error("Failed to create giveaway", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

type editData struct {
	Giveaway *types.Giveaway
	Items    []types.Item
}

func handleEditGiveaway(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		redirectToLogin(w, r)
		return
	}

	id, ok := parsePathID(r, "/giveaway/edit/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	giveaway, err := localdb.GetGiveaway(id)
	if errors.Is(err, localdb.ErrNotFound) {
		http.Error(w, "Giveaway not found.", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to load giveaway", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if giveaway.CreatorID != user.ID {
		http.Error(w, "Unauthorized to edit this giveaway.", http.StatusForbidden)
		return
	}

	if r.Method != http.MethodPost {
		items, err := localdb.ListItemsByGiveaway(id)
		if err != nil {
			logger.Error("Failed to list items", zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		renderTemplate(w, "edit_giveaway.html", editData{Giveaway: giveaway, Items: items})
		return
	}

	if isDrawing(id) {
		http.Error(w, "Giveaway is currently drawing and cannot be edited.", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	frequencyRaw := strings.TrimSpace(r.FormValue("frequency"))
	thresholdRaw := strings.TrimSpace(r.FormValue("threshold"))
	if title == "" || !digitsOnly(frequencyRaw) || !digitsOnly(thresholdRaw) {
		http.Error(w, "Invalid input. Ensure all fields are filled correctly.", http.StatusBadRequest)
		return
	}
	frequency, _ := strconv.Atoi(frequencyRaw)
	threshold, _ := strconv.Atoi(thresholdRaw)

	if err := localdb.UpdateGiveaway(id, title, frequency, threshold); err != nil {
		logger.Error("Failed to update giveaway", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func handleViewGiveaway(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePathID(r, "/giveaway/view/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	giveaway, err := localdb.GetGiveaway(id)
	if errors.Is(err, localdb.ErrNotFound) {
		http.Error(w, "Giveaway not found.", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to load giveaway", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !giveaway.Active {
		http.Error(w, "This giveaway is no longer active.", http.StatusBadRequest)
		return
	}

	items, err := localdb.ListItemsByGiveaway(id)
	if err != nil {
		logger.Error("Failed to list items", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	renderTemplate(w, "view_giveaway.html", editData{Giveaway: giveaway, Items: items})
}

func handleAddItem(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		redirectToLogin(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, ok := parsePathID(r, "/giveaway/add-item/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	code := strings.TrimSpace(r.FormValue("code"))
	if name == "" {
		http.Error(w, "Item name is required.", http.StatusBadRequest)
		return
	}
	if code == "" {
		http.Error(w, "Item code is required.", http.StatusBadRequest)
		return
	}

	if _, err := localdb.GetGiveaway(id); err != nil {
		if errors.Is(err, localdb.ErrNotFound) {
			http.Error(w, "Giveaway not found.", http.StatusNotFound)
			return
		}
		logger.Error("Failed to load giveaway", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if isDrawing(id) {
		http.Error(w, "Giveaway is currently drawing and cannot be edited.", http.StatusBadRequest)
		return
	}

	if _, err := localdb.AddItem(id, name, code); err != nil {
		logger.Error("Failed to add item", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/giveaway/edit/%d", id), http.StatusFound)
}

func handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		redirectToLogin(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	itemID, ok := parsePathID(r, "/giveaway/remove-item/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	item, err := localdb.GetItem(itemID)
	if errors.Is(err, localdb.ErrNotFound) {
		http.Error(w, "Item not found or permission denied.", http.StatusForbidden)
		return
	}
	if err != nil {
		logger.Error("Failed to load item", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if item.GiveawayID == nil {
		http.Error(w, "Item not found or permission denied.", http.StatusForbidden)
		return
	}

	giveaway, err := localdb.GetGiveaway(*item.GiveawayID)
	if err != nil || giveaway.CreatorID != user.ID {
		http.Error(w, "Item not found or permission denied.", http.StatusForbidden)
		return
	}

	if isDrawing(giveaway.ID) {
		http.Error(w, "Giveaway is currently drawing and cannot be edited.", http.StatusBadRequest)
		return
	}

	if err := localdb.DeleteItem(itemID); err != nil {
		// Awarded items are never removable.
		if errors.Is(err, localdb.ErrNotFound) {
			http.Error(w, "Item not found or permission denied.", http.StatusForbidden)
			return
		}
		logger.Error("Failed to remove item", zap.Error(err))
		http.Error(w, "An error occurred while trying to remove the item.", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/giveaway/edit/%d", giveaway.ID), http.StatusFound)
}

func handleDeleteGiveaway(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		redirectToLogin(w, r)
		return
	}

	id, ok := parsePathID(r, "/giveaway/delete/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	giveaway, err := localdb.GetGiveaway(id)
	if errors.Is(err, localdb.ErrNotFound) || (err == nil && giveaway.CreatorID != user.ID) {
		http.Error(w, "Giveaway not found or you do not have permission to delete it.", http.StatusForbidden)
		return
	}
	if err != nil {
		logger.Error("Failed to load giveaway", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if isDrawing(id) {
		http.Error(w, "Giveaway is currently drawing and cannot be deleted.", http.StatusBadRequest)
		return
	}

	if err := localdb.DeleteGiveaway(id); err != nil {
		logger.Error("Failed to delete giveaway", zap.Error(err))
		http.Error(w, "Failed to delete giveaway due to database constraints.", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

type winningsData struct {
	User     *types.User
	Winnings []types.Item
}

func handleWinnings(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		redirectToLogin(w, r)
		return
	}

	winnings, err := localdb.ListWonItemsByUsername(user.Username)
	if err != nil {
		logger.Error("Failed to list winnings", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	renderTemplate(w, "winnings.html", winningsData{User: user, Winnings: winnings})
}
