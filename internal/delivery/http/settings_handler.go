package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tradebot-backend/internal/domain"
)

// SettingsHandler handles trading settings endpoints
type SettingsHandler struct {
	repo domain.SettingsStore
}

func NewSettingsHandler(repo domain.SettingsStore) *SettingsHandler {
	return &SettingsHandler{repo: repo}
}

// HandleSave handles POST /api/settings
func (h *SettingsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.TradingSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	req.Normalize()
	if err := h.repo.SaveSettings(&req); err != nil {
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Settings saved"})
}

// HandleGet handles GET /api/settings?userId=xxx
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	settings, err := h.repo.GetSettings(userID)
	if err != nil {
		if errors.Is(err, domain.ErrSettingsNotFound) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{"exists": false})
			return
		}
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}

	// The API token never leaves the server; report only its presence.
	hasToken := settings.DerivToken != ""
	settings.DerivToken = ""

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"exists":   true,
		"hasToken": hasToken,
		"settings": settings,
	})
}

// HandleDelete handles DELETE /api/settings?userId=xxx
func (h *SettingsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteSettings(userID); err != nil {
		http.Error(w, "Failed to delete settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Settings deleted"})
}
