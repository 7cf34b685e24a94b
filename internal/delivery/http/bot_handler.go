package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/strategy"
	"tradebot-backend/internal/usecase"
)

// BotHandler handles session control endpoints
type BotHandler struct {
	registry *usecase.Registry
}

func NewBotHandler(registry *usecase.Registry) *BotHandler {
	return &BotHandler{registry: registry}
}

// HandleStart handles POST /api/bot/start
func (h *BotHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
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

	// The session outlives this request, so it must not inherit its context.
	if err := h.registry.Start(context.Background(), req.UserID, req); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrAlreadyRunning):
			status = http.StatusConflict
		case errors.Is(err, domain.ErrMissingToken):
			status = http.StatusBadRequest
		}
		log.Printf("start for user %s rejected: %v", req.UserID, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Bot started"})
}

// HandleStop handles POST /api/bot/stop
func (h *BotHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	if err := h.registry.Stop(req.UserID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNotRunning) {
			status = http.StatusConflict
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Bot stopped"})
}

// HandleStatus handles GET /api/bot/status?userId=xxx
func (h *BotHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	running, stats := h.registry.Status(userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"running": running,
		"stats":   stats,
	})
}

// HandleStrategies handles GET /api/bot/strategies
func (h *BotHandler) HandleStrategies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"strategies": strategy.Names(),
	})
}
