package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"tradebot-backend/internal/domain"
)

// HistoryHandler serves closed trade history
type HistoryHandler struct {
	repo domain.TradeHistoryStore
}

func NewHistoryHandler(repo domain.TradeHistoryStore) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

// HandleGet handles GET /api/history?userId=xxx&hours=24
func (h *HistoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	hours := 24
	if v := r.URL.Query().Get("hours"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	from := time.Now().Add(-time.Duration(hours) * time.Hour)
	records, err := h.repo.GetHistory(userID, from)
	if err != nil {
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":  len(records),
		"trades": records,
	})
}
