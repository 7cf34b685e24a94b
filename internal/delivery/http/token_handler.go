package http

import (
	"encoding/json"
	"net/http"

	"tradebot-backend/internal/domain"
)

// TokenHandler manages device token registration for push notifications
type TokenHandler struct {
	tokenRepo domain.DeviceTokenStore
}

func NewTokenHandler(tokenRepo domain.DeviceTokenStore) *TokenHandler {
	return &TokenHandler{
		tokenRepo: tokenRepo,
	}
}

type RegisterTokenRequest struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type TokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleRegisterToken handles POST /api/tokens/register
func (h *TokenHandler) HandleRegisterToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Token == "" {
		http.Error(w, "userId and token are required", http.StatusBadRequest)
		return
	}

	if req.Platform == "" {
		req.Platform = "android"
	}

	if err := h.tokenRepo.RegisterToken(req.UserID, req.Token, req.Platform); err != nil {
		http.Error(w, "Failed to register token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{
		Success: true,
		Message: "Token registered successfully",
	})
}

// HandleUnregisterToken handles POST /api/tokens/unregister
func (h *TokenHandler) HandleUnregisterToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}

	if err := h.tokenRepo.UnregisterToken(req.Token); err != nil {
		http.Error(w, "Failed to unregister token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{
		Success: true,
		Message: "Token unregistered successfully",
	})
}
