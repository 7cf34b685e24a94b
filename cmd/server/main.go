package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	httpdelivery "tradebot-backend/internal/delivery/http"
	"tradebot-backend/internal/delivery/websocket"
	"tradebot-backend/internal/domain"
	"tradebot-backend/internal/infrastructure/db"
	"tradebot-backend/internal/infrastructure/deriv"
	"tradebot-backend/internal/infrastructure/fcm"
	"tradebot-backend/internal/repository"
	"tradebot-backend/internal/usecase"
)

func main() {
	ctx := context.Background()

	// 1. Initialize Repositories (Postgres when DATABASE_URL is set)
	var settingsRepo domain.SettingsStore
	var historyRepo domain.TradeHistoryStore
	var tokenRepo domain.DeviceTokenStore

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pool, err := db.NewPool(ctx, databaseURL, db.PoolConfigFromEnv())
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("migration failed: %v", err)
		}

		encryptionKey := os.Getenv("ENCRYPTION_KEY")
		if encryptionKey == "" {
			log.Fatal("ENCRYPTION_KEY is required when DATABASE_URL is set")
		}
		settingsRepo = repository.NewPostgresSettingsRepository(pool, encryptionKey)
		historyRepo = repository.NewPostgresTradeHistoryRepository(pool)
		tokenRepo = repository.NewPostgresTokenRepository(pool)
		log.Println("Using Postgres persistence")
	} else {
		settingsRepo = repository.NewInMemSettingsRepository()
		historyRepo = repository.NewInMemTradeHistoryRepository()
		tokenRepo = repository.NewTokenRepository()
		log.Println("DATABASE_URL not set, using in-memory persistence")
	}

	// 2. Initialize Notifiers
	hub := websocket.NewHub()

	fcmClient, err := fcm.NewClient()
	if err != nil {
		log.Fatalf("FCM initialization failed: %v", err)
	}

	notifier := usecase.MultiNotifier{hub, usecase.NewPushNotifier(fcmClient, tokenRepo)}

	// 3. Initialize Session Registry
	registry := usecase.NewRegistry(derivURL(), notifier, settingsRepo, historyRepo)

	// 4. Initialize Delivery
	botHandler := httpdelivery.NewBotHandler(registry)
	settingsHandler := httpdelivery.NewSettingsHandler(settingsRepo)
	historyHandler := httpdelivery.NewHistoryHandler(historyRepo)
	tokenHandler := httpdelivery.NewTokenHandler(tokenRepo)

	http.HandleFunc("/ws", hub.Handle)
	http.HandleFunc("/api/bot/start", botHandler.HandleStart)
	http.HandleFunc("/api/bot/stop", botHandler.HandleStop)
	http.HandleFunc("/api/bot/status", botHandler.HandleStatus)
	http.HandleFunc("/api/bot/strategies", botHandler.HandleStrategies)
	http.HandleFunc("/api/settings", settingsRoute(settingsHandler))
	http.HandleFunc("/api/history", historyHandler.HandleGet)
	http.HandleFunc("/api/tokens/register", tokenHandler.HandleRegisterToken)
	http.HandleFunc("/api/tokens/unregister", tokenHandler.HandleUnregisterToken)

	// 5. Stop sessions cleanly on shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Println("Shutting down, stopping all sessions...")
		registry.StopAll()
		os.Exit(0)
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("Server executing on :" + port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func derivURL() string {
	base := os.Getenv("DERIV_WS_URL")
	if base == "" {
		base = deriv.DefaultURL
	}
	appID := 1089
	if v := os.Getenv("DERIV_APP_ID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			appID = n
		}
	}
	return deriv.URL(base, appID)
}

func settingsRoute(h *httpdelivery.SettingsHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.HandleGet(w, r)
		case http.MethodPost:
			h.HandleSave(w, r)
		case http.MethodDelete:
			h.HandleDelete(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
