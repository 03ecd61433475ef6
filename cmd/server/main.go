// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/agrisaarthi/agrisaarthi/internal/config"
	"github.com/agrisaarthi/agrisaarthi/internal/domain"
	"github.com/agrisaarthi/agrisaarthi/internal/handlers"
	"github.com/agrisaarthi/agrisaarthi/internal/middleware"
	"github.com/agrisaarthi/agrisaarthi/internal/ratelimit"
	"github.com/agrisaarthi/agrisaarthi/internal/realtime"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/chat"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/clientstate"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/message"
	"github.com/agrisaarthi/agrisaarthi/internal/repository/user"
	"github.com/agrisaarthi/agrisaarthi/internal/services"
	"github.com/agrisaarthi/agrisaarthi/internal/services/bot"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg := config.Load()
	logger := services.NewLogger("agrisaarthi")

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.Chat{}, &domain.Message{}); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}
	if err := clientstate.Migrate(db); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	userRepo := user.NewUserRepository(db)
	chatRepo := chat.NewChatRepository(db)
	messageRepo := message.NewMessageRepository(db)
	stateRepo := clientstate.NewStateRepository(db)

	// --- Realtime ---
	broadcaster := realtime.NewBroadcaster()
	defer broadcaster.Close()

	// --- Services ---
	bridge, err := services.NewBhashiniService(cfg.BhashiniAPIKey, cfg.BhashiniBaseURL, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Bhashini service: %v", err)
	}

	// The LLM and retrieval collaborators are optional; without them the bot
	// answers from its keyword knowledge base.
	var completer bot.Completer
	var retriever bot.Retriever
	if cfg.AIAPIKey != "" {
		aiService := services.NewAIService(cfg.AIAPIKey, cfg.AIBaseURL, cfg.CompletionModel, cfg.EmbeddingModelName)
		completer = aiService

		if cfg.RetrievalEnabled() {
			pineconeService, err := services.NewPineconeService(cfg.PineconeAPIKey, cfg.PineconeIndexHost, cfg.PineconeNamespace, logger)
			if err != nil {
				log.Fatalf("FATAL: Failed to initialize Pinecone service: %v", err)
			}
			defer pineconeService.Close()
			retriever = services.NewKnowledgeRetriever(aiService, pineconeService, cfg.RetrievalTopK)
		}
	}

	botService, err := services.NewBotService(cfg.BotServiceURL, 15*time.Second, bridge, retriever, completer, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize bot service: %v", err)
	}
	bridge.SetAnswerer(botService)

	sessionService := services.NewSessionService(chatRepo, messageRepo, userRepo, broadcaster, logger)
	defer sessionService.Close()

	dispatchService := services.NewDispatchService(sessionService, chatRepo, messageRepo, userRepo, broadcaster, botService, logger)
	dispatchService.Start()
	defer dispatchService.Stop()

	userService := services.NewUserService(userRepo, stateRepo, cfg.JWTSecretKey, logger)
	weatherService := services.NewWeatherService(cfg.WeatherURL, stateRepo, logger)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(userService)
	chatHandler := handlers.NewChatHandler(sessionService, dispatchService)
	bhashiniHandler := handlers.NewBhashiniHandler(bridge)
	weatherHandler := handlers.NewWeatherHandler(weatherService)
	wsHandler := handlers.NewWSHandler(chatRepo, broadcaster)
	botHandler := handlers.NewBotHandler(botService, userService, dispatchService)

	// --- Router Setup ---
	r := mux.NewRouter()
	authMiddleware := middleware.NewJWTMiddleware([]byte(cfg.JWTSecretKey))

	authLimiter := ratelimit.NewMemoryRateLimiter(ratelimit.DefaultAuthConfig())
	defer authLimiter.Close()

	r.Use(corsMiddleware)
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware)

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	limited := middleware.RateLimitMiddleware(authLimiter, "auth")
	resetOnSuccess := middleware.AuthSuccessMiddleware(authLimiter, "auth")
	r.Handle("/api/auth/register", limited(resetOnSuccess(http.HandlerFunc(authHandler.Register)))).Methods("POST")
	r.Handle("/api/auth/login", limited(resetOnSuccess(http.HandlerFunc(authHandler.Login)))).Methods("POST")
	r.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("POST")
	r.HandleFunc("/api/auth/last-user", authHandler.LastUser).Methods("GET")

	r.HandleFunc("/bot/process-message", botHandler.ProcessMessage).Methods("POST")

	// --- Protected Routes ---
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)
	api.HandleFunc("/me", authHandler.Me).Methods("GET")
	api.HandleFunc("/me", authHandler.UpdateProfile).Methods("PUT")
	api.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")

	api.HandleFunc("/chats", chatHandler.ListThreads).Methods("GET")
	api.HandleFunc("/chats", chatHandler.StartThread).Methods("POST")
	api.HandleFunc("/chats/{id}/messages", chatHandler.GetMessages).Methods("GET")
	api.HandleFunc("/chats/{id}/messages", chatHandler.SendMessage).Methods("POST")
	api.HandleFunc("/chats/{id}/ws", wsHandler.MessageFeed).Methods("GET")

	api.HandleFunc("/bhashini/asr", bhashiniHandler.SpeechToText).Methods("POST")
	api.HandleFunc("/bhashini/translate", bhashiniHandler.Translate).Methods("POST")
	api.HandleFunc("/bhashini/tts", bhashiniHandler.TextToSpeech).Methods("POST")
	api.HandleFunc("/bhashini/ocr", bhashiniHandler.ExtractText).Methods("POST")
	api.HandleFunc("/bhashini/complete-flow", bhashiniHandler.CompleteVoiceFlow).Methods("POST")

	api.HandleFunc("/data/weather_advisory", weatherHandler.GetAdvisory).Methods("GET")
	api.HandleFunc("/data/weather_advisory/recent", weatherHandler.RecentLocations).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
