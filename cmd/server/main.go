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

	"github.com/benbjohnson/clock"
	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/dukasmart/livechat/internal/config"
	"github.com/dukasmart/livechat/internal/domain"
	"github.com/dukasmart/livechat/internal/handlers"
	"github.com/dukasmart/livechat/internal/middleware"
	agentrepo "github.com/dukasmart/livechat/internal/repository/agent"
	conversationrepo "github.com/dukasmart/livechat/internal/repository/conversation"
	messagerepo "github.com/dukasmart/livechat/internal/repository/message"
	"github.com/dukasmart/livechat/internal/services"
	"github.com/dukasmart/livechat/internal/services/admin_services"
	"github.com/dukasmart/livechat/internal/services/agent_services"
	"github.com/dukasmart/livechat/internal/services/chat"
	"github.com/dukasmart/livechat/internal/services/presence"
	"github.com/dukasmart/livechat/internal/services/typing"
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

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	if err := db.AutoMigrate(&domain.Agent{}, &domain.Conversation{}, &domain.Message{}); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	logger := services.NewLogger("livechat")
	clk := clock.New()

	// --- Repositories ---
	agentRepo := agentrepo.NewAgentRepository(db)
	convRepo := conversationrepo.NewConversationRepository(db)
	msgRepo := messagerepo.NewMessageRepository(db)

	// --- Services ---
	chatService, err := chat.NewService(convRepo, msgRepo, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Chat Service: %v", err)
	}

	authService := agent_services.NewAuthService(agentRepo, cfg.JWTSecretKey, cfg.AdminEmail, logger)
	adminService := admin_services.NewAdminService(agentRepo, convRepo, msgRepo)
	typingHub := typing.NewHub()
	presenceTracker := presence.NewTracker(clk, cfg.PresenceOnline, cfg.PresenceAway)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService, cfg.IsProduction())
	chatHandler := handlers.NewChatHandler(chatService, typingHub, presenceTracker)
	agentHandler := handlers.NewAgentHandler(authService, chatService, typingHub, presenceTracker)
	adminHandler := handlers.NewAdminHandler(adminService, presenceTracker)
	eventsHandler := handlers.NewEventsHandler(chatService, typingHub, clk, cfg.PollInterval, logger)

	// --- Router Setup ---
	r := mux.NewRouter()
	authMiddleware := middleware.NewJWTMiddleware(authService)
	activeAgentMiddleware := middleware.RequireActiveAgent(agentRepo)
	adminMiddleware := middleware.RequireAdmin(agentRepo)

	r.Use(corsMiddleware)
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware)

	// --- Public Routes ---
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("OK")) }).Methods("GET")
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", authHandler.Logout).Methods("GET")

	// Widget routes. Conversations are addressed by their opaque token; no
	// authentication beyond possession of the token.
	r.HandleFunc("/api/chat/availability", chatHandler.Availability).Methods("GET")
	r.HandleFunc("/api/chat/conversations", chatHandler.StartConversation).Methods("POST")
	r.HandleFunc("/api/chat/conversations/{token}/messages", chatHandler.GetMessages).Methods("GET")
	r.HandleFunc("/api/chat/conversations/{token}/messages", chatHandler.SendMessage).Methods("POST")
	r.HandleFunc("/api/chat/conversations/{token}/typing", chatHandler.Typing).Methods("POST")
	r.HandleFunc("/api/chat/conversations/{token}/events", eventsHandler.StreamCustomerEvents).Methods("GET")

	// --- Agent Dashboard Routes ---
	agentAPI := r.PathPrefix("/api/agent").Subrouter()
	agentAPI.Use(authMiddleware)
	agentAPI.HandleFunc("/me", agentHandler.Me).Methods("GET")
	agentAPI.HandleFunc("/me", agentHandler.UpdateMe).Methods("PUT")

	dashboard := agentAPI.PathPrefix("").Subrouter()
	dashboard.Use(activeAgentMiddleware)
	dashboard.HandleFunc("/heartbeat", agentHandler.Heartbeat).Methods("POST")
	dashboard.HandleFunc("/conversations", agentHandler.ListConversations).Methods("GET")
	dashboard.HandleFunc("/conversations/{id:[0-9]+}/messages", agentHandler.GetConversationMessages).Methods("GET")
	dashboard.HandleFunc("/conversations/{id:[0-9]+}/messages", agentHandler.Reply).Methods("POST")
	dashboard.HandleFunc("/conversations/{id:[0-9]+}/claim", agentHandler.Claim).Methods("POST")
	dashboard.HandleFunc("/conversations/{id:[0-9]+}/close", agentHandler.Close).Methods("POST")
	dashboard.HandleFunc("/conversations/{id:[0-9]+}/typing", agentHandler.Typing).Methods("POST")
	dashboard.HandleFunc("/conversations/{id:[0-9]+}/events", eventsHandler.StreamAgentEvents).Methods("GET")

	// --- Admin Routes ---
	adminAPI := r.PathPrefix("/api/admin").Subrouter()
	adminAPI.Use(authMiddleware)
	adminAPI.Use(adminMiddleware)
	adminAPI.HandleFunc("/stats", adminHandler.GetStatsHandler).Methods("GET")
	adminAPI.HandleFunc("/agents", adminHandler.GetAllAgentsHandler).Methods("GET")
	adminAPI.HandleFunc("/agents/toggle", adminHandler.ToggleAgentHandler).Methods("POST")
	adminAPI.HandleFunc("/agents/export", adminHandler.ExportAgentsCSVHandler).Methods("GET")
	adminAPI.HandleFunc("/conversations/export", adminHandler.ExportConversationsXLSXHandler).Methods("GET")

	// --- Server Configuration ---
	port := ":8080"
	if cfg.ServerPort != "" {
		port = ":" + cfg.ServerPort
	}
	srv := &http.Server{
		Addr:    port,
		Handler: r,
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Live chat server starting on port %s", port)
	log.Printf("Poll interval: %s, presence windows: %s online / %s away",
		cfg.PollInterval, cfg.PresenceOnline, cfg.PresenceAway)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited cleanly.")
}
