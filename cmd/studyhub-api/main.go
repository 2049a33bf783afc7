package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/mpavlov/studyhub-api/internal/config"
	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/handlers"
	authmw "github.com/mpavlov/studyhub-api/internal/middleware"
	"github.com/mpavlov/studyhub-api/internal/services"
	"github.com/mpavlov/studyhub-api/internal/sse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	hub := sse.NewHub()
	go hub.Run()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	userService := services.NewUserService(db)
	groupService := services.NewGroupService(db)
	emailService := services.NewEmailService(cfg.SMTP)
	notificationService := services.NewNotificationService(db, groupService, hub)
	sessionService := services.NewSessionService(db, groupService, notificationService)
	invitationService := services.NewInvitationService(db, userService, notificationService, emailService)
	participantService := services.NewParticipantService(db)
	reminderService := services.NewReminderService(db, notificationService, emailService)

	userHandler := handlers.NewUserHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService)
	sessionHandler := handlers.NewSessionHandler(sessionService, groupService, participantService)
	invitationHandler := handlers.NewInvitationHandler(invitationService, sessionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	sseHandler := handlers.NewSSEHandler(hub)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))

	protected.Post("/users/sync", userHandler.Sync)
	protected.Get("/users/me", userHandler.GetMe)

	protected.Post("/groups", groupHandler.Create)
	protected.Get("/groups", groupHandler.List)
	protected.Get("/groups/:id", groupHandler.Get)
	protected.Get("/groups/:id/members", groupHandler.GetMembers)
	protected.Post("/groups/:id/join", groupHandler.Join)
	protected.Post("/groups/:id/members/:userId/approve", groupHandler.ApproveMember)

	protected.Post("/groups/:id/sessions", sessionHandler.Create)
	protected.Get("/groups/:id/sessions", sessionHandler.ListByGroup)
	protected.Get("/sessions/mine", sessionHandler.ListMine)
	protected.Get("/sessions/:id", sessionHandler.Get)
	protected.Patch("/sessions/:id", sessionHandler.Update)
	protected.Post("/sessions/:id/archive", sessionHandler.Archive)
	protected.Delete("/sessions/:id", sessionHandler.Delete)

	protected.Get("/sessions/:id/participants", sessionHandler.ListParticipants)
	protected.Get("/sessions/:id/participants/count", sessionHandler.ParticipantCount)
	protected.Get("/sessions/:id/participants/me", sessionHandler.IsParticipant)

	protected.Post("/sessions/:id/invitations", invitationHandler.CreateForSession)
	protected.Get("/sessions/:id/invitations", invitationHandler.ListForSession)
	protected.Get("/invitations", invitationHandler.ListMine)
	protected.Get("/invitations/pending", invitationHandler.ListPending)
	protected.Post("/invitations/:id/accept", invitationHandler.Accept)
	protected.Post("/invitations/:id/decline", invitationHandler.Decline)
	protected.Post("/invitations/:id/rejoin", invitationHandler.Rejoin)

	protected.Get("/notifications", notificationHandler.List)
	protected.Get("/notifications/unread-count", notificationHandler.UnreadCount)
	protected.Post("/notifications/:id/read", notificationHandler.MarkRead)

	protected.Get("/events", sseHandler.Connect)

	go reminderService.Run(ctx, cfg.ReminderPollInterval)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
