package main

import (
	"context"
	"log"

	"github.com/mpavlov/studyhub-api/internal/config"
	"github.com/mpavlov/studyhub-api/internal/database"
	"github.com/mpavlov/studyhub-api/internal/services"
)

// remind-now runs a single reminder sweep and exits. Useful for catching up
// after downtime or for inspecting dispatcher behavior in a staging
// environment; the sweep is idempotent against the regular ticker.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	groupService := services.NewGroupService(db)
	emailService := services.NewEmailService(cfg.SMTP)
	notificationService := services.NewNotificationService(db, groupService, nil)
	reminderService := services.NewReminderService(db, notificationService, emailService)

	if err := reminderService.RunTick(ctx); err != nil {
		log.Fatalf("Reminder sweep failed: %v", err)
	}

	log.Println("Reminder sweep completed")
}
