package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saaskit/internal/database"
	"saaskit/internal/router"
	"saaskit/internal/services"
	"saaskit/pkg/config"
	"saaskit/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Infof("Starting %s...", cfg.App.Name)

	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		if err := database.CloseMailQueue(); err != nil {
			appLogger.Error("Failed to close mail queue:", err)
		}
	}()

	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	registerPlans(cfg)

	if err := seedData(); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	gin.SetMode(cfg.Server.Mode)

	// Expire stale invitations on a schedule
	mailer := services.NewMailer(database.GetMailQueue(), cfg)
	notificationService := services.NewNotificationService(database.GetDB(), services.GetNotificationHub())
	invitationService := services.NewInvitationService(database.GetDB(), mailer, notificationService)
	invitationScheduler := services.NewInvitationScheduler(invitationService, cfg)
	if err := invitationScheduler.Start(); err != nil {
		appLogger.Errorf("Failed to start invitation scheduler: %v", err)
	}
	defer invitationScheduler.Stop()

	r := router.SetupRouter()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	if err := server.Close(); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}
