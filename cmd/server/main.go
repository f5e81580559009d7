package main

import (
	"context"
	"log"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/ErnestWetherell/microcanvas-m1/config"
	"github.com/ErnestWetherell/microcanvas-m1/internal/app"
	"github.com/ErnestWetherell/microcanvas-m1/internal/database"
	"github.com/ErnestWetherell/microcanvas-m1/internal/logger"
	"github.com/ErnestWetherell/microcanvas-m1/internal/server"
	"github.com/ErnestWetherell/microcanvas-m1/internal/services"
	"github.com/ErnestWetherell/microcanvas-m1/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logg, err := logger.New(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to set up logging:", err)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logg.WithError(err).Warn("sentry disabled")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.IsProduction())
	if err != nil {
		logg.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logg.WithError(err).Fatal("Failed to migrate database")
	}

	a := app.New(cfg, store.New(db), logg)

	if cfg.GiteaEnabled() {
		a.Gitea = services.NewGiteaAuth(cfg.GiteaURL, cfg.GiteaClientID, cfg.GiteaClientSecret, cfg.GiteaRedirectURL)
		logg.WithField("url", cfg.GiteaURL).Info("Gitea sign-in enabled")
	}

	if cfg.SheetsEnabled() {
		grades, err := services.NewSheetsGradebookFromFile(context.Background(), cfg.GoogleCredentials, cfg.GoogleSheetID)
		if err != nil {
			logg.WithError(err).Warn("Failed to initialize Google Sheets gradebook")
		} else {
			a.Grades = grades
			logg.Info("Google Sheets gradebook initialized")
		}
	}

	e, err := server.New(a)
	if err != nil {
		logg.WithError(err).Fatal("Failed to build server")
	}

	logg.WithField("port", cfg.Port).Info("Server starting")
	if err := e.Start(":" + cfg.Port); err != nil {
		logg.WithError(err).Error("Server stopped")
	}
}
