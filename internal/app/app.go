// Package app holds the dependencies shared by every request handler.
package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ErnestWetherell/microcanvas-m1/config"
	"github.com/ErnestWetherell/microcanvas-m1/internal/middleware"
	"github.com/ErnestWetherell/microcanvas-m1/internal/services"
	"github.com/ErnestWetherell/microcanvas-m1/internal/store"
)

// GradeExporter receives every grade an instructor saves.
type GradeExporter interface {
	AppendGrade(ctx context.Context, row services.GradeRow) (int, error)
}

type App struct {
	Config   *config.Config
	Store    *store.Store
	Log      *logrus.Logger
	Sessions middleware.Sessions

	// Optional integrations; nil when not configured.
	Gitea  *services.GiteaAuth
	Grades GradeExporter
}

func New(cfg *config.Config, st *store.Store, log *logrus.Logger) *App {
	return &App{
		Config: cfg,
		Store:  st,
		Log:    log,
		Sessions: middleware.Sessions{
			Secret: []byte(cfg.SessionSecret),
			TTL:    cfg.SessionTTL,
			Secure: cfg.SecureCookies,
		},
	}
}
