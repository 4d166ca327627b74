package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/calendar-suite/internal/auth"
	"github.com/iliyamo/calendar-suite/internal/config"
	"github.com/iliyamo/calendar-suite/internal/database"
	"github.com/iliyamo/calendar-suite/internal/handler"
	"github.com/iliyamo/calendar-suite/internal/provider"
	"github.com/iliyamo/calendar-suite/internal/repository"
	"github.com/iliyamo/calendar-suite/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: sessions and auth flows will fail, rate limiting disabled")
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	sessions := auth.NewSessionRegistry(rdb)
	blacklist := auth.NewBlacklist(rdb)

	users := repository.NewUserRepo(db)
	calendars := repository.NewCalendarRepo(db)
	events := repository.NewEventRepo(db)
	tasks := repository.NewTaskRepo(db)
	stats := repository.NewStatsRepo(db)

	authHandler := &handler.AuthHandler{
		Users:      users,
		Tokens:     tokens,
		Sessions:   sessions,
		Blacklist:  blacklist,
		BcryptCost: cfg.BcryptCost,
	}

	// Social providers come up only when configured; their endpoints
	// answer 503 otherwise.  Discovery needs the network, so failures are
	// fatal only for misconfiguration, not absence.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if cfg.FirebaseProjectID != "" {
		fb, err := provider.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID)
		if err != nil {
			log.Fatalf("firebase provider setup failed: %v", err)
		}
		authHandler.Firebase = fb
	}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		g, err := provider.NewGoogleOAuth(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		if err != nil {
			log.Fatalf("google provider setup failed: %v", err)
		}
		authHandler.Google = g
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		Cfg:       cfg,
		Redis:     rdb,
		Tokens:    tokens,
		Blacklist: blacklist,
		Users:     users,
		Auth:      authHandler,
		User:      &handler.UserHandler{Users: users},
		Admin:     &handler.AdminHandler{Users: users},
		Calendars: &handler.CalendarHandler{Calendars: calendars},
		Events:    &handler.EventHandler{Events: events, Calendars: calendars},
		Tasks:     &handler.TaskHandler{Tasks: tasks, Calendars: calendars},
		Stats:     &handler.StatsHandler{Stats: stats},
	})

	log.Printf("starting server on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
