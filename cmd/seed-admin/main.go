package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/datamatch-api/internal/repository"
	"github.com/noah-isme/datamatch-api/internal/service"
	"github.com/noah-isme/datamatch-api/pkg/config"
	"github.com/noah-isme/datamatch-api/pkg/database"
	"github.com/noah-isme/datamatch-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var (
		email    string
		username string
		password string
		timeout  time.Duration
	)
	flag.StringVar(&email, "email", cfg.Auth.AdminEmail, "Admin email (defaults to ADMIN_EMAIL)")
	flag.StringVar(&username, "username", "admin", "Admin username")
	flag.StringVar(&password, "password", cfg.Auth.AdminPassword, "Admin password (defaults to ADMIN_PASSWORD)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.DB); err != nil {
		logr.Fatal("failed to migrate database", zap.Error(err))
	}

	seeder := service.NewAdminSeeder(repository.NewUserRepository(db), logr)
	created, err := seeder.EnsureAdmin(ctx, email, username, password)
	if err != nil {
		logr.Fatal("failed to seed admin", zap.Error(err))
	}
	logr.Info("seed finished", zap.Bool("created", created))
}
