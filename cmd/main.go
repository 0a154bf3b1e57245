package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtoyanMikhail/auth/internal/account"
	"github.com/AtoyanMikhail/auth/internal/api"
	"github.com/AtoyanMikhail/auth/internal/cache"
	"github.com/AtoyanMikhail/auth/internal/config"
	"github.com/AtoyanMikhail/auth/internal/logger"
	"github.com/AtoyanMikhail/auth/internal/password"
	"github.com/AtoyanMikhail/auth/internal/repository"
	"github.com/AtoyanMikhail/auth/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err.Error())
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal(err.Error())
	}
	l := logger.New(level, os.Stdout)
	defer l.Sync()

	db, err := repository.Open(cfg.Database.DSN())
	if err != nil {
		l.Fatal("Failed to connect to database", logger.Error(err))
	}
	defer db.Close()

	if err := repository.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
		l.Fatal("Failed to apply migrations", logger.Error(err))
	}

	accessTTL, refreshTTL := cfg.JWT.TTLs()
	opts := []session.Option{}

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(context.Background(), cfg.Redis, l.Named("redis"))
		if err != nil {
			l.Fatal("Failed to connect to Redis", logger.Error(err))
		}
		defer redisCache.Close()
		opts = append(opts, session.WithRevocationCache(cache.NewRevocationCache(redisCache, l.Named("revocations"))))
	}

	sessions, err := session.NewManager(session.Config{
		AccessSecret:  cfg.JWT.AccessSecret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}, repository.NewCredentialRepository(db, l.Named("credentials")), l.Named("session"), opts...)
	if err != nil {
		l.Fatal("Invalid session configuration", logger.Error(err))
	}

	accounts := account.NewService(
		repository.NewUserRepository(db, l.Named("users")),
		sessions,
		password.NewBcrypt(cfg.Password.Cost),
		l.Named("account"),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(api.NewHandler(accounts, sessions, cfg.Server.SecureCookies, l.Named("http"))),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if every := time.Duration(cfg.JWT.CleanupInterval); every > 0 {
		go purgeExpired(ctx, sessions, every, l)
	}

	go func() {
		l.Info("Server started", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Server error", logger.Error(err))
		}
	}()

	<-ctx.Done()
	l.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("Graceful shutdown failed", logger.Error(err))
	}
}

func purgeExpired(ctx context.Context, sessions *session.Manager, every time.Duration, l logger.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				l.Warn("Failed to purge expired sessions", logger.Error(err))
				continue
			}
			l.Debug("Expired sessions purged", logger.Int64("count", n))
		}
	}
}
