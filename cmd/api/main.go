package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsdesk/shift-backend/internal/config"
	"github.com/opsdesk/shift-backend/internal/handler"
	"github.com/opsdesk/shift-backend/internal/mailer"
	"github.com/opsdesk/shift-backend/internal/scheduler"
	"github.com/opsdesk/shift-backend/internal/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return
	}

	/**********************************************
	 * record store
	 **********************************************/
	st, closeStore, err := storage.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "driver", cfg.Database.Driver, "error", err)
		return
	}
	defer closeStore()

	/**********************************************
	 * initial admin
	 **********************************************/
	if err := storage.EnsureInitialAdmin(cfg, st); err != nil {
		logger.Error("failed to create initial admin", "error", err)
		return
	}

	/**********************************************
	 * redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	})
	defer rdb.Close()

	/**********************************************
	 * mailer
	 **********************************************/
	var sender mailer.Sender = mailer.LogSender{Logger: logger}
	if cfg.Email.SMTP.Host != "" {
		m, err := mailer.New(cfg)
		if err != nil {
			logger.Error("failed to create mail client", "error", err)
			return
		}
		sender = m
	} else {
		logger.Warn("EMAIL_SMTP_HOST is empty, mails will only be logged")
	}

	/**********************************************
	 * scheduler and handler
	 **********************************************/
	sched := scheduler.New(st,
		scheduler.WithAtomicWrites(cfg.Shift.AtomicWrites),
		scheduler.WithLogger(logger),
	)

	handler, err := handler.NewHandler(cfg, st, sched, sender, rdb)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * HTTP server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "driver", cfg.Database.Driver, "atomicWrites", cfg.Shift.AtomicWrites)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
