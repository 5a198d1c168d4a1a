package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ai-diet-planner/internal/app"
	"ai-diet-planner/internal/config"
	"ai-diet-planner/internal/httpapi"
	"ai-diet-planner/internal/logger"
	"ai-diet-planner/internal/telegram"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync(zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := app.NewServices(ctx, cfg, app.SQLSessions, zl)
	if err != nil {
		zl.Fatal("failed to initialize services", zap.Error(err))
	}
	defer svc.Close()

	if svc.Tokens == nil {
		zl.Warn("AUTH_SECRET not set, sessions are selected by the X-Session-ID header")
	}

	api := httpapi.NewServer(httpapi.Deps{
		Generator:      svc.Planner,
		Sessions:       svc.Sessions,
		Recorder:       svc.Metrics,
		Usage:          svc.Metrics,
		Tokens:         svc.Tokens,
		Logger:         zl.Named("http"),
		DataDir:        filepath.Dir(cfg.DatabasePath),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	router := api.Routes()

	if cfg.TelegramBotToken != "" {
		bot, err := telegram.NewBot(cfg, svc.Sessions, svc.Metrics, zl.Named("telegram"))
		if err != nil {
			zl.Fatal("failed to initialize telegram bot", zap.Error(err))
		}
		router.Post("/webhook", bot.HandleWebhook)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zl.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zl.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
		return
	}
	zl.Info("server exiting")
}
