package app

import (
	"context"
	"errors"
	"fmt"

	"ai-diet-planner/internal/auth"
	"ai-diet-planner/internal/config"
	"ai-diet-planner/internal/database"
	"ai-diet-planner/internal/llm"
	"ai-diet-planner/internal/metrics"
	"ai-diet-planner/internal/planner"
	"ai-diet-planner/internal/session"
	"ai-diet-planner/internal/shopping"
	"ai-diet-planner/internal/storage"

	"go.uber.org/zap"
)

// SessionBackend selects where session state lives.
type SessionBackend int

const (
	// SQLSessions keeps sessions in the session_states table.
	SQLSessions SessionBackend = iota
	// FileSessions keeps one JSON document per session under SessionStoragePath.
	FileSessions
)

// Services are the long-lived components shared by the CLI and the server.
type Services struct {
	DB       *database.DB
	LLM      llm.Client
	Planner  *planner.Planner
	Metrics  *metrics.Store
	Sessions *session.Manager
	// Tokens is nil when AUTH_SECRET is unset.
	Tokens *auth.Tokens
}

// NewServices opens the database, creates the model client and wires the
// session manager on top of them.
func NewServices(ctx context.Context, cfg *config.Config, backend SessionBackend, logger *zap.Logger) (*Services, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	client, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
	}

	var store session.Store
	switch backend {
	case FileSessions:
		docs, err := storage.NewDocumentStore(cfg.SessionStoragePath)
		if err != nil {
			client.Close()
			db.Close()
			return nil, fmt.Errorf("failed to initialize session storage: %w", err)
		}
		store = session.NewFileStore(docs)
	default:
		store = session.NewSQLStore(db.SQL)
	}

	var tokens *auth.Tokens
	if cfg.AuthSecret != "" {
		tokens, err = auth.NewTokens(cfg.AuthSecret, cfg.TokenTTL)
		if err != nil {
			client.Close()
			db.Close()
			return nil, err
		}
	}

	metricsStore := metrics.NewStore(db.SQL)
	mealPlanner := planner.NewPlanner(client, logger.Named("planner"))
	sessions := session.NewManager(mealPlanner, store, planner.NewPlanRepository(db.SQL),
		session.WithShoppingStore(shopping.NewRepository(db.SQL)),
		session.WithUsageRecorder(metricsStore),
		session.WithLogger(logger.Named("session")),
	)

	logger.Info("services initialized",
		zap.String("provider", cfg.LLMProvider),
		zap.String("model", cfg.Model()),
		zap.String("database", cfg.DatabasePath),
		zap.Bool("auth", tokens != nil),
	)

	return &Services{
		DB:       db,
		LLM:      client,
		Planner:  mealPlanner,
		Metrics:  metricsStore,
		Sessions: sessions,
		Tokens:   tokens,
	}, nil
}

// Close releases the model client and the database.
func (s *Services) Close() error {
	return errors.Join(s.LLM.Close(), s.DB.Close())
}
