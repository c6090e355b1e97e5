// Package app wires the application together: stores, the retrieval
// stack, the resolver and summarizer, and the HTTP handlers.
package app

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/voxbridge/voxbridge/internal/config"
	"github.com/voxbridge/voxbridge/internal/domains/resolver"
	"github.com/voxbridge/voxbridge/internal/domains/session"
	"github.com/voxbridge/voxbridge/internal/domains/session/drivers"
	"github.com/voxbridge/voxbridge/internal/domains/summary"
	"github.com/voxbridge/voxbridge/internal/handlers"
	callRepo "github.com/voxbridge/voxbridge/internal/repository/call"
	"github.com/voxbridge/voxbridge/internal/retrieval"
	"github.com/voxbridge/voxbridge/internal/runtime/embedding"
	"github.com/voxbridge/voxbridge/internal/server"
	"github.com/voxbridge/voxbridge/pkg/Logger"
	"github.com/voxbridge/voxbridge/pkg/assistant"
	"github.com/voxbridge/voxbridge/pkg/telephony"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// redis-backed sessions outlive the call long enough for the summary
// endpoint to be polled afterwards
const sessionTTL = 24 * time.Hour

// App represents the application with all its dependencies
type App struct {
	Config *config.Settings
	Logger *Logger.Logger
	DB     *gorm.DB
	RC     *redis.Client

	Sessions  session.Store
	Summaries summary.Repository
	Retrieval *retrieval.Service

	ServerDeps server.Dependencies
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.setupDependencies(); err != nil {
		return nil, err
	}

	return app, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies() error {
	// 1. session store
	if err := a.setupSessions(); err != nil {
		return err
	}

	// 2. summary persistence
	if err := a.setupSummaries(); err != nil {
		return err
	}

	// 3. retrieval stack
	embedder, err := a.buildEmbedder()
	if err != nil {
		return err
	}
	a.Retrieval, err = retrieval.New(retrieval.Config{
		URL:            a.Config.Qdrant.URL,
		CollectionName: a.Config.Qdrant.Collection,
		APIKey:         a.Config.Qdrant.APIKey,
	}, embedder, a.Logger)
	if err != nil {
		return fmt.Errorf("retrieval setup: %w", err)
	}

	// 4. services
	completer := assistant.NewOpenAICompleter(a.Config.OpenAI.APIKey, a.Config.OpenAI.CompletionModel)
	resolverSvc := resolver.New(a.Retrieval, completer, a.Sessions, a.Logger)
	summarizer := summary.NewGenerator(completer, a.Sessions, a.Summaries, a.Logger)

	phoneClient := telephony.New(
		a.Config.Twilio.AccountSID,
		a.Config.Twilio.AuthToken,
		telephony.WithBaseURL(a.Config.Twilio.APIBaseURL),
	)

	fillerAudio := a.loadFillerAudio()

	// 5. handlers and routes
	callHandler := handlers.NewCallHandler(a.Sessions, a.Summaries, phoneClient, a.Config, a.Logger)
	streamHandler := handlers.NewStreamHandler(a.Sessions, resolverSvc, summarizer, a.Config, fillerAudio, a.Logger)

	a.ServerDeps = server.NewServerDependencies(callHandler, streamHandler, a.Logger)

	return nil
}

func (a *App) setupSessions() error {
	switch a.Config.SessionStore {
	case "redis":
		a.RC = redis.NewClient(&redis.Options{
			Addr:     a.Config.Redis.Addr,
			Password: a.Config.Redis.Password,
			DB:       a.Config.Redis.DB,
		})
		a.Sessions = drivers.NewRedisStore(a.RC, sessionTTL)
		a.Logger.Infof("Session store: redis at %s", a.Config.Redis.Addr)
	default:
		a.Sessions = drivers.NewMemoryStore()
		a.Logger.Info("Session store: in-memory")
	}
	return nil
}

func (a *App) setupSummaries() error {
	if !a.Config.DB.Enabled {
		a.Summaries = summary.NewMemoryRepo()
		a.Logger.Info("Summary store: in-memory")
		return nil
	}

	db, err := gorm.Open(mysql.Open(a.Config.DB.DSN()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}
	repo := callRepo.NewGormCallRepo(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("database migration: %w", err)
	}
	a.DB = db
	a.Summaries = repo
	a.Logger.Infof("Summary store: mysql database %q", a.Config.DB.Name)
	return nil
}

func (a *App) buildEmbedder() (embedding.Embedder, error) {
	switch a.Config.Embedding.Provider {
	case "gemini":
		return embedding.NewGeminiEmbedder(a.Config.Embedding.GeminiAPIKey, a.Logger)
	default:
		return embedding.NewOpenAIEmbedder(a.Config.OpenAI.APIKey, a.Config.OpenAI.EmbeddingModel, a.Logger), nil
	}
}

// loadFillerAudio reads the pre-encoded hold clip played while a
// knowledge lookup runs. A missing file disables the filler rather
// than failing startup.
func (a *App) loadFillerAudio() string {
	path := a.Config.Relay.FillerAudioPath
	if path == "" {
		return ""
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		a.Logger.Warnf("Filler audio unavailable, lookups will be silent: %v", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// GetServerDependencies returns the server dependencies
func (a *App) GetServerDependencies() server.Dependencies {
	return a.ServerDeps
}

// Close releases external connections. Safe to call once at shutdown.
func (a *App) Close() {
	if a.Retrieval != nil {
		if err := a.Retrieval.Close(); err != nil {
			a.Logger.Errorf("Closing retrieval client: %v", err)
		}
	}
	if a.RC != nil {
		if err := a.RC.Close(); err != nil {
			a.Logger.Errorf("Closing redis client: %v", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
