package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mailpath/mailpath-backend/internal/data/db"
	"github.com/mailpath/mailpath-backend/internal/observability"
	"github.com/mailpath/mailpath-backend/internal/platform/logger"
	"github.com/mailpath/mailpath-backend/internal/platform/neo4jdb"
	"github.com/mailpath/mailpath-backend/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Progress bus.Bus

	graphClient  *neo4jdb.Client
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	graphClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j init failed, path graph mirroring disabled", "error", err)
		graphClient = nil
	}

	progress := wireProgressBus(log)

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, graphClient, progress)
	handlerset := wireHandlers(log, serviceset, progress)
	router := wireRouter(cfg, handlerset)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Progress:     progress,
		graphClient:  graphClient,
		otelShutdown: otelShutdown,
	}, nil
}

// wireProgressBus prefers redis pub/sub so progress reaches every replica;
// without REDIS_ADDR a process-local bus serves single-instance setups.
func wireProgressBus(log *logger.Logger) bus.Bus {
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		redisBus, err := bus.NewRedisBus(log)
		if err == nil {
			return redisBus
		}
		log.Warn("redis progress bus init failed, falling back to in-memory", "error", err)
	}
	return bus.NewMemoryBus(log)
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.Progress != nil {
		if err := a.Progress.Close(); err != nil {
			a.Log.Warn("progress bus close failed", "error", err)
		}
	}
	if a.graphClient != nil {
		if err := a.graphClient.Close(ctx); err != nil {
			a.Log.Warn("neo4j close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
