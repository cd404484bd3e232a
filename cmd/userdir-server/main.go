package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/userdir/userdir/internal/activity"
	"github.com/userdir/userdir/internal/config"
	"github.com/userdir/userdir/internal/console"
	"github.com/userdir/userdir/internal/health"
	"github.com/userdir/userdir/internal/users"
)

// AppState holds the application state
type AppState struct {
	Logger    *zap.Logger
	DB        *bun.DB // nil with the memory activity backend
	Remote    *users.RemoteStore
	Directory *users.Directory
	Activity  *activity.Recorder
	Health    *health.Manager
	Console   *console.ConsoleService
}

func main() {
	config.Load()

	logger := initLogger()
	logger.Info("Configuration loaded", zap.String("remote", config.Remote().BaseURL))

	as, err := newAppState(logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	ctx := context.Background()
	if err := as.Health.StartupHealthCheck(ctx); err != nil {
		logger.Fatal("Startup health check failed", zap.Error(err))
	}

	if err := as.Activity.Prune(ctx, config.Activity().Retention()); err != nil {
		logger.Warn("Failed to prune activity log", zap.Error(err))
	}

	// the page still starts with an empty list when the directory is down
	if records, err := as.Directory.Refresh(ctx); err != nil {
		logger.Error("Initial user load failed", zap.Error(err))
	} else {
		logger.Info("Loaded users", zap.Int("count", len(records)))
	}

	router := setupRouter(as)

	addr := fmt.Sprintf("%s:%d", config.Http().Host, config.Http().Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	done := setupSignalHandler(as, server, logger)

	logger.Info("Starting user directory server", zap.String("address", addr))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

func newAppState(logger *zap.Logger) (*AppState, error) {
	as := &AppState{
		Logger: logger,
		Health: health.NewManager(logger),
	}

	remoteCfg := config.Remote()
	as.Remote = users.NewRemoteStore(remoteCfg.BaseURL, remoteCfg.Timeout(), logger)
	as.Health.AddChecker(health.NewRemoteDirectoryChecker(as.Remote))

	var store activity.OperationStore
	activityCfg := config.Activity()
	switch activityCfg.Backend {
	case "postgres":
		db, err := activity.OpenDatabase(config.Postgres().DSN(), config.Postgres().MaxOpenConnections)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to activity database: %w", err)
		}
		pgStore := activity.NewPostgresStore(db)
		if err := pgStore.CreateTables(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create activity tables: %w", err)
		}
		as.DB = db
		as.Health.AddChecker(health.NewDatabaseChecker(db))
		store = pgStore
		logger.Info("Activity log stored in PostgreSQL", zap.String("database", config.Postgres().Database))
	case "memory", "":
		store = activity.NewMemoryStore(activityCfg.MaxEntries)
		logger.Info("Activity log kept in memory", zap.Int("max_entries", activityCfg.MaxEntries))
	default:
		return nil, fmt.Errorf("unknown activity backend %q", activityCfg.Backend)
	}
	as.Activity = activity.NewRecorder(store, logger)

	policy := users.ParseUpdatePolicy(remoteCfg.UpdatePolicy)
	as.Directory = users.NewDirectory(as.Remote, logger,
		users.WithUpdatePolicy(policy),
		users.WithActivityRecorder(as.Activity),
	)

	consoleService, err := console.NewConsoleService(as.Directory, as.Activity, logger, config.Get())
	if err != nil {
		return nil, fmt.Errorf("failed to create console service: %w", err)
	}
	as.Console = consoleService

	return as, nil
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var config zap.Config
	if logConfig.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	switch logConfig.Level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func setupRouter(as *AppState) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(cors.Default())
	router.Use(console.RequestLogger(as.Logger))
	router.Use(gin.Recovery())
	router.Use(limitBody(config.Http().MaxRequestSize))

	router.GET("/health", func(c *gin.Context) {
		results := as.Health.RuntimeHealthCheck(c.Request.Context())

		services := gin.H{}
		for name, err := range results {
			if err != nil {
				services[name] = err.Error()
				continue
			}
			services[name] = "healthy"
		}

		status, code := "healthy", http.StatusOK
		if !as.Health.Healthy(results) {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"services":  services,
		})
	})

	as.Console.SetupRoutes(router)

	return router
}

func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func setupSignalHandler(as *AppState, server *http.Server, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		if as.DB != nil {
			if err := as.DB.Close(); err != nil {
				logger.Error("Error closing activity database", zap.Error(err))
			}
		}

		_ = logger.Sync()
		done <- struct{}{}
	}()

	return done
}
