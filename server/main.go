package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"testons-go/server/internal/config"
	"testons-go/server/internal/database"
	"testons-go/server/internal/handlers"
	logger "testons-go/server/internal/logging"
	"testons-go/server/internal/models"
	"testons-go/server/internal/repository"
	"testons-go/server/internal/router"
	"testons-go/server/internal/services"
	"testons-go/server/internal/telemetry"
	"testons-go/server/internal/utils"
)

func main() {
	projectRoot := os.Getenv("TESTONS_ROOT")
	if projectRoot == "" {
		projectRoot = "."
	}

	// A missing .env is normal outside development.
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))

	// Configuration is read before the logger so rotation settings apply.
	loaded, v, err := config.Load(projectRoot)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize Logger
	logOpts := logger.DefaultOptions(projectRoot)
	logOpts.Directory = resolve(projectRoot, loaded.Logging.Directory)
	logOpts.MaxSize = loaded.Logging.MaxSize
	logOpts.MaxBackups = loaded.Logging.MaxBackups
	logOpts.MaxAge = loaded.Logging.MaxAge
	logOpts.Compress = loaded.Logging.Compress
	log, err := logger.Init(logOpts)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if loaded.Server.SessionSecret == config.DefaultSessionSecret {
		secret, err := utils.GenerateSecureToken(32)
		if err != nil {
			log.Fatal("Failed to generate session secret", zap.Error(err))
		}
		loaded.Server.SessionSecret = secret
		log.Warn("server.session_secret not set; sessions will not survive a restart")
	}
	config.Watch(loaded, v, log)
	conf := config.Conf

	tm := telemetry.New()
	store, err := openStore(conf, log, tm)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}

	// Load the seed protocol at startup; it only applies to an empty store.
	var seed *models.Protocol
	protocolPath := resolve(projectRoot, conf.Protocol.File)
	if seed, err = models.LoadProtocol(protocolPath); err != nil {
		log.Warn("No seed protocol loaded", zap.String("file", protocolPath), zap.Error(err))
	}

	results := services.NewResultsService(store, log, seed, tm)

	var summarizer handlers.Summarizer
	if s, err := services.NewSummarizer(conf.LLM.APIKey, conf.LLM.Model, log); err == nil {
		summarizer = s
	} else {
		log.Info("LLM summary disabled", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedulerDone := services.NewScheduler(log, results, conf.Refresh.Interval).Start(ctx)

	r := router.Setup(log, conf.Server, router.Dependencies{
		Store:       store,
		Results:     results,
		Summarizer:  summarizer,
		Metrics:     tm,
		Credentials: func() config.AuthConfig { return config.Conf.Auth },
	})

	srv := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Server listening on http://localhost" + srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run Gin server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	<-schedulerDone
}

// openStore selects the persistence backend named by storage.driver.
func openStore(conf *config.Config, log *zap.Logger, tm *telemetry.Metrics) (repository.Store, error) {
	var kv repository.KV
	switch conf.Storage.Driver {
	case "memory":
		log.Warn("Using in-memory store; data is lost on restart")
		kv = repository.NewMemoryKV()
	case "http":
		log.Info("Using HTTP key-value store", zap.String("base_url", conf.Storage.HTTP.BaseURL))
		kv = repository.NewHTTPKV(conf.Storage.HTTP.BaseURL, conf.Storage.HTTP.APIKey, conf.Storage.HTTP.Timeout)
	case "postgres":
		db, err := database.Open(conf.Database, log)
		if err != nil {
			return nil, err
		}
		kv = repository.NewGormKV(db)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
	return repository.NewDocumentStore(kv).OnSkip(func(key string, err error) {
		tm.StoreErrors.WithLabelValues("decode_session").Inc()
		log.Warn("Skipping unreadable session document", zap.String("key", key), zap.Error(err))
	}), nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
