package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyboard/internal/config"
	"studyboard/internal/handler"
	"studyboard/internal/migrations"
	"studyboard/internal/repository"
	"studyboard/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config

	app  *App
	jobs *scheduler.Scheduler
	log  logrus.FieldLogger
}

func Init(cfg *config.Config, log *logrus.Logger) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	if cfg.DBDriver == config.DriverPostgres {
		if err := migrations.Up(cfg.PostgresURL(), log); err != nil {
			return nil, err
		}
	}

	db, err := repository.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.WithField("driver", cfg.DBDriver).Info("✅ Connected to database")

	rdb, err := OpenRedis(cfg)
	if err != nil {
		return nil, err
	}
	log.WithField("addr", cfg.RedisAddr).Info("✅ Connected to Redis")

	app := NewApp(cfg, db, rdb, log)

	jobs := scheduler.New(log)
	if _, err := jobs.Every("usage-reconcile", cfg.ReconcileInterval, func(ctx context.Context) error {
		_, err := app.Reconciler.Run(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	return &Server{
		Engine: app.Router(),
		DB:     db,
		Redis:  rdb,
		Config: cfg,
		app:    app,
		jobs:   jobs,
		log:    log,
	}, nil
}

// OpenRedis connects to the change-feed broker and checks it answers.
func OpenRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("❌ failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         ":" + s.Config.ServerPort,
		Handler:      s.Engine,
		ReadTimeout:  s.Config.ReadTimeout,
		WriteTimeout: s.Config.WriteTimeout,
	}

	s.jobs.Start()

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("🚀 Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		s.close()
		return fmt.Errorf("❌ Failed to listen: %w", err)
	}
	s.log.Info("🛑 Shutting down server...")

	// Sessions end first so open SSE handlers return before Shutdown waits on them.
	s.app.Sessions.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)
	s.close()
	if err != nil {
		return fmt.Errorf("❌ Server forced to shutdown: %w", err)
	}

	s.log.Info("✅ Server exited properly")
	return nil
}

func (s *Server) close() {
	s.jobs.Stop()
	s.app.Close()
	if err := s.Redis.Close(); err != nil {
		s.log.WithError(err).Warn("close redis")
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
