package server

import (
	"context"
	"net/http"
	"time"

	"studyboard/internal/auth"
	"studyboard/internal/config"
	"studyboard/internal/feed"
	"studyboard/internal/handler"
	"studyboard/internal/livesync"
	"studyboard/internal/logger"
	"studyboard/internal/middleware"
	"studyboard/internal/ratelimit"
	"studyboard/internal/repository"
	"studyboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

const limiterIdle = 10 * time.Minute

// App wires the store, the change feed and the services behind the HTTP
// routes. It owns no listeners and can be driven with httptest.
type App struct {
	Store      *repository.Store
	Hub        *feed.Hub
	Lifecycle  *service.Lifecycle
	Sessions   *livesync.Manager
	Tokens     *auth.Manager
	Limiter    *ratelimit.Keyed
	Reconciler *service.Reconciler

	cfg *config.Config
	db  *gorm.DB
	rdb *redis.Client
	log logrus.FieldLogger
}

func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client, log logrus.FieldLogger) *App {
	store := repository.NewStore(db)
	hub := feed.NewHub(rdb, log)
	lifecycle := service.NewLifecycle(store, hub, log)

	return &App{
		Store:      store,
		Hub:        hub,
		Lifecycle:  lifecycle,
		Sessions:   livesync.NewManager(feed.NewSource(hub, store), lifecycle.Bootstrapper(), log),
		Tokens:     auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour),
		Limiter:    ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst, limiterIdle),
		Reconciler: service.NewReconciler(store, log),
		cfg:        cfg,
		db:         db,
		rdb:        rdb,
		log:        log,
	}
}

// Router builds the gin engine with every route mounted.
func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Gin(a.log))

	userHandler := handler.NewUserHandler(a.Store.Users, a.Tokens, a.Lifecycle.Bootstrapper(), a.log)
	boardHandler := handler.NewBoardHandler(a.Lifecycle)
	listHandler := handler.NewListHandler(a.Lifecycle)
	taskHandler := handler.NewTaskHandler(a.Lifecycle)
	chatHandler := handler.NewChatHandler(a.Lifecycle)
	usageHandler := handler.NewUsageHandler(a.Lifecycle)
	syncHandler := handler.NewSyncHandler(a.Sessions, a.cfg.SSEHeartbeat, a.log)

	limit := middleware.RateLimit(a.Limiter, a.log)

	// Public routes
	r.GET("/healthz", a.health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.POST("/register", limit, userHandler.Register)
	r.POST("/login", limit, userHandler.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(a.Tokens))
	{
		authorized.GET("/me", userHandler.Me)

		authorized.GET("/boards", boardHandler.GetAll)
		authorized.GET("/boards/:id/lists", listHandler.GetByBoard)
		authorized.GET("/boards/:id/tasks", taskHandler.GetByBoard)
		authorized.GET("/chat-sessions", chatHandler.GetAll)
		authorized.GET("/usage", usageHandler.Get)
		authorized.GET("/sync/stream", syncHandler.Stream)
	}

	mutating := authorized.Group("/")
	mutating.Use(limit)
	{
		mutating.POST("/boards", boardHandler.Create)
		mutating.PUT("/boards/:id", boardHandler.Update)
		mutating.DELETE("/boards/:id", boardHandler.Delete)

		mutating.POST("/boards/:id/lists", listHandler.Create)
		mutating.PUT("/lists/:id", listHandler.Update)
		mutating.DELETE("/lists/:id", listHandler.Delete)

		mutating.POST("/lists/:id/tasks", taskHandler.Create)
		mutating.PUT("/tasks/:id", taskHandler.Update)
		mutating.DELETE("/tasks/:id", taskHandler.Delete)
		mutating.POST("/tasks/:id/toggle", taskHandler.Toggle)
		mutating.POST("/tasks/:id/move", taskHandler.Move)

		mutating.POST("/chat-sessions", chatHandler.Create)
		mutating.DELETE("/chat-sessions/:id", chatHandler.Delete)
		mutating.POST("/prompts", chatHandler.Prompt)

		mutating.POST("/sync/sessions/:id/select", syncHandler.Select)
	}

	// Plan changes and credit purchases come from the billing backend, not
	// from owners, and are not mounted without a configured token.
	if a.cfg.BillingToken != "" {
		billing := r.Group("/billing", middleware.BillingAuth(a.cfg.BillingToken))
		{
			billing.PUT("/owners/:id/plan", usageHandler.SetPlan)
			billing.POST("/owners/:id/credits", usageHandler.GrantCredits)
		}
	}
	return r
}

func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "ok", "redis": "ok", "sync_sessions": a.Sessions.Count()}
	healthy := true
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status["database"] = "unavailable"
		healthy = false
	}
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		status["redis"] = "unavailable"
		healthy = false
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Close ends live sessions and background helpers. The database and Redis
// handles belong to the caller.
func (a *App) Close() {
	a.Sessions.Shutdown()
	a.Limiter.Stop()
}
