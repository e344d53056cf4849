package app

import (
	"github.com/lucasvital/todocomplete/internal/auth"
	"github.com/lucasvital/todocomplete/internal/cache"
	"github.com/lucasvital/todocomplete/internal/config"
	"github.com/lucasvital/todocomplete/internal/feed"
	"github.com/lucasvital/todocomplete/internal/handlers"
	"github.com/lucasvital/todocomplete/internal/reminder"
	"github.com/lucasvital/todocomplete/internal/remote"
	"github.com/lucasvital/todocomplete/internal/repo"
	"github.com/lucasvital/todocomplete/internal/service"
	"github.com/lucasvital/todocomplete/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// services is everything the routes are built from.
type services struct {
	sessions  *auth.Store
	events    *auth.Events
	users     *service.UserService
	stores    *store.Registry
	streams   *handlers.StreamHandler
	reminders *reminder.Dispatcher
}

func newServices(cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) services {
	users := service.NewUserService(repo.NewPGUserRepo(db))
	client := NewRemote(cfg, db, rdb)
	events := auth.NewEvents()
	return services{
		sessions:  auth.NewStore(rdb, cfg.Session.TTL.Duration()),
		events:    events,
		users:     users,
		stores:    store.NewRegistry(client),
		streams:   handlers.NewStreamHandler(client, events, cfg.HTTP.Heartbeat.Duration()),
		reminders: reminder.NewDispatcher(client, users),
	}
}

// NewRemote builds the document store client over Postgres, with change
// signals and snapshot caching in Redis.
func NewRemote(cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) *remote.Client {
	return remote.NewClient(remote.Deps{
		Todos:         repo.NewPGTodoRepo(db),
		Lists:         repo.NewPGListRepo(db),
		Categories:    repo.NewPGCategoryRepo(db),
		Notifications: repo.NewPGNotificationRepo(db),
		Feed:          feed.NewRedisFeed(rdb),
		Cache:         cache.NewSnapshotCache(rdb, cfg.Redis.SnapshotTTL.Duration()),
	})
}

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, deps services) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	opts := handlers.AuthOptions{
		SessionTTL:   cfg.Session.TTL.Duration(),
		SecureCookie: cfg.Session.Secure,
		States:       deps.sessions,
		OnSignOut:    deps.stores.Release,
	}
	if cfg.Google.Enabled() {
		opts.Google = auth.NewGoogle(cfg.Google)
	}
	authHandler := handlers.NewAuthHandler(deps.sessions, deps.users, deps.events, opts)
	registerAuthRoutes(api, authHandler)

	protected := api.Group("", auth.RequireSession(deps.sessions))
	protected.GET("/auth/me", authHandler.Me)
	registerTodoRoutes(protected, handlers.NewTodoHandler(deps.stores))
	registerListRoutes(protected, handlers.NewListHandler(deps.stores))
	registerCategoryRoutes(protected, handlers.NewCategoryHandler(deps.stores))
	registerNotificationRoutes(protected, handlers.NewNotificationHandler(deps.stores))
	registerSyncRoutes(protected, handlers.NewStatsHandler(deps.stores), deps.streams)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Todo API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
			"events":  "/api/v1/events",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/register", h.Register)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/google", h.GoogleLogin)
	api.GET("/auth/google/callback", h.GoogleCallback)
}

func registerTodoRoutes(api *gin.RouterGroup, h *handlers.TodoHandler) {
	api.POST("/todos", h.Create)
	api.GET("/todos", h.List)
	api.GET("/todos/:id", h.GetByID)
	api.PATCH("/todos/:id", h.Update)
	api.DELETE("/todos/:id", h.Delete)
	api.POST("/todos/:id/toggle", h.Toggle)
	api.GET("/templates", h.Templates)
	api.POST("/templates/:key", h.FromTemplate)
}

func registerListRoutes(api *gin.RouterGroup, h *handlers.ListHandler) {
	api.POST("/lists", h.Create)
	api.GET("/lists", h.List)
	api.GET("/lists/:id", h.GetByID)
	api.PATCH("/lists/:id", h.Update)
	api.DELETE("/lists/:id", h.Delete)
	api.POST("/lists/:id/share", h.Share)
}

func registerCategoryRoutes(api *gin.RouterGroup, h *handlers.CategoryHandler) {
	api.POST("/categories", h.Create)
	api.GET("/categories", h.List)
	api.PATCH("/categories/:id", h.Update)
	api.DELETE("/categories/:id", h.Delete)
}

func registerNotificationRoutes(api *gin.RouterGroup, h *handlers.NotificationHandler) {
	api.GET("/notifications", h.List)
	api.POST("/notifications/:id/read", h.MarkRead)
}

func registerSyncRoutes(api *gin.RouterGroup, stats *handlers.StatsHandler, stream *handlers.StreamHandler) {
	api.GET("/stats", stats.Stats)
	api.GET("/sync", stats.Pending)
	api.POST("/sync/refresh", stats.Refresh)
	api.GET("/events", stream.Stream)
}
