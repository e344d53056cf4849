package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lucasvital/todocomplete/internal/config"
	"github.com/lucasvital/todocomplete/internal/handlers"
	"github.com/lucasvital/todocomplete/internal/migrations"
	"github.com/lucasvital/todocomplete/internal/reminder"
	"github.com/lucasvital/todocomplete/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// sweepSchedule is how often idle user stores are looked for.
const sweepSchedule = "@every 1m"

type App struct {
	cfg       config.Config
	db        *pgxpool.Pool
	redis     *redis.Client
	router    *gin.Engine
	stores    *store.Registry
	streams   *handlers.StreamHandler
	scheduler *reminder.Scheduler
}

func New(cfg config.Config) (*App, error) {
	a := &App{cfg: cfg}

	db, rdb, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.redis = rdb

	if cfg.App.MigrateOnStart {
		if err := migrations.Up(cfg.PG.DSN); err != nil {
			a.redis.Close()
			a.db.Close()
			return nil, err
		}
	}

	deps := newServices(cfg, a.db, a.redis)
	a.stores = deps.stores
	a.streams = deps.streams
	a.router = newRouter(cfg, deps)

	a.scheduler = reminder.NewScheduler(time.UTC)
	idle := cfg.Session.StoreIdle.Duration()
	if _, err := a.scheduler.Schedule(sweepSchedule, func() { a.stores.Sweep(idle) }); err != nil {
		a.closeResources()
		return nil, fmt.Errorf("store sweep schedule: %w", err)
	}
	if cfg.Reminder.Enabled {
		if _, err := a.scheduler.Schedule(cfg.Reminder.Schedule, deps.reminders.Job()); err != nil {
			a.closeResources()
			return nil, fmt.Errorf("reminder schedule %q: %w", cfg.Reminder.Schedule, err)
		}
		log.Printf("reminders scheduled %s", cfg.Reminder.Schedule)
	}
	a.scheduler.Start()
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// EndStreams closes every open event stream. Streams never go idle, so
// this has to run before waiting on in-flight requests.
func (a *App) EndStreams() {
	if a.streams != nil {
		a.streams.Close()
	}
}

// Close stops background jobs and releases every store, then closes Redis
// and Postgres. When ctx ends first, the connections are closed anyway and
// ctx's error is returned.
func (a *App) Close(ctx context.Context) error {
	a.EndStreams()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if a.scheduler != nil {
			a.scheduler.Stop()
		}
		if a.stores != nil {
			a.stores.Close()
		}
	}()
	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("app close: %w", ctx.Err())
	}
	a.closeConns()
	return err
}

// closeResources undoes a partial New.
func (a *App) closeResources() {
	if a.stores != nil {
		a.stores.Close()
	}
	a.closeConns()
}

func (a *App) closeConns() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

// Connect opens and pings Postgres and Redis.
func Connect(cfg config.Config) (*pgxpool.Pool, *redis.Client, error) {
	db, err := newPostgres(cfg.PG.DSN)
	if err != nil {
		return nil, nil, err
	}
	rdb, err := newRedis(cfg.Redis)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, rdb, nil
}

func newPostgres(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func newRouter(cfg config.Config, deps services) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware(cfg.HTTP))

	Setup(r, cfg, deps)
	return r
}

// corsMiddleware admits credentialed requests from the configured origins
// only.
func corsMiddleware(cfg config.HTTPConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cookie", "Last-Event-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
