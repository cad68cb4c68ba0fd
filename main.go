package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/redis/v3"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ShaneDT1126/opswerk-assessment/config"
	"github.com/ShaneDT1126/opswerk-assessment/handlers"
	"github.com/ShaneDT1126/opswerk-assessment/logger"
	"github.com/ShaneDT1126/opswerk-assessment/middleware"
	"github.com/ShaneDT1126/opswerk-assessment/migrations"
	"github.com/ShaneDT1126/opswerk-assessment/store"
)

func main() {
	// .env is optional; deployments usually set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()
	handlers.Store = st

	app := fiber.New()
	app.Use(recover.New())
	app.Use(middleware.RequestLogger)

	if cfg.Redis.Enabled {
		redisStore := redis.New(redis.Config{
			Host: cfg.Redis.Host,
			Port: cfg.Redis.Port,
		})
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.Redis.Max,
			Expiration: time.Duration(cfg.Redis.WindowSecs) * time.Second,
			Storage:    redisStore,
		}))
	}

	api := app.Group("/api")
	handlers.RegisterRoutes(api)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := app.Listen(cfg.Server.Addr); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// openStore builds the configured store. The Postgres driver applies the
// embedded migrations first.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn().Msg("using in-memory store, data will not survive a restart")
		return store.NewMemory(), nil
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, err
	}

	return store.NewPostgres(ctx, cfg.Database.URL)
}
