package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/anyulbade/stay-tax-engine/internal/config"
	"github.com/anyulbade/stay-tax-engine/internal/database"
	"github.com/anyulbade/stay-tax-engine/internal/handler"
	"github.com/anyulbade/stay-tax-engine/internal/middleware"
	"github.com/anyulbade/stay-tax-engine/internal/repository"
	"github.com/anyulbade/stay-tax-engine/internal/rulestore"
	"github.com/anyulbade/stay-tax-engine/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	zerolog.DefaultContextLogger = &log.Logger

	cfg := config.Load()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, keeping default")
	}
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		if err := database.SeedData(context.Background(), pool); err != nil {
			log.Fatal().Err(err).Msg("failed to seed data")
		}
	}

	store := rulestore.NewStore(repository.NewTaxRuleRepository(pool))
	if err := store.RefreshAll(ctx, cfg.BatchConcurrency); err != nil {
		log.Warn().Err(err).Msg("initial rule load failed, rules will load on demand")
	}

	refreshCtx, stopRefresh := context.WithCancel(context.Background())
	defer stopRefresh()
	go store.Run(refreshCtx, cfg.RuleRefreshInterval, cfg.BatchConcurrency)

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))

	healthHandler := handler.NewHealthHandler(pool, store)
	router.GET("/health", healthHandler.Health)

	handler.SetupSwagger(router)
	setupAPIRoutes(router, store, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Dur("rule_refresh_interval", cfg.RuleRefreshInterval).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	stopRefresh()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupAPIRoutes(router *gin.Engine, store *rulestore.Store, cfg *config.Config) {
	taxService := service.NewTaxService(store, service.Options{
		DefaultCurrency:  cfg.DefaultCurrency,
		MaxBatchSize:     cfg.MaxBatchSize,
		BatchConcurrency: cfg.BatchConcurrency,
	})
	taxHandler := handler.NewTaxHandler(taxService)

	api := router.Group("/api/v1")
	taxHandler.Register(api)
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, middleware.RequestIDHeader)
	c.ExposeHeaders = []string{middleware.RequestIDHeader}
	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
	}
	return c
}
