package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"energy-dispatch/internal/api"
	"energy-dispatch/internal/dispatch"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "dispatch-api").Logger()
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		log = log.Level(lvl)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	siteDir := os.Getenv("SITE_DIR")
	if siteDir == "" {
		siteDir = filepath.Join("examples", "sites")
	}
	if abs, err := filepath.Abs(siteDir); err == nil {
		siteDir = abs
	}
	timeout, err := durationEnv("SOLVE_TIMEOUT", 60*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid SOLVE_TIMEOUT")
	}
	cacheTTL, err := durationEnv("CACHE_TTL", time.Hour)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid CACHE_TTL")
	}
	var origins []string
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache := dispatch.NewCache(cacheTTL)
	go cache.Run(ctx, max(cacheTTL/4, time.Second))

	router := api.NewRouter(api.Deps{
		Engine:      dispatch.New(log),
		Cache:       cache,
		SiteDir:     siteDir,
		Timeout:     timeout,
		CORSOrigins: origins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("site_dir", siteDir).Dur("solve_timeout", timeout).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}
