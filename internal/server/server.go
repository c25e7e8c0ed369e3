package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clipexplain/clipexplain/config"
	"github.com/clipexplain/clipexplain/internal/discovery"
	"github.com/clipexplain/clipexplain/internal/store"
	"github.com/clipexplain/clipexplain/internal/telemetry"
)

// NewRouter builds the echo instance with middleware and routes. It is
// separate from Run so tests can drive handlers without a listener.
func NewRouter(cfg *config.Config, engine Discoverer, history *store.Store, tele *telemetry.Telemetry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	dh := &DiscoveryHandler{Engine: engine, History: history, Tele: tele}
	dh.Register(e.Group("/api"), []byte(cfg.Server.JWTSecret))

	return e
}

// Run wires the full service from configuration and blocks serving HTTP.
// Postgres and Redis are optional: when unconfigured the service runs
// without history and without the bundle cache.
func Run(cfg *config.Config, addr string) error {
	ctx := context.Background()

	var history *store.Store
	if dsn := cfg.Storage.Postgres.DSN(); dsn != "" {
		if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		st, err := store.New(ctx, dsn)
		if err != nil {
			return err
		}
		history = st
		defer history.Close()
	} else {
		log.Printf("postgres not configured, discovery history disabled")
	}

	var cache *store.BundleCache
	if cfg.Storage.Redis.Host != "" && cfg.Storage.Redis.Port != "" {
		c, err := store.NewBundleCache(ctx, cfg.Storage.Redis)
		if err != nil {
			return fmt.Errorf("redis connection failed (%s:%s): %w", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port, err)
		}
		cache = c
		defer cache.Close()
	} else {
		log.Printf("redis not configured, bundle cache disabled")
	}

	tele := telemetry.New(cfg.Telemetry)
	engine := discovery.NewEngine(cfg, cache, history, tele, nil)
	e := NewRouter(cfg, engine, history, tele)

	if addr == "" {
		addr = cfg.Server.Address
		if addr == "" {
			addr = ":8080"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
