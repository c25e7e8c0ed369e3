package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clipexplain/clipexplain/internal/store"
	"github.com/clipexplain/clipexplain/internal/telemetry"
	"github.com/clipexplain/clipexplain/models"
	"github.com/clipexplain/clipexplain/utils"
)

// Discoverer is the engine surface the handlers need.
type Discoverer interface {
	Discover(ctx context.Context, input models.DiscoverInput) *models.ResourceBundle
}

// DiscoveryHandler exposes the discovery engine and its history over HTTP.
type DiscoveryHandler struct {
	Engine  Discoverer
	History *store.Store
	Tele    *telemetry.Telemetry
}

func (h *DiscoveryHandler) Register(g *echo.Group, secret []byte) {
	if len(secret) > 0 {
		g.Use(func(next echo.HandlerFunc) echo.HandlerFunc { return withAuth(next, secret) })
	}
	g.POST("/discover", h.discover)
	g.GET("/discoveries", h.listDiscoveries)
	g.GET("/discoveries/:id", h.getDiscovery)
	g.GET("/stats", h.stats)
}

// discover runs one resource-discovery request. The response is always
// 200 with a bundle; degraded outcomes are signalled through the bundle's
// method field, not through HTTP status codes.
func (h *DiscoveryHandler) discover(c echo.Context) error {
	var input models.DiscoverInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Content = utils.Truncate(strings.TrimSpace(input.Content), 8000)
	input.ConversationContext = utils.Truncate(strings.TrimSpace(input.ConversationContext), 8000)

	bundle := h.Engine.Discover(c.Request().Context(), input)
	return c.JSON(http.StatusOK, bundle)
}

func (h *DiscoveryHandler) listDiscoveries(c echo.Context) error {
	if h.History == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "history store not configured")
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	records, err := h.History.ListDiscoveries(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if records == nil {
		records = []store.DiscoveryRecord{}
	}
	return c.JSON(http.StatusOK, records)
}

func (h *DiscoveryHandler) getDiscovery(c echo.Context) error {
	if h.History == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "history store not configured")
	}
	rec, err := h.History.GetDiscovery(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "discovery not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

// stats returns the in-process telemetry snapshot. Prometheus scrapes
// /metrics for the same numbers; this endpoint is for humans.
func (h *DiscoveryHandler) stats(c echo.Context) error {
	if h.Tele == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "telemetry disabled")
	}
	return c.JSON(http.StatusOK, h.Tele.GetMetrics())
}
