package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/dto"
	"github.com/SscSPs/org_funding_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// streamKeepAlive is how often an idle event stream gets a comment frame so
// proxies keep the connection open.
const streamKeepAlive = 25 * time.Second

// dashboardHandler serves the live projection.
type dashboardHandler struct {
	projection portssvc.ProjectionSvc
}

func newDashboardHandler(p portssvc.ProjectionSvc) *dashboardHandler {
	return &dashboardHandler{projection: p}
}

func registerDashboardRoutes(rg *gin.RouterGroup, projection portssvc.ProjectionSvc) {
	h := newDashboardHandler(projection)

	dashboard := rg.Group("/dashboard")
	{
		dashboard.GET("", h.getDashboard)
		dashboard.GET("/stream", h.streamDashboard)
		dashboard.POST("/refresh", middleware.RequireAdmin(), h.refreshDashboard)
	}
}

// getDashboard returns the latest snapshot without touching the stores.
func (h *dashboardHandler) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ToDashboardResponse(h.projection.Current()))
}

// refreshDashboard forces a re-read of both stores.
func (h *dashboardHandler) refreshDashboard(c *gin.Context) {
	snap, err := h.projection.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to refresh dashboard")
		return
	}
	c.JSON(http.StatusOK, dto.ToDashboardResponse(snap))
}

// streamDashboard pushes a "snapshot" server-sent event whenever the projection
// changes. The current snapshot is sent first.
func (h *dashboardHandler) streamDashboard(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sub := h.projection.Subscribe()
	defer sub.Unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	logger.Info("Dashboard stream opened")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap, ok := <-sub.C():
			if !ok {
				return false
			}
			c.SSEvent("snapshot", dto.ToDashboardResponse(snap))
			return true
		case <-keepAlive.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		}
	})
	logger.Info("Dashboard stream closed", slog.Bool("client_gone", c.Request.Context().Err() != nil))
}
