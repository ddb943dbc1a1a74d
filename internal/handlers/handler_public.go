package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/dto"
	"github.com/gin-gonic/gin"
)

// registerPublicRoutes registers routes that need no authentication.
func registerPublicRoutes(rg *gin.RouterGroup, projection portssvc.ProjectionSvc) {
	rg.GET("/transparency", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.ToTransparencyResponse(projection.Transparency()))
	})
}
