package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/org_funding_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// pathsToSkip contains routes that should not be tracked
var pathsToSkip = map[string]bool{
	"/health":                     true,
	"/api/v1/dashboard/stream":    true,
	"/api/v1/public/transparency": true,
}

// PosthogMiddleware creates a Gin middleware handler that tracks successful
// authenticated API calls with PostHog.
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if posthogClient == nil || !posthogClient.IsInitialized() || pathsToSkip[c.FullPath()] {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		actor, ok := GetActorFromContext(c)
		if !ok {
			return
		}

		// "/api/v1/requests/:id/approve" -> "api_v1_requests_:id_approve"
		eventName := strings.ReplaceAll(strings.TrimPrefix(c.FullPath(), "/"), "/", "_")
		if eventName == "" {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"status_code": c.Writer.Status(),
			"role":        string(actor.Role),
		}
		if len(c.Params) > 0 {
			params := make(map[string]string, len(c.Params))
			for _, param := range c.Params {
				params[param.Key] = param.Value
			}
			props["params"] = params
		}

		posthogClient.Enqueue(actor.UserID, eventName, props)
	}
}
