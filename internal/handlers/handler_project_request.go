package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/dto"
	"github.com/SscSPs/org_funding_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// projectRequestHandler handles HTTP requests related to project funding requests.
type projectRequestHandler struct {
	requestService  portssvc.ProjectRequestSvcFacade
	approvalService portssvc.ApprovalSvc
}

func newProjectRequestHandler(rs portssvc.ProjectRequestSvcFacade, as portssvc.ApprovalSvc) *projectRequestHandler {
	return &projectRequestHandler{requestService: rs, approvalService: as}
}

// registerProjectRequestRoutes registers the request CRUD and workflow routes.
// Role checks for workflow steps live in the approval service.
func registerProjectRequestRoutes(rg *gin.RouterGroup, rs portssvc.ProjectRequestSvcFacade, as portssvc.ApprovalSvc) {
	h := newProjectRequestHandler(rs, as)

	requests := rg.Group("/requests")
	{
		requests.POST("", h.createRequest)
		requests.GET("", h.listRequests)
		requests.GET("/:requestID", h.getRequest)

		requests.POST("/:requestID/submit", h.transition("submit", as.Submit))
		requests.POST("/:requestID/approve", h.transition("approve", as.Approve))
		requests.POST("/:requestID/reject", h.transition("reject", as.Reject))
		requests.POST("/:requestID/complete", h.transition("complete", as.MarkComplete))
		requests.POST("/:requestID/verify", h.transition("verify", as.VerifyCompletion))
	}
}

// createRequest creates a DRAFT request, or a PENDING one when submit is set.
func (h *projectRequestHandler) createRequest(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateRequest", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	created, err := h.requestService.CreateRequest(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to create request")
		return
	}

	logger.Info("Project request created", slog.String("request_id", created.RequestID), slog.String("status", string(created.Status)))
	c.JSON(http.StatusCreated, dto.ToProjectRequestResponse(created))
}

func (h *projectRequestHandler) listRequests(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var params dto.ListRequestsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	requests, err := h.requestService.ListRequests(c.Request.Context(), params, actor)
	if err != nil {
		respondError(c, err, "Failed to list requests")
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectRequestResponses(requests))
}

func (h *projectRequestHandler) getRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	request, err := h.requestService.GetRequest(c.Request.Context(), c.Param("requestID"), actor)
	if err != nil {
		respondError(c, err, "Failed to retrieve request")
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectRequestResponse(request))
}

type transitionFunc func(ctx context.Context, requestID string, actor domain.Actor) (*domain.TransitionResult, error)

// transition adapts one workflow operation to a handler. A repeated call that
// changed nothing still answers 200 with alreadyApplied set.
func (h *projectRequestHandler) transition(name string, op transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := requireActor(c)
		if !ok {
			return
		}
		requestID := c.Param("requestID")
		logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(
			slog.String("request_id", requestID),
			slog.String("operation", name))

		result, err := op(c.Request.Context(), requestID, actor)
		if err != nil {
			respondError(c, err, "Failed to "+name+" request")
			return
		}

		logger.Info("Workflow operation handled",
			slog.String("status", string(result.Request.Status)),
			slog.Bool("already_applied", result.AlreadyApplied),
			slog.Int("warnings", len(result.Warnings)))
		c.JSON(http.StatusOK, dto.ToTransitionResponse(result))
	}
}
