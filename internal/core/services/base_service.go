package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/SscSPs/org_funding_app/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	// Now returns the current time. Tests replace it for deterministic timestamps.
	Now func() time.Time
}

func (s *BaseService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// RequireAdmin fails with ErrForbidden unless actor may decide on requests and edit the ledger.
func (s *BaseService) RequireAdmin(ctx context.Context, actor domain.Actor, action string) error {
	if actor.Role.IsAdmin() {
		return nil
	}
	err := apperrors.NewAppError(http.StatusForbidden, fmt.Sprintf("admin role required to %s", action), apperrors.ErrForbidden)
	s.LogWarn(ctx, "Actor not authorized", slog.String("user_id", actor.UserID), slog.String("role", string(actor.Role)), slog.String("action", action))
	return err
}

// RequireRequester fails with ErrForbidden unless actor may create and submit requests.
func (s *BaseService) RequireRequester(ctx context.Context, actor domain.Actor, action string) error {
	if actor.Role.CanRequest() {
		return nil
	}
	s.LogWarn(ctx, "Actor not authorized", slog.String("user_id", actor.UserID), slog.String("role", string(actor.Role)), slog.String("action", action))
	return apperrors.NewAppError(http.StatusForbidden, fmt.Sprintf("member role required to %s", action), apperrors.ErrForbidden)
}
