package notify

import (
	"context"
	"log/slog"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/utils"
)

// LogNotifier writes every notice to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

var _ portssvc.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(ctx context.Context, notice domain.TransitionNotice) error {
	n.logger.InfoContext(ctx, FormatNotice(notice),
		slog.String("request_id", notice.RequestID),
		slog.String("from", string(notice.From)),
		slog.String("to", string(notice.To)),
		slog.String("amount", utils.FormatAmount(notice.Amount)),
		slog.String("actor_id", notice.ActorID),
		slog.Time("at", notice.At))
	return nil
}
