package notify

import (
	"context"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/utils"
)

// EventEnqueuer is satisfied by *utils.PosthogClientWrapper.
type EventEnqueuer interface {
	Enqueue(distinctID string, event string, properties map[string]any) error
}

// PosthogNotifier records transitions as analytics events.
type PosthogNotifier struct {
	client EventEnqueuer
}

var _ portssvc.Notifier = (*PosthogNotifier)(nil)

func NewPosthogNotifier(client EventEnqueuer) *PosthogNotifier {
	return &PosthogNotifier{client: client}
}

func (n *PosthogNotifier) Name() string { return "posthog" }

func (n *PosthogNotifier) Notify(_ context.Context, notice domain.TransitionNotice) error {
	return n.client.Enqueue(notice.ActorID, "project_request_transition", map[string]any{
		"request_id": notice.RequestID,
		"from":       string(notice.From),
		"to":         string(notice.To),
		"amount":     utils.FormatAmount(notice.Amount),
	})
}
