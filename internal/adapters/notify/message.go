// Package notify contains the side channels that receive transition notices.
package notify

import (
	"fmt"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/SscSPs/org_funding_app/internal/utils"
)

// FormatNotice renders a one-line human readable summary of notice.
func FormatNotice(notice domain.TransitionNotice) string {
	actor := notice.ActorName
	if actor == "" {
		actor = notice.ActorID
	}
	switch notice.To {
	case domain.StatusActive:
		return fmt.Sprintf("Approved %q: %s posted as expense (by %s)", notice.Title, utils.FormatAmount(notice.Amount), actor)
	case domain.StatusRejected:
		return fmt.Sprintf("Rejected %q (by %s)", notice.Title, actor)
	case domain.StatusPending:
		return fmt.Sprintf("New funding request %q for %s (by %s)", notice.Title, utils.FormatAmount(notice.Amount), actor)
	case domain.StatusPendingCompletion:
		return fmt.Sprintf("%q reported complete, awaiting verification (by %s)", notice.Title, actor)
	case domain.StatusCompleted:
		return fmt.Sprintf("%q verified complete (by %s)", notice.Title, actor)
	default:
		return fmt.Sprintf("%q moved %s -> %s (by %s)", notice.Title, notice.From, notice.To, actor)
	}
}
