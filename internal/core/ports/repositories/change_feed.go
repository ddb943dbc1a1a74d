package repositories

import (
	"context"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
)

// ChangeListener receives change events. It may be called from any goroutine and
// must not block for long.
type ChangeListener func(event domain.ChangeEvent)

// Subscription is a cancellable handle returned by ChangeFeed.Subscribe.
type Subscription interface {
	// Unsubscribe stops delivery. It is safe to call more than once.
	Unsubscribe()
}

// ChangeFeed delivers change notifications for the stores. Delivery order across
// independent subscriptions is not guaranteed, nor is exactly-once delivery.
type ChangeFeed interface {
	Subscribe(ctx context.Context, listener ChangeListener) (Subscription, error)
}

// ChangePublisher announces a change to other instances.
type ChangePublisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}
