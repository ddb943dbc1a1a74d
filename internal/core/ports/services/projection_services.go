package services

import (
	"context"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
)

// SnapshotSubscription delivers projection snapshots to one consumer.
type SnapshotSubscription interface {
	// C returns the channel snapshots are delivered on. It is closed on Unsubscribe
	// or when the projection detaches.
	C() <-chan domain.Snapshot

	// Unsubscribe stops delivery. It is safe to call more than once.
	Unsubscribe()
}

// ProjectionSvc is the live read model used by the dashboard and public views.
type ProjectionSvc interface {
	// Current returns the latest published snapshot.
	Current() domain.Snapshot

	// Transparency returns the public view of the latest snapshot.
	Transparency() domain.TransparencyView

	// Subscribe registers a consumer. The current snapshot is delivered first.
	Subscribe() SnapshotSubscription

	// Refresh re-reads both stores and publishes a new snapshot.
	Refresh(ctx context.Context) (domain.Snapshot, error)
}
