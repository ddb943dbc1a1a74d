package services

import (
	"context"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
)

// Notifier delivers informational transition notices to a side channel.
// Failures never affect the outcome of the operation that produced the notice.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, notice domain.TransitionNotice) error
}

// NoticeSink accepts notices for asynchronous delivery.
type NoticeSink interface {
	Publish(notice domain.TransitionNotice)
}

// Locker serializes operations on one key across goroutines and instances.
type Locker interface {
	// Acquire blocks until the lock for key is held or ctx is done.
	// The returned release function must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
