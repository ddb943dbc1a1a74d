// Package changefeed fans change events out to in-process listeners. The store
// adapters feed it from their own notification sources.
package changefeed

import (
	"context"
	"sync"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
)

// Broadcaster is a repositories.ChangeFeed backed by a listener registry.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[uint64]repositories.ChangeListener
}

var _ repositories.ChangeFeed = (*Broadcaster)(nil)

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[uint64]repositories.ChangeListener)}
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Subscribe registers listener until Unsubscribe is called or ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context, listener repositories.ChangeListener) (repositories.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.mu.Unlock()

	done := make(chan struct{})
	sub := &subscription{cancel: func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
		close(done)
	}}
	go func() {
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
		case <-done:
		}
	}()
	return sub, nil
}

// Broadcast delivers event to every current listener on the caller's goroutine.
func (b *Broadcaster) Broadcast(event domain.ChangeEvent) {
	b.mu.RLock()
	targets := make([]repositories.ChangeListener, 0, len(b.listeners))
	for _, l := range b.listeners {
		targets = append(targets, l)
	}
	b.mu.RUnlock()

	for _, l := range targets {
		l(event)
	}
}

// Len returns the number of registered listeners.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
