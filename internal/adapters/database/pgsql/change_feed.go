package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/org_funding_app/internal/adapters/changefeed"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChangeChannel is the NOTIFY channel written by the notify_funding_change trigger.
const ChangeChannel = "funding_changes"

const (
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

// PgChangeFeed turns Postgres NOTIFY messages into change events. It holds one
// pooled connection for LISTEN and reconnects with backoff when it drops.
type PgChangeFeed struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	feed   *changefeed.Broadcaster

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ portsrepo.ChangeFeed = (*PgChangeFeed)(nil)

// NewPgChangeFeed creates a feed. Nothing is delivered until Start is called.
func NewPgChangeFeed(pool *pgxpool.Pool, logger *slog.Logger) *PgChangeFeed {
	return &PgChangeFeed{
		pool:   pool,
		logger: logger,
		feed:   changefeed.NewBroadcaster(),
	}
}

// Subscribe implements portsrepo.ChangeFeed.
func (f *PgChangeFeed) Subscribe(ctx context.Context, listener portsrepo.ChangeListener) (portsrepo.Subscription, error) {
	return f.feed.Subscribe(ctx, listener)
}

// Start begins listening in the background. Calling Start twice is a no-op.
func (f *PgChangeFeed) Start(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return
	}
	listenCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	go f.run(listenCtx, f.done)
}

// Close stops listening and releases the connection.
func (f *PgChangeFeed) Close() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (f *PgChangeFeed) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	delay := minReconnectDelay
	for {
		err := f.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		f.logger.Warn("change feed connection lost, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, maxReconnectDelay)
	}
}

// listen blocks until the connection fails or ctx is done.
func (f *PgChangeFeed) listen(ctx context.Context) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		return err
	}
	f.logger.Info("listening for database changes", slog.String("channel", ChangeChannel))

	// Anything may have changed while the connection was down.
	f.feed.Broadcast(domain.ChangeEvent{At: time.Now().UTC()})

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		event, err := decodeChangeEvent([]byte(n.Payload))
		if err != nil {
			f.logger.Warn("ignoring malformed change notification",
				slog.String("payload", n.Payload),
				slog.String("error", err.Error()))
			continue
		}
		f.feed.Broadcast(event)
	}
}

func decodeChangeEvent(payload []byte) (domain.ChangeEvent, error) {
	var event domain.ChangeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.ChangeEvent{}, err
	}
	if event.Entity == "" {
		return domain.ChangeEvent{}, errors.New("missing entity")
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	return event, nil
}
