package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/org_funding_app/internal/adapters/changefeed"
	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel shared by all instances.
const DefaultChannel = "funding:changes"

const (
	publishTimeout = 5 * time.Second
	relayBuffer    = 64
)

// PubSubClient is the subset of *goredis.Client the feed needs.
type PubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *goredis.PubSub
}

type envelope struct {
	Origin string             `json:"origin"`
	Event  domain.ChangeEvent `json:"event"`
}

// ChangeFeed relays change events between instances. Events published by this
// instance are not delivered back to its own listeners; the local store feed
// already covers them.
type ChangeFeed struct {
	client  PubSubClient
	channel string
	origin  string
	logger  *slog.Logger
	feed    *changefeed.Broadcaster

	mu        sync.Mutex
	pubsub    *goredis.PubSub
	relay     portsrepo.Subscription
	stopRelay context.CancelFunc
	done      chan struct{}
	relayDone chan struct{}
}

var (
	_ portsrepo.ChangeFeed      = (*ChangeFeed)(nil)
	_ portsrepo.ChangePublisher = (*ChangeFeed)(nil)
)

// NewChangeFeed creates a feed on channel (DefaultChannel when empty).
func NewChangeFeed(client PubSubClient, channel string, logger *slog.Logger) *ChangeFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &ChangeFeed{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
		feed:    changefeed.NewBroadcaster(),
	}
}

// Subscribe implements portsrepo.ChangeFeed.
func (f *ChangeFeed) Subscribe(ctx context.Context, listener portsrepo.ChangeListener) (portsrepo.Subscription, error) {
	return f.feed.Subscribe(ctx, listener)
}

// Publish implements portsrepo.ChangePublisher.
func (f *ChangeFeed) Publish(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(envelope{Origin: f.origin, Event: event})
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: publish change event: %v", apperrors.ErrStoreUnavailable, err)
	}
	return nil
}

// Start subscribes to the shared channel and, when source is not nil, relays
// every local change from source to the other instances.
func (f *ChangeFeed) Start(ctx context.Context, source portsrepo.ChangeFeed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubsub != nil {
		return nil
	}

	ps := f.client.Subscribe(ctx, f.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("%w: subscribe to %s: %v", apperrors.ErrStoreUnavailable, f.channel, err)
	}

	if source != nil {
		// Local listeners run on the writer's goroutine, so publishing is handed off.
		pending := make(chan domain.ChangeEvent, relayBuffer)
		relay, err := source.Subscribe(context.Background(), func(event domain.ChangeEvent) {
			select {
			case pending <- event:
			default:
				f.logger.Warn("relay queue full, dropping change event", slog.String("id", event.ID))
			}
		})
		if err != nil {
			_ = ps.Close()
			return fmt.Errorf("failed to subscribe to local changes: %w", err)
		}
		relayCtx, stop := context.WithCancel(context.Background())
		f.relay, f.stopRelay = relay, stop
		f.relayDone = make(chan struct{})
		go f.forward(relayCtx, pending, f.relayDone)
	}

	f.pubsub = ps
	f.done = make(chan struct{})
	go f.receive(ps.Channel(), f.done)

	f.logger.Info("redis change feed started", slog.String("channel", f.channel), slog.String("origin", f.origin))
	return nil
}

func (f *ChangeFeed) forward(ctx context.Context, pending <-chan domain.ChangeEvent, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-pending:
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := f.Publish(pubCtx, event); err != nil {
				f.logger.Warn("failed to relay change event", slog.String("error", err.Error()))
			}
			cancel()
		}
	}
}

func (f *ChangeFeed) receive(messages <-chan *goredis.Message, done chan<- struct{}) {
	defer close(done)
	for msg := range messages {
		f.handle([]byte(msg.Payload))
	}
}

func (f *ChangeFeed) handle(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		f.logger.Warn("ignoring malformed change message", slog.String("error", err.Error()))
		return
	}
	if env.Origin == f.origin {
		return
	}
	f.feed.Broadcast(env.Event)
}

// Close stops the relay and the subscription.
func (f *ChangeFeed) Close() error {
	f.mu.Lock()
	ps, relay, stopRelay, done, relayDone := f.pubsub, f.relay, f.stopRelay, f.done, f.relayDone
	f.pubsub, f.relay, f.stopRelay, f.done, f.relayDone = nil, nil, nil, nil, nil
	f.mu.Unlock()

	if relay != nil {
		relay.Unsubscribe()
		stopRelay()
		<-relayDone
	}
	if ps == nil {
		return nil
	}
	err := ps.Close()
	<-done
	return err
}
