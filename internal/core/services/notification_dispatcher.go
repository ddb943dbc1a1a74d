package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
)

// DefaultNotificationBuffer is the queue size used when none is configured.
const DefaultNotificationBuffer = 64

// notifyTimeout bounds a single delivery attempt to one notifier.
const notifyTimeout = 10 * time.Second

// NotificationDispatcher delivers transition notices to notifiers on a background
// goroutine. Publishing never blocks: a full queue drops the notice.
type NotificationDispatcher struct {
	noticeCh  chan domain.TransitionNotice
	notifiers []portssvc.Notifier
	logger    *slog.Logger
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

var _ portssvc.NoticeSink = (*NotificationDispatcher)(nil)

// NewNotificationDispatcher creates a dispatcher. Call Start before publishing.
func NewNotificationDispatcher(logger *slog.Logger, bufferSize int, notifiers ...portssvc.Notifier) *NotificationDispatcher {
	if bufferSize <= 0 {
		bufferSize = DefaultNotificationBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &NotificationDispatcher{
		noticeCh:  make(chan domain.TransitionNotice, bufferSize),
		notifiers: notifiers,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the delivery goroutine.
func (d *NotificationDispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-d.ctx.Done():
				d.logger.Info("draining notices before shutdown", slog.Int("remaining_notices", len(d.noticeCh)))
				for {
					select {
					case notice := <-d.noticeCh:
						d.deliver(context.Background(), notice)
					default:
						return
					}
				}
			case notice := <-d.noticeCh:
				d.deliver(d.ctx, notice)
			}
		}
	}()
}

// Publish queues notice for delivery.
func (d *NotificationDispatcher) Publish(notice domain.TransitionNotice) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("dispatcher stopped, dropping notice", slog.String("request_id", notice.RequestID))
		return
	}
	select {
	case d.noticeCh <- notice:
	default:
		d.logger.Warn("notice channel full, dropping notice",
			slog.String("request_id", notice.RequestID), slog.String("to", string(notice.To)))
	}
}

func (d *NotificationDispatcher) deliver(ctx context.Context, notice domain.TransitionNotice) {
	for _, n := range d.notifiers {
		nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		if err := n.Notify(nctx, notice); err != nil {
			d.logger.Error("failed to deliver notice",
				slog.String("notifier", n.Name()),
				slog.String("request_id", notice.RequestID),
				slog.String("error", err.Error()))
		}
		cancel()
	}
}

// Shutdown stops accepting notices, delivers what is queued and waits for the worker.
func (d *NotificationDispatcher) Shutdown() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.cancel()
	d.wg.Wait()
}
