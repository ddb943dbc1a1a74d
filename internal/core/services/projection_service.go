package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/utils/accounting"
)

// Projection period modes.
const (
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"
)

// PeriodFor returns the dashboard period for mode at now. Unknown modes mean month.
func PeriodFor(mode string, now time.Time) domain.Period {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case PeriodYear:
		return domain.YearPeriod(now)
	case PeriodAll:
		return domain.Period{To: time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)}
	default:
		return domain.MonthPeriod(now)
	}
}

// ProjectionService keeps a live snapshot of both stores and pushes it to subscribers.
// Change events only mark the snapshot dirty; a single loop re-reads, so bursts coalesce.
type ProjectionService struct {
	BaseService
	ledgerRepo  portsrepo.LedgerReader
	requestRepo portsrepo.ProjectRequestReader
	feeds       []portsrepo.ChangeFeed
	periodMode  string
	logger      *slog.Logger

	refreshMu sync.Mutex

	mu        sync.RWMutex
	current   domain.Snapshot
	sequence  uint64
	subs      map[uint64]*snapshotSubscription
	nextSubID uint64

	lifecycleMu sync.Mutex
	attached    bool
	feedSubs    []portsrepo.Subscription
	dirty       chan struct{}
	stop        context.CancelFunc
	done        chan struct{}
}

// ProjectionOption is a functional option for configuring the projection
type ProjectionOption func(*ProjectionService)

// WithPeriodMode selects the period used for the dashboard aggregates.
func WithPeriodMode(mode string) ProjectionOption {
	return func(p *ProjectionService) {
		p.periodMode = mode
	}
}

// WithChangeFeeds adds the feeds the projection listens to once attached.
func WithChangeFeeds(feeds ...portsrepo.ChangeFeed) ProjectionOption {
	return func(p *ProjectionService) {
		for _, f := range feeds {
			if f != nil {
				p.feeds = append(p.feeds, f)
			}
		}
	}
}

// WithProjectionLogger sets the logger used by the background loop.
func WithProjectionLogger(logger *slog.Logger) ProjectionOption {
	return func(p *ProjectionService) {
		p.logger = logger
	}
}

// WithProjectionClock overrides the time source.
func WithProjectionClock(now func() time.Time) ProjectionOption {
	return func(p *ProjectionService) {
		p.Now = now
	}
}

// NewProjectionService creates a detached projection holding an empty snapshot.
func NewProjectionService(ledgerRepo portsrepo.LedgerReader, requestRepo portsrepo.ProjectRequestReader, options ...ProjectionOption) *ProjectionService {
	p := &ProjectionService{
		ledgerRepo:  ledgerRepo,
		requestRepo: requestRepo,
		periodMode:  PeriodMonth,
		logger:      slog.Default(),
		subs:        make(map[uint64]*snapshotSubscription),
	}
	for _, option := range options {
		option(p)
	}
	p.current = p.emptySnapshot()
	return p
}

var _ portssvc.ProjectionSvc = (*ProjectionService)(nil)

func (p *ProjectionService) emptySnapshot() domain.Snapshot {
	return domain.Snapshot{
		Balance:        domain.BalanceSummary{Period: PeriodFor(p.periodMode, p.now())},
		ActiveProjects: []domain.ProjectRequest{},
		PublicProjects: []domain.ProjectRequest{},
		GeneratedAt:    p.now(),
	}
}

// Attach subscribes to the change feeds, loads the first snapshot and starts the
// refresh loop. A failed first load is logged; the empty snapshot stays published.
// Attaching an attached projection is a no-op.
func (p *ProjectionService) Attach(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()
	if p.attached {
		return nil
	}

	dirty := make(chan struct{}, 1)
	markDirty := func(domain.ChangeEvent) {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}

	loopCtx, stop := context.WithCancel(context.Background())
	subs := make([]portsrepo.Subscription, 0, len(p.feeds))
	for _, feed := range p.feeds {
		sub, err := feed.Subscribe(loopCtx, markDirty)
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			stop()
			return fmt.Errorf("failed to subscribe to change feed: %w", err)
		}
		subs = append(subs, sub)
	}

	if _, err := p.Refresh(ctx); err != nil {
		p.logger.Error("initial projection load failed", slog.String("error", err.Error()))
	}

	p.feedSubs = subs
	p.dirty = dirty
	p.stop = stop
	p.done = make(chan struct{})
	p.attached = true
	go p.loop(loopCtx, dirty, p.done)

	p.logger.Info("projection attached", slog.Int("feeds", len(subs)))
	return nil
}

func (p *ProjectionService) loop(ctx context.Context, dirty <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-dirty:
			if _, err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warn("projection refresh failed, keeping last snapshot", slog.String("error", err.Error()))
			}
		}
	}
}

// Detach stops listening, waits for the loop and closes every subscriber channel.
// Detaching a detached projection is a no-op.
func (p *ProjectionService) Detach() {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()
	if !p.attached {
		return
	}
	for _, sub := range p.feedSubs {
		sub.Unsubscribe()
	}
	p.stop()
	<-p.done
	p.feedSubs, p.dirty, p.stop, p.done = nil, nil, nil, nil
	p.attached = false

	p.mu.Lock()
	subs := p.subs
	p.subs = make(map[uint64]*snapshotSubscription)
	p.mu.Unlock()
	for _, s := range subs {
		s.close()
	}
	p.logger.Info("projection detached", slog.Int("closed_subscribers", len(subs)))
}

// Attached reports whether the refresh loop is running.
func (p *ProjectionService) Attached() bool {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()
	return p.attached
}

// Refresh re-reads both stores and publishes a new snapshot. On error the previous
// snapshot is kept.
func (p *ProjectionService) Refresh(ctx context.Context) (domain.Snapshot, error) {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	txns, err := p.ledgerRepo.ListTransactions(ctx)
	if err != nil {
		return p.Current(), fmt.Errorf("failed to read ledger: %w", err)
	}
	requests, err := p.requestRepo.ListRequests(ctx)
	if err != nil {
		return p.Current(), fmt.Errorf("failed to read requests: %w", err)
	}

	now := p.now()
	snap := domain.Snapshot{
		Balance:        accounting.Compute(txns, PeriodFor(p.periodMode, now)),
		ActiveProjects: []domain.ProjectRequest{},
		PublicProjects: []domain.ProjectRequest{},
		GeneratedAt:    now,
	}
	for _, r := range requests {
		switch r.Status {
		case domain.StatusPending:
			snap.PendingCount++
		case domain.StatusActive, domain.StatusPendingCompletion:
			snap.ActiveProjects = append(snap.ActiveProjects, r)
		}
		if r.Status.IsPublic() {
			snap.PublicProjects = append(snap.PublicProjects, r)
		}
	}

	p.mu.Lock()
	p.sequence++
	snap.Sequence = p.sequence
	p.current = snap
	targets := make([]*snapshotSubscription, 0, len(p.subs))
	for _, s := range p.subs {
		targets = append(targets, s)
	}
	p.mu.Unlock()

	for _, s := range targets {
		s.offer(snap)
	}
	return snap, nil
}

// Current returns the latest published snapshot.
func (p *ProjectionService) Current() domain.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Transparency returns the public view of the latest snapshot.
func (p *ProjectionService) Transparency() domain.TransparencyView {
	return p.Current().Transparency()
}

// Subscribe registers a consumer. The current snapshot is queued immediately.
func (p *ProjectionService) Subscribe() portssvc.SnapshotSubscription {
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	sub := &snapshotSubscription{ch: make(chan domain.Snapshot, 1)}
	sub.unsubscribe = func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
		sub.close()
	}
	p.subs[id] = sub
	current := p.current
	p.mu.Unlock()

	sub.offer(current)
	return sub
}

// SubscriberCount returns the number of live subscriptions.
func (p *ProjectionService) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs)
}

// snapshotSubscription holds at most one pending snapshot; a newer one replaces it.
type snapshotSubscription struct {
	mu          sync.Mutex
	ch          chan domain.Snapshot
	closed      bool
	offered     bool
	lastSeq     uint64
	once        sync.Once
	unsubscribe func()
}

func (s *snapshotSubscription) C() <-chan domain.Snapshot { return s.ch }

func (s *snapshotSubscription) Unsubscribe() {
	s.once.Do(s.unsubscribe)
}

func (s *snapshotSubscription) offer(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.offered && snap.Sequence < s.lastSeq) {
		return
	}
	s.offered, s.lastSeq = true, snap.Sequence
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		// Drop the stale pending snapshot.
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *snapshotSubscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
