// Package memory is an in-process implementation of the ledger and request
// stores. It backs local development and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/org_funding_app/internal/adapters/changefeed"
	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	"github.com/SscSPs/org_funding_app/internal/core/workflow"
	"github.com/SscSPs/org_funding_app/internal/utils/pagination"
)

// Store holds both collections behind one lock, so the approval write is atomic.
type Store struct {
	mu           sync.RWMutex
	transactions map[string]domain.Transaction
	linked       map[string]string // requestID -> transactionID
	requests     map[string]domain.ProjectRequest
	feed         *changefeed.Broadcaster
	now          func() time.Time
}

var (
	_ repositories.LedgerRepositoryFacade         = (*Store)(nil)
	_ repositories.ProjectRequestRepositoryFacade = (*Store)(nil)
	_ repositories.ApprovalWriter                 = (*Store)(nil)
	_ repositories.ChangeFeed                     = (*Store)(nil)
)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		transactions: make(map[string]domain.Transaction),
		linked:       make(map[string]string),
		requests:     make(map[string]domain.ProjectRequest),
		feed:         changefeed.NewBroadcaster(),
		now:          time.Now,
	}
}

// NewRepositoryProvider exposes s through the repository ports.
func NewRepositoryProvider(s *Store) repositories.RepositoryProvider {
	return repositories.RepositoryProvider{
		LedgerRepo:     s,
		RequestRepo:    s,
		ApprovalWriter: s,
		ChangeFeed:     s,
	}
}

// Subscribe implements repositories.ChangeFeed.
func (s *Store) Subscribe(ctx context.Context, listener repositories.ChangeListener) (repositories.Subscription, error) {
	return s.feed.Subscribe(ctx, listener)
}

func (s *Store) emit(entity domain.ChangeEntity, op domain.ChangeOp, id string) {
	s.feed.Broadcast(domain.ChangeEvent{Entity: entity, Op: op, ID: id, At: s.now().UTC()})
}

// --- ledger ---

func (s *Store) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &txn, nil
}

func (s *Store) FindTransactionByLinkedRequestID(ctx context.Context, requestID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.linked[requestID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	txn := s.transactions[id]
	return &txn, nil
}

func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	out := make([]domain.Transaction, 0, len(s.transactions))
	for _, txn := range s.transactions {
		out = append(out, txn)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.TransactionID < b.TransactionID
	})
	return out, nil
}

func (s *Store) ListTransactionsPage(ctx context.Context, limit int, nextToken *string) ([]domain.Transaction, *string, error) {
	all, _ := s.ListTransactions(ctx)
	limit = pagination.ClampLimit(limit)

	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	page := make([]domain.Transaction, 0, limit+1)
	for i := len(all) - 1; i >= 0 && len(page) <= limit; i-- {
		txn := all[i]
		if cursor != nil && !cursor.After(txn.Date, txn.CreatedAt, txn.TransactionID) {
			continue
		}
		page = append(page, txn)
	}

	var next *string
	if len(page) > limit {
		page = page[:limit]
		last := page[limit-1]
		token := pagination.EncodeCursor(pagination.Cursor{Date: last.Date, CreatedAt: last.CreatedAt, ID: last.TransactionID})
		next = &token
	}
	return page, next, nil
}

func (s *Store) AppendTransaction(ctx context.Context, txn domain.Transaction) error {
	s.mu.Lock()
	if err := s.appendLocked(txn); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	s.emit(domain.EntityTransaction, domain.OpInsert, txn.TransactionID)
	return nil
}

func (s *Store) appendLocked(txn domain.Transaction) error {
	if _, exists := s.transactions[txn.TransactionID]; exists {
		return fmt.Errorf("transaction %s: %w", txn.TransactionID, apperrors.ErrDuplicate)
	}
	if txn.IsLinked() {
		if _, exists := s.linked[*txn.LinkedRequestID]; exists {
			return fmt.Errorf("request %s already has a linked expense: %w", *txn.LinkedRequestID, apperrors.ErrDuplicate)
		}
		s.linked[*txn.LinkedRequestID] = txn.TransactionID
	}
	s.transactions[txn.TransactionID] = txn
	return nil
}

func (s *Store) RemoveTransaction(ctx context.Context, transactionID string) error {
	s.mu.Lock()
	txn, ok := s.transactions[transactionID]
	if !ok {
		s.mu.Unlock()
		return apperrors.ErrNotFound
	}
	delete(s.transactions, transactionID)
	if txn.IsLinked() {
		delete(s.linked, *txn.LinkedRequestID)
	}
	s.mu.Unlock()
	s.emit(domain.EntityTransaction, domain.OpDelete, transactionID)
	return nil
}

// --- requests ---

func (s *Store) FindRequestByID(ctx context.Context, requestID string) (*domain.ProjectRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ListRequests(ctx context.Context) ([]domain.ProjectRequest, error) {
	return s.filterRequests(func(domain.ProjectRequest) bool { return true }), nil
}

func (s *Store) ListRequestsByStatus(ctx context.Context, statuses ...domain.RequestStatus) ([]domain.ProjectRequest, error) {
	want := make(map[domain.RequestStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	return s.filterRequests(func(r domain.ProjectRequest) bool { return want[r.Status] }), nil
}

func (s *Store) ListRequestsByRequester(ctx context.Context, requesterID string) ([]domain.ProjectRequest, error) {
	return s.filterRequests(func(r domain.ProjectRequest) bool { return r.RequesterID == requesterID }), nil
}

func (s *Store) filterRequests(keep func(domain.ProjectRequest) bool) []domain.ProjectRequest {
	s.mu.RLock()
	out := make([]domain.ProjectRequest, 0)
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RequestID > out[j].RequestID
	})
	return out
}

func (s *Store) SaveRequest(ctx context.Context, request domain.ProjectRequest) error {
	s.mu.Lock()
	if _, exists := s.requests[request.RequestID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("request %s: %w", request.RequestID, apperrors.ErrDuplicate)
	}
	s.requests[request.RequestID] = request
	s.mu.Unlock()
	s.emit(domain.EntityProjectRequest, domain.OpInsert, request.RequestID)
	return nil
}

func (s *Store) UpdateRequestStatus(ctx context.Context, change domain.StatusChange) (*domain.ProjectRequest, error) {
	if err := workflow.ValidateTransition(change.From, change.To); err != nil {
		return nil, err
	}
	s.mu.Lock()
	updated, err := s.applyLocked(change)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.emit(domain.EntityProjectRequest, domain.OpUpdate, change.RequestID)
	return updated, nil
}

func (s *Store) applyLocked(change domain.StatusChange) (*domain.ProjectRequest, error) {
	current, ok := s.requests[change.RequestID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if current.Version != change.ExpectedVersion || current.Status != change.From {
		return nil, fmt.Errorf("request %s is %s at version %d: %w",
			change.RequestID, current.Status, current.Version, apperrors.ErrConcurrentModification)
	}
	updated := change.Apply(current)
	s.requests[change.RequestID] = updated
	return &updated, nil
}

// ActivateWithExpense implements repositories.ApprovalWriter. The status change and
// the ledger insert happen under a single lock acquisition.
func (s *Store) ActivateWithExpense(ctx context.Context, activation domain.Activation) (*domain.ProjectRequest, error) {
	change := activation.Change
	if change.From != domain.StatusPending || change.To != domain.StatusActive {
		return nil, &workflow.InvalidTransitionError{From: change.From, Event: workflow.EventApprove, To: change.To}
	}
	if !activation.Expense.LinkedTo(change.RequestID) {
		return nil, fmt.Errorf("%w: expense is not linked to request %s", apperrors.ErrValidation, change.RequestID)
	}

	s.mu.Lock()
	current, ok := s.requests[change.RequestID]
	if !ok {
		s.mu.Unlock()
		return nil, apperrors.ErrNotFound
	}
	if current.Version != change.ExpectedVersion || current.Status != change.From {
		s.mu.Unlock()
		return nil, fmt.Errorf("request %s is %s at version %d: %w",
			change.RequestID, current.Status, current.Version, apperrors.ErrConcurrentModification)
	}
	if err := s.appendLocked(activation.Expense); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	updated := change.Apply(current)
	s.requests[change.RequestID] = updated
	s.mu.Unlock()

	s.emit(domain.EntityProjectRequest, domain.OpUpdate, change.RequestID)
	s.emit(domain.EntityTransaction, domain.OpInsert, activation.Expense.TransactionID)
	return &updated, nil
}
