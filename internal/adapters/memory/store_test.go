package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/org_funding_app/internal/adapters/memory"
	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func ptr[T any](v T) *T { return &v }

func (s *StoreTestSuite) pendingRequest(cost int64) domain.ProjectRequest {
	now := time.Now().UTC()
	r := domain.ProjectRequest{
		RequestID:     uuid.NewString(),
		Title:         "Community garden",
		EstimatedCost: decimal.NewFromInt(cost),
		Date:          domain.DateOnly(now),
		Status:        domain.StatusPending,
		RequesterID:   "member-1",
		SubmittedAt:   &now,
		Version:       1,
		AuditFields:   domain.AuditFields{CreatedAt: now, CreatedBy: "member-1", LastUpdatedAt: now, LastUpdatedBy: "member-1"},
	}
	s.Require().NoError(s.store.SaveRequest(s.ctx, r))
	return r
}

func activation(r domain.ProjectRequest, at time.Time) domain.Activation {
	return domain.Activation{
		Change: domain.StatusChange{
			RequestID:       r.RequestID,
			ExpectedVersion: r.Version,
			From:            domain.StatusPending,
			To:              domain.StatusActive,
			At:              at,
			ActorID:         "admin-1",
			ApprovedAt:      &at,
			ApprovedBy:      ptr("admin-1"),
		},
		Expense: domain.Transaction{
			TransactionID:   uuid.NewString(),
			Amount:          r.EstimatedCost,
			Kind:            domain.Expense,
			Description:     r.Title,
			Date:            domain.DateOnly(at),
			LinkedRequestID: ptr(r.RequestID),
			CreatedAt:       at,
			CreatedBy:       "admin-1",
		},
	}
}

func (s *StoreTestSuite) TestActivateWithExpense_WritesBoth() {
	r := s.pendingRequest(300)

	updated, err := s.store.ActivateWithExpense(s.ctx, activation(r, time.Now().UTC()))

	s.Require().NoError(err)
	s.Equal(domain.StatusActive, updated.Status)
	s.Equal(r.Version+1, updated.Version)
	s.NotNil(updated.ApprovedAt)

	txn, err := s.store.FindTransactionByLinkedRequestID(s.ctx, r.RequestID)
	s.Require().NoError(err)
	s.True(txn.Amount.Equal(decimal.NewFromInt(300)))
	s.Equal(domain.Expense, txn.Kind)
}

func (s *StoreTestSuite) TestActivateWithExpense_StaleVersionWritesNothing() {
	r := s.pendingRequest(300)
	act := activation(r, time.Now().UTC())
	act.Change.ExpectedVersion = r.Version + 5

	_, err := s.store.ActivateWithExpense(s.ctx, act)

	s.ErrorIs(err, apperrors.ErrConcurrentModification)
	txns, _ := s.store.ListTransactions(s.ctx)
	s.Empty(txns)
	stored, _ := s.store.FindRequestByID(s.ctx, r.RequestID)
	s.Equal(domain.StatusPending, stored.Status)
}

func (s *StoreTestSuite) TestActivateWithExpense_LedgerFailureLeavesStatus() {
	r := s.pendingRequest(300)
	// A stray entry already linked to the request makes the ledger insert fail.
	s.Require().NoError(s.store.AppendTransaction(s.ctx, domain.Transaction{
		TransactionID: uuid.NewString(), Amount: decimal.NewFromInt(1), Kind: domain.Expense,
		LinkedRequestID: ptr(r.RequestID), Date: time.Now().UTC(),
	}))

	_, err := s.store.ActivateWithExpense(s.ctx, activation(r, time.Now().UTC()))

	s.ErrorIs(err, apperrors.ErrDuplicate)
	stored, _ := s.store.FindRequestByID(s.ctx, r.RequestID)
	s.Equal(domain.StatusPending, stored.Status)
	s.Equal(r.Version, stored.Version)
}

func (s *StoreTestSuite) TestActivateWithExpense_ConcurrentCallersProduceOneExpense() {
	r := s.pendingRequest(300)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.ActivateWithExpense(s.ctx, activation(r, time.Now().UTC())); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load())
	txns, _ := s.store.ListTransactions(s.ctx)
	s.Len(txns, 1)
}

func (s *StoreTestSuite) TestUpdateRequestStatus_RejectsIllegalStep() {
	r := s.pendingRequest(10)

	_, err := s.store.UpdateRequestStatus(s.ctx, domain.StatusChange{
		RequestID: r.RequestID, ExpectedVersion: r.Version, From: domain.StatusPending, To: domain.StatusCompleted,
	})

	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *StoreTestSuite) TestUpdateRequestStatus_Reject() {
	r := s.pendingRequest(10)
	at := time.Now().UTC()

	updated, err := s.store.UpdateRequestStatus(s.ctx, domain.StatusChange{
		RequestID: r.RequestID, ExpectedVersion: r.Version, From: domain.StatusPending, To: domain.StatusRejected,
		At: at, ActorID: "admin-1", RejectedAt: &at,
	})

	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, updated.Status)
	txns, _ := s.store.ListTransactions(s.ctx)
	s.Empty(txns)
}

func (s *StoreTestSuite) TestListRequestsByStatus() {
	pending := s.pendingRequest(10)
	active := s.pendingRequest(20)
	_, err := s.store.ActivateWithExpense(s.ctx, activation(active, time.Now().UTC()))
	s.Require().NoError(err)

	got, err := s.store.ListRequestsByStatus(s.ctx, domain.StatusPending)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(pending.RequestID, got[0].RequestID)

	got, _ = s.store.ListRequestsByStatus(s.ctx, domain.StatusPending, domain.StatusActive)
	s.Len(got, 2)
}

func (s *StoreTestSuite) TestListTransactionsPage() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.AppendTransaction(s.ctx, domain.Transaction{
			TransactionID: uuid.NewString(), Amount: decimal.NewFromInt(int64(i + 1)), Kind: domain.Income,
			Date: base.AddDate(0, 0, i), CreatedAt: base.AddDate(0, 0, i),
		}))
	}

	first, next, err := s.store.ListTransactionsPage(s.ctx, 2, nil)
	s.Require().NoError(err)
	s.Require().Len(first, 2)
	s.Require().NotNil(next)
	s.True(first[0].Amount.Equal(decimal.NewFromInt(5)), "newest first")

	second, next, err := s.store.ListTransactionsPage(s.ctx, 2, next)
	s.Require().NoError(err)
	s.Require().Len(second, 2)
	s.True(second[0].Amount.Equal(decimal.NewFromInt(3)))

	third, next, err := s.store.ListTransactionsPage(s.ctx, 2, next)
	s.Require().NoError(err)
	s.Len(third, 1)
	s.Nil(next)

	_, _, err = s.store.ListTransactionsPage(s.ctx, 2, ptr("%%%"))
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *StoreTestSuite) TestWritesEmitChangeEvents() {
	events := make(chan domain.ChangeEvent, 8)
	sub, err := s.store.Subscribe(s.ctx, func(e domain.ChangeEvent) { events <- e })
	s.Require().NoError(err)
	defer sub.Unsubscribe()

	r := s.pendingRequest(10)
	e := <-events
	s.Equal(domain.EntityProjectRequest, e.Entity)
	s.Equal(domain.OpInsert, e.Op)
	s.Equal(r.RequestID, e.ID)

	_, err = s.store.ActivateWithExpense(s.ctx, activation(r, time.Now().UTC()))
	s.Require().NoError(err)
	s.Equal(domain.EntityProjectRequest, (<-events).Entity)
	s.Equal(domain.EntityTransaction, (<-events).Entity)
}
