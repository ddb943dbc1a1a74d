package services_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/SscSPs/org_funding_app/internal/adapters/lock"
	"github.com/SscSPs/org_funding_app/internal/adapters/memory"
	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
	portsrepo "github.com/SscSPs/org_funding_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/core/services"
	"github.com/SscSPs/org_funding_app/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ApprovalWriter ---
type MockApprovalWriter struct {
	mock.Mock
}

var _ portsrepo.ApprovalWriter = (*MockApprovalWriter)(nil)

func (m *MockApprovalWriter) ActivateWithExpense(ctx context.Context, activation domain.Activation) (*domain.ProjectRequest, error) {
	args := m.Called(ctx, activation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProjectRequest), args.Error(1)
}

// flakyLedger fails ListTransactions while failing is set.
type flakyLedger struct {
	*memory.Store
	failing atomic.Bool
}

func (f *flakyLedger) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	if f.failing.Load() {
		return nil, apperrors.ErrStoreUnavailable
	}
	return f.Store.ListTransactions(ctx)
}

// noticeRecorder collects published notices.
type noticeRecorder struct {
	mu      sync.Mutex
	notices []domain.TransitionNotice
}

func (r *noticeRecorder) Publish(n domain.TransitionNotice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) all() []domain.TransitionNotice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TransitionNotice(nil), r.notices...)
}

type ApprovalServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	notices  *noticeRecorder
	svc      portssvc.ApprovalSvc
	requests portssvc.ProjectRequestSvcFacade
}

func (s *ApprovalServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.notices = &noticeRecorder{}
	s.svc = s.newService(s.store)
	s.requests = services.NewProjectRequestService(s.store)
}

func (s *ApprovalServiceTestSuite) newService(approvals portsrepo.ApprovalWriter, options ...services.ApprovalServiceOption) portssvc.ApprovalSvc {
	options = append([]services.ApprovalServiceOption{
		services.WithNoticeSink(s.notices),
		services.WithApprovalClock(clock),
		services.WithLocker(lock.NewLocalLocker()),
	}, options...)
	return services.NewApprovalService(s.store, s.store, approvals, options...)
}

func TestApprovalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ApprovalServiceTestSuite))
}

func (s *ApprovalServiceTestSuite) fund(amount int64) {
	s.Require().NoError(s.store.AppendTransaction(s.ctx, domain.Transaction{
		TransactionID: "income-" + dec(amount).String(),
		Amount:        dec(amount),
		Kind:          domain.Income,
		Date:          fixedNow,
	}))
}

func (s *ApprovalServiceTestSuite) pending(title string, cost int64) *domain.ProjectRequest {
	r, err := s.requests.CreateRequest(s.ctx, dto.CreateProjectRequest{Title: title, EstimatedCost: dec(cost), Submit: true}, member)
	s.Require().NoError(err)
	return r
}

func (s *ApprovalServiceTestSuite) linkedExpenses() []domain.Transaction {
	txns, err := s.store.ListTransactions(s.ctx)
	s.Require().NoError(err)
	var out []domain.Transaction
	for _, t := range txns {
		if t.IsLinked() {
			out = append(out, t)
		}
	}
	return out
}

func (s *ApprovalServiceTestSuite) TestApprove_PostsLinkedExpense() {
	s.fund(1000)
	r := s.pending("Community garden", 300)

	res, err := s.svc.Approve(s.ctx, r.RequestID, admin)

	s.Require().NoError(err)
	s.False(res.AlreadyApplied)
	s.Empty(res.Warnings)
	s.Equal(domain.StatusActive, res.Request.Status)
	s.Equal(r.Version+1, res.Request.Version)
	s.Require().NotNil(res.Request.ApprovedAt)
	s.Equal(fixedNow, *res.Request.ApprovedAt)
	s.Require().NotNil(res.Request.ApprovedBy)
	s.Equal(admin.UserID, *res.Request.ApprovedBy)

	s.Require().NotNil(res.Transaction)
	s.Equal(domain.Expense, res.Transaction.Kind)
	s.True(res.Transaction.Amount.Equal(dec(300)))
	s.Equal("Project: Community garden", res.Transaction.Description)
	s.True(res.Transaction.LinkedTo(r.RequestID))

	stored, err := s.store.FindTransactionByLinkedRequestID(s.ctx, r.RequestID)
	s.Require().NoError(err)
	s.Equal(res.Transaction.TransactionID, stored.TransactionID)

	summary, err := services.NewLedgerService(s.store).GetBalance(s.ctx)
	s.Require().NoError(err)
	s.True(summary.Balance.Equal(dec(700)), "got %s", summary.Balance)
}

func (s *ApprovalServiceTestSuite) TestApprove_TwiceIsNoOp() {
	s.fund(1000)
	r := s.pending("Chairs", 200)

	first, err := s.svc.Approve(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)
	second, err := s.svc.Approve(s.ctx, r.RequestID, admin)

	s.Require().NoError(err)
	s.True(second.AlreadyApplied)
	s.Equal(domain.StatusActive, second.Request.Status)
	s.Require().NotNil(second.Transaction)
	s.Equal(first.Transaction.TransactionID, second.Transaction.TransactionID)
	s.Len(s.linkedExpenses(), 1)
	s.Equal(first.Request.Version, second.Request.Version)
}

func (s *ApprovalServiceTestSuite) TestApprove_LaterStatusesAreNoOps() {
	r := s.pending("Stage", 50)
	_, err := s.svc.Approve(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)
	_, err = s.svc.MarkComplete(s.ctx, r.RequestID, member)
	s.Require().NoError(err)

	res, err := s.svc.Approve(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)
	s.True(res.AlreadyApplied)
	s.Equal(domain.StatusPendingCompletion, res.Request.Status)

	_, err = s.svc.VerifyCompletion(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)
	res, err = s.svc.Approve(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)
	s.True(res.AlreadyApplied)
	s.Len(s.linkedExpenses(), 1)
}

func (s *ApprovalServiceTestSuite) TestApprove_ConcurrentCallersPostOnce() {
	s.fund(1000)
	r := s.pending("Roof", 400)
	// No locker: the store's version check alone must keep the expense unique.
	svc := services.NewApprovalService(s.store, s.store, s.store)

	var wg sync.WaitGroup
	var applied, noop atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Approve(s.ctx, r.RequestID, admin)
			if !s.NoError(err) {
				return
			}
			if res.AlreadyApplied {
				noop.Add(1)
			} else {
				applied.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), applied.Load())
	s.Equal(int32(15), noop.Load())
	s.Len(s.linkedExpenses(), 1)
}

func (s *ApprovalServiceTestSuite) TestApprove_InsufficientBalanceWarns() {
	s.fund(100)
	r := s.pending("Bus", 250)

	res, err := s.svc.Approve(s.ctx, r.RequestID, admin)

	s.Require().NoError(err)
	s.Equal(domain.StatusActive, res.Request.Status)
	s.Require().Len(res.Warnings, 1)
	s.Contains(res.Warnings[0], "insufficient balance")

	summary, err := services.NewLedgerService(s.store).GetBalance(s.ctx)
	s.Require().NoError(err)
	s.True(summary.Balance.Equal(dec(-150)))
}

func (s *ApprovalServiceTestSuite) TestApprove_UncheckedBalanceWarns() {
	r := s.pending("Bus", 250)
	ledger := &flakyLedger{Store: s.store}
	ledger.failing.Store(true)
	svc := services.NewApprovalService(s.store, ledger, s.store)

	res, err := svc.Approve(s.ctx, r.RequestID, admin)

	s.Require().NoError(err)
	s.Equal([]string{"balance could not be checked"}, res.Warnings)
}

func (s *ApprovalServiceTestSuite) TestApprove_FailedWriteLeavesRequestPending() {
	r := s.pending("Tents", 80)
	writer := new(MockApprovalWriter)
	writer.On("ActivateWithExpense", mock.Anything, mock.AnythingOfType("domain.Activation")).
		Return(nil, apperrors.ErrDuplicate).Once()
	svc := s.newService(writer)

	_, err := svc.Approve(s.ctx, r.RequestID, admin)

	s.ErrorIs(err, apperrors.ErrConflict)
	stored, err := s.store.FindRequestByID(s.ctx, r.RequestID)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, stored.Status)
	s.Equal(r.Version, stored.Version)
	s.Empty(s.linkedExpenses())
	s.Empty(s.notices.all())
	writer.AssertExpectations(s.T())
}

func (s *ApprovalServiceTestSuite) TestApprove_DefinitiveErrorIsReturned() {
	r := s.pending("Tents", 80)
	writer := new(MockApprovalWriter)
	writer.On("ActivateWithExpense", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrValidation).Once()
	svc := s.newService(writer)

	_, err := svc.Approve(s.ctx, r.RequestID, admin)

	s.ErrorIs(err, apperrors.ErrValidation)
	stored, _ := s.store.FindRequestByID(s.ctx, r.RequestID)
	s.Equal(domain.StatusPending, stored.Status)
	writer.AssertExpectations(s.T())
}

func (s *ApprovalServiceTestSuite) TestApprove_LostResponseIsRecovered() {
	r := s.pending("Projector", 120)
	writer := new(MockApprovalWriter)
	// The write lands but the caller only sees a backend failure.
	writer.On("ActivateWithExpense", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			_, err := s.store.ActivateWithExpense(s.ctx, args.Get(1).(domain.Activation))
			s.Require().NoError(err)
		}).
		Return(nil, apperrors.ErrStoreUnavailable).Once()
	svc := s.newService(writer)

	res, err := svc.Approve(s.ctx, r.RequestID, admin)

	s.Require().NoError(err)
	s.False(res.AlreadyApplied)
	s.Equal(domain.StatusActive, res.Request.Status)
	s.Len(s.linkedExpenses(), 1)
	writer.AssertExpectations(s.T())
}

func (s *ApprovalServiceTestSuite) TestApprove_UnknownOutcomeIsReported() {
	r := s.pending("Projector", 120)
	writer := new(MockApprovalWriter)
	writer.On("ActivateWithExpense", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrStoreUnavailable).Once()
	svc := s.newService(writer)

	_, err := svc.Approve(s.ctx, r.RequestID, admin)

	s.ErrorIs(err, apperrors.ErrStoreUnavailable)
	stored, _ := s.store.FindRequestByID(s.ctx, r.RequestID)
	s.Equal(domain.StatusPending, stored.Status)
}

func (s *ApprovalServiceTestSuite) TestApprove_GivesUpAfterMaxAttempts() {
	r := s.pending("Kitchen", 90)
	writer := new(MockApprovalWriter)
	writer.On("ActivateWithExpense", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrConcurrentModification).Times(2)
	svc := s.newService(writer, services.WithMaxAttempts(2))

	_, err := svc.Approve(s.ctx, r.RequestID, admin)

	s.ErrorIs(err, apperrors.ErrConcurrentModification)
	var appErr *apperrors.AppError
	s.Require().True(errors.As(err, &appErr))
	s.Equal(http.StatusConflict, appErr.Code)
	writer.AssertNumberOfCalls(s.T(), "ActivateWithExpense", 2)
}

func (s *ApprovalServiceTestSuite) TestApprove_Forbidden() {
	r := s.pending("Kitchen", 90)

	for _, actor := range []domain.Actor{member, readOnly} {
		_, err := s.svc.Approve(s.ctx, r.RequestID, actor)
		s.ErrorIs(err, apperrors.ErrForbidden)
	}
	stored, _ := s.store.FindRequestByID(s.ctx, r.RequestID)
	s.Equal(domain.StatusPending, stored.Status)
}

func (s *ApprovalServiceTestSuite) TestApprove_InvalidFromDraftAndRejected() {
	draft, err := s.requests.CreateRequest(s.ctx, dto.CreateProjectRequest{Title: "Draft", EstimatedCost: dec(10)}, member)
	s.Require().NoError(err)

	_, err = s.svc.Approve(s.ctx, draft.RequestID, admin)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)

	r := s.pending("Rejected", 10)
	_, err = s.svc.Reject(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)
	_, err = s.svc.Approve(s.ctx, r.RequestID, admin)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	var appErr *apperrors.AppError
	s.Require().ErrorAs(err, &appErr)
	s.Equal(http.StatusConflict, appErr.Code)
	s.Empty(s.linkedExpenses())

	_, err = s.svc.Approve(s.ctx, "missing", admin)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ApprovalServiceTestSuite) TestSubmit() {
	draft, err := s.requests.CreateRequest(s.ctx, dto.CreateProjectRequest{Title: "Draft", EstimatedCost: dec(10)}, member)
	s.Require().NoError(err)

	_, err = s.svc.Submit(s.ctx, draft.RequestID, member2)
	s.ErrorIs(err, apperrors.ErrForbidden)

	res, err := s.svc.Submit(s.ctx, draft.RequestID, member)
	s.Require().NoError(err)
	s.Equal(domain.StatusPending, res.Request.Status)
	s.Require().NotNil(res.Request.SubmittedAt)

	again, err := s.svc.Submit(s.ctx, draft.RequestID, member)
	s.Require().NoError(err)
	s.True(again.AlreadyApplied)
}

func (s *ApprovalServiceTestSuite) TestReject() {
	r := s.pending("Speakers", 60)

	res, err := s.svc.Reject(s.ctx, r.RequestID, admin)

	s.Require().NoError(err)
	s.Equal(domain.StatusRejected, res.Request.Status)
	s.Require().NotNil(res.Request.RejectedAt)
	s.Nil(res.Transaction)
	s.Empty(s.linkedExpenses())

	_, err = s.svc.Reject(s.ctx, r.RequestID, member)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *ApprovalServiceTestSuite) TestRejectActiveIsInvalid() {
	r := s.pending("Speakers", 60)
	_, err := s.svc.Approve(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)

	_, err = s.svc.Reject(s.ctx, r.RequestID, admin)

	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	stored, _ := s.store.FindRequestByID(s.ctx, r.RequestID)
	s.Equal(domain.StatusActive, stored.Status)
}

func (s *ApprovalServiceTestSuite) TestCompleteAndVerify() {
	s.fund(500)
	r := s.pending("Mural", 200)
	_, err := s.svc.Approve(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)

	_, err = s.svc.MarkComplete(s.ctx, r.RequestID, member2)
	s.ErrorIs(err, apperrors.ErrForbidden, "only the requester or an admin")

	done, err := s.svc.MarkComplete(s.ctx, r.RequestID, member)
	s.Require().NoError(err)
	s.Equal(domain.StatusPendingCompletion, done.Request.Status)

	_, err = s.svc.VerifyCompletion(s.ctx, r.RequestID, member)
	s.ErrorIs(err, apperrors.ErrForbidden)

	verified, err := s.svc.VerifyCompletion(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, verified.Request.Status)
	s.Require().NotNil(verified.Request.CompletedAt)

	// Completion never touches the ledger.
	s.Len(s.linkedExpenses(), 1)
	summary, err := services.NewLedgerService(s.store).GetBalance(s.ctx)
	s.Require().NoError(err)
	s.True(summary.Balance.Equal(dec(300)))
}

func (s *ApprovalServiceTestSuite) TestNoticesArePublished() {
	r := s.pending("Garden", 40)
	_, err := s.svc.Approve(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)
	_, err = s.svc.Approve(s.ctx, r.RequestID, admin)
	s.Require().NoError(err)

	notices := s.notices.all()
	s.Require().Len(notices, 1, "no-ops publish nothing")
	s.Equal(r.RequestID, notices[0].RequestID)
	s.Equal(domain.StatusPending, notices[0].From)
	s.Equal(domain.StatusActive, notices[0].To)
	s.True(notices[0].Amount.Equal(dec(40)))
	s.Equal(admin.UserID, notices[0].ActorID)
	s.Equal("Garden", notices[0].Title)
}
