package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	bookserrors "pustaka/internal/books/errors"
	loanserrors "pustaka/internal/loans/errors"
	"pustaka/internal/loans/validator"
	memberserrors "pustaka/internal/members/errors"
	"pustaka/pkg/auth"
	"pustaka/pkg/config"
	mongotx "pustaka/pkg/db/mongo"
	apperrors "pustaka/pkg/errors"
	"pustaka/pkg/kafka"
	"pustaka/pkg/logger"
	"pustaka/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testBookID = "507f1f77bcf86cd799439011"
	testLoanID = "507f1f77bcf86cd799439022"
)

var (
	member = auth.Principal{UserID: "user-1", Role: auth.RoleMember}
	other  = auth.Principal{UserID: "user-2", Role: auth.RoleMember}
	admin  = auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}

	today = time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockLoanRepository struct {
	createFunc       func(ctx context.Context, loan *model.Loan) error
	findByIDFunc     func(ctx context.Context, id string) (*model.Loan, error)
	findByUserFunc   func(ctx context.Context, userID string, status model.LoanStatus, limit int, offset int64) ([]*model.Loan, error)
	countByUserFunc  func(ctx context.Context, userID string, status model.LoanStatus) (int64, error)
	findAllFunc      func(ctx context.Context, status model.LoanStatus, limit int, offset int64) ([]*model.Loan, error)
	countFunc        func(ctx context.Context, status model.LoanStatus) (int64, error)
	renewFunc        func(ctx context.Context, seen *model.Loan, newDue time.Time, newCount int) (*model.Loan, error)
	markReturnedFunc func(ctx context.Context, id string, returnedAt time.Time, fine int64) (*model.Loan, error)
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *model.Loan) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, loan)
	}
	loan.ID = testLoanID
	return nil
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id string) (*model.Loan, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, loanserrors.ErrNotFound
}

func (m *mockLoanRepository) FindByUser(ctx context.Context, userID string, status model.LoanStatus, limit int, offset int64) ([]*model.Loan, error) {
	if m.findByUserFunc != nil {
		return m.findByUserFunc(ctx, userID, status, limit, offset)
	}
	return nil, nil
}

func (m *mockLoanRepository) CountByUser(ctx context.Context, userID string, status model.LoanStatus) (int64, error) {
	if m.countByUserFunc != nil {
		return m.countByUserFunc(ctx, userID, status)
	}
	return 0, nil
}

func (m *mockLoanRepository) FindAll(ctx context.Context, status model.LoanStatus, limit int, offset int64) ([]*model.Loan, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, status, limit, offset)
	}
	return nil, nil
}

func (m *mockLoanRepository) Count(ctx context.Context, status model.LoanStatus) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, status)
	}
	return 0, nil
}

func (m *mockLoanRepository) FindBorrowedDueBefore(ctx context.Context, before time.Time) ([]*model.Loan, error) {
	return nil, nil
}

func (m *mockLoanRepository) Renew(ctx context.Context, seen *model.Loan, newDue time.Time, newCount int) (*model.Loan, error) {
	if m.renewFunc != nil {
		return m.renewFunc(ctx, seen, newDue, newCount)
	}
	renewed := *seen
	renewed.DueDate = newDue
	renewed.RenewalCount = newCount
	return &renewed, nil
}

func (m *mockLoanRepository) MarkReturned(ctx context.Context, id string, returnedAt time.Time, fine int64) (*model.Loan, error) {
	if m.markReturnedFunc != nil {
		return m.markReturnedFunc(ctx, id, returnedAt, fine)
	}
	return nil, loanserrors.ErrNotBorrowed
}

func (m *mockLoanRepository) MarkFinePaid(ctx context.Context, id string) error {
	return nil
}

func (m *mockLoanRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

// mockLockRepository maps lock IDs to the owner holding them.
type mockLockRepository struct {
	mu       sync.Mutex
	held     map[string]string
	released []string
}

func newMockLockRepository() *mockLockRepository {
	return &mockLockRepository{held: map[string]string{}}
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.LoanLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[lock.ID]; ok {
		return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	}
	m.held[lock.ID] = lock.Owner
	return nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lock *model.LoanLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[lock.ID] == lock.Owner {
		delete(m.held, lock.ID)
	}
	m.released = append(m.released, lock.ID)
	return nil
}

type mockBookStock struct {
	stock       map[string]int
	incremented []string
}

func (m *mockBookStock) DecrementStock(ctx context.Context, id string) error {
	n, ok := m.stock[id]
	if !ok {
		return bookserrors.ErrNotFound
	}
	if n <= 0 {
		return bookserrors.ErrOutOfStock
	}
	m.stock[id] = n - 1
	return nil
}

func (m *mockBookStock) IncrementStock(ctx context.Context, id string) error {
	if _, ok := m.stock[id]; !ok {
		return bookserrors.ErrNotFound
	}
	m.stock[id]++
	m.incremented = append(m.incremented, id)
	return nil
}

type mockMembers struct {
	members map[string]*model.Member
	err     error
}

func (m *mockMembers) FindByUserID(ctx context.Context, userID string) (*model.Member, error) {
	if m.err != nil {
		return nil, m.err
	}
	found, ok := m.members[userID]
	if !ok {
		return nil, memberserrors.ErrNotFound
	}
	return found, nil
}

type recordingPublisher struct {
	events []model.LoanEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	var event model.LoanEvent
	if err := msg.DecodeJSON(&event); err != nil {
		return err
	}
	p.events = append(p.events, event)
	return nil
}

// ────────────────────────────────────────────────
// Fixture
// ────────────────────────────────────────────────

type fixture struct {
	svc     *loanService
	repo    *mockLoanRepository
	locks   *mockLockRepository
	books   *mockBookStock
	members *mockMembers
	events  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{
		Log:               log,
		LoanPeriodDays:    5,
		MaxActiveLoans:    3,
		MaxRenewals:       2,
		RenewalWindowDays: 2,
		FinePerDay:        5000,
		LibraryTimezone:   "UTC",
		LoanLockTTL:       time.Second,
	}

	f := &fixture{
		repo:  &mockLoanRepository{},
		locks: newMockLockRepository(),
		books: &mockBookStock{stock: map[string]int{testBookID: 1}},
		members: &mockMembers{members: map[string]*model.Member{
			member.UserID: {UserID: member.UserID, Status: model.MemberStatusVerified},
			other.UserID:  {UserID: other.UserID, Status: model.MemberStatusPending},
		}},
		events: &recordingPublisher{},
	}
	svc := NewLoanService(f.repo, f.locks, f.books, f.members, validator.NewLoanValidator(log), f.events, cfg)
	f.svc = svc.(*loanService)
	f.svc.clock = func() time.Time { return today }
	return f
}

func borrowedLoan(due time.Time, renewals int) *model.Loan {
	return &model.Loan{
		ID:           testLoanID,
		BookID:       testBookID,
		UserID:       member.UserID,
		BorrowDate:   due.AddDate(0, 0, -5),
		DueDate:      due,
		Status:       model.LoanStatusBorrowed,
		RenewalCount: renewals,
	}
}

func requireCode(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.Equal(t, code, appErr.Code, "unexpected error: %v", err)
	return appErr
}

// ────────────────────────────────────────────────
// Borrow
// ────────────────────────────────────────────────

func TestBorrow_Success(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Borrow(context.Background(), member, &model.BorrowRequest{BookID: testBookID})
	require.NoError(t, err)

	assert.Equal(t, testLoanID, view.ID)
	assert.Equal(t, model.LoanStatusBorrowed, view.Status)
	assert.Equal(t, today.AddDate(0, 0, 5), view.DueDate)
	assert.Equal(t, 5, view.DaysRemaining)
	assert.Zero(t, view.RenewalCount)
	assert.Equal(t, 0, f.books.stock[testBookID])

	require.Len(t, f.events.events, 1)
	assert.Equal(t, model.LoanEventBorrowed, f.events.events[0].Type)
	assert.False(t, f.events.events[0].Override)
	assert.Equal(t, []string{member.UserID}, f.locks.released)
}

func TestBorrow_ValidationFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Borrow(context.Background(), member, &model.BorrowRequest{BookID: "not-an-id"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestBorrow_RequiresCaller(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Borrow(context.Background(), auth.Principal{}, &model.BorrowRequest{BookID: testBookID})
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestBorrow_UnverifiedMember(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Borrow(context.Background(), other, &model.BorrowRequest{BookID: testBookID})
	appErr := requireCode(t, err, apperrors.CodeNotEligible)
	assert.Equal(t, "not_verified", appErr.Details["reason"])
	assert.Equal(t, 1, f.books.stock[testBookID])
}

func TestBorrow_UnregisteredMember(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Borrow(context.Background(), auth.Principal{UserID: "ghost", Role: auth.RoleMember}, &model.BorrowRequest{BookID: testBookID})
	appErr := requireCode(t, err, apperrors.CodeNotEligible)
	assert.Equal(t, "not_verified", appErr.Details["reason"])
}

func TestBorrow_LoanLimitReached(t *testing.T) {
	f := newFixture(t)
	f.repo.countByUserFunc = func(ctx context.Context, userID string, status model.LoanStatus) (int64, error) {
		assert.Equal(t, model.LoanStatusBorrowed, status)
		return 3, nil
	}

	_, err := f.svc.Borrow(context.Background(), member, &model.BorrowRequest{BookID: testBookID})
	appErr := requireCode(t, err, apperrors.CodeNotEligible)
	assert.Equal(t, "loan_limit_reached", appErr.Details["reason"])
	assert.Equal(t, 1, f.books.stock[testBookID], "stock must not move when the borrow is rejected")
	assert.Empty(t, f.events.events)
}

func TestBorrow_OutOfStock(t *testing.T) {
	f := newFixture(t)
	f.books.stock[testBookID] = 0
	created := false
	f.repo.createFunc = func(ctx context.Context, loan *model.Loan) error {
		created = true
		return nil
	}

	_, err := f.svc.Borrow(context.Background(), member, &model.BorrowRequest{BookID: testBookID})
	requireCode(t, err, apperrors.CodeOutOfStock)
	assert.False(t, created)
	assert.Equal(t, 0, f.books.stock[testBookID])
}

func TestBorrow_UnknownBook(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Borrow(context.Background(), member, &model.BorrowRequest{BookID: "507f1f77bcf86cd799439099"})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestBorrow_LockHeld(t *testing.T) {
	f := newFixture(t)
	f.locks.held[member.UserID] = "another-borrow"

	_, err := f.svc.Borrow(context.Background(), member, &model.BorrowRequest{BookID: testBookID})
	requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, 1, f.books.stock[testBookID])
}

func TestBorrow_StoreFailureIsTransient(t *testing.T) {
	f := newFixture(t)
	f.repo.countByUserFunc = func(ctx context.Context, userID string, status model.LoanStatus) (int64, error) {
		return 0, errors.New("connection reset")
	}

	_, err := f.svc.Borrow(context.Background(), member, &model.BorrowRequest{BookID: testBookID})
	appErr := requireCode(t, err, apperrors.CodeTransientStore)
	assert.True(t, appErr.Retriable())
	assert.Equal(t, []string{member.UserID}, f.locks.released, "lock must be released on failure")
}

func TestMemberLock_ReleaseKeepsLockTakenOverAfterExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	release, err := f.svc.acquireMemberLock(ctx, member.UserID)
	require.NoError(t, err)
	firstOwner := f.locks.held[member.UserID]
	require.NotEmpty(t, firstOwner)

	// The first borrow outlived its TTL and a second borrow took the lock over.
	f.locks.held[member.UserID] = "second-borrow"
	release()
	assert.Equal(t, "second-borrow", f.locks.held[member.UserID])

	release2, err := f.svc.acquireMemberLock(ctx, other.UserID)
	require.NoError(t, err)
	release2()
	assert.NotContains(t, f.locks.held, other.UserID)
}

func TestBorrowReturnCycles_RestoreStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.books.stock[testBookID] = 2

	loans := map[string]*model.Loan{}
	seq := 0
	f.repo.createFunc = func(ctx context.Context, loan *model.Loan) error {
		seq++
		loan.ID = fmt.Sprintf("%024x", seq)
		stored := *loan
		loans[loan.ID] = &stored
		return nil
	}
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		l, ok := loans[id]
		if !ok {
			return nil, loanserrors.ErrNotFound
		}
		found := *l
		return &found, nil
	}
	f.repo.countByUserFunc = func(ctx context.Context, userID string, status model.LoanStatus) (int64, error) {
		var n int64
		for _, l := range loans {
			if l.UserID == userID && l.Status == status {
				n++
			}
		}
		return n, nil
	}
	f.repo.markReturnedFunc = func(ctx context.Context, id string, returnedAt time.Time, fine int64) (*model.Loan, error) {
		l, ok := loans[id]
		if !ok || l.Status != model.LoanStatusBorrowed {
			return nil, loanserrors.ErrNotBorrowed
		}
		l.Status = model.LoanStatusReturned
		l.ReturnDate = &returnedAt
		l.Fine = fine
		returned := *l
		return &returned, nil
	}

	for round := 0; round < 3; round++ {
		var ids []string
		for range 2 {
			view, err := f.svc.Borrow(ctx, member, &model.BorrowRequest{BookID: testBookID})
			require.NoError(t, err, "round %d", round)
			ids = append(ids, view.ID)
		}
		assert.Equal(t, 0, f.books.stock[testBookID])

		_, err := f.svc.Borrow(ctx, member, &model.BorrowRequest{BookID: testBookID})
		requireCode(t, err, apperrors.CodeOutOfStock)
		assert.Equal(t, 0, f.books.stock[testBookID])

		for _, id := range ids {
			_, err := f.svc.Return(ctx, admin, id, true)
			require.NoError(t, err)
		}
		_, err = f.svc.Return(ctx, admin, ids[0], true)
		requireCode(t, err, apperrors.CodeConflict)

		assert.Equal(t, 2, f.books.stock[testBookID], "round %d", round)
	}
	assert.Len(t, f.books.incremented, 6)
	assert.Empty(t, f.locks.held)
}

func TestOverrideBorrow(t *testing.T) {
	t.Run("requires admin", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.OverrideBorrow(context.Background(), member, &model.OverrideBorrowRequest{UserID: member.UserID, BookID: testBookID, Confirm: true})
		requireCode(t, err, apperrors.CodeForbidden)
	})

	t.Run("requires confirmation", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.OverrideBorrow(context.Background(), admin, &model.OverrideBorrowRequest{UserID: member.UserID, BookID: testBookID})
		requireCode(t, err, apperrors.CodeConfirmationRequired)
	})

	t.Run("borrows on behalf of member", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.svc.OverrideBorrow(context.Background(), admin, &model.OverrideBorrowRequest{UserID: member.UserID, BookID: testBookID, Confirm: true})
		require.NoError(t, err)
		assert.Equal(t, member.UserID, view.UserID)
		assert.Equal(t, admin.UserID, view.CreatedBy)
		require.Len(t, f.events.events, 1)
		assert.True(t, f.events.events[0].Override)
		assert.Equal(t, admin.UserID, f.events.events[0].Actor)
	})
}

// ────────────────────────────────────────────────
// Renew
// ────────────────────────────────────────────────

func TestRenew_WithinWindow(t *testing.T) {
	f := newFixture(t)
	due := today.AddDate(0, 0, 2)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		return borrowedLoan(due, 0), nil
	}

	view, err := f.svc.Renew(context.Background(), member, testLoanID)
	require.NoError(t, err)
	assert.Equal(t, due.AddDate(0, 0, 5), view.DueDate)
	assert.Equal(t, 1, view.RenewalCount)
	assert.Equal(t, 7, view.DaysRemaining)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, model.LoanEventRenewed, f.events.events[0].Type)
}

func TestRenew_Denials(t *testing.T) {
	tests := []struct {
		name   string
		loan   *model.Loan
		reason string
	}{
		{"outside window", borrowedLoan(today.AddDate(0, 0, 3), 0), "outside_window"},
		{"cap reached", borrowedLoan(today.AddDate(0, 0, 1), 2), "cap_reached"},
		{"overdue", borrowedLoan(today.AddDate(0, 0, -1), 0), "overdue"},
		{"returned", func() *model.Loan {
			l := borrowedLoan(today, 0)
			l.Status = model.LoanStatusReturned
			return l
		}(), "not_borrowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
				return tt.loan, nil
			}
			f.repo.renewFunc = func(ctx context.Context, seen *model.Loan, newDue time.Time, newCount int) (*model.Loan, error) {
				t.Fatal("store must not be touched when renewal is denied")
				return nil, nil
			}

			_, err := f.svc.Renew(context.Background(), member, testLoanID)
			appErr := requireCode(t, err, apperrors.CodeRenewalNotAllowed)
			assert.Equal(t, tt.reason, appErr.Details["reason"])
		})
	}
}

func TestRenew_ConcurrentEdit(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		return borrowedLoan(today, 0), nil
	}
	f.repo.renewFunc = func(ctx context.Context, seen *model.Loan, newDue time.Time, newCount int) (*model.Loan, error) {
		return nil, loanserrors.ErrStaleLoan
	}

	_, err := f.svc.Renew(context.Background(), member, testLoanID)
	appErr := requireCode(t, err, apperrors.CodeRenewalNotAllowed)
	assert.Equal(t, "conflict", appErr.Details["reason"])
}

func TestRenew_OtherMembersLoanIsHidden(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		return borrowedLoan(today, 0), nil
	}

	_, err := f.svc.Renew(context.Background(), other, testLoanID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestOverrideRenew(t *testing.T) {
	t.Run("ignores cap and window", func(t *testing.T) {
		f := newFixture(t)
		due := today.AddDate(0, 0, 4)
		f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
			return borrowedLoan(due, 2), nil
		}

		view, err := f.svc.OverrideRenew(context.Background(), admin, testLoanID, true)
		require.NoError(t, err)
		assert.Equal(t, 3, view.RenewalCount)
		assert.Equal(t, due.AddDate(0, 0, 5), view.DueDate)
		require.Len(t, f.events.events, 1)
		assert.True(t, f.events.events[0].Override)
	})

	t.Run("still rejects overdue", func(t *testing.T) {
		f := newFixture(t)
		f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
			return borrowedLoan(today.AddDate(0, 0, -2), 0), nil
		}

		_, err := f.svc.OverrideRenew(context.Background(), admin, testLoanID, true)
		appErr := requireCode(t, err, apperrors.CodeRenewalNotAllowed)
		assert.Equal(t, "overdue", appErr.Details["reason"])
	})

	t.Run("requires confirmation", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.OverrideRenew(context.Background(), admin, testLoanID, false)
		requireCode(t, err, apperrors.CodeConfirmationRequired)
	})

	t.Run("members cannot override", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.OverrideRenew(context.Background(), member, testLoanID, true)
		requireCode(t, err, apperrors.CodeForbidden)
	})
}

// ────────────────────────────────────────────────
// Return
// ────────────────────────────────────────────────

func TestReturn_Overdue(t *testing.T) {
	f := newFixture(t)
	f.books.stock[testBookID] = 0
	loan := borrowedLoan(today.AddDate(0, 0, -3), 0)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		return loan, nil
	}
	f.repo.markReturnedFunc = func(ctx context.Context, id string, returnedAt time.Time, fine int64) (*model.Loan, error) {
		assert.Equal(t, int64(15000), fine)
		returned := *loan
		returned.Status = model.LoanStatusReturned
		returned.ReturnDate = &returnedAt
		returned.Fine = fine
		return &returned, nil
	}

	view, err := f.svc.Return(context.Background(), admin, testLoanID, true)
	require.NoError(t, err)
	assert.Equal(t, model.LoanStatusReturned, view.Status)
	assert.Equal(t, int64(15000), view.AccruedFine)
	assert.Equal(t, "Rp 15.000", view.FineLabel)
	assert.Equal(t, 1, f.books.stock[testBookID])
	require.Len(t, f.events.events, 1)
	assert.Equal(t, model.LoanEventReturned, f.events.events[0].Type)
	assert.False(t, f.events.events[0].Override)
}

func TestReturn_AlreadyReturned(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		l := borrowedLoan(today, 0)
		l.Status = model.LoanStatusReturned
		return l, nil
	}

	_, err := f.svc.Return(context.Background(), admin, testLoanID, true)
	requireCode(t, err, apperrors.CodeConflict)
	assert.Empty(t, f.books.incremented)
}

func TestReturn_LostRace(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		return borrowedLoan(today, 0), nil
	}

	_, err := f.svc.Return(context.Background(), admin, testLoanID, true)
	requireCode(t, err, apperrors.CodeConflict)
	assert.Empty(t, f.books.incremented)
}

func TestReturn_Authorization(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Return(context.Background(), member, testLoanID, true)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.svc.Return(context.Background(), admin, testLoanID, false)
	requireCode(t, err, apperrors.CodeConfirmationRequired)
}

func TestOverrideReturn_MarksEvent(t *testing.T) {
	f := newFixture(t)
	loan := borrowedLoan(today, 0)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		return loan, nil
	}
	f.repo.markReturnedFunc = func(ctx context.Context, id string, returnedAt time.Time, fine int64) (*model.Loan, error) {
		assert.Zero(t, fine, "a loan returned on its due date owes nothing")
		returned := *loan
		returned.Status = model.LoanStatusReturned
		return &returned, nil
	}

	_, err := f.svc.OverrideReturn(context.Background(), admin, testLoanID, true)
	require.NoError(t, err)
	require.Len(t, f.events.events, 1)
	assert.True(t, f.events.events[0].Override)
}

// ────────────────────────────────────────────────
// Queries
// ────────────────────────────────────────────────

func TestGetByID(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		if id != testLoanID {
			return nil, loanserrors.ErrNotFound
		}
		return borrowedLoan(today.AddDate(0, 0, 1), 0), nil
	}

	view, err := f.svc.GetByID(context.Background(), member, testLoanID)
	require.NoError(t, err)
	assert.True(t, view.CanRenew)
	assert.Equal(t, 1, view.DaysRemaining)

	view, err = f.svc.GetByID(context.Background(), admin, testLoanID)
	require.NoError(t, err)
	assert.Equal(t, member.UserID, view.UserID)

	_, err = f.svc.GetByID(context.Background(), member, "507f1f77bcf86cd799439099")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestGetByID_InvalidID(t *testing.T) {
	f := newFixture(t)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Loan, error) {
		return nil, loanserrors.ErrInvalidID
	}

	_, err := f.svc.GetByID(context.Background(), member, "bad")
	requireCode(t, err, apperrors.CodeInvalidInput)
}

func TestListMine_NormalizesPagination(t *testing.T) {
	f := newFixture(t)
	f.repo.countByUserFunc = func(ctx context.Context, userID string, status model.LoanStatus) (int64, error) {
		assert.Equal(t, member.UserID, userID)
		return 1, nil
	}
	f.repo.findByUserFunc = func(ctx context.Context, userID string, status model.LoanStatus, limit int, offset int64) ([]*model.Loan, error) {
		assert.Equal(t, 100, limit)
		assert.Zero(t, offset)
		return []*model.Loan{borrowedLoan(today, 0)}, nil
	}

	views, total, err := f.svc.ListMine(context.Background(), member, model.LoanStatusBorrowed, 500, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, views, 1)
	assert.Equal(t, 0, views[0].DaysRemaining)
}

func TestListMine_InvalidStatus(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.ListMine(context.Background(), member, "lost", 10, 0)
	requireCode(t, err, apperrors.CodeInvalidInput)
}

func TestListAll(t *testing.T) {
	f := newFixture(t)
	f.repo.countFunc = func(ctx context.Context, status model.LoanStatus) (int64, error) {
		return 0, errors.New("timeout")
	}

	_, _, err := f.svc.ListAll(context.Background(), member, "", 10, 0)
	requireCode(t, err, apperrors.CodeForbidden)

	_, _, err = f.svc.ListAll(context.Background(), admin, "", 10, 0)
	requireCode(t, err, apperrors.CodeTransientStore)
}
