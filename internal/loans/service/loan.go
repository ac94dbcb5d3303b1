package service

import (
	"context"
	"errors"
	"time"

	bookserrors "pustaka/internal/books/errors"
	loanserrors "pustaka/internal/loans/errors"
	"pustaka/internal/loans/policy"
	"pustaka/internal/loans/repository"
	"pustaka/internal/loans/validator"
	memberserrors "pustaka/internal/members/errors"
	"pustaka/pkg/auth"
	"pustaka/pkg/config"
	apperrors "pustaka/pkg/errors"
	"pustaka/pkg/kafka"
	"pustaka/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

const (
	pathNormal   = "normal"
	pathOverride = "admin_override"

	eventPublishTimeout = 5 * time.Second
)

// BookStock is the part of the catalog a loan transition touches. Both
// operations are single atomic increments in the store.
type BookStock interface {
	DecrementStock(ctx context.Context, id string) error
	IncrementStock(ctx context.Context, id string) error
}

type MemberLookup interface {
	FindByUserID(ctx context.Context, userID string) (*model.Member, error)
}

type LoanService interface {
	Borrow(ctx context.Context, caller auth.Principal, req *model.BorrowRequest) (*model.LoanView, error)
	Renew(ctx context.Context, caller auth.Principal, loanID string) (*model.LoanView, error)
	Return(ctx context.Context, caller auth.Principal, loanID string, confirmed bool) (*model.LoanView, error)
	OverrideBorrow(ctx context.Context, caller auth.Principal, req *model.OverrideBorrowRequest) (*model.LoanView, error)
	OverrideRenew(ctx context.Context, caller auth.Principal, loanID string, confirmed bool) (*model.LoanView, error)
	OverrideReturn(ctx context.Context, caller auth.Principal, loanID string, confirmed bool) (*model.LoanView, error)
	GetByID(ctx context.Context, caller auth.Principal, loanID string) (*model.LoanView, error)
	ListMine(ctx context.Context, caller auth.Principal, status model.LoanStatus, limit int, offset int64) ([]model.LoanView, int64, error)
	ListAll(ctx context.Context, caller auth.Principal, status model.LoanStatus, limit int, offset int64) ([]model.LoanView, int64, error)
}

type loanService struct {
	repo      repository.LoanRepository
	lockRepo  repository.LoanLockRepository
	books     BookStock
	members   MemberLookup
	validator *validator.LoanValidator
	events    kafka.Publisher
	policy    policy.Policy
	clock     policy.Clock
	cfg       *config.Config
}

func NewLoanService(
	repo repository.LoanRepository,
	lockRepo repository.LoanLockRepository,
	books BookStock,
	members MemberLookup,
	validator *validator.LoanValidator,
	events kafka.Publisher,
	cfg *config.Config,
) LoanService {
	if events == nil {
		events = kafka.NopPublisher{}
	}
	return &loanService{
		repo:      repo,
		lockRepo:  lockRepo,
		books:     books,
		members:   members,
		validator: validator,
		events:    events,
		policy:    policy.FromConfig(cfg),
		clock:     policy.SystemClock,
		cfg:       cfg,
	}
}

func (s *loanService) Borrow(ctx context.Context, caller auth.Principal, req *model.BorrowRequest) (*model.LoanView, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateBorrow(req); err != nil {
		s.cfg.Log.Warn("Borrow validation failed", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Validation("Invalid borrow request", map[string]any{"error": err.Error()})
	}
	return s.borrow(ctx, caller, caller.UserID, req.BookID, false)
}

// OverrideBorrow lets an administrator check a book out on behalf of a
// member. Verification, the active-loan cap and stock still apply.
func (s *loanService) OverrideBorrow(ctx context.Context, caller auth.Principal, req *model.OverrideBorrowRequest) (*model.LoanView, error) {
	if err := requireOverride(caller, req.Confirm, "Borrow on behalf of a member"); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateOverrideBorrow(req); err != nil {
		return nil, apperrors.Validation("Invalid borrow request", map[string]any{"error": err.Error()})
	}
	return s.borrow(ctx, caller, req.UserID, req.BookID, true)
}

func (s *loanService) borrow(ctx context.Context, actor auth.Principal, userID, bookID string, override bool) (*model.LoanView, error) {
	member, err := s.members.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, memberserrors.ErrNotFound) {
			return nil, apperrors.NotEligible(string(policy.DenialNotVerified), "Register as a member before borrowing")
		}
		return nil, apperrors.TransientStore("Failed to load member", err)
	}
	if denial := s.policy.CheckBorrow(member.IsVerified(), 0); denial != policy.BorrowAllowed {
		return nil, apperrors.NotEligible(string(denial), denial.Message())
	}

	release, err := s.acquireMemberLock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer release()

	now := s.clock()
	loan := &model.Loan{
		BookID:     bookID,
		UserID:     userID,
		BorrowDate: now,
		DueDate:    s.policy.DueDate(now),
		Status:     model.LoanStatusBorrowed,
		CreatedBy:  actor.UserID,
	}

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		// The transaction body may run more than once.
		loan.ID = ""

		active, err := s.repo.CountByUser(txCtx, userID, model.LoanStatusBorrowed)
		if err != nil {
			return apperrors.TransientStore("Failed to count active loans", err)
		}
		if denial := s.policy.CheckBorrow(true, active); denial != policy.BorrowAllowed {
			return apperrors.NotEligible(string(denial), denial.Message())
		}
		if err := s.books.DecrementStock(txCtx, bookID); err != nil {
			return mapStockError(err, bookID)
		}
		if err := s.repo.Create(txCtx, loan); err != nil {
			return apperrors.TransientStore("Failed to create loan", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Borrow rejected",
			"user_id", userID,
			"book_id", bookID,
			"actor", actor.UserID,
			"path", auditPath(override),
			"error", err,
		)
		return nil, err
	}

	s.audit(ctx, model.LoanEventBorrowed, loan, actor, override)
	view := s.policy.View(loan, now)
	return &view, nil
}

func (s *loanService) Renew(ctx context.Context, caller auth.Principal, loanID string) (*model.LoanView, error) {
	loan, err := s.loadForCaller(ctx, caller, loanID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if denial := s.policy.CheckRenewal(loan, now); denial != policy.RenewalAllowed {
		return nil, renewalDenied(denial)
	}
	return s.renew(ctx, caller, loan, now, false)
}

// OverrideRenew ignores the renewal cap and window. A returned or overdue
// loan still cannot be renewed.
func (s *loanService) OverrideRenew(ctx context.Context, caller auth.Principal, loanID string, confirmed bool) (*model.LoanView, error) {
	if err := requireOverride(caller, confirmed, "Override renewal"); err != nil {
		return nil, err
	}
	loan, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if denial := s.policy.CheckAdminRenewal(loan, now); denial != policy.RenewalAllowed {
		return nil, renewalDenied(denial)
	}
	return s.renew(ctx, caller, loan, now, true)
}

func (s *loanService) renew(ctx context.Context, actor auth.Principal, loan *model.Loan, now time.Time, override bool) (*model.LoanView, error) {
	newDue, newCount := s.policy.Renewed(loan)

	updated, err := s.repo.Renew(ctx, loan, newDue, newCount)
	if err != nil {
		if errors.Is(err, loanserrors.ErrStaleLoan) {
			return nil, renewalDenied(policy.DenialConcurrentEdit)
		}
		s.cfg.Log.Error("Failed to renew loan", "loan_id", loan.ID, "error", err)
		return nil, apperrors.TransientStore("Failed to renew loan", err)
	}

	s.audit(ctx, model.LoanEventRenewed, updated, actor, override)
	view := s.policy.View(updated, now)
	return &view, nil
}

func (s *loanService) Return(ctx context.Context, caller auth.Principal, loanID string, confirmed bool) (*model.LoanView, error) {
	if err := requireOverride(caller, confirmed, "Return"); err != nil {
		return nil, err
	}
	return s.returnLoan(ctx, caller, loanID, false)
}

func (s *loanService) OverrideReturn(ctx context.Context, caller auth.Principal, loanID string, confirmed bool) (*model.LoanView, error) {
	if err := requireOverride(caller, confirmed, "Override return"); err != nil {
		return nil, err
	}
	return s.returnLoan(ctx, caller, loanID, true)
}

// returnLoan closes the loan, fixes its fine and puts the copy back on the
// shelf in one transaction. Returning is not gated on paying the fine.
func (s *loanService) returnLoan(ctx context.Context, actor auth.Principal, loanID string, override bool) (*model.LoanView, error) {
	now := s.clock()

	var returned *model.Loan
	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		loan, err := s.repo.FindByID(txCtx, loanID)
		if err != nil {
			return mapLoanError(err, loanID)
		}
		if loan.Status != model.LoanStatusBorrowed {
			return apperrors.Conflict("Loan has already been returned")
		}

		fine := s.policy.CalculateFine(loan.DueDate, now)
		returned, err = s.repo.MarkReturned(txCtx, loanID, now, fine)
		if err != nil {
			if errors.Is(err, loanserrors.ErrNotBorrowed) {
				return apperrors.Conflict("Loan has already been returned")
			}
			return apperrors.TransientStore("Failed to mark loan returned", err)
		}
		if err := s.books.IncrementStock(txCtx, returned.BookID); err != nil {
			return mapStockError(err, returned.BookID)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Warn("Return rejected",
			"loan_id", loanID,
			"actor", actor.UserID,
			"path", auditPath(override),
			"error", err,
		)
		return nil, err
	}

	s.audit(ctx, model.LoanEventReturned, returned, actor, override)
	view := s.policy.View(returned, now)
	return &view, nil
}

func (s *loanService) GetByID(ctx context.Context, caller auth.Principal, loanID string) (*model.LoanView, error) {
	loan, err := s.loadForCaller(ctx, caller, loanID)
	if err != nil {
		return nil, err
	}
	view := s.policy.View(loan, s.clock())
	return &view, nil
}

func (s *loanService) ListMine(ctx context.Context, caller auth.Principal, status model.LoanStatus, limit int, offset int64) ([]model.LoanView, int64, error) {
	if err := requireCaller(caller); err != nil {
		return nil, 0, err
	}
	if err := validateStatus(status); err != nil {
		return nil, 0, err
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountByUser(ctx, caller.UserID, status) },
		func(ctx context.Context) ([]*model.Loan, error) {
			return s.repo.FindByUser(ctx, caller.UserID, status, limit, offset)
		},
	)
}

func (s *loanService) ListAll(ctx context.Context, caller auth.Principal, status model.LoanStatus, limit int, offset int64) ([]model.LoanView, int64, error) {
	if !caller.IsAdmin() {
		return nil, 0, apperrors.Forbidden("Administrator role required")
	}
	if err := validateStatus(status); err != nil {
		return nil, 0, err
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.Count(ctx, status) },
		func(ctx context.Context) ([]*model.Loan, error) { return s.repo.FindAll(ctx, status, limit, offset) },
	)
}

func (s *loanService) list(
	ctx context.Context,
	count func(context.Context) (int64, error),
	find func(context.Context) ([]*model.Loan, error),
) ([]model.LoanView, int64, error) {
	var total int64
	var loans []*model.Loan

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		loans, err = find(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list loans", "error", err)
		return nil, 0, apperrors.TransientStore("Failed to retrieve loans", err)
	}

	now := s.clock()
	views := make([]model.LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, s.policy.View(loan, now))
	}
	return views, total, nil
}

// --- Helpers ---

func (s *loanService) load(ctx context.Context, loanID string) (*model.Loan, error) {
	if loanID == "" {
		return nil, apperrors.InvalidInput("Loan ID cannot be empty")
	}
	loan, err := s.repo.FindByID(ctx, loanID)
	if err != nil {
		return nil, mapLoanError(err, loanID)
	}
	return loan, nil
}

// loadForCaller hides other members' loans behind NotFound.
func (s *loanService) loadForCaller(ctx context.Context, caller auth.Principal, loanID string) (*model.Loan, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	loan, err := s.load(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && loan.UserID != caller.UserID {
		return nil, apperrors.NotFoundWithID("Loan", loanID)
	}
	return loan, nil
}

func (s *loanService) acquireMemberLock(ctx context.Context, userID string) (func(), error) {
	lock := &model.LoanLock{
		ID:        userID,
		Owner:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.cfg.LoanLockTTL),
	}

	if err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Conflict("Another borrow for this member is in progress. Please try again.")
		}
		return nil, apperrors.TransientStore("Failed to acquire borrow lock", err)
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.LoanLockTTL)
		defer cancel()
		if err := s.lockRepo.Delete(releaseCtx, lock); err != nil {
			s.cfg.Log.Warn("Failed to release borrow lock", "lock_id", lock.ID, "error", err)
		}
	}, nil
}

// audit writes the transition to the log and publishes it on the loan-events
// topic. The transition is already committed, so publish failures are only logged.
func (s *loanService) audit(ctx context.Context, eventType model.LoanEventType, loan *model.Loan, actor auth.Principal, override bool) {
	event := model.LoanEvent{
		Type:         eventType,
		LoanID:       loan.ID,
		UserID:       loan.UserID,
		BookID:       loan.BookID,
		Actor:        actor.UserID,
		Override:     override,
		DueDate:      loan.DueDate,
		RenewalCount: loan.RenewalCount,
		Fine:         loan.Fine,
		OccurredAt:   s.clock().UTC(),
	}

	s.cfg.Log.Info("Loan transition",
		"event", eventType,
		"path", auditPath(override),
		"loan_id", loan.ID,
		"user_id", loan.UserID,
		"book_id", loan.BookID,
		"actor", actor.UserID,
		"due_date", loan.DueDate,
		"renewal_count", loan.RenewalCount,
		"fine", loan.Fine,
	)

	msg, err := kafka.NewJSONMessage(loan.UserID, string(eventType), event)
	if err != nil {
		s.cfg.Log.Error("Failed to encode loan event", "loan_id", loan.ID, "error", err)
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventPublishTimeout)
	defer cancel()
	if err := s.events.Publish(pubCtx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish loan event", "loan_id", loan.ID, "event", eventType, "error", err)
	}
}

func auditPath(override bool) string {
	if override {
		return pathOverride
	}
	return pathNormal
}

func requireCaller(caller auth.Principal) error {
	if caller.UserID == "" {
		return apperrors.Unauthorized("Authentication required")
	}
	return nil
}

func requireOverride(caller auth.Principal, confirmed bool, action string) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		return apperrors.Forbidden("Administrator role required")
	}
	if !confirmed {
		return apperrors.ConfirmationRequired(action)
	}
	return nil
}

func validateStatus(status model.LoanStatus) error {
	switch status {
	case "", model.LoanStatusBorrowed, model.LoanStatusReturned:
		return nil
	}
	return apperrors.InvalidInput("status must be one of: borrowed, returned")
}

func renewalDenied(denial policy.RenewalDenial) error {
	return apperrors.RenewalNotAllowed(string(denial), denial.Message())
}

func mapLoanError(err error, loanID string) error {
	switch {
	case errors.Is(err, loanserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Loan", loanID)
	case errors.Is(err, loanserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid loan ID format")
	default:
		return apperrors.TransientStore("Failed to retrieve loan", err)
	}
}

func mapStockError(err error, bookID string) error {
	switch {
	case errors.Is(err, bookserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Book", bookID)
	case errors.Is(err, bookserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid book ID format")
	case errors.Is(err, bookserrors.ErrOutOfStock):
		return apperrors.OutOfStock(bookID)
	default:
		return apperrors.TransientStore("Failed to update book stock", err)
	}
}
