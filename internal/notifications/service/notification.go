package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pustaka/internal/loans/policy"
	notificationserrors "pustaka/internal/notifications/errors"
	"pustaka/internal/notifications/repository"
	"pustaka/pkg/auth"
	"pustaka/pkg/config"
	apperrors "pustaka/pkg/errors"
	"pustaka/pkg/kafka"
	"pustaka/pkg/model"

	"golang.org/x/sync/errgroup"
)

const dateLayout = "Mon, 02 Jan 2006"

// DueLoans is the slice of the loan store the reminder sweep reads.
type DueLoans interface {
	FindBorrowedDueBefore(ctx context.Context, before time.Time) ([]*model.Loan, error)
}

type NotificationService interface {
	HandleLoanEvent(ctx context.Context, msg kafka.Message) error
	SendReminders(ctx context.Context) (int, error)
	ListMine(ctx context.Context, caller auth.Principal, unreadOnly bool, limit int, offset int64) ([]*model.Notification, int64, error)
	MarkRead(ctx context.Context, caller auth.Principal, id string) error
}

type notificationService struct {
	repo   repository.NotificationRepository
	loans  DueLoans
	policy policy.Policy
	clock  policy.Clock
	cfg    *config.Config
}

func NewNotificationService(repo repository.NotificationRepository, loans DueLoans, cfg *config.Config) NotificationService {
	return &notificationService{
		repo:   repo,
		loans:  loans,
		policy: policy.FromConfig(cfg),
		clock:  policy.SystemClock,
		cfg:    cfg,
	}
}

// HandleLoanEvent turns one loan transition into an inbox entry for the
// borrower. It is the kafka.MessageHandler of the notifier's consumer.
func (s *notificationService) HandleLoanEvent(ctx context.Context, msg kafka.Message) error {
	var event model.LoanEvent
	if err := msg.DecodeJSON(&event); err != nil {
		return err
	}
	if event.LoanID == "" || event.UserID == "" {
		return kafka.Permanent("loan event without loan or user", nil)
	}

	n := &model.Notification{
		UserID:   event.UserID,
		LoanID:   event.LoanID,
		DedupKey: fmt.Sprintf("%s|%s|%d", event.LoanID, event.Type, event.RenewalCount),
	}
	due := event.DueDate.In(s.policy.Location).Format(dateLayout)

	switch event.Type {
	case model.LoanEventBorrowed:
		n.Kind = model.NotificationLoanBorrowed
		n.Message = fmt.Sprintf("You borrowed a book. Please return it by %s.", due)
	case model.LoanEventRenewed:
		n.Kind = model.NotificationLoanRenewed
		n.Message = fmt.Sprintf("Your loan was renewed. The new due date is %s.", due)
	case model.LoanEventReturned:
		n.Kind = model.NotificationLoanReturned
		n.Message = "Your book was returned. Thank you!"
		if event.Fine > 0 {
			n.Message = fmt.Sprintf("Your book was returned late. A fine of %s is payable.", policy.FormatRupiah(event.Fine))
		}
	default:
		s.cfg.Log.Warn("Skipping unknown loan event", "type", event.Type, "event_id", msg.EventID())
		return nil
	}
	if event.Override {
		n.Message += " (processed by library staff)"
	}

	return s.deliver(ctx, n)
}

// SendReminders notifies borrowers whose loans are inside the renewal
// window or overdue. Each loan gets at most one reminder per kind per day.
func (s *notificationService) SendReminders(ctx context.Context) (int, error) {
	now := s.clock()
	today := s.policy.Midnight(now)
	horizon := today.AddDate(0, 0, s.policy.RenewalWindowDays+1)

	loans, err := s.loans.FindBorrowedDueBefore(ctx, horizon)
	if err != nil {
		return 0, fmt.Errorf("failed to load due loans: %w", err)
	}

	stamp := today.Format(time.DateOnly)
	sent := 0
	for _, loan := range loans {
		n := s.reminder(loan, now)
		n.DedupKey = fmt.Sprintf("%s|%s|%s", loan.ID, n.Kind, stamp)

		if err := s.deliver(ctx, n); err != nil {
			return sent, err
		}
		sent++
	}

	s.cfg.Log.Info("Reminder sweep finished", "due_loans", len(loans), "processed", sent)
	return sent, nil
}

func (s *notificationService) reminder(loan *model.Loan, now time.Time) *model.Notification {
	n := &model.Notification{UserID: loan.UserID, LoanID: loan.ID}
	remaining := s.policy.DaysRemaining(loan.DueDate, now)

	switch {
	case remaining < 0:
		n.Kind = model.NotificationOverdue
		n.Message = fmt.Sprintf("Your loan is %d day(s) overdue. The fine so far is %s.",
			-remaining, policy.FormatRupiah(s.policy.CalculateFine(loan.DueDate, now)))
	case remaining == 0:
		n.Kind = model.NotificationDueSoon
		n.Message = "Your loan is due today."
	default:
		n.Kind = model.NotificationDueSoon
		n.Message = fmt.Sprintf("Your loan is due in %d day(s), on %s.", remaining, loan.DueDate.In(s.policy.Location).Format(dateLayout))
	}
	if n.Kind == model.NotificationDueSoon && s.policy.CanRenew(loan, now) {
		n.Message += " You can still renew it."
	}
	return n
}

// deliver treats an already-delivered notification as success.
func (s *notificationService) deliver(ctx context.Context, n *model.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		if errors.Is(err, notificationserrors.ErrDuplicate) {
			s.cfg.Log.Debug("Notification already delivered", "dedup_key", n.DedupKey)
			return nil
		}
		return err
	}
	return nil
}

func (s *notificationService) ListMine(ctx context.Context, caller auth.Principal, unreadOnly bool, limit int, offset int64) ([]*model.Notification, int64, error) {
	if caller.UserID == "" {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var notifications []*model.Notification
	var total int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByUser(gctx, caller.UserID, unreadOnly)
		return err
	})
	g.Go(func() error {
		var err error
		notifications, err = s.repo.FindByUser(gctx, caller.UserID, unreadOnly, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, apperrors.TransientStore("Failed to retrieve notifications", err)
	}
	if notifications == nil {
		notifications = []*model.Notification{}
	}
	return notifications, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, caller auth.Principal, id string) error {
	if caller.UserID == "" {
		return apperrors.Unauthorized("Authentication required")
	}
	if err := s.repo.MarkRead(ctx, id, caller.UserID); err != nil {
		switch {
		case errors.Is(err, notificationserrors.ErrNotFound):
			return apperrors.NotFoundWithID("Notification", id)
		case errors.Is(err, notificationserrors.ErrInvalidID):
			return apperrors.InvalidInput("Invalid notification ID format")
		default:
			return apperrors.TransientStore("Failed to update notification", err)
		}
	}
	return nil
}
