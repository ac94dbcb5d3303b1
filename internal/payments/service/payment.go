package service

import (
	"context"
	"errors"
	"math"
	"strconv"

	loanserrors "pustaka/internal/loans/errors"
	"pustaka/internal/loans/policy"
	paymentserrors "pustaka/internal/payments/errors"
	"pustaka/internal/payments/gateway"
	"pustaka/internal/payments/repository"
	"pustaka/internal/payments/validator"
	"pustaka/pkg/auth"
	"pustaka/pkg/config"
	apperrors "pustaka/pkg/errors"
	"pustaka/pkg/model"
	"pustaka/pkg/sanitizer"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	fineOrderPrefix     = "FINE-"
	donationOrderPrefix = "DONATION-"
)

// LoanFines is the slice of the loan store that fine payments need.
type LoanFines interface {
	FindByID(ctx context.Context, id string) (*model.Loan, error)
	MarkFinePaid(ctx context.Context, id string) error
}

type PaymentService interface {
	CheckoutFine(ctx context.Context, caller auth.Principal, req *model.FineCheckoutRequest) (*model.Checkout, error)
	Donate(ctx context.Context, caller auth.Principal, req *model.DonationRequest) (*model.Checkout, error)
	HandleNotification(ctx context.Context, n gateway.Notification) error
	ListMine(ctx context.Context, caller auth.Principal, limit int, offset int64) ([]*model.Payment, int64, error)
}

type paymentService struct {
	repo      repository.PaymentRepository
	loans     LoanFines
	checkout  gateway.Checkout
	outcomes  gateway.OutcomeHandler
	validator *validator.PaymentValidator
	cfg       *config.Config
}

func NewPaymentService(
	repo repository.PaymentRepository,
	loans LoanFines,
	checkout gateway.Checkout,
	outcomes gateway.OutcomeHandler,
	validator *validator.PaymentValidator,
	cfg *config.Config,
) PaymentService {
	return &paymentService{
		repo:      repo,
		loans:     loans,
		checkout:  checkout,
		outcomes:  outcomes,
		validator: validator,
		cfg:       cfg,
	}
}

// CheckoutFine opens a gateway checkout for the fine of a returned loan.
// An existing pending checkout for the same loan is returned as is.
func (s *paymentService) CheckoutFine(ctx context.Context, caller auth.Principal, req *model.FineCheckoutRequest) (*model.Checkout, error) {
	if caller.UserID == "" {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if err := s.validator.ValidateFineCheckout(req); err != nil {
		return nil, apperrors.Validation("Invalid fine checkout", map[string]any{"error": err.Error()})
	}

	loan, err := s.loans.FindByID(ctx, req.LoanID)
	if err != nil {
		return nil, mapLoanError(err, req.LoanID)
	}
	if !caller.IsAdmin() && loan.UserID != caller.UserID {
		return nil, apperrors.NotFoundWithID("Loan", req.LoanID)
	}
	switch {
	case loan.Status != model.LoanStatusReturned:
		return nil, apperrors.Conflict("The fine is fixed and payable once the book is returned")
	case loan.Fine <= 0:
		return nil, apperrors.Conflict("This loan has no fine")
	case loan.FinePaid:
		return nil, apperrors.Conflict("This fine has already been paid")
	}

	if err := s.refuseSettledFine(ctx, loan); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindPendingFine(ctx, loan.ID)
	if err == nil {
		return checkoutOf(existing), nil
	}
	if !errors.Is(err, paymentserrors.ErrNotFound) {
		return nil, apperrors.TransientStore("Failed to look up fine payment", err)
	}

	payment := &model.Payment{
		OrderID: fineOrderPrefix + uuid.NewString(),
		Kind:    model.PaymentKindFine,
		UserID:  loan.UserID,
		LoanID:  loan.ID,
		Amount:  loan.Fine,
	}
	items := []gateway.ItemDetail{{
		ID:       loan.ID,
		Name:     "Late return fine",
		Price:    loan.Fine,
		Quantity: 1,
	}}
	if err := s.open(ctx, payment, items, nil); err != nil {
		return nil, err
	}
	return checkoutOf(payment), nil
}

// Donate accepts donations from members and anonymous visitors alike.
func (s *paymentService) Donate(ctx context.Context, caller auth.Principal, req *model.DonationRequest) (*model.Checkout, error) {
	req.Name = sanitizer.SanitizeText(req.Name)
	req.Email = sanitizer.SanitizeEmail(req.Email)
	req.Message = sanitizer.SanitizeText(req.Message)

	if err := s.validator.ValidateDonation(req, int64(s.cfg.MinDonationAmount)); err != nil {
		return nil, apperrors.Validation("Invalid donation", map[string]any{"error": err.Error()})
	}

	payment := &model.Payment{
		OrderID:    donationOrderPrefix + uuid.NewString(),
		Kind:       model.PaymentKindDonation,
		UserID:     caller.UserID,
		DonorName:  req.Name,
		DonorEmail: req.Email,
		Message:    req.Message,
		Amount:     req.Amount,
	}
	items := []gateway.ItemDetail{{
		ID:       "donation",
		Name:     "Library donation",
		Price:    req.Amount,
		Quantity: 1,
	}}
	customer := &gateway.CustomerDetails{FirstName: req.Name, Email: req.Email}
	if err := s.open(ctx, payment, items, customer); err != nil {
		return nil, err
	}
	return checkoutOf(payment), nil
}

func (s *paymentService) open(ctx context.Context, payment *model.Payment, items []gateway.ItemDetail, customer *gateway.CustomerDetails) error {
	resp, err := s.checkout.CreateTransaction(ctx, &gateway.TransactionRequest{
		TransactionDetails: gateway.TransactionDetails{
			OrderID:     payment.OrderID,
			GrossAmount: payment.Amount,
		},
		CustomerDetails: customer,
		ItemDetails:     items,
	})
	if err != nil {
		s.cfg.Log.Error("Gateway checkout failed", "order_id", payment.OrderID, "kind", payment.Kind, "error", err)
		return apperrors.Gateway("Payment gateway is unavailable, please try again", err)
	}

	payment.Status = model.PaymentStatusPending
	payment.SnapToken = resp.Token
	payment.RedirectURL = resp.RedirectURL
	if err := s.repo.Create(ctx, payment); err != nil {
		s.cfg.Log.Error("Failed to store payment", "order_id", payment.OrderID, "error", err)
		return apperrors.TransientStore("Failed to create payment", err)
	}

	s.cfg.Log.Info("Checkout opened",
		"order_id", payment.OrderID,
		"kind", payment.Kind,
		"amount", payment.Amount,
		"user_id", payment.UserID,
		"loan_id", payment.LoanID,
	)
	return nil
}

// HandleNotification applies one gateway notification. The webhook
// acknowledges the gateway whatever this returns.
func (s *paymentService) HandleNotification(ctx context.Context, n gateway.Notification) error {
	if !gateway.VerifySignature(n, s.cfg.GatewayServerKey) {
		return apperrors.Unauthorized("Invalid notification signature")
	}

	payment, err := s.repo.FindByOrderID(ctx, n.OrderID)
	if err != nil {
		if errors.Is(err, paymentserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Payment", n.OrderID)
		}
		return apperrors.TransientStore("Failed to load payment", err)
	}
	if !amountMatches(n.GrossAmount, payment.Amount) {
		return apperrors.InvalidInput("Notification amount does not match the order")
	}

	// The status change and its outcome commit together, so a failed
	// settlement leaves the payment open for the next delivery.
	result := gateway.Resolve(n)
	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		updated, err := s.repo.UpdateStatus(txCtx, n.OrderID, result.Status, string(n.TransactionStatus), string(n.FraudStatus))
		if err != nil {
			return err
		}
		if err := gateway.Dispatch(txCtx, s.outcomes, result, updated); err != nil {
			return apperrors.Internal("Failed to apply payment outcome", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, paymentserrors.ErrAlreadySettled) {
			return s.resettle(ctx, n)
		}
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.TransientStore("Failed to update payment", err)
	}

	s.cfg.Log.Info("Payment status updated",
		"order_id", n.OrderID,
		"transaction_status", n.TransactionStatus,
		"fraud_status", n.FraudStatus,
		"status", result.Status,
		"outcome", result.Outcome,
	)
	return nil
}

// resettle handles a notification for an order that is already paid. The
// payment does not change, but a fine whose loan was never marked paid is
// settled again.
func (s *paymentService) resettle(ctx context.Context, n gateway.Notification) error {
	payment, err := s.repo.FindByOrderID(ctx, n.OrderID)
	if err != nil {
		return apperrors.TransientStore("Failed to load payment", err)
	}
	if payment.Kind != model.PaymentKindFine || payment.LoanID == "" {
		s.cfg.Log.Info("Ignoring notification for settled payment", "order_id", n.OrderID, "transaction_status", n.TransactionStatus)
		return nil
	}

	loan, err := s.loans.FindByID(ctx, payment.LoanID)
	if err != nil {
		return mapLoanError(err, payment.LoanID)
	}
	if loan.FinePaid {
		s.cfg.Log.Info("Ignoring notification for settled payment", "order_id", n.OrderID, "transaction_status", n.TransactionStatus)
		return nil
	}

	s.cfg.Log.Warn("Settling fine of an already paid order", "order_id", n.OrderID, "loan_id", payment.LoanID)
	if err := s.outcomes.Succeeded(ctx, settledResult(payment), payment); err != nil {
		return apperrors.Internal("Failed to apply payment outcome", err)
	}
	return nil
}

// refuseSettledFine rejects a checkout for a fine that a paid order already
// covers, and marks the loan paid if that was missed.
func (s *paymentService) refuseSettledFine(ctx context.Context, loan *model.Loan) error {
	paid, err := s.repo.FindPaidFine(ctx, loan.ID)
	if errors.Is(err, paymentserrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.TransientStore("Failed to look up fine payment", err)
	}

	if err := s.outcomes.Succeeded(ctx, settledResult(paid), paid); err != nil {
		s.cfg.Log.Error("Failed to settle fine of a paid order", "order_id", paid.OrderID, "loan_id", loan.ID, "error", err)
	}
	return apperrors.Conflict("This fine has already been paid")
}

func settledResult(p *model.Payment) gateway.Result {
	return gateway.Result{
		Outcome:       gateway.OutcomeSucceeded,
		OrderID:       p.OrderID,
		Status:        model.PaymentStatusPaid,
		GatewayStatus: gateway.TransactionStatus(p.GatewayStatus),
		FraudStatus:   gateway.FraudStatus(p.FraudStatus),
	}
}

func (s *paymentService) ListMine(ctx context.Context, caller auth.Principal, limit int, offset int64) ([]*model.Payment, int64, error) {
	if caller.UserID == "" {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var payments []*model.Payment
	var total int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByUser(gctx, caller.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		payments, err = s.repo.FindByUser(gctx, caller.UserID, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, apperrors.TransientStore("Failed to retrieve payments", err)
	}
	if payments == nil {
		payments = []*model.Payment{}
	}
	return payments, total, nil
}

func checkoutOf(p *model.Payment) *model.Checkout {
	return &model.Checkout{
		OrderID:     p.OrderID,
		Amount:      p.Amount,
		AmountLabel: policy.FormatRupiah(p.Amount),
		Token:       p.SnapToken,
		RedirectURL: p.RedirectURL,
	}
}

// amountMatches compares the gateway's decimal string ("15000.00") with the
// stored whole-rupiah amount.
func amountMatches(gross string, amount int64) bool {
	v, err := strconv.ParseFloat(gross, 64)
	if err != nil {
		return false
	}
	return int64(math.Round(v)) == amount
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
