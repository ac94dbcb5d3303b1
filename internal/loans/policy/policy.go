// Package policy holds the loan rules: due dates, renewal eligibility and
// overdue fines. Every caller that needs date arithmetic on a loan goes
// through here so the numbers agree everywhere.
package policy

import (
	"strings"
	"time"

	"pustaka/pkg/config"
	"pustaka/pkg/model"

	"github.com/dustin/go-humanize"
)

const day = 24 * time.Hour

type Policy struct {
	LoanPeriodDays    int
	MaxActiveLoans    int
	MaxRenewals       int
	RenewalWindowDays int
	FinePerDay        int64
	Location          *time.Location
}

func Default() Policy {
	loc, err := time.LoadLocation(config.DefaultLibraryTimezone)
	if err != nil {
		loc = time.UTC
	}
	return Policy{
		LoanPeriodDays:    config.DefaultLoanPeriodDays,
		MaxActiveLoans:    config.DefaultMaxActiveLoans,
		MaxRenewals:       config.DefaultMaxRenewals,
		RenewalWindowDays: config.DefaultRenewalWindowDays,
		FinePerDay:        config.DefaultFinePerDay,
		Location:          loc,
	}
}

func FromConfig(cfg *config.Config) Policy {
	return Policy{
		LoanPeriodDays:    cfg.LoanPeriodDays,
		MaxActiveLoans:    cfg.MaxActiveLoans,
		MaxRenewals:       cfg.MaxRenewals,
		RenewalWindowDays: cfg.RenewalWindowDays,
		FinePerDay:        int64(cfg.FinePerDay),
		Location:          cfg.Location(),
	}
}

// Clock supplies "now" to services so tests can pin it.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now()
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Midnight strips the time of day from t in the library's location.
func (p Policy) Midnight(t time.Time) time.Time {
	loc := p.location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b in the library's location.
// Dates are compared on a UTC grid so DST transitions cannot yield 23 or 25 hour days.
func (p Policy) daysBetween(a, b time.Time) int {
	loc := p.location()
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / day)
}

// DueDate is the due date of a loan borrowed at borrowedAt.
func (p Policy) DueDate(borrowedAt time.Time) time.Time {
	return borrowedAt.In(p.location()).AddDate(0, 0, p.LoanPeriodDays)
}

// OverdueDays is how many whole days today lies past dueDate; zero when not overdue.
func (p Policy) OverdueDays(dueDate, today time.Time) int {
	return max(0, p.daysBetween(dueDate, today))
}

// CalculateFine is OverdueDays times the daily fine. A loan due today owes nothing
// whatever the time of day.
func (p Policy) CalculateFine(dueDate, today time.Time) int64 {
	return int64(p.OverdueDays(dueDate, today)) * p.FinePerDay
}

// DaysRemaining is signed: negative means overdue.
func (p Policy) DaysRemaining(dueDate, today time.Time) int {
	return p.daysBetween(today, dueDate)
}

type RenewalDenial string

const (
	RenewalAllowed       RenewalDenial = ""
	DenialNotBorrowed    RenewalDenial = "not_borrowed"
	DenialOverdue        RenewalDenial = "overdue"
	DenialCapReached     RenewalDenial = "cap_reached"
	DenialOutsideWindow  RenewalDenial = "outside_window"
	DenialConcurrentEdit RenewalDenial = "conflict"
)

func (d RenewalDenial) Message() string {
	switch d {
	case DenialNotBorrowed:
		return "Only borrowed loans can be renewed"
	case DenialOverdue:
		return "This loan is overdue; return the book and settle the fine first"
	case DenialCapReached:
		return "This loan has reached the maximum number of renewals"
	case DenialOutsideWindow:
		return "Renewal opens only in the last days before the due date"
	case DenialConcurrentEdit:
		return "The loan was modified by another request; reload and try again"
	default:
		return ""
	}
}

// CheckRenewal returns why the loan cannot be renewed today, or RenewalAllowed.
func (p Policy) CheckRenewal(loan *model.Loan, today time.Time) RenewalDenial {
	if denial := p.CheckAdminRenewal(loan, today); denial != RenewalAllowed {
		return denial
	}
	if loan.RenewalCount >= p.MaxRenewals {
		return DenialCapReached
	}
	if p.DaysRemaining(loan.DueDate, today) > p.RenewalWindowDays {
		return DenialOutsideWindow
	}
	return RenewalAllowed
}

// CheckAdminRenewal is CheckRenewal without the renewal cap and window.
func (p Policy) CheckAdminRenewal(loan *model.Loan, today time.Time) RenewalDenial {
	if loan.Status != model.LoanStatusBorrowed {
		return DenialNotBorrowed
	}
	if p.DaysRemaining(loan.DueDate, today) < 0 {
		return DenialOverdue
	}
	return RenewalAllowed
}

func (p Policy) CanRenew(loan *model.Loan, today time.Time) bool {
	return p.CheckRenewal(loan, today) == RenewalAllowed
}

// Renewed returns the due date and renewal count after one approved renewal.
// The period is added to the current due date, not to today.
func (p Policy) Renewed(loan *model.Loan) (time.Time, int) {
	return loan.DueDate.In(p.location()).AddDate(0, 0, p.LoanPeriodDays), loan.RenewalCount + 1
}

type BorrowDenial string

const (
	BorrowAllowed          BorrowDenial = ""
	DenialNotVerified      BorrowDenial = "not_verified"
	DenialLoanLimitReached BorrowDenial = "loan_limit_reached"
)

func (d BorrowDenial) Message() string {
	switch d {
	case DenialNotVerified:
		return "Complete membership verification before borrowing"
	case DenialLoanLimitReached:
		return "Return a book before borrowing another one"
	default:
		return ""
	}
}

func (p Policy) CheckBorrow(verified bool, activeLoans int64) BorrowDenial {
	if !verified {
		return DenialNotVerified
	}
	if activeLoans >= int64(p.MaxActiveLoans) {
		return DenialLoanLimitReached
	}
	return BorrowAllowed
}

// View renders a loan with the values derived as of today. Returned loans
// report the fine fixed at return time.
func (p Policy) View(loan *model.Loan, today time.Time) model.LoanView {
	view := model.LoanView{Loan: loan}
	if loan.Status != model.LoanStatusBorrowed {
		view.AccruedFine = loan.Fine
		view.RenewalDenial = string(DenialNotBorrowed)
	} else {
		view.DaysRemaining = p.DaysRemaining(loan.DueDate, today)
		view.AccruedFine = p.CalculateFine(loan.DueDate, today)
		denial := p.CheckRenewal(loan, today)
		view.CanRenew = denial == RenewalAllowed
		view.RenewalDenial = string(denial)
	}
	if view.AccruedFine > 0 {
		view.FineLabel = FormatRupiah(view.AccruedFine)
	}
	return view
}

// FormatRupiah renders an amount the way Indonesian receipts do: "Rp 15.000".
func FormatRupiah(amount int64) string {
	return "Rp " + strings.ReplaceAll(humanize.Comma(amount), ",", ".")
}
