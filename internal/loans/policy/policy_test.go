package policy

import (
	"testing"
	"time"

	"pustaka/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() Policy {
	return Default()
}

// dayN is 14:30 local time on the Nth day after 2025-03-01.
func dayN(p Policy, n int) time.Time {
	return time.Date(2025, 3, 1, 14, 30, 0, 0, p.Location).AddDate(0, 0, n)
}

func borrowedLoan(p Policy, due time.Time, renewals int) *model.Loan {
	return &model.Loan{
		ID:           "loan-1",
		Status:       model.LoanStatusBorrowed,
		BorrowDate:   due.AddDate(0, 0, -p.LoanPeriodDays),
		DueDate:      due,
		RenewalCount: renewals,
	}
}

func TestCalculateFine_NotOverdueIsZero(t *testing.T) {
	p := testPolicy()
	due := dayN(p, 5)

	for n := -3; n <= 5; n++ {
		assert.Equal(t, int64(0), p.CalculateFine(due, dayN(p, n)), "day %d", n)
	}
}

func TestCalculateFine_DueTodayIgnoresTimeOfDay(t *testing.T) {
	p := testPolicy()
	due := time.Date(2025, 3, 6, 8, 0, 0, 0, p.Location)
	lateEvening := time.Date(2025, 3, 6, 23, 59, 59, 0, p.Location)

	assert.Equal(t, int64(0), p.CalculateFine(due, lateEvening))
}

func TestCalculateFine_PerOverdueDay(t *testing.T) {
	p := testPolicy()
	due := dayN(p, 5)

	for n := 1; n <= 30; n++ {
		today := dayN(p, 5+n)
		assert.Equal(t, int64(n)*5000, p.CalculateFine(due, today), "%d days late", n)
	}
}

func TestCalculateFine_MidnightBoundary(t *testing.T) {
	p := testPolicy()
	due := time.Date(2025, 3, 6, 23, 59, 0, 0, p.Location)
	justAfterMidnight := time.Date(2025, 3, 7, 0, 1, 0, 0, p.Location)

	assert.Equal(t, int64(5000), p.CalculateFine(due, justAfterMidnight))
}

func TestCalculateFine_AcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Skip("tzdata not available")
	}
	p := testPolicy()
	p.Location = loc

	due := time.Date(2025, 3, 29, 12, 0, 0, 0, loc)
	today := time.Date(2025, 3, 31, 1, 0, 0, 0, loc)

	assert.Equal(t, int64(2*5000), p.CalculateFine(due, today))
}

func TestCalculateFine_UsesLibraryTimezone(t *testing.T) {
	p := testPolicy()
	p.Location = time.FixedZone("WIB", 7*3600)

	// 18:00 UTC on the 6th is already the 7th in WIB.
	due := time.Date(2025, 3, 6, 10, 0, 0, 0, time.UTC)
	today := time.Date(2025, 3, 6, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(5000), p.CalculateFine(due, today))
}

func TestDaysRemaining_Signed(t *testing.T) {
	p := testPolicy()
	due := dayN(p, 5)

	assert.Equal(t, 5, p.DaysRemaining(due, dayN(p, 0)))
	assert.Equal(t, 0, p.DaysRemaining(due, dayN(p, 5)))
	assert.Equal(t, -3, p.DaysRemaining(due, dayN(p, 8)))
}

func TestCanRenew_CapReachedRegardlessOfWindow(t *testing.T) {
	p := testPolicy()
	due := dayN(p, 5)

	for n := 0; n <= 8; n++ {
		loan := borrowedLoan(p, due, 2)
		assert.False(t, p.CanRenew(loan, dayN(p, n)), "day %d", n)
	}
}

func TestCanRenew_OverdueOrTooEarly(t *testing.T) {
	p := testPolicy()
	due := dayN(p, 5)
	loan := borrowedLoan(p, due, 0)

	assert.Equal(t, DenialOutsideWindow, p.CheckRenewal(loan, dayN(p, 2)))
	assert.Equal(t, DenialOverdue, p.CheckRenewal(loan, dayN(p, 6)))
}

func TestCanRenew_ExactCondition(t *testing.T) {
	p := testPolicy()
	due := dayN(p, 5)

	for _, status := range []model.LoanStatus{model.LoanStatusBorrowed, model.LoanStatusReturned} {
		for renewals := 0; renewals <= 3; renewals++ {
			for n := -1; n <= 9; n++ {
				loan := borrowedLoan(p, due, renewals)
				loan.Status = status
				today := dayN(p, n)
				remaining := p.DaysRemaining(due, today)

				want := status == model.LoanStatusBorrowed && remaining >= 0 && remaining <= 2 && renewals < 2
				assert.Equal(t, want, p.CanRenew(loan, today),
					"status=%s renewals=%d remaining=%d", status, renewals, remaining)
			}
		}
	}
}

func TestCheckRenewal_ReturnedLoan(t *testing.T) {
	p := testPolicy()
	loan := borrowedLoan(p, dayN(p, 5), 0)
	loan.Status = model.LoanStatusReturned

	assert.Equal(t, DenialNotBorrowed, p.CheckRenewal(loan, dayN(p, 4)))
	assert.Equal(t, DenialNotBorrowed, p.CheckAdminRenewal(loan, dayN(p, 4)))
}

func TestRenewed_AddsPeriodToDueDate(t *testing.T) {
	p := testPolicy()
	due := dayN(p, 5)
	loan := borrowedLoan(p, due, 1)

	newDue, count := p.Renewed(loan)
	assert.Equal(t, 2, count)
	assert.True(t, newDue.Equal(dayN(p, 10)))
	assert.True(t, newDue.After(due))
}

func TestScenario_TwoRenewalsThenCap(t *testing.T) {
	p := testPolicy()
	borrowedAt := dayN(p, 0)
	loan := &model.Loan{
		Status:     model.LoanStatusBorrowed,
		BorrowDate: borrowedAt,
		DueDate:    p.DueDate(borrowedAt),
	}
	require.True(t, loan.DueDate.Equal(dayN(p, 5)))

	assert.Equal(t, 2, p.DaysRemaining(loan.DueDate, dayN(p, 3)))
	require.True(t, p.CanRenew(loan, dayN(p, 3)))
	loan.DueDate, loan.RenewalCount = p.Renewed(loan)
	assert.True(t, loan.DueDate.Equal(dayN(p, 10)))
	assert.Equal(t, 1, loan.RenewalCount)

	assert.Equal(t, 2, p.DaysRemaining(loan.DueDate, dayN(p, 8)))
	require.True(t, p.CanRenew(loan, dayN(p, 8)))
	loan.DueDate, loan.RenewalCount = p.Renewed(loan)
	assert.True(t, loan.DueDate.Equal(dayN(p, 15)))
	assert.Equal(t, 2, loan.RenewalCount)

	assert.Equal(t, 2, p.DaysRemaining(loan.DueDate, dayN(p, 13)))
	assert.False(t, p.CanRenew(loan, dayN(p, 13)))
	assert.Equal(t, DenialCapReached, p.CheckRenewal(loan, dayN(p, 13)))
}

func TestScenario_ThreeDaysLate(t *testing.T) {
	p := testPolicy()
	loan := borrowedLoan(p, dayN(p, 5), 0)

	assert.Equal(t, int64(15000), p.CalculateFine(loan.DueDate, dayN(p, 8)))
	assert.False(t, p.CanRenew(loan, dayN(p, 8)))
	assert.Equal(t, DenialOverdue, p.CheckRenewal(loan, dayN(p, 8)))
}

func TestScenario_AdminRenewalPastCap(t *testing.T) {
	p := testPolicy()
	loan := borrowedLoan(p, dayN(p, 15), 2)

	assert.Equal(t, DenialCapReached, p.CheckRenewal(loan, dayN(p, 13)))
	assert.Equal(t, RenewalAllowed, p.CheckAdminRenewal(loan, dayN(p, 13)))

	_, count := p.Renewed(loan)
	assert.Equal(t, 3, count)
}

func TestCheckAdminRenewal_StillRejectsOverdue(t *testing.T) {
	p := testPolicy()
	loan := borrowedLoan(p, dayN(p, 5), 0)

	assert.Equal(t, DenialOverdue, p.CheckAdminRenewal(loan, dayN(p, 7)))
	assert.Equal(t, RenewalAllowed, p.CheckAdminRenewal(loan, dayN(p, 0)), "window does not apply")
}

func TestCheckBorrow(t *testing.T) {
	p := testPolicy()

	assert.Equal(t, DenialNotVerified, p.CheckBorrow(false, 0))
	assert.Equal(t, BorrowAllowed, p.CheckBorrow(true, 2))
	assert.Equal(t, DenialLoanLimitReached, p.CheckBorrow(true, 3))
	assert.NotEmpty(t, DenialLoanLimitReached.Message())
}

func TestView(t *testing.T) {
	p := testPolicy()
	loan := borrowedLoan(p, dayN(p, 5), 0)

	view := p.View(loan, dayN(p, 8))
	assert.Equal(t, -3, view.DaysRemaining)
	assert.False(t, view.CanRenew)
	assert.Equal(t, string(DenialOverdue), view.RenewalDenial)
	assert.Equal(t, int64(15000), view.AccruedFine)
	assert.Equal(t, "Rp 15.000", view.FineLabel)

	returnedAt := dayN(p, 6)
	loan.Status = model.LoanStatusReturned
	loan.ReturnDate = &returnedAt
	loan.Fine = 5000
	view = p.View(loan, dayN(p, 20))
	assert.Equal(t, int64(5000), view.AccruedFine, "returned loans keep the fine fixed at return")
	assert.False(t, view.CanRenew)
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "Rp 0", FormatRupiah(0))
	assert.Equal(t, "Rp 5.000", FormatRupiah(5000))
	assert.Equal(t, "Rp 1.250.000", FormatRupiah(1250000))
}
