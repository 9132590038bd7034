// Package proration computes the delta charge for a mid-cycle product change.
package proration

import (
	"context"
	"time"

	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/shopspring/decimal"
)

// Calculator performs proration calculations. It is kept behind an interface
// to allow different calculation strategies and easier testing.
type Calculator interface {
	Calculate(ctx context.Context, params Params) (decimal.Decimal, error)
}

// Params carries one proration calculation. CycleLengthDays is the fixed
// day-count approximation of the billing cycle; ElapsedDays is measured from
// the subscription's last renewal to the processing time.
type Params struct {
	// NewCycleTotal is the full-cycle price of the target product
	NewCycleTotal decimal.Decimal

	// OldCycleTotal is the full-cycle price currently charged
	OldCycleTotal decimal.Decimal

	CycleLengthDays int
	ElapsedDays     int
}

func (p Params) Validate() error {
	if p.CycleLengthDays <= 0 {
		return ierr.NewError("cycle length must be positive").
			WithHintf("got cycle length of %d days", p.CycleLengthDays).
			Mark(ierr.ErrValidation)
	}
	if p.ElapsedDays < 0 {
		return ierr.NewError("elapsed days must be non-negative").
			WithHintf("got %d elapsed days", p.ElapsedDays).
			Mark(ierr.ErrValidation)
	}
	if p.NewCycleTotal.IsNegative() || p.OldCycleTotal.IsNegative() {
		return ierr.NewError("cycle totals must be non-negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// NewCalculator returns the day-based calculator.
func NewCalculator() Calculator {
	return &dayBasedCalculator{}
}

type dayBasedCalculator struct{}

// Calculate returns the cost of switching products mid-cycle: the new
// product's full-cycle price minus a refund for the unused portion of the old
// product's cycle. The result may be negative (a net credit). Amounts are
// kept at full precision here; rounding happens when the amount is written to
// an invoice line item.
func (c *dayBasedCalculator) Calculate(ctx context.Context, params Params) (decimal.Decimal, error) {
	if err := params.Validate(); err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("invalid proration params").
			Mark(ierr.ErrValidation)
	}

	elapsed := decimal.NewFromInt(int64(params.ElapsedDays))
	cycleDays := decimal.NewFromInt(int64(params.CycleLengthDays))

	unusedRefund := params.OldCycleTotal.Div(cycleDays).Mul(elapsed)
	return params.NewCycleTotal.Sub(unusedRefund), nil
}

// ElapsedDays counts whole calendar days from start to now using UTC day
// boundaries. A start after now clamps to zero.
func ElapsedDays(start, now time.Time) int {
	startDay := truncateToDay(start)
	nowDay := truncateToDay(now)
	if !startDay.Before(nowDay) {
		return 0
	}
	return int(nowDay.Sub(startDay).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RoundAmount applies the invoice rounding policy: half-up to 2 fractional
// digits.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
