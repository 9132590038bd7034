package types

import (
	"time"

	ierr "github.com/cyclebill/cyclebill/internal/errors"
	"github.com/samber/lo"
)

// BillingCycle is the recurrence unit of a subscription. The free and
// one_time cycles never recur and are exempt from reconciliation.
type BillingCycle string

const (
	BillingCycleFree         BillingCycle = "free"
	BillingCycleOneTime      BillingCycle = "one_time"
	BillingCycleMonthly      BillingCycle = "monthly"
	BillingCycleQuarterly    BillingCycle = "quarterly"
	BillingCycleSemiAnnually BillingCycle = "semi_annually"
	BillingCycleAnnually     BillingCycle = "annually"
	BillingCycleBiennially   BillingCycle = "biennially"
	BillingCycleTriennially  BillingCycle = "triennially"
)

func (c BillingCycle) String() string {
	return string(c)
}

func (c BillingCycle) Validate() error {
	allowedValues := []BillingCycle{
		BillingCycleFree,
		BillingCycleOneTime,
		BillingCycleMonthly,
		BillingCycleQuarterly,
		BillingCycleSemiAnnually,
		BillingCycleAnnually,
		BillingCycleBiennially,
		BillingCycleTriennially,
	}

	if !lo.Contains(allowedValues, c) {
		return ierr.NewError("invalid billing cycle").
			WithHint("Invalid billing cycle").
			WithReportableDetails(map[string]any{
				"allowed_values": allowedValues,
				"provided_value": c,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// IsRecurring reports whether the cycle produces renewal charges.
func (c BillingCycle) IsRecurring() bool {
	return c != BillingCycleFree && c != BillingCycleOneTime
}

// months per recurring cycle
var cycleMonths = map[BillingCycle]int{
	BillingCycleMonthly:      1,
	BillingCycleQuarterly:    3,
	BillingCycleSemiAnnually: 6,
	BillingCycleAnnually:     12,
	BillingCycleBiennially:   24,
	BillingCycleTriennially:  36,
}

// approximate day counts used for proration only, never for expiry math
var cycleDays = map[BillingCycle]int{
	BillingCycleMonthly:      30,
	BillingCycleQuarterly:    90,
	BillingCycleSemiAnnually: 180,
	BillingCycleAnnually:     365,
	BillingCycleBiennially:   730,
	BillingCycleTriennially:  1095,
}

// NextBillingDate calculates the next billing date by adding the cycle's
// calendar months to the given expiry date. An unrecognized cycle falls back
// to one month. Month arithmetic clamps to the last valid day of the target
// month, so adding one month to Jan 31 lands on Feb 28 (or Feb 29 in a leap
// year) rather than rolling over into March.
func NextBillingDate(expiry time.Time, cycle BillingCycle) time.Time {
	months, ok := cycleMonths[cycle]
	if !ok {
		months = 1
	}
	return AddClampedDate(expiry, 0, months, 0)
}

// PreviousBillingDate is the inverse of NextBillingDate: the start of the
// billing period that ends at the given expiry date.
func PreviousBillingDate(expiry time.Time, cycle BillingCycle) time.Time {
	months, ok := cycleMonths[cycle]
	if !ok {
		months = 1
	}
	return AddClampedDate(expiry, 0, -months, 0)
}

// CycleLengthDays returns the fixed day-count approximation for a recurring
// cycle. It is only meaningful for proration; callers must not invoke it for
// free or one_time cycles.
func CycleLengthDays(cycle BillingCycle) (int, error) {
	days, ok := cycleDays[cycle]
	if !ok {
		return 0, ierr.NewError("no cycle length defined for billing cycle").
			WithHintf("billing cycle %s has no proration day count", cycle).
			WithReportableDetails(map[string]any{
				"billing_cycle": cycle,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return days, nil
}

// AddClampedDate adds the given years, months and days to t, clamping the day
// of month to the last valid day of the target month instead of letting it
// spill into the following month the way time.AddDate does.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	newD := d
	if newD > lastDay {
		newD = lastDay
	}

	return time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location()).AddDate(0, 0, days)
}
