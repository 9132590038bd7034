package types

import "time"

const (
	DefaultGraceDays         = 7
	DefaultRenewalWindowDays = 7
	DefaultLogRetentionDays  = 7
)

// RunContext carries the processing timestamp and the reconciliation windows
// for a single run. It is built once at the start of a run and threaded
// through every component so no decision reads the wall clock or global
// configuration mid-pass.
type RunContext struct {
	Now               time.Time
	GraceDays         int
	RenewalWindowDays int
	LogRetentionDays  int
}

// NewRunContext returns a run context anchored at now. Non-positive windows
// fall back to their defaults.
func NewRunContext(now time.Time, graceDays, renewalWindowDays, logRetentionDays int) RunContext {
	if graceDays <= 0 {
		graceDays = DefaultGraceDays
	}
	if renewalWindowDays <= 0 {
		renewalWindowDays = DefaultRenewalWindowDays
	}
	if logRetentionDays <= 0 {
		logRetentionDays = DefaultLogRetentionDays
	}
	return RunContext{
		Now:               now.UTC(),
		GraceDays:         graceDays,
		RenewalWindowDays: renewalWindowDays,
		LogRetentionDays:  logRetentionDays,
	}
}

// GraceCutoff is the expiry date before which a suspended or pending
// subscription is force-cancelled.
func (r RunContext) GraceCutoff() time.Time {
	return r.Now.AddDate(0, 0, -r.GraceDays)
}

// RenewalCutoff is the forward-looking bound of the renewal window; a
// subscription expiring before it is due a renewal invoice.
func (r RunContext) RenewalCutoff() time.Time {
	return r.Now.AddDate(0, 0, r.RenewalWindowDays)
}

// LogCutoff is the timestamp before which reconciliation run logs are purged.
func (r RunContext) LogCutoff() time.Time {
	return r.Now.AddDate(0, 0, -r.LogRetentionDays)
}
