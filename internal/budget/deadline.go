// Package budget tracks the wall-clock budget of a single request.
package budget

import (
	"context"
	"time"
)

// Deadline is an absolute expiry shared by every blocking step of a request
type Deadline struct {
	expiry time.Time
	now    func() time.Time
}

// New starts a budget of the given length from now
func New(total time.Duration) Deadline {
	return NewAt(time.Now, total)
}

// NewAt starts a budget against an injected clock
func NewAt(now func() time.Time, total time.Duration) Deadline {
	return Deadline{expiry: now().Add(total), now: now}
}

// Expiry returns the absolute time the budget runs out
func (d Deadline) Expiry() time.Time {
	return d.expiry
}

// Remaining returns the time left, never negative
func (d Deadline) Remaining() time.Duration {
	left := d.expiry.Sub(d.clock())
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether no budget is left
func (d Deadline) Expired() bool {
	return d.Remaining() <= 0
}

// Clamp returns min(upper, max(lower, Remaining())).
// The lower bound lets a step start even when little budget is left.
func (d Deadline) Clamp(upper, lower time.Duration) time.Duration {
	left := d.Remaining()
	if left < lower {
		left = lower
	}
	if left > upper {
		left = upper
	}
	return left
}

// SleepCap returns the longest sleep that still leaves margin before expiry.
// A result <= 0 means there is no room to sleep.
func (d Deadline) SleepCap(margin time.Duration) time.Duration {
	return d.Remaining() - margin
}

// Context derives a context that ends after Clamp(upper, lower)
func (d Deadline) Context(parent context.Context, upper, lower time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d.Clamp(upper, lower))
}

func (d Deadline) clock() time.Time {
	if d.now == nil {
		return time.Now()
	}
	return d.now()
}
