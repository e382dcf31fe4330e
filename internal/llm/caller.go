package llm

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/aontas/internal/budget"
	"github.com/ppiankov/aontas/internal/model"
)

// busyMessage is the detail of the synthesized result after retries run out
const busyMessage = "Upstream busy (rate limited)."

// retryableStatus lists upstream statuses worth another attempt
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
	520:                            true,
	521:                            true,
	522:                            true,
	523:                            true,
	524:                            true,
	525:                            true,
	526:                            true,
}

// IsRetryableStatus reports whether an upstream status is transient
func IsRetryableStatus(status int) bool {
	return retryableStatus[status]
}

// Result is the outcome of a budgeted call. It is never an error: exhaustion
// is reported as a synthesized 503.
type Result struct {
	StatusCode int
	Content    string // Model content; only meaningful on 2xx
	Detail     string // Upstream message for non-2xx results
	Attempts   int
	Busy       bool // Synthesized after retries or budget ran out
}

// OK reports whether the upstream answered with a 2xx status
func (r Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Permanent reports whether the upstream refused the request in a way the
// client must see: any 4xx other than 429
func (r Result) Permanent() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500 && r.StatusCode != http.StatusTooManyRequests
}

// Caller runs a provider under the request budget with bounded retries
type Caller struct {
	policy model.BudgetConfig
	logger *zap.Logger

	// sleep waits for d or until ctx ends; injectable for tests
	sleep func(ctx context.Context, d time.Duration)
	// jitter returns a random duration in [0, limit)
	jitter func(limit time.Duration) time.Duration
	now    func() time.Time
}

// NewCaller creates a caller with the given retry policy
func NewCaller(policy model.BudgetConfig, logger *zap.Logger) *Caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &Caller{
		policy: policy,
		logger: logger,
		sleep:  sleepContext,
		jitter: randomJitter,
		now:    time.Now,
	}
}

// Call sends req to p until it succeeds, fails permanently, MaxAttempts is
// reached, or the deadline leaves no room for another backoff. Every
// retryable failure is followed by a backoff, including the last one.
func (c *Caller) Call(ctx context.Context, p Provider, req CompletionRequest, deadline budget.Deadline) Result {
	attempts := 0
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 && deadline.Expired() {
			break
		}
		attempts++

		attemptCtx, cancel := deadline.Context(ctx, c.policy.PerCall(), c.policy.MinCall())
		completion, err := p.Complete(attemptCtx, req)
		cancel()

		if err == nil {
			c.logger.Debug("upstream call succeeded",
				zap.String("provider", p.Name()),
				zap.Int("attempt", attempt+1))
			return Result{StatusCode: http.StatusOK, Content: completion.Content, Attempts: attempt + 1}
		}

		var header http.Header
		status := 0
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			status = statusErr.StatusCode
			header = statusErr.Header
			if !IsRetryableStatus(status) {
				c.logger.Warn("upstream call failed permanently",
					zap.String("provider", p.Name()),
					zap.Int("attempt", attempt+1),
					zap.Int("status", status))
				return Result{StatusCode: status, Detail: truncateDetail(statusErr.Message), Attempts: attempt + 1}
			}
		}

		if ctx.Err() != nil {
			// The client went away; no point in retrying
			return c.busy(attempt + 1)
		}

		delay := c.backoff(attempt, header)
		room := deadline.SleepCap(c.policy.SafetyMargin())
		fields := []zap.Field{
			zap.String("provider", p.Name()),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Duration("room", room),
			zap.Error(err),
		}
		if statusErr == nil {
			c.logger.Warn("upstream request failed, backing off", fields...)
		} else {
			c.logger.Info("upstream call failed, backing off", append(fields, zap.Int("status", status))...)
		}
		if room <= 0 {
			return c.busy(attempt + 1)
		}
		if delay > room {
			delay = room
		}
		c.sleep(ctx, delay)
	}
	return c.busy(attempts)
}

func (c *Caller) busy(attempts int) Result {
	return Result{
		StatusCode: http.StatusServiceUnavailable,
		Detail:     busyMessage,
		Attempts:   attempts,
		Busy:       true,
	}
}

// backoff honours a positive Retry-After, else base * 2^attempt + jitter
func (c *Caller) backoff(attempt int, header http.Header) time.Duration {
	if header != nil {
		if d, ok := ParseRetryAfter(header.Get("Retry-After"), c.now()); ok && d > 0 {
			return d
		}
	}
	delay := c.policy.BackoffBase() << attempt
	if j := c.policy.Jitter(); j > 0 {
		delay += c.jitter(j)
	}
	return delay
}

// ParseRetryAfter parses a Retry-After value given as delta-seconds or an
// HTTP-date. Dates in the past yield zero.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func randomJitter(limit time.Duration) time.Duration {
	return time.Duration(rand.Int63n(int64(limit)))
}
