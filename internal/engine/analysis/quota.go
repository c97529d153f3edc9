package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_hoover/internal/engine"
)

// Quota is the shared budget for metadata API calls: a token bucket for the
// call rate plus a hard cap of calls per window. Safe for concurrent use.
type Quota struct {
	limiter *rate.Limiter
	maxWait time.Duration
	limit   int // 0 = no window cap
	window  time.Duration
	now     func() time.Time

	mu          sync.Mutex
	used        int
	windowStart time.Time
}

// NewQuota builds a budget. perSecond <= 0 disables rate limiting; limit <= 0
// disables the window cap.
func NewQuota(perSecond float64, burst, limit int, window, maxWait time.Duration) *Quota {
	r := rate.Limit(perSecond)
	if perSecond <= 0 {
		r = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Quota{
		limiter: rate.NewLimiter(r, burst),
		maxWait: maxWait,
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// NewQuotaFromConfig reads the QUOTA_* settings.
func NewQuotaFromConfig(c *engine.Config) *Quota {
	return NewQuota(c.QuotaRate, c.QuotaBurst, c.QuotaLimit, c.QuotaWindow, c.QuotaMaxWait)
}

// Acquire takes one call from the budget. It fails fast with
// engine.ErrQuotaExceeded when the window is exhausted or when the rate
// limiter would make the caller wait longer than maxWait; otherwise it waits
// for its slot or for ctx.
func (q *Quota) Acquire(ctx context.Context) error {
	if err := q.take(); err != nil {
		return err
	}
	r := q.limiter.Reserve()
	if !r.OK() {
		q.refund()
		return fmt.Errorf("%w: rate limiter rejected reservation", engine.ErrQuotaExceeded)
	}
	d := r.Delay()
	if d == 0 {
		return nil
	}
	if d > q.maxWait {
		r.Cancel()
		q.refund()
		return fmt.Errorf("%w: next slot in %s", engine.ErrQuotaExceeded, d.Round(time.Millisecond))
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		q.refund()
		return ctx.Err()
	}
}

// Remaining returns calls left in the current window, or -1 when uncapped.
func (q *Quota) Remaining() int {
	if q.limit <= 0 {
		return -1
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollLocked()
	return q.limit - q.used
}

func (q *Quota) take() error {
	if q.limit <= 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rollLocked()
	if q.used >= q.limit {
		resetIn := q.window - q.now().Sub(q.windowStart)
		return fmt.Errorf("%w: %d calls used, window resets in %s",
			engine.ErrQuotaExceeded, q.used, resetIn.Round(time.Second))
	}
	q.used++
	return nil
}

func (q *Quota) refund() {
	if q.limit <= 0 {
		return
	}
	q.mu.Lock()
	if q.used > 0 {
		q.used--
	}
	q.mu.Unlock()
}

func (q *Quota) rollLocked() {
	now := q.now()
	if q.windowStart.IsZero() || (q.window > 0 && now.Sub(q.windowStart) >= q.window) {
		q.windowStart = now
		q.used = 0
	}
}
