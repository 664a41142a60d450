package oracle

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const defaultRateLimit = 500

// Throttle spaces oracle calls evenly over the requests-per-minute budget.
// A 429 from the endpoint holds every pending slot for the advertised
// Retry-After, never longer than one call timeout.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	maxHold  time.Duration

	next      time.Time // earliest start of the next reserved slot
	heldUntil time.Time

	calls     int64
	throttled int64
	waited    time.Duration
}

// ThrottleStatus is a snapshot for diagnostics.
type ThrottleStatus struct {
	Interval  time.Duration `json:"interval"`
	Calls     int64         `json:"calls"`
	Throttled int64         `json:"throttled"`
	Waited    time.Duration `json:"waited"`
	HeldUntil time.Time     `json:"held_until,omitempty"`
}

// NewThrottle builds a throttle for perMinute calls. maxHold caps how long a
// single Retry-After can stall the client.
func NewThrottle(perMinute int, maxHold time.Duration) *Throttle {
	if perMinute <= 0 {
		perMinute = defaultRateLimit
	}
	if maxHold <= 0 {
		maxHold = defaultTimeout
	}
	return &Throttle{
		interval: time.Minute / time.Duration(perMinute),
		maxHold:  maxHold,
	}
}

// Acquire reserves the next slot and sleeps until it opens. A cancelled
// caller gives up its slot without releasing it.
func (t *Throttle) Acquire(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	start := now
	if t.next.After(start) {
		start = t.next
	}
	t.next = start.Add(t.interval)
	t.calls++
	delay := start.Sub(now)
	t.waited += delay
	t.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Hold pushes the next slot back by d. Without a hint the throttle backs off
// for one interval.
func (t *Throttle) Hold(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	d = max(d, t.interval)
	d = min(d, t.maxHold)
	until := time.Now().Add(d)
	t.throttled++
	if until.After(t.next) {
		t.next = until
	}
	if until.After(t.heldUntil) {
		t.heldUntil = until
	}
}

// Status returns the current counters.
func (t *Throttle) Status() ThrottleStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ThrottleStatus{
		Interval:  t.interval,
		Calls:     t.calls,
		Throttled: t.throttled,
		Waited:    t.waited,
		HeldUntil: t.heldUntil,
	}
}

// retryAfter reads the server's backoff hint. OpenAI-compatible endpoints
// send retry-after-ms; plain HTTP servers send Retry-After in seconds or as a date.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	if v := resp.Header.Get("retry-after-ms"); v != "" {
		if ms, err := strconv.ParseFloat(v, 64); err == nil && ms > 0 {
			return time.Duration(ms * float64(time.Millisecond))
		}
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at)
	}
	return 0
}
