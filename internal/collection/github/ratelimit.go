package github

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
)

// RateLimit is a snapshot of the quota counters reported by the API.
type RateLimit struct {
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
	Known     bool      `json:"known"`
}

// rateLimiter owns the quota snapshot of one client. It is written only by
// update and read only through pacingWait and snapshot.
type rateLimiter struct {
	mu        sync.Mutex
	state     RateLimit
	threshold int
	maxWait   time.Duration
}

func newRateLimiter(threshold int, maxWait time.Duration) *rateLimiter {
	return &rateLimiter{threshold: threshold, maxWait: maxWait}
}

// update records the counters of a response. Responses without the headers
// leave the snapshot untouched.
func (l *rateLimiter) update(h http.Header) {
	remaining, err := strconv.Atoi(h.Get(headerRemaining))
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Remaining = remaining
	l.state.Known = true
	if reset, err := strconv.ParseInt(h.Get(headerReset), 10, 64); err == nil {
		l.state.Reset = time.Unix(reset, 0)
	}
}

// pacingWait returns how long to sleep before the next attempt. When the
// remaining quota is below the threshold the client waits until one second
// past the reset; a wait longer than maxWait means the reset value is not
// trustworthy and no wait happens.
func (l *rateLimiter) pacingWait(now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.state.Known || l.state.Remaining >= l.threshold {
		return 0
	}
	wait := l.state.Reset.Add(time.Second).Sub(now)
	if wait <= 0 || wait > l.maxWait {
		return 0
	}
	return wait
}

// exhausted reports whether the last response said no quota is left.
func (l *rateLimiter) exhausted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Known && l.state.Remaining == 0
}

func (l *rateLimiter) snapshot() RateLimit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
