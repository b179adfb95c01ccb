package ratelimit

import (
    "sync"
    "time"
)

type bucket struct {
    tokens float64
    last   time.Time
}

// Limiter is a per-key token bucket. Every key shares one capacity and
// refill rate.
type Limiter struct {
    mu       sync.Mutex
    m        map[string]*bucket
    capacity float64
    refill   float64 // tokens per second
    now      func() time.Time
}

// New creates a limiter. A non-positive capacity disables limiting.
func New(capacity, refillPerSec float64) *Limiter {
    return &Limiter{
        m:        make(map[string]*bucket),
        capacity: capacity,
        refill:   refillPerSec,
        now:      time.Now,
    }
}

// Enabled reports whether Allow can ever reject.
func (l *Limiter) Enabled() bool { return l != nil && l.capacity > 0 }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
    if !l.Enabled() {
        return true
    }
    now := l.now()
    l.mu.Lock()
    defer l.mu.Unlock()
    b, ok := l.m[key]
    if !ok {
        b = &bucket{tokens: l.capacity, last: now}
        l.m[key] = b
    }
    // refill
    if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
        b.tokens += elapsed * l.refill
        if b.tokens > l.capacity {
            b.tokens = l.capacity
        }
        b.last = now
    }
    if b.tokens >= 1 {
        b.tokens--
        return true
    }
    return false
}

// Sweep drops buckets idle for longer than idle. It returns how many were removed.
func (l *Limiter) Sweep(idle time.Duration) int {
    if l == nil {
        return 0
    }
    cutoff := l.now().Add(-idle)
    l.mu.Lock()
    defer l.mu.Unlock()
    n := 0
    for k, b := range l.m {
        if b.last.Before(cutoff) {
            delete(l.m, k)
            n++
        }
    }
    return n
}
