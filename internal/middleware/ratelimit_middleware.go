package middleware

import (
	"sync"
	"time"
)

const (
	maxFailedAttempts = 5
	failureWindow     = time.Minute
	cleanupInterval   = 5 * time.Minute
)

// InvalidAuthRateLimiter throttles login by failed attempts per IP.
// Successful logins never count against the limit: callers check Allow
// before authenticating and call RecordFailure only when credentials were
// rejected.
type InvalidAuthRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

func NewInvalidAuthRateLimiter() *InvalidAuthRateLimiter {
	rl := &InvalidAuthRateLimiter{
		attempts: make(map[string]*attemptInfo),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether the IP is still under the failure limit. It does
// not consume the budget.
func (r *InvalidAuthRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.attempts[ip]
	if !exists {
		return true
	}
	if time.Since(info.firstAt) > failureWindow {
		delete(r.attempts, ip)
		return true
	}
	return info.count < maxFailedAttempts
}

// RecordFailure counts one failed credential check against the IP.
func (r *InvalidAuthRateLimiter) RecordFailure(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	info, exists := r.attempts[ip]
	if !exists || now.Sub(info.firstAt) > failureWindow {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return
	}
	info.count++
}

func (r *InvalidAuthRateLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	for range ticker.C {
		r.mu.Lock()
		now := time.Now()
		for ip, info := range r.attempts {
			if now.Sub(info.firstAt) > failureWindow {
				delete(r.attempts, ip)
			}
		}
		r.mu.Unlock()
	}
}
