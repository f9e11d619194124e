// Package ailimit caps daily AI usage per provider and in total. One
// Limiter instance is shared by every component that calls a model, so the
// budget holds across scheduled runs and manual /digest commands.
package ailimit

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Limiter struct {
	mu          sync.Mutex
	used        map[string]int
	limits      map[string]int
	totalUsed   int
	maxTotal    int
	resetTime   time.Time
	cacheHits   int
	cacheMisses int
}

// New creates a limiter with per-provider daily limits and an overall daily
// cap. A limit of zero (or a provider missing from the map) means unlimited.
func New(limits map[string]int, maxTotal int) *Limiter {
	copied := make(map[string]int, len(limits))
	for provider, limit := range limits {
		copied[provider] = limit
	}
	return &Limiter{
		used:      make(map[string]int),
		limits:    copied,
		maxTotal:  maxTotal,
		resetTime: time.Now().Add(24 * time.Hour),
	}
}

// Allow reports whether a request for provider would fit the budget,
// without spending it.
func (l *Limiter) Allow(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()
	return l.fits(provider)
}

// Use spends one request from the provider's budget. It fails when either
// the provider's or the total daily limit is exhausted.
func (l *Limiter) Use(provider string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()

	if !l.fits(provider) {
		return fmt.Errorf("%s daily limit exhausted (%d/%d, total %d/%d)",
			provider, l.used[provider], l.limits[provider], l.totalUsed, l.maxTotal)
	}

	l.used[provider]++
	l.totalUsed++
	l.cacheMisses++

	slog.Debug("ai request budgeted",
		"provider", provider,
		"used", l.used[provider],
		"limit", l.limits[provider],
		"total_used", l.totalUsed,
		"total_limit", l.maxTotal)

	return nil
}

// RecordCacheHit counts a summary served from cache instead of a model call.
func (l *Limiter) RecordCacheHit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cacheHits++
}

func (l *Limiter) GetStats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	perProvider := make(map[string]interface{}, len(l.limits))
	for provider, limit := range l.limits {
		perProvider[provider] = map[string]int{
			"used":  l.used[provider],
			"limit": limit,
		}
	}

	return map[string]interface{}{
		"providers":      perProvider,
		"total_used":     l.totalUsed,
		"total_limit":    l.maxTotal,
		"cache_hits":     l.cacheHits,
		"cache_misses":   l.cacheMisses,
		"cache_hit_rate": l.hitRate(),
		"reset_time":     l.resetTime,
	}
}

func (l *Limiter) fits(provider string) bool {
	if limit := l.limits[provider]; limit > 0 && l.used[provider] >= limit {
		return false
	}
	if l.maxTotal > 0 && l.totalUsed >= l.maxTotal {
		return false
	}
	return true
}

func (l *Limiter) hitRate() float64 {
	total := l.cacheHits + l.cacheMisses
	if total == 0 {
		return 0
	}
	return float64(l.cacheHits) / float64(total) * 100
}

// checkReset rolls the daily window. Callers must hold l.mu.
func (l *Limiter) checkReset() {
	if time.Now().Before(l.resetTime) {
		return
	}

	slog.Info("resetting ai usage counters",
		"total_used", l.totalUsed,
		"cache_hit_rate", l.hitRate())

	l.used = make(map[string]int)
	l.totalUsed = 0
	l.cacheHits = 0
	l.cacheMisses = 0
	l.resetTime = time.Now().Add(24 * time.Hour)
}
