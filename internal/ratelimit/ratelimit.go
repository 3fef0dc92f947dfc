package ratelimit

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

// Limiter implements a simple in-memory sliding window rate limiter
type Limiter struct {
	mu       sync.RWMutex
	counters map[string]*counter
	window   time.Duration
	max      int
}

type counter struct {
	count     int
	expiresAt time.Time
}

// NewLimiter creates a new rate limiter with the specified window and max requests
func NewLimiter(window time.Duration, max int) *Limiter {
	l := &Limiter{
		counters: make(map[string]*counter),
		window:   window,
		max:      max,
	}
	go l.cleanup()
	return l
}

// Allow checks if a request for the given key is allowed
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, exists := l.counters[key]

	if !exists || now.After(c.expiresAt) {
		l.counters[key] = &counter{
			count:     1,
			expiresAt: now.Add(l.window),
		}
		return true
	}

	if c.count >= l.max {
		return false
	}

	c.count++
	return true
}

// GetRemaining returns the number of remaining requests for the given key
func (l *Limiter) GetRemaining(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := time.Now()
	c, exists := l.counters[key]

	if !exists || now.After(c.expiresAt) {
		return l.max
	}

	remaining := l.max - c.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// cleanup periodically removes expired counters
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, c := range l.counters {
			if now.After(c.expiresAt) {
				delete(l.counters, key)
			}
		}
		l.mu.Unlock()
	}
}

// Config sets the webhook delivery limits.
type Config struct {
	IPPerMinute    int `mapstructure:"ip_per_minute"`
	OrderPerMinute int `mapstructure:"order_per_minute"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() Config {
	return Config{
		IPPerMinute:    120,
		OrderPerMinute: 10,
	}
}

// MultiKeyLimiter manages multiple rate limiters for different types of operations
type MultiKeyLimiter struct {
	limiters map[string]*Limiter
	mu       sync.RWMutex
}

// NewMultiKeyLimiter creates a new multi-key limiter with default limits
func NewMultiKeyLimiter() *MultiKeyLimiter {
	return NewCustomMultiKeyLimiter(DefaultConfig())
}

// NewCustomMultiKeyLimiter creates a limiter with custom limits.
// Non-positive limits fall back to the defaults.
func NewCustomMultiKeyLimiter(c Config) *MultiKeyLimiter {
	dc := DefaultConfig()
	if c.IPPerMinute <= 0 {
		c.IPPerMinute = dc.IPPerMinute
	}
	if c.OrderPerMinute <= 0 {
		c.OrderPerMinute = dc.OrderPerMinute
	}
	return &MultiKeyLimiter{
		limiters: map[string]*Limiter{
			"ip_webhook":    NewLimiter(time.Minute, c.IPPerMinute),
			"order_webhook": NewLimiter(time.Minute, c.OrderPerMinute),
		},
	}
}

// CheckWebhook verifies if a webhook delivery for the order is allowed from the given IP
func (m *MultiKeyLimiter) CheckWebhook(ip string, orderId int64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.limiters["ip_webhook"].Allow(ip) {
		return fmt.Errorf("too many webhook deliveries from %s: %w", ip, gerr.RateLimited)
	}

	if !m.limiters["order_webhook"].Allow(strconv.FormatInt(orderId, 10)) {
		return fmt.Errorf("too many webhook deliveries for order %d: %w", orderId, gerr.RateLimited)
	}

	return nil
}

// GetWebhookLimits returns remaining deliveries for the IP and the order
func (m *MultiKeyLimiter) GetWebhookLimits(ip string, orderId int64) (ipRemaining, orderRemaining int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.limiters["ip_webhook"].GetRemaining(ip),
		m.limiters["order_webhook"].GetRemaining(strconv.FormatInt(orderId, 10))
}
