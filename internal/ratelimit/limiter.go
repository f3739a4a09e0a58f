// Package ratelimit meters the work MCP clients may request. Each tool has a
// token bucket whose tokens are units of work: one call for cheap tools,
// neuron-steps for simulations.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Simulation budget in neuron-steps. The default network for one second of
// simulated time costs 1e8.
const (
	SimulationCapacity = 5e8
	SimulationRefill   = SimulationCapacity / 60 // per second
)

// Limiter implements a per-key token bucket with weighted requests.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64          // tokens per second
	capacity float64          // max tokens (also initial token count)
	nowFunc  func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a limiter refilling rate tokens per second up to capacity.
func NewLimiter(rate, capacity float64) *Limiter {
	return &Limiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		nowFunc:  time.Now,
	}
}

// Capacity returns the largest cost a single request may have.
func (l *Limiter) Capacity() float64 { return l.capacity }

// Allow is AllowN with a cost of one token.
func (l *Limiter) Allow(key string) bool { return l.AllowN(key, 1) }

// AllowN takes cost tokens from key's bucket if they are available.
// A cost above the capacity is never allowed.
func (l *Limiter) AllowN(key string, cost float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.capacity, lastCheck: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, l.capacity)
		b.lastCheck = now
	}

	if cost > b.tokens {
		return false
	}
	b.tokens -= cost
	return true
}

// ToolLimiters maps tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default limiters of the bsn MCP tools.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"bsn_simulate": NewLimiter(SimulationRefill, SimulationCapacity),
		"bsn_runs":     NewLimiter(1.0, 10), // 60/minute, burst 10
	}
}

// CheckLimit charges cost to the named tool. Tools without a configured
// limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string, cost float64) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if cost > limiter.Capacity() {
		return fmt.Errorf("%s request costs %g, above the per-request budget of %g", toolName, cost, limiter.Capacity())
	}
	if !limiter.AllowN(toolName, cost) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}
	return nil
}
