package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimitReason describes why a connection was rejected.
type LimitReason string

const (
	LimitReasonPerIP LimitReason = "per_ip_limit"
	LimitReasonRate  LimitReason = "rate_limit"
)

const (
	limitsCleanupEvery = 5 * time.Minute
	limitsEntryMaxAge  = 10 * time.Minute
)

type ipEntry struct {
	active   int
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ConnectionLimits enforces the per-IP concurrent-connection limit and the
// per-IP connection rate (token bucket). The global session cap lives in the
// stream registry, not here.
type ConnectionLimits struct {
	mu        sync.Mutex
	entries   map[string]*ipEntry
	maxPerIP  int
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

// NewConnectionLimits creates a limiter allowing maxPerIP concurrent
// connections and connectionsPerSecond new connections (with the given burst)
// per client IP.
func NewConnectionLimits(maxPerIP int, connectionsPerSecond float64, burst int) *ConnectionLimits {
	return &ConnectionLimits{
		entries:   make(map[string]*ipEntry),
		maxPerIP:  maxPerIP,
		rate:      rate.Limit(connectionsPerSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(limitsCleanupEvery),
	}
}

// Acquire attempts to admit a new connection from the given IP. On success
// the caller must pair it with Release. On rejection nothing is held.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.cleanupAt) {
		l.cleanup(now)
		l.cleanupAt = now.Add(limitsCleanupEvery)
	}

	entry, exists := l.entries[ip]
	if !exists {
		entry = &ipEntry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now

	if !entry.limiter.Allow() {
		return false, LimitReasonRate
	}
	if entry.active >= l.maxPerIP {
		return false, LimitReasonPerIP
	}
	entry.active++
	return true, ""
}

// Release gives back a slot acquired for the given IP. Safe to call for an
// IP with no active connections.
func (l *ConnectionLimits) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, exists := l.entries[ip]; exists && entry.active > 0 {
		entry.active--
	}
}

// Count returns the active connection count for the given IP.
func (l *ConnectionLimits) Count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, exists := l.entries[ip]; exists {
		return entry.active
	}
	return 0
}

// UniqueIPs returns the number of IPs currently tracked.
func (l *ConnectionLimits) UniqueIPs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// cleanup drops idle entries with no active connections. Must be called with
// mu held.
func (l *ConnectionLimits) cleanup(now time.Time) {
	cutoff := now.Add(-limitsEntryMaxAge)
	for ip, entry := range l.entries {
		if entry.active == 0 && entry.lastSeen.Before(cutoff) {
			delete(l.entries, ip)
		}
	}
}
