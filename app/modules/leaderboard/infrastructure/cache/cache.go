// Package leaderboardcache holds computed leaderboards in memory.
package leaderboardcache

import (
	"sync"
	"time"

	"github.com/google/uuid"

	leaderboarddomain "github.com/Black-And-White-Club/fitleague/app/modules/leaderboard/domain"
	"github.com/Black-And-White-Club/fitleague/app/shared/calendar"
)

// Key identifies one cached view.
type Key struct {
	LeagueID uuid.UUID
	From     string
	To       string
	Mode     leaderboarddomain.Mode
}

// NewKey builds a key from a resolved window and mode.
func NewKey(leagueID uuid.UUID, window leaderboarddomain.DateRange, mode leaderboarddomain.Mode) Key {
	return Key{
		LeagueID: leagueID,
		From:     calendar.Format(window.From),
		To:       calendar.Format(window.To),
		Mode:     mode,
	}
}

// Cache is safe for concurrent use. Writes are last-write-wins by the
// payload's ComputedAt: an older computation never replaces a newer one, and
// nothing computed before the league's last invalidation is stored.
type Cache struct {
	mu          sync.RWMutex
	entries     map[Key]*leaderboarddomain.Leaderboard
	invalidated map[uuid.UUID]time.Time
}

func New() *Cache {
	return &Cache{
		entries:     make(map[Key]*leaderboarddomain.Leaderboard),
		invalidated: make(map[uuid.UUID]time.Time),
	}
}

// Get returns the cached payload for key. Callers must not modify it.
func (c *Cache) Get(key Key) (*leaderboarddomain.Leaderboard, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lb, ok := c.entries[key]
	return lb, ok
}

// Put stores lb under key and reports whether it was accepted.
func (c *Cache) Put(key Key, lb *leaderboarddomain.Leaderboard) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if at, ok := c.invalidated[key.LeagueID]; ok && !lb.ComputedAt.After(at) {
		return false
	}
	if cur, ok := c.entries[key]; ok && !lb.ComputedAt.After(cur.ComputedAt) {
		return false
	}
	c.entries[key] = lb
	return true
}

// InvalidateLeague drops every entry of a league and rejects later writes of
// payloads computed at or before at. It returns the number of entries dropped.
func (c *Cache) InvalidateLeague(leagueID uuid.UUID, at time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.invalidated[leagueID]; !ok || at.After(prev) {
		c.invalidated[leagueID] = at
	}
	dropped := 0
	for k := range c.entries {
		if k.LeagueID == leagueID {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

// InvalidatedAt reports the league's last invalidation time.
func (c *Cache) InvalidatedAt(leagueID uuid.UUID) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.invalidated[leagueID]
	return at, ok
}

// Len is the number of cached views.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
