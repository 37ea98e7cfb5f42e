// Package cache provides transient in-memory views of chain state.
// Nothing here is persisted; entries are invalidated explicitly after
// state-changing submissions or implicitly by staleness.
package cache

import (
	"math/big"
	"sync"
	"time"
)

// DefaultStaleness is the duration after which cached views are considered stale.
const DefaultStaleness = 10 * time.Second

// AccountView is a cached snapshot of an account's on-chain state.
type AccountView struct {
	Address   string
	Balance   *big.Int
	State     string
	UpdatedAt time.Time
}

// AccountCache stores cached account views keyed by address.
type AccountCache struct {
	mu      sync.RWMutex
	entries map[string]AccountView
}

// NewAccountCache creates a new empty account cache.
func NewAccountCache() *AccountCache {
	return &AccountCache{
		entries: make(map[string]AccountView),
	}
}

// Get retrieves a cached view.
// Returns the view, whether it exists, and its age.
func (c *AccountCache) Get(address string) (*AccountView, bool, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[address]
	if !exists {
		return nil, false, 0
	}

	age := time.Since(entry.UpdatedAt)
	return &entry, true, age
}

// Set stores an account view in the cache.
func (c *AccountCache) Set(view AccountView) {
	c.mu.Lock()
	defer c.mu.Unlock()

	view.UpdatedAt = time.Now()
	c.entries[view.Address] = view
}

// IsStale checks staleness against the default duration.
func (c *AccountCache) IsStale(address string) bool {
	return c.IsStaleWithDuration(address, DefaultStaleness)
}

// IsStaleWithDuration checks staleness against a custom duration.
func (c *AccountCache) IsStaleWithDuration(address string, staleness time.Duration) bool {
	_, exists, age := c.Get(address)
	if !exists {
		return true
	}
	return age > staleness
}

// Invalidate removes the cached view for an address. Called after every
// state-changing submission so the next read goes to the chain.
func (c *AccountCache) Invalidate(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, address)
}
