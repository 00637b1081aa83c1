package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

type cacheEntry struct {
	key       string
	result    *Result
	expiresAt time.Time
}

// Cache keeps solved results in memory for the life of the process. Results
// are addressable by their ID and by the content key of the request that
// produced them. A nil *Cache is valid and stores nothing.
type Cache struct {
	mu    sync.RWMutex
	byID  map[string]*cacheEntry
	byKey map[string]string
	ttl   time.Duration
	now   func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		byID:  make(map[string]*cacheEntry),
		byKey: make(map[string]string),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the result with the given ID if present and not expired.
func (c *Cache) Get(id string) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	return e.result, true
}

// Lookup returns the result previously stored for a request key.
func (c *Cache) Lookup(key string) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	id, ok := c.byKey[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c.Get(id)
}

func (c *Cache) Put(key string, r *Result) {
	if c == nil || r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[r.ID] = &cacheEntry{key: key, result: r, expiresAt: c.now().Add(c.ttl)}
	if key != "" {
		c.byKey[key] = r.ID
	}
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for id, e := range c.byID {
		if now.After(e.expiresAt) {
			delete(c.byID, id)
			if c.byKey[e.key] == id {
				delete(c.byKey, e.key)
			}
			n++
		}
	}
	return n
}

// Run prunes the cache every interval until ctx is done.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Prune()
		}
	}
}

// RequestKey hashes everything that determines the outcome of a request.
// The inputs must already be valid.
func RequestKey(req Request) string {
	solverName := req.Solver
	if solverName == "" {
		solverName = DefaultSolver(req.Variant)
	}
	payload, _ := json.Marshal(struct {
		Periods  any
		Site     any
		Variant  string
		Solver   string
		MaxNodes int
	}{
		Periods:  req.Inputs.Horizon.Periods(),
		Site:     req.Inputs.Site,
		Variant:  string(req.Variant),
		Solver:   solverName,
		MaxNodes: req.MaxNodes,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
