package dedup

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Match is the result of a local duplicate check.
type Match struct {
	IsDuplicate bool
	ExistingIDs []string
}

// Index is the in-memory cache of recently queued/submitted content hashes.
// Entries expire after the configured window, so a legitimate identical
// resubmission weeks later is not flagged.
type Index struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, []string]
}

// NewIndex creates an Index whose entries live for the given window.
func NewIndex(window time.Duration) *Index {
	return &Index{
		// the window runs from when a job was queued, so lookups must
		// not extend an entry's lifetime
		cache: ttlcache.New(
			ttlcache.WithTTL[string, []string](window),
			ttlcache.WithDisableTouchOnHit[string, []string](),
		),
	}
}

// Start runs the cache's expiry loop; call Stop on shutdown.
func (i *Index) Start() { go i.cache.Start() }

// Stop terminates the expiry loop.
func (i *Index) Stop() { i.cache.Stop() }

// Add records a hash → job id mapping after a job has been accepted.
func (i *Index) Add(hash, jobID string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var ids []string
	if item := i.cache.Get(hash); item != nil {
		ids = item.Value()
	}
	i.cache.Set(hash, append(ids, jobID), ttlcache.DefaultTTL)
}

// Check reports whether the hash is already known and which jobs carry it.
func (i *Index) Check(hash string) Match {
	i.mu.Lock()
	defer i.mu.Unlock()

	item := i.cache.Get(hash)
	if item == nil || len(item.Value()) == 0 {
		return Match{}
	}
	return Match{IsDuplicate: true, ExistingIDs: item.Value()}
}

// Remove forgets every job id recorded for the hash, used when a duplicate
// flag is overridden or a job is discarded.
func (i *Index) Remove(hash string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cache.Delete(hash)
}
