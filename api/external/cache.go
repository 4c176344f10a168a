/* cache.go
 * Holds the reference movie used by the listing rubric. The value is fetched lazily on first use,
 * shared by every grading task in the process, and can be refreshed or invalidated explicitly.
 */

package external

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const referenceKey = "reference"

// ReferenceCache lazily loads the first top rated movie and its details
type ReferenceCache struct {
	catalog Catalog
	log     *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	movie    Movie
	loaded   bool
	loadedAt time.Time
	// gen counts invalidations; a load started before one must not store its result
	gen uint64

	group singleflight.Group
}

// NewReferenceCache creates an empty cache over the given catalog
func NewReferenceCache(catalog Catalog, log *zap.Logger) *ReferenceCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReferenceCache{catalog: catalog, log: log, now: time.Now}
}

// Get returns the cached reference movie, loading it on first use. Concurrent callers
// share a single in-flight fetch.
func (c *ReferenceCache) Get(ctx context.Context) (Movie, error) {
	c.mu.RLock()
	if c.loaded {
		m := c.movie
		c.mu.RUnlock()
		return m, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(referenceKey, func() (interface{}, error) {
		c.mu.RLock()
		if c.loaded {
			m := c.movie
			c.mu.RUnlock()
			return m, nil
		}
		c.mu.RUnlock()
		return c.load(ctx)
	})
	if err != nil {
		return Movie{}, err
	}
	return v.(Movie), nil
}

// Refresh fetches the reference movie again and replaces the cached value on success
func (c *ReferenceCache) Refresh(ctx context.Context) (Movie, error) {
	v, err, _ := c.group.Do(referenceKey, func() (interface{}, error) {
		return c.load(ctx)
	})
	if err != nil {
		return Movie{}, err
	}
	return v.(Movie), nil
}

// Invalidate drops the cached value so the next Get fetches it again. A fetch still in flight is discarded.
func (c *ReferenceCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.group.Forget(referenceKey)
	c.gen++
	c.movie = Movie{}
	c.loaded = false
	c.loadedAt = time.Time{}
}

// LoadedAt reports when the cached value was fetched, and whether one is cached
func (c *ReferenceCache) LoadedAt() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt, c.loaded
}

func (c *ReferenceCache) load(ctx context.Context) (Movie, error) {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	top, err := c.catalog.TopRated(ctx)
	if err != nil {
		return Movie{}, err
	}
	if len(top) == 0 {
		return Movie{}, ErrNoResults
	}

	movie, err := c.catalog.Movie(ctx, top[0].ID)
	if err != nil {
		return Movie{}, fmt.Errorf("error fetching reference details: %w", err)
	}
	// listing fields fill in anything the detail response left out
	if movie.ID == 0 {
		movie.ID = top[0].ID
	}
	if movie.Title == "" {
		movie.Title = top[0].Title
	}
	if movie.ReleaseDate == "" {
		movie.ReleaseDate = top[0].ReleaseDate
	}
	if movie.Overview == "" {
		movie.Overview = top[0].Overview
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.log.Info("reference movie invalidated while loading", zap.Int("id", movie.ID))
		return movie, nil
	}
	c.movie = movie
	c.loaded = true
	c.loadedAt = c.now()
	c.mu.Unlock()

	c.log.Info("reference movie loaded", zap.Int("id", movie.ID), zap.String("title", movie.Title))
	return movie, nil
}
