package loader

import (
	"fmt"
	"os"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/grid-better/internal/models"
)

// cachedEntry pins a parsed file to the stat signature it was read at.
type cachedEntry struct {
	recs    []models.Recommendation
	modTime time.Time
	size    int64
}

// CachedRecommendationLoader wraps a CSVLoader with an in-memory TTL cache so
// the recommendations file is not re-parsed on every poll cycle. The cache is
// invalidated when the file's mtime or size changes.
type CachedRecommendationLoader struct {
	loader *CSVLoader
	cache  *cache.Cache
	mu     sync.Mutex

	hitCount  uint64
	missCount uint64
}

// NewCachedRecommendationLoader creates a caching loader with the given TTL.
func NewCachedRecommendationLoader(loader *CSVLoader, ttl time.Duration) *CachedRecommendationLoader {
	return &CachedRecommendationLoader{
		loader: loader,
		cache:  cache.New(ttl, ttl*2),
	}
}

// LoadRecommendations returns the parsed recommendations for path, reusing a
// cached parse while the file is unchanged.
func (cl *CachedRecommendationLoader) LoadRecommendations(path string) ([]models.Recommendation, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat recommendations file: %w", err)
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if raw, found := cl.cache.Get(path); found {
		entry := raw.(cachedEntry)
		if entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
			cl.hitCount++
			return entry.recs, nil
		}
	}

	cl.missCount++
	recs, err := cl.loader.LoadRecommendations(path)
	if err != nil {
		return nil, err
	}

	cl.cache.SetDefault(path, cachedEntry{recs: recs, modTime: info.ModTime(), size: info.Size()})
	cl.loader.logger.WithFields(logrus.Fields{"file": path, "count": len(recs)}).Debug("Recommendations cache refreshed")
	return recs, nil
}

// Stats returns cache hit and miss counts.
func (cl *CachedRecommendationLoader) Stats() (hits, misses uint64) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.hitCount, cl.missCount
}
