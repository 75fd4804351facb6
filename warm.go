package livelang

import (
	"context"
	"sync"
	"sync/atomic"
)

// WarmStats summarizes a cache warm-up.
type WarmStats struct {
	Pages  int // Pages whose mapping was built from the store
	Cached int // Pages already present in the cache
	Pairs  int // Total pairs across built mappings
}

// Warm builds and caches the mappings of pages using up to workers
// goroutines. Without a cache it does nothing.
func (o *Overlay) Warm(ctx context.Context, pages []Page, workers int) WarmStats {
	if o.cache == nil || len(pages) == 0 {
		return WarmStats{}
	}
	if workers <= 0 {
		workers = 4
	}

	// Deduplicate by cache key first
	unique := make([]Page, 0, len(pages))
	seen := make(map[string]bool, len(pages))
	for _, p := range pages {
		p = o.normalizePage(p)
		key := CacheKey(p.Language, p.Slug)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, p)
		}
	}

	var built, cached, pairs atomic.Int64
	jobs := make(chan Page)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				m, fromCache := o.BuildMap(ctx, p)
				if fromCache {
					cached.Add(1)
					continue
				}
				built.Add(1)
				pairs.Add(int64(m.Len()))
			}
		}()
	}

feed:
	for _, p := range unique {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	stats := WarmStats{Pages: int(built.Load()), Cached: int(cached.Load()), Pairs: int(pairs.Load())}
	o.logger.Info("render cache warmed", "pages", stats.Pages, "cached", stats.Cached, "pairs", stats.Pairs)
	return stats
}
