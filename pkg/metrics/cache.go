package metrics

import "sync/atomic"

// CacheMetric counts lookups of a memo cache.
type CacheMetric struct {
	name   string
	hits   atomic.Int64
	misses atomic.Int64
}

var caches []*CacheMetric

func newCacheMetric(name string) *CacheMetric {
	return &CacheMetric{name: name}
}

func registerCache(name string) *CacheMetric {
	c := newCacheMetric(name)
	caches = append(caches, c)
	return c
}

// RowRenderCache counts reuse of rendered rows across frames.
var RowRenderCache = registerCache("row_render_cache")

func (c *CacheMetric) Hit() {
	if enabled.Load() {
		c.hits.Add(1)
	}
}

func (c *CacheMetric) Miss() {
	if enabled.Load() {
		c.misses.Add(1)
	}
}

func (c *CacheMetric) Name() string { return c.name }

func (c *CacheMetric) Hits() int64 { return c.hits.Load() }

func (c *CacheMetric) Misses() int64 { return c.misses.Load() }

// HitRate is hits over lookups, 0 without lookups.
func (c *CacheMetric) HitRate() float64 {
	h, m := c.Hits(), c.Misses()
	if h+m == 0 {
		return 0
	}
	return float64(h) / float64(h+m)
}

func (c *CacheMetric) Reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// CacheStats is the serialized form of a CacheMetric.
type CacheStats struct {
	Name    string  `json:"name"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

func (c *CacheMetric) Stats() CacheStats {
	return CacheStats{Name: c.name, Hits: c.Hits(), Misses: c.Misses(), HitRate: c.HitRate()}
}

// AllCacheMetrics returns the registered caches.
func AllCacheMetrics() []*CacheMetric {
	return caches
}

// Summary is what `vt --metrics` prints.
type Summary struct {
	Timings []TimingStats `json:"timings"`
	Caches  []CacheStats  `json:"caches"`
}

// Snapshot collects every metric that has data.
func Snapshot() Summary {
	s := Summary{Timings: AllTimingStats()}
	for _, c := range caches {
		if c.Hits()+c.Misses() > 0 {
			s.Caches = append(s.Caches, c.Stats())
		}
	}
	return s
}
