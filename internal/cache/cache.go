// Package cache holds derived values that are cheap to lose.
package cache

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry.
	Purge()
	Size() int
}

// Stats counts cache lookups. Expired lookups count as misses too.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Expired   uint64
	Evictions uint64
}

// HitRatio returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
