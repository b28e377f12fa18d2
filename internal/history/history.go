// Package history provides the rolling in-memory state the analyzers
// retain between compute calls.
//
// Two shapes are supported: per-minute-bucket count maps (BucketStore)
// and per-key timestamped samples (SampleStore). Each analyzer owns
// its stores exclusively; there is no cross-analyzer sharing and no
// internal locking — callers serialize access (single-writer
// discipline, see the engine docs).
package history

import "time"

// Bucket converts a time to its minute bucket.
func Bucket(t time.Time) int64 {
	return t.Unix() / 60
}

// BucketStore holds detector counts keyed by (minute bucket, id).
// Entries older than the retention window are pruned on each write.
type BucketStore struct {
	retention time.Duration
	buckets   map[int64]map[string]int
}

// NewBucketStore creates a store with the given retention window.
func NewBucketStore(retention time.Duration) *BucketStore {
	return &BucketStore{
		retention: retention,
		buckets:   make(map[int64]map[string]int),
	}
}

// WriteOnce records a snapshot for a bucket unless the bucket is
// already populated. One snapshot per minute bucket: repeat calls
// within the same minute are idempotent and the first write wins.
// Returns true if the snapshot was written.
func (s *BucketStore) WriteOnce(bucket int64, counts map[string]int) bool {
	if _, ok := s.buckets[bucket]; ok {
		return false
	}
	snap := make(map[string]int, len(counts))
	for id, n := range counts {
		snap[id] = n
	}
	s.buckets[bucket] = snap
	return true
}

// Count returns the recorded count for an id in a bucket.
// Missing buckets and missing ids both read as zero.
func (s *BucketStore) Count(bucket int64, id string) int {
	return s.buckets[bucket][id]
}

// Has reports whether a bucket holds a snapshot.
func (s *BucketStore) Has(bucket int64) bool {
	_, ok := s.buckets[bucket]
	return ok
}

// Oldest returns the oldest populated bucket strictly before `before`
// and no older than `before` minus the lookback, in minutes.
func (s *BucketStore) Oldest(before int64, lookback time.Duration) (int64, bool) {
	floor := before - int64(lookback/time.Minute)
	var oldest int64
	found := false
	for b := range s.buckets {
		if b >= before || b < floor {
			continue
		}
		if !found || b < oldest {
			oldest = b
			found = true
		}
	}
	return oldest, found
}

// At returns the bucket closest to `target` among populated buckets in
// [target, before). Used for fixed-offset baselines: "the snapshot
// from ten minutes ago" degrades to the nearest older snapshot still
// inside the offset window.
func (s *BucketStore) At(target, before int64) (int64, bool) {
	var best int64
	found := false
	for b := range s.buckets {
		if b >= before || b < target {
			continue
		}
		if !found || b < best {
			best = b
			found = true
		}
	}
	return best, found
}

// Prune drops buckets older than the retention window.
func (s *BucketStore) Prune(now time.Time) {
	floor := Bucket(now) - int64(s.retention/time.Minute)
	for b := range s.buckets {
		if b < floor {
			delete(s.buckets, b)
		}
	}
}

// Reset clears all buckets.
func (s *BucketStore) Reset() {
	s.buckets = make(map[int64]map[string]int)
}

// Len returns the number of populated buckets.
func (s *BucketStore) Len() int { return len(s.buckets) }

// Sample is one timestamped count observation.
type Sample struct {
	At    time.Time
	Count int
}

// SampleStore holds time-ordered count samples per key. Appends are
// expected in non-decreasing time order; entries older than the
// retention window are pruned on each append.
type SampleStore struct {
	retention time.Duration
	samples   map[string][]Sample
}

// NewSampleStore creates a store with the given retention window.
func NewSampleStore(retention time.Duration) *SampleStore {
	return &SampleStore{
		retention: retention,
		samples:   make(map[string][]Sample),
	}
}

// Append records a sample for a key and prunes the key's window.
func (s *SampleStore) Append(key string, sample Sample) {
	kept := append(s.samples[key], sample)
	floor := sample.At.Add(-s.retention)
	i := 0
	for i < len(kept) && kept[i].At.Before(floor) {
		i++
	}
	s.samples[key] = kept[i:]
}

// Window returns the retained samples for a key, oldest first.
// The returned slice is the store's own; callers must not mutate it.
func (s *SampleStore) Window(key string) []Sample {
	return s.samples[key]
}

// OldestBefore returns the oldest sample for a key with At in
// [t-lookback, t).
func (s *SampleStore) OldestBefore(key string, t time.Time, lookback time.Duration) (Sample, bool) {
	floor := t.Add(-lookback)
	for _, sm := range s.samples[key] {
		if !sm.At.Before(floor) && sm.At.Before(t) {
			return sm, true
		}
	}
	return Sample{}, false
}

// Prune drops samples older than the retention window for all keys,
// removing keys left empty.
func (s *SampleStore) Prune(now time.Time) {
	floor := now.Add(-s.retention)
	for key, list := range s.samples {
		i := 0
		for i < len(list) && list[i].At.Before(floor) {
			i++
		}
		if i == len(list) {
			delete(s.samples, key)
			continue
		}
		s.samples[key] = list[i:]
	}
}

// Reset clears all samples.
func (s *SampleStore) Reset() {
	s.samples = make(map[string][]Sample)
}
