package history

import (
	"testing"
	"time"
)

func TestBucketStoreWriteOnce(t *testing.T) {
	s := NewBucketStore(60 * time.Minute)

	if !s.WriteOnce(100, map[string]int{"tariffs": 3}) {
		t.Fatal("first write should succeed")
	}
	// Repeat writes within the same bucket are skipped: first wins.
	if s.WriteOnce(100, map[string]int{"tariffs": 9}) {
		t.Fatal("second write to the same bucket should be skipped")
	}
	if got := s.Count(100, "tariffs"); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}
}

func TestBucketStoreMissingReadsZero(t *testing.T) {
	s := NewBucketStore(60 * time.Minute)
	s.WriteOnce(100, map[string]int{"tariffs": 3})

	if got := s.Count(100, "crypto"); got != 0 {
		t.Errorf("missing id Count = %d, want 0", got)
	}
	if got := s.Count(99, "tariffs"); got != 0 {
		t.Errorf("missing bucket Count = %d, want 0", got)
	}
}

func TestBucketStoreOldest(t *testing.T) {
	s := NewBucketStore(60 * time.Minute)
	s.WriteOnce(90, map[string]int{"a": 1})
	s.WriteOnce(95, map[string]int{"a": 2})
	s.WriteOnce(100, map[string]int{"a": 3})

	// Oldest strictly before bucket 100 within 15 minutes.
	old, ok := s.Oldest(100, 15*time.Minute)
	if !ok || old != 90 {
		t.Errorf("Oldest = %d,%v, want 90,true", old, ok)
	}

	// Lookback window excludes buckets that are too old.
	old, ok = s.Oldest(100, 6*time.Minute)
	if !ok || old != 95 {
		t.Errorf("Oldest with narrow lookback = %d,%v, want 95,true", old, ok)
	}

	if _, ok := s.Oldest(90, 15*time.Minute); ok {
		t.Error("Oldest before the first bucket should find nothing")
	}
}

func TestBucketStorePrune(t *testing.T) {
	s := NewBucketStore(60 * time.Minute)
	now := time.Unix(100*60, 0)
	s.WriteOnce(Bucket(now)-120, map[string]int{"a": 1}) // two hours old
	s.WriteOnce(Bucket(now)-10, map[string]int{"a": 2})

	s.Prune(now)
	if s.Len() != 1 {
		t.Fatalf("after prune Len = %d, want 1", s.Len())
	}
	if got := s.Count(Bucket(now)-10, "a"); got != 2 {
		t.Errorf("recent bucket lost: Count = %d, want 2", got)
	}
}

func TestBucketStoreReset(t *testing.T) {
	s := NewBucketStore(60 * time.Minute)
	s.WriteOnce(100, map[string]int{"a": 1})
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("after reset Len = %d, want 0", s.Len())
	}
	if !s.WriteOnce(100, map[string]int{"a": 5}) {
		t.Error("write after reset should succeed")
	}
}

func TestSampleStoreWindow(t *testing.T) {
	s := NewSampleStore(30 * time.Minute)
	base := time.Unix(6000, 0)

	s.Append("trump", Sample{At: base, Count: 2})
	s.Append("trump", Sample{At: base.Add(10 * time.Minute), Count: 4})

	w := s.Window("trump")
	if len(w) != 2 {
		t.Fatalf("Window len = %d, want 2", len(w))
	}
	if w[0].Count != 2 || w[1].Count != 4 {
		t.Errorf("Window = %v, want counts 2,4 in time order", w)
	}

	// Appending past the retention window drops the oldest sample.
	s.Append("trump", Sample{At: base.Add(35 * time.Minute), Count: 6})
	w = s.Window("trump")
	if len(w) != 2 {
		t.Fatalf("Window after retention len = %d, want 2", len(w))
	}
	if w[0].Count != 4 {
		t.Errorf("oldest retained count = %d, want 4", w[0].Count)
	}
}

func TestSampleStoreOldestBefore(t *testing.T) {
	s := NewSampleStore(120 * time.Minute)
	base := time.Unix(6000, 0)
	s.Append("n", Sample{At: base, Count: 1})
	s.Append("n", Sample{At: base.Add(5 * time.Minute), Count: 3})

	now := base.Add(10 * time.Minute)
	old, ok := s.OldestBefore("n", now, 30*time.Minute)
	if !ok || old.Count != 1 {
		t.Errorf("OldestBefore = %+v,%v, want count 1", old, ok)
	}

	// Samples at or after t are excluded.
	if _, ok := s.OldestBefore("n", base, 30*time.Minute); ok {
		t.Error("OldestBefore at the first sample time should find nothing")
	}
}

func TestSampleStorePruneAndReset(t *testing.T) {
	s := NewSampleStore(30 * time.Minute)
	base := time.Unix(6000, 0)
	s.Append("a", Sample{At: base, Count: 1})
	s.Append("b", Sample{At: base.Add(25 * time.Minute), Count: 2})

	s.Prune(base.Add(40 * time.Minute))
	if got := s.Window("a"); got != nil {
		t.Errorf("pruned key window = %v, want nil", got)
	}
	if got := s.Window("b"); len(got) != 1 {
		t.Errorf("retained key window len = %d, want 1", len(got))
	}

	s.Reset()
	if got := s.Window("b"); got != nil {
		t.Errorf("after reset window = %v, want nil", got)
	}
}
