package correlation

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/HandleConsolidated/situation-monitor-sub006/internal/classify"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/feeds"
)

func testClassifier() *classify.Classifier {
	return classify.NewClassifier(classify.TierLists{
		Institutional: []string{"federal reserve", "treasury"},
		Mainstream:    []string{"reuters", "bbc", "ap news", "bloomberg"},
		Fringe:        []string{"zerohedge"},
		Alternative:   []string{"substack"},
		Aggregator:    []string{"google news"},
	})
}

func testTopics() []Topic {
	return []Topic{
		{
			ID:                   "tariffs",
			Category:             "economy",
			Weight:               1.5,
			Patterns:             []string{"tariff", "trade war"},
			PredictiveIndicators: []string{"retaliation", "escalate"},
		},
		{
			ID:       "fed-rates",
			Category: "economy",
			Weight:   1.4,
			Patterns: []string{"fed rate", "interest rate"},
		},
		{
			ID:       "crypto",
			Category: "technology",
			Weight:   1,
			Patterns: []string{"bitcoin", "crypto"},
		},
	}
}

func fixedEngine(at time.Time) *Engine {
	e := NewEngine(testTopics(), testClassifier())
	e.now = func() time.Time { return at }
	return e
}

func tariffItems(n int, sources ...string) []feeds.Item {
	items := make([]feeds.Item, n)
	for i := range items {
		src := "Reuters"
		if len(sources) > 0 {
			src = sources[i%len(sources)]
		}
		items[i] = feeds.Item{
			Title:  fmt.Sprintf("Tariff announcement number %d", i),
			Link:   fmt.Sprintf("https://example.com/tariff/%d", i),
			Source: src,
		}
	}
	return items
}

func findEmerging(res *Result, id string) (EmergingPattern, bool) {
	for _, p := range res.Emerging {
		if p.TopicID == id {
			return p, true
		}
	}
	return EmergingPattern{}, false
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	e := fixedEngine(time.Unix(600000, 0))
	res := e.Analyze(nil)
	if res.Status != StatusNoData {
		t.Errorf("Status = %q, want %q", res.Status, StatusNoData)
	}
	if res.ActivityLevel != LevelLow {
		t.Errorf("ActivityLevel = %q, want %q", res.ActivityLevel, LevelLow)
	}
	if len(res.Emerging) != 0 || res.TotalMatches != 0 {
		t.Error("empty batch must produce a zero-valued result")
	}
}

func TestEmergingThresholdBoundary(t *testing.T) {
	now := time.Unix(600000, 0)

	// Exactly three matches: must appear (count >= 3 is inclusive).
	e := fixedEngine(now)
	res := e.Analyze(tariffItems(3))
	p, ok := findEmerging(res, "tariffs")
	if !ok {
		t.Fatal("count=3 topic missing from emerging patterns")
	}
	if p.Count != 3 {
		t.Errorf("Count = %d, want 3", p.Count)
	}
	if p.WeightedScore != 4.5 {
		t.Errorf("WeightedScore = %v, want 4.5", p.WeightedScore)
	}
	if p.Level != LevelEmerging {
		t.Errorf("Level = %q, want %q", p.Level, LevelEmerging)
	}

	// Two matches: must not appear.
	e2 := fixedEngine(now)
	res2 := e2.Analyze(tariffItems(2))
	if _, ok := findEmerging(res2, "tariffs"); ok {
		t.Error("count=2 topic must not appear in emerging patterns")
	}
	if res2.TotalMatches != 2 {
		t.Errorf("TotalMatches = %d, want 2", res2.TotalMatches)
	}
}

func TestEmergingLevels(t *testing.T) {
	tests := []struct {
		count int
		level string
	}{
		{3, LevelEmerging},  // 4.5 weighted
		{6, LevelElevated},  // 9.0
		{8, LevelHigh},      // 12.0
		{14, LevelCritical}, // 21.0
	}
	for _, tt := range tests {
		e := fixedEngine(time.Unix(600000, 0))
		res := e.Analyze(tariffItems(tt.count))
		p, ok := findEmerging(res, "tariffs")
		if !ok {
			t.Fatalf("count=%d missing from emerging", tt.count)
		}
		if p.Level != tt.level {
			t.Errorf("count=%d Level = %q, want %q", tt.count, p.Level, tt.level)
		}
	}
}

func TestHeadlineSampleBounded(t *testing.T) {
	e := fixedEngine(time.Unix(600000, 0))
	res := e.Analyze(tariffItems(12))
	p, ok := findEmerging(res, "tariffs")
	if !ok {
		t.Fatal("topic missing")
	}
	if len(p.Headlines) != 8 {
		t.Errorf("Headlines len = %d, want 8", len(p.Headlines))
	}
	if p.Count != 12 {
		t.Errorf("Count = %d, want 12 (sample must not cap the count)", p.Count)
	}
}

func TestFirstCallHasNoMomentum(t *testing.T) {
	e := fixedEngine(time.Unix(600000, 0))
	res := e.Analyze(tariffItems(5))
	if len(res.Momentum) != 0 {
		t.Errorf("first-ever call emitted momentum %v, want none", res.Momentum)
	}
	p, _ := findEmerging(res, "tariffs")
	if p.Velocity != 0 {
		t.Errorf("first-ever call Velocity = %d, want 0", p.Velocity)
	}
	if p.Trend != TrendSteady {
		t.Errorf("first-ever call Trend = %q, want steady", p.Trend)
	}
}

func TestMomentumAndVelocityAcrossCalls(t *testing.T) {
	t0 := time.Unix(600000, 0)
	e := fixedEngine(t0)

	e.Analyze(tariffItems(2))

	e.now = func() time.Time { return t0.Add(5 * time.Minute) }
	res := e.Analyze(tariffItems(5))

	if len(res.Momentum) != 1 {
		t.Fatalf("Momentum len = %d, want 1: %+v", len(res.Momentum), res.Momentum)
	}
	m := res.Momentum[0]
	if m.TopicID != "tariffs" {
		t.Errorf("momentum topic = %q, want tariffs", m.TopicID)
	}
	if m.Delta != 3 {
		t.Errorf("Delta = %d, want 3", m.Delta)
	}
	if m.DeltaPercent != 150 {
		t.Errorf("DeltaPercent = %d, want 150", m.DeltaPercent)
	}
	if m.Momentum != MomentumRising {
		t.Errorf("Momentum = %q, want rising", m.Momentum)
	}

	p, _ := findEmerging(res, "tariffs")
	// (5-2)/5min * 60 = 36 mentions per hour.
	if p.Velocity != 36 {
		t.Errorf("Velocity = %d, want 36", p.Velocity)
	}
	if p.Trend != TrendAccelerating {
		t.Errorf("Trend = %q, want accelerating", p.Trend)
	}
}

func TestMomentumLabels(t *testing.T) {
	tests := []struct {
		delta int
		label string
	}{
		{7, MomentumSurging},
		{5, MomentumSurging},
		{3, MomentumRising},
		{2, MomentumRising},
		{-2, MomentumDeclining},
		{1, MomentumStable},
	}
	for _, tt := range tests {
		if got := momentumLabel(tt.delta); got != tt.label {
			t.Errorf("momentumLabel(%d) = %q, want %q", tt.delta, got, tt.label)
		}
	}
}

func TestCrossSourceConsensus(t *testing.T) {
	e := fixedEngine(time.Unix(600000, 0))

	// Six unique sources, with mainstream and institutional present.
	sources := []string{"Reuters", "BBC", "AP News", "Bloomberg", "Federal Reserve", "Local Blog"}
	res := e.Analyze(tariffItems(6, sources...))

	if len(res.CrossSource) != 1 {
		t.Fatalf("CrossSource len = %d, want 1", len(res.CrossSource))
	}
	cs := res.CrossSource[0]
	if cs.SourceCount != 6 {
		t.Errorf("SourceCount = %d, want 6", cs.SourceCount)
	}
	// Two distinct tiers (40) + mainstream+institutional bonus (20).
	if cs.Consensus != 60 {
		t.Errorf("Consensus = %d, want 60", cs.Consensus)
	}
	if cs.Level != LevelHigh {
		t.Errorf("Level = %q, want high", cs.Level)
	}
}

func TestCrossSourceRequiresThreeSources(t *testing.T) {
	e := fixedEngine(time.Unix(600000, 0))
	res := e.Analyze(tariffItems(4, "Reuters", "BBC"))
	if len(res.CrossSource) != 0 {
		t.Errorf("CrossSource with 2 sources = %v, want none", res.CrossSource)
	}
}

func TestPredictiveSignalFromIndicators(t *testing.T) {
	e := fixedEngine(time.Unix(600000, 0))
	items := []feeds.Item{
		{Title: "Tariff retaliation threatened by trading partners", Link: "a", Source: "Reuters"},
		{Title: "New tariff rates escalate dispute", Link: "b", Source: "BBC"},
	}
	res := e.Analyze(items)

	if len(res.Predictive) != 1 {
		t.Fatalf("Predictive len = %d, want 1", len(res.Predictive))
	}
	p := res.Predictive[0]
	if p.TopicID != "tariffs" {
		t.Errorf("topic = %q, want tariffs", p.TopicID)
	}
	if len(p.Indicators) != 2 {
		t.Errorf("Indicators = %v, want both matched", p.Indicators)
	}
	// count*1.5 + sources*3 + indicators*10 + consensus(20)/5 = 3+6+20+4 = 33.
	if p.Score != 33 {
		t.Errorf("Score = %v, want 33", p.Score)
	}
	// round(33*1.2) = 40 → medium.
	if p.Confidence != 40 {
		t.Errorf("Confidence = %v, want 40", p.Confidence)
	}
	if p.Level != LevelMedium {
		t.Errorf("Level = %q, want medium", p.Level)
	}
	if p.Prediction == "" || p.Timeframe == "" {
		t.Error("prediction text must always resolve from the rule table")
	}
}

func TestTopicClusters(t *testing.T) {
	e := fixedEngine(time.Unix(600000, 0))
	items := []feeds.Item{
		{Title: "Tariff hike coming", Link: "1", Source: "Reuters"},
		{Title: "Tariff fight widens", Link: "2", Source: "BBC"},
		{Title: "Fed rate decision looms", Link: "3", Source: "Reuters"},
		{Title: "Interest rate bets shift", Link: "4", Source: "BBC"},
		{Title: "Bitcoin steady", Link: "5", Source: "Reuters"},
	}
	res := e.Analyze(items)

	if len(res.Clusters) != 1 {
		t.Fatalf("Clusters = %+v, want exactly the economy cluster", res.Clusters)
	}
	c := res.Clusters[0]
	if c.Category != "economy" {
		t.Errorf("Category = %q, want economy", c.Category)
	}
	if len(c.Topics) != 2 || c.TotalMentions != 4 {
		t.Errorf("cluster = %+v, want 2 topics / 4 mentions", c)
	}
	if res.DominantCategory != "economy" {
		t.Errorf("DominantCategory = %q, want economy", res.DominantCategory)
	}
}

func TestRelatedTopics(t *testing.T) {
	topics := []Topic{
		{ID: "tariffs", Category: "economy", Weight: 1, Patterns: []string{"tariff"}},
		{ID: "fed-rates", Category: "economy", Weight: 1, Patterns: []string{"rate"}},
		{ID: "inflation", Category: "economy", Weight: 1, Patterns: []string{"inflation"}},
		{ID: "markets", Category: "economy", Weight: 1, Patterns: []string{"market"}},
		{ID: "energy", Category: "economy", Weight: 1, Patterns: []string{"energy"}},
		{ID: "crypto", Category: "technology", Weight: 1, Patterns: []string{"crypto"}},
	}
	e := NewEngine(topics, testClassifier())
	e.now = func() time.Time { return time.Unix(600000, 0) }

	items := []feeds.Item{
		{Title: "Tariff rate inflation market roundup", Link: "1", Source: "Reuters"},
		{Title: "Tariff rate inflation briefing", Link: "2", Source: "BBC"},
		{Title: "Tariff rate pressures market and energy", Link: "3", Source: "Reuters"},
		{Title: "Tariff rate outlook", Link: "4", Source: "BBC"},
		{Title: "Tariff inflation and energy watch", Link: "5", Source: "Reuters"},
		{Title: "Tariff crypto note", Link: "6", Source: "BBC"},
	}
	res := e.Analyze(items)

	p, ok := findEmerging(res, "tariffs")
	if !ok {
		t.Fatal("tariffs missing from emerging")
	}

	// Overlaps over the tariff headline sample: fed-rates 4, inflation
	// 3, energy 2, markets 2, crypto 1. A single shared headline is
	// below the threshold; the equal-overlap pair resolves by id and
	// the cap keeps three.
	want := []RelatedTopic{
		{TopicID: "fed-rates", Overlap: 4},
		{TopicID: "inflation", Overlap: 3},
		{TopicID: "energy", Overlap: 2},
	}
	if !reflect.DeepEqual(p.Related, want) {
		t.Errorf("Related = %+v, want %+v", p.Related, want)
	}
	for _, r := range p.Related {
		if r.TopicID == "crypto" {
			t.Error("single-headline overlap must not appear as related")
		}
	}
}

func TestActivityLevelBands(t *testing.T) {
	critical := EmergingPattern{Level: LevelCritical}
	surging := MomentumSignal{Momentum: MomentumSurging}
	highPred := PredictiveSignal{Level: LevelHigh}

	tests := []struct {
		name string
		res  Result
		want string
	}{
		{"no signals", Result{}, LevelLow},
		{
			"quiet signals stay low",
			Result{
				Emerging:   []EmergingPattern{{Level: LevelEmerging}, {Level: LevelElevated}},
				Momentum:   []MomentumSignal{{Momentum: MomentumRising}},
				Predictive: []PredictiveSignal{{Level: LevelMedium}},
			},
			LevelLow,
		},
		{
			"one surging topic",
			Result{Momentum: []MomentumSignal{surging}},
			LevelNormal,
		},
		{
			"one critical pattern",
			Result{Emerging: []EmergingPattern{critical}},
			LevelElevated,
		},
		{
			"two critical patterns",
			Result{Emerging: []EmergingPattern{critical, critical}},
			LevelHigh,
		},
		{
			"critical pattern with surging momentum and high prediction",
			Result{
				Emerging:   []EmergingPattern{critical},
				Momentum:   []MomentumSignal{surging},
				Predictive: []PredictiveSignal{highPred},
			},
			LevelHigh,
		},
		{
			"stacked critical signals",
			Result{
				Emerging:   []EmergingPattern{critical, critical},
				Momentum:   []MomentumSignal{surging, surging},
				Predictive: []PredictiveSignal{{Level: LevelCritical}},
			},
			LevelCritical,
		},
	}
	for _, tt := range tests {
		res := tt.res
		if got := activityLevel(&res); got != tt.want {
			t.Errorf("%s: activityLevel = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestActivityLevelFromBatch(t *testing.T) {
	// One critical-weight topic: 14 matches at weight 1.5 scores 21.
	e := fixedEngine(time.Unix(600000, 0))
	res := e.Analyze(tariffItems(14))
	if res.ActivityLevel != LevelElevated {
		t.Errorf("ActivityLevel = %q, want elevated from one critical pattern", res.ActivityLevel)
	}

	// A second critical topic pushes the weighted count into high.
	e2 := fixedEngine(time.Unix(600000, 0))
	items := tariffItems(14)
	for i := 0; i < 15; i++ {
		items = append(items, feeds.Item{
			Title:  fmt.Sprintf("Interest rate move number %d", i),
			Link:   fmt.Sprintf("https://example.com/rates/%d", i),
			Source: "Reuters",
		})
	}
	res2 := e2.Analyze(items)
	if res2.ActivityLevel != LevelHigh {
		t.Errorf("ActivityLevel = %q, want high from two critical patterns", res2.ActivityLevel)
	}
}

func TestDeterminismWithinMinute(t *testing.T) {
	now := time.Unix(600000, 0)
	e := fixedEngine(now)
	items := tariffItems(5, "Reuters", "BBC", "ZeroHedge")

	first := e.Analyze(items)
	second := e.Analyze(items)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeat call within the same minute differed:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	t0 := time.Unix(600000, 0)
	later := t0.Add(5 * time.Minute)
	items := tariffItems(5)

	e := fixedEngine(t0)
	e.Analyze(items)
	e.now = func() time.Time { return later }
	e.Reset()
	got := e.Analyze(items)

	fresh := fixedEngine(later)
	want := fresh.Analyze(items)

	if !reflect.DeepEqual(got, want) {
		t.Errorf("post-reset result differs from first-ever call:\ngot:  %+v\nwant: %+v", got, want)
	}
	if len(got.Momentum) != 0 {
		t.Errorf("post-reset momentum = %v, want none", got.Momentum)
	}
	if _, ok := e.PeakFor("tariffs"); !ok {
		t.Error("peak should be re-recorded after the post-reset call")
	}
}

func TestPeaksSurviveAcrossCalls(t *testing.T) {
	t0 := time.Unix(600000, 0)
	e := fixedEngine(t0)
	e.Analyze(tariffItems(5))

	e.now = func() time.Time { return t0.Add(5 * time.Minute) }
	e.Analyze(tariffItems(2))

	p, ok := e.PeakFor("tariffs")
	if !ok || p.Count != 5 {
		t.Errorf("peak = %+v,%v, want count 5", p, ok)
	}
}

func TestSortOrders(t *testing.T) {
	e := fixedEngine(time.Unix(600000, 0))
	items := append(tariffItems(4), []feeds.Item{
		{Title: "Fed rate shock", Link: "f1", Source: "Reuters"},
		{Title: "Interest rate surge", Link: "f2", Source: "BBC"},
		{Title: "Fed rate cut odds", Link: "f3", Source: "AP News"},
		{Title: "Interest rate pause", Link: "f4", Source: "Bloomberg"},
		{Title: "Fed rate hike talk", Link: "f5", Source: "Federal Reserve"},
	}...)
	res := e.Analyze(items)

	// tariffs: 4*1.5=6.0; fed-rates: 5*1.4=7.0 → fed-rates first.
	if len(res.Emerging) != 2 {
		t.Fatalf("Emerging len = %d, want 2", len(res.Emerging))
	}
	if res.Emerging[0].TopicID != "fed-rates" {
		t.Errorf("Emerging[0] = %q, want fed-rates (higher weighted score)", res.Emerging[0].TopicID)
	}
}
