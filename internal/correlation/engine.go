package correlation

import (
	"math"
	"sort"
	"time"

	"github.com/HandleConsolidated/situation-monitor-sub006/internal/classify"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/feeds"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/history"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/logging"
)

const (
	historyRetention = 60 * time.Minute
	velocityLookback = 15 * time.Minute
	deltaLookback    = 10 * time.Minute
	maxHeadlines     = 8
	maxRelated       = 3
	maxClusters      = 5
)

// Peak records a topic's highest observed count. Peaks survive
// pruning and are cleared only by Reset.
type Peak struct {
	Count int
	At    time.Time
}

// Engine is the topic correlation engine. It owns its rolling history
// exclusively; concurrent Analyze calls against one Engine are not
// supported — callers serialize, or give each goroutine its own Engine.
type Engine struct {
	topics     []Topic
	patterns   map[string][]classify.Pattern
	classifier *classify.Classifier

	counts *history.BucketStore // minute bucket → topic → count
	deltas *history.BucketStore // minute bucket → topic → delta
	peaks  map[string]Peak

	now func() time.Time
}

// NewEngine creates an engine over the given topic table. The table is
// shared by reference and never mutated.
func NewEngine(topics []Topic, classifier *classify.Classifier) *Engine {
	patterns := make(map[string][]classify.Pattern, len(topics))
	for _, t := range topics {
		patterns[t.ID] = classify.CompileAll(t.Patterns)
	}
	return &Engine{
		topics:     topics,
		patterns:   patterns,
		classifier: classifier,
		counts:     history.NewBucketStore(historyRetention),
		deltas:     history.NewBucketStore(historyRetention),
		peaks:      make(map[string]Peak),
		now:        time.Now,
	}
}

// Reset clears all rolling history and peaks. A subsequent Analyze
// behaves exactly like a first-ever call.
func (e *Engine) Reset() {
	e.counts.Reset()
	e.deltas.Reset()
	e.peaks = make(map[string]Peak)
}

// PeakFor returns the recorded peak for a topic.
func (e *Engine) PeakFor(topicID string) (Peak, bool) {
	p, ok := e.peaks[topicID]
	return p, ok
}

// topicAgg is one topic's accumulation over the current batch.
type topicAgg struct {
	topic      Topic
	count      int
	sources    []string // unique, first-seen order
	sourceSet  map[string]bool
	tiers      map[classify.Tier]bool
	headlines  []Headline
	indicators []string
	indSet     map[string]bool

	delta        int
	deltaPercent int
	velocity     int
	trend        string
	consensus    int
}

// Analyze computes the correlation result for one batch. The current
// minute's snapshot is written into history as a side effect (first
// write per minute bucket wins; repeat calls within the same minute
// read identically and write nothing).
func (e *Engine) Analyze(items []feeds.Item) *Result {
	now := e.now()
	bucket := history.Bucket(now)

	e.counts.Prune(now)
	e.deltas.Prune(now)

	if len(items) == 0 {
		return &Result{
			GeneratedAt:   now,
			Status:        StatusNoData,
			ActivityLevel: LevelLow,
		}
	}

	aggs := e.aggregate(items)

	countSnap := make(map[string]int)
	deltaSnap := make(map[string]int)
	for _, a := range aggs {
		if a.count > 0 {
			countSnap[a.topic.ID] = a.count
		}
	}

	for _, a := range aggs {
		e.computeTrends(a, bucket)
		if a.delta != 0 {
			deltaSnap[a.topic.ID] = a.delta
		}
		if a.count > e.peaks[a.topic.ID].Count {
			e.peaks[a.topic.ID] = Peak{Count: a.count, At: now}
		}
	}

	e.counts.WriteOnce(bucket, countSnap)
	e.deltas.WriteOnce(bucket, deltaSnap)

	res := &Result{
		GeneratedAt: now,
		Status:      StatusMonitoring,
	}

	categoryTotals := make(map[string]int)
	for _, a := range aggs {
		res.TotalMatches += a.count
		if a.count > 0 {
			categoryTotals[a.topic.Category] += a.count
		}

		if a.count >= 3 {
			res.Emerging = append(res.Emerging, e.emergingPattern(a, aggs))
		}
		if sig, ok := momentumSignal(a); ok {
			res.Momentum = append(res.Momentum, sig)
		}
		if len(a.sources) >= 3 {
			res.CrossSource = append(res.CrossSource, crossSourceSignal(a))
		}
		if sig, ok := e.predictiveSignal(a); ok {
			res.Predictive = append(res.Predictive, sig)
		}
	}

	res.Clusters = buildClusters(aggs)
	res.DominantCategory = dominantCategory(categoryTotals)
	sortResult(res)
	res.ActivityLevel = activityLevel(res)

	logging.Info("CORRELATION: Batch complete",
		"items", len(items),
		"matches", res.TotalMatches,
		"emerging", len(res.Emerging),
		"momentum", len(res.Momentum),
		"cross_source", len(res.CrossSource),
		"predictive", len(res.Predictive),
		"activity", res.ActivityLevel)

	return res
}

// aggregate runs every item against every topic detector. A detector
// matches a title at most once per item regardless of pattern count.
func (e *Engine) aggregate(items []feeds.Item) []*topicAgg {
	aggs := make([]*topicAgg, 0, len(e.topics))
	for _, t := range e.topics {
		a := &topicAgg{
			topic:     t,
			sourceSet: make(map[string]bool),
			tiers:     make(map[classify.Tier]bool),
			indSet:    make(map[string]bool),
			trend:     TrendSteady,
		}
		pats := e.patterns[t.ID]
		for _, it := range items {
			if it.Title == "" || !classify.MatchAny(pats, it.Title) {
				continue
			}
			a.count++
			if it.Source != "" && !a.sourceSet[it.Source] {
				a.sourceSet[it.Source] = true
				a.sources = append(a.sources, it.Source)
				if tier := e.classifier.Classify(it.Source); tier != classify.TierUnknown {
					a.tiers[tier] = true
				}
			}
			if len(a.headlines) < maxHeadlines {
				a.headlines = append(a.headlines, Headline{
					Title:     it.Title,
					Link:      it.Link,
					Source:    it.Source,
					Timestamp: it.Timestamp,
				})
			}
			for _, ind := range classify.MatchIndicators(it.Title, t.PredictiveIndicators) {
				if !a.indSet[ind] {
					a.indSet[ind] = true
					a.indicators = append(a.indicators, ind)
				}
			}
		}
		aggs = append(aggs, a)
	}
	return aggs
}

// computeTrends fills velocity, delta, deltaPercent and trend from the
// rolling history. Only buckets strictly older than the current one
// are considered, so repeat calls within a minute are deterministic.
func (e *Engine) computeTrends(a *topicAgg, bucket int64) {
	id := a.topic.ID

	// Velocity: per-hour rate vs the oldest sample in the lookback.
	if old, ok := e.counts.Oldest(bucket, velocityLookback); ok {
		minutes := bucket - old
		if minutes > 0 {
			diff := a.count - e.counts.Count(old, id)
			a.velocity = int(math.Round(float64(diff) / float64(minutes) * 60))
		}
	}

	// Delta vs the ten-minutes-ago baseline. No baseline means no
	// movement to report: delta stays zero on a first-ever call.
	base, ok := e.counts.At(bucket-int64(deltaLookback/time.Minute), bucket)
	if ok {
		oldCount := e.counts.Count(base, id)
		a.delta = a.count - oldCount
		if oldCount == 0 {
			if a.delta > 0 {
				a.deltaPercent = 100
			}
		} else {
			a.deltaPercent = int(math.Round(float64(a.delta) / float64(oldCount) * 100))
		}
	}

	// Acceleration: current delta vs the delta recorded at the baseline.
	pastDelta := 0
	if past, ok := e.deltas.At(bucket-int64(deltaLookback/time.Minute), bucket); ok {
		pastDelta = e.deltas.Count(past, id)
	}
	switch diff := a.delta - pastDelta; {
	case diff > 1:
		a.trend = TrendAccelerating
	case diff < -1:
		a.trend = TrendDecelerating
	default:
		a.trend = TrendSteady
	}

	a.consensus = consensusScore(a)
}

func (e *Engine) emergingPattern(a *topicAgg, aggs []*topicAgg) EmergingPattern {
	score := weightedScore(a)
	return EmergingPattern{
		TopicID:       a.topic.ID,
		Category:      a.topic.Category,
		Count:         a.count,
		SourceCount:   len(a.sources),
		Sources:       a.sources,
		WeightedScore: score,
		Level:         patternLevel(score),
		Velocity:      a.velocity,
		Trend:         a.trend,
		Headlines:     a.headlines,
		Related:       relatedTopics(a, aggs, e.patterns),
	}
}

func weightedScore(a *topicAgg) float64 {
	w := a.topic.Weight
	if w == 0 {
		w = 1
	}
	return float64(a.count) * w
}

func patternLevel(score float64) string {
	switch {
	case score >= 20:
		return LevelCritical
	case score >= 12:
		return LevelHigh
	case score >= 8:
		return LevelElevated
	default:
		return LevelEmerging
	}
}

func momentumSignal(a *topicAgg) (MomentumSignal, bool) {
	if !(a.delta >= 2 || (a.count >= 3 && a.delta >= 1) || a.deltaPercent >= 50) {
		return MomentumSignal{}, false
	}
	return MomentumSignal{
		TopicID:      a.topic.ID,
		Count:        a.count,
		Delta:        a.delta,
		DeltaPercent: a.deltaPercent,
		Momentum:     momentumLabel(a.delta),
	}, true
}

func momentumLabel(delta int) string {
	switch {
	case delta >= 5:
		return MomentumSurging
	case delta >= 2:
		return MomentumRising
	case delta < 0:
		return MomentumDeclining
	default:
		return MomentumStable
	}
}

func momentumRank(label string) int {
	switch label {
	case MomentumSurging:
		return 3
	case MomentumRising:
		return 2
	case MomentumStable:
		return 1
	default:
		return 0
	}
}

// consensusScore awards 20 points per distinct non-unknown tier (max
// four tiers), plus bonuses for specific tier combinations, capped at
// 100. Mainstream plus institutional agreement is the strongest
// signal; mainstream plus fringe means a story has crossed spheres.
func consensusScore(a *topicAgg) int {
	tiers := len(a.tiers)
	if tiers > 4 {
		tiers = 4
	}
	score := tiers * 20
	if a.tiers[classify.TierMainstream] && a.tiers[classify.TierInstitutional] {
		score += 20
	}
	if a.tiers[classify.TierMainstream] && a.tiers[classify.TierFringe] {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

func crossSourceSignal(a *topicAgg) CrossSourceSignal {
	level := LevelEmerging
	switch {
	case len(a.sources) >= 6 || a.consensus >= 60:
		level = LevelHigh
	case len(a.sources) >= 4:
		level = LevelElevated
	}
	tiers := make([]classify.Tier, 0, len(a.tiers))
	for _, t := range []classify.Tier{
		classify.TierInstitutional,
		classify.TierMainstream,
		classify.TierFringe,
		classify.TierAlternative,
		classify.TierAggregator,
	} {
		if a.tiers[t] {
			tiers = append(tiers, t)
		}
	}
	return CrossSourceSignal{
		TopicID:     a.topic.ID,
		SourceCount: len(a.sources),
		Tiers:       tiers,
		Consensus:   a.consensus,
		Level:       level,
	}
}

func (e *Engine) predictiveSignal(a *topicAgg) (PredictiveSignal, bool) {
	w := a.topic.Weight
	if w == 0 {
		w = 1
	}
	score := float64(a.count)*w +
		float64(len(a.sources))*3 +
		float64(a.delta)*5 +
		float64(len(a.indicators))*10 +
		float64(a.consensus)/5

	if score < 15 && !(len(a.indicators) > 0 && a.count >= 2) {
		return PredictiveSignal{}, false
	}

	confidence := int(math.Round(score * 1.2))
	if confidence > 95 {
		confidence = 95
	}

	level := LevelLow
	switch {
	case confidence >= 80:
		level = LevelCritical
	case confidence >= 60:
		level = LevelHigh
	case confidence >= 40:
		level = LevelMedium
	}

	rule := Predict(a.topic, a.count, a.delta)
	return PredictiveSignal{
		TopicID:           a.topic.ID,
		Score:             score,
		Confidence:        confidence,
		Level:             level,
		Prediction:        rule.Prediction,
		Timeframe:         rule.Timeframe,
		SupportingFactors: rule.Factors,
		Indicators:        a.indicators,
	}, true
}

// relatedTopics counts, for each other topic, how many of this topic's
// sampled headlines it also matches. Co-occurrence below 2 is noise.
func relatedTopics(a *topicAgg, aggs []*topicAgg, patterns map[string][]classify.Pattern) []RelatedTopic {
	var related []RelatedTopic
	for _, other := range aggs {
		if other.topic.ID == a.topic.ID {
			continue
		}
		pats := patterns[other.topic.ID]
		overlap := 0
		for _, h := range a.headlines {
			if classify.MatchAny(pats, h.Title) {
				overlap++
			}
		}
		if overlap >= 2 {
			related = append(related, RelatedTopic{TopicID: other.topic.ID, Overlap: overlap})
		}
	}
	sort.Slice(related, func(i, j int) bool {
		if related[i].Overlap != related[j].Overlap {
			return related[i].Overlap > related[j].Overlap
		}
		return related[i].TopicID < related[j].TopicID
	})
	if len(related) > maxRelated {
		related = related[:maxRelated]
	}
	return related
}

// buildClusters groups active topics (count >= 2) by shared category.
// Only groups with at least two distinct topics survive.
func buildClusters(aggs []*topicAgg) []TopicCluster {
	byCategory := make(map[string]*TopicCluster)
	var order []string
	for _, a := range aggs {
		if a.count < 2 {
			continue
		}
		c, ok := byCategory[a.topic.Category]
		if !ok {
			c = &TopicCluster{Category: a.topic.Category}
			byCategory[a.topic.Category] = c
			order = append(order, a.topic.Category)
		}
		c.Topics = append(c.Topics, a.topic.ID)
		c.TotalMentions += a.count
	}

	var clusters []TopicCluster
	for _, cat := range order {
		if c := byCategory[cat]; len(c.Topics) >= 2 {
			clusters = append(clusters, *c)
		}
	}
	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].TotalMentions != clusters[j].TotalMentions {
			return clusters[i].TotalMentions > clusters[j].TotalMentions
		}
		return clusters[i].Category < clusters[j].Category
	})
	if len(clusters) > maxClusters {
		clusters = clusters[:maxClusters]
	}
	return clusters
}

func dominantCategory(totals map[string]int) string {
	best := ""
	bestCount := 0
	for cat, n := range totals {
		if n > bestCount || (n == bestCount && best != "" && cat < best) {
			best = cat
			bestCount = n
		}
	}
	return best
}

func sortResult(res *Result) {
	sort.Slice(res.Emerging, func(i, j int) bool {
		a, b := res.Emerging[i], res.Emerging[j]
		if a.WeightedScore != b.WeightedScore {
			return a.WeightedScore > b.WeightedScore
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.TopicID < b.TopicID
	})
	sort.Slice(res.Momentum, func(i, j int) bool {
		a, b := res.Momentum[i], res.Momentum[j]
		ra, rb := momentumRank(a.Momentum), momentumRank(b.Momentum)
		if ra != rb {
			return ra > rb
		}
		if a.Delta != b.Delta {
			return a.Delta > b.Delta
		}
		return a.TopicID < b.TopicID
	})
	sort.Slice(res.CrossSource, func(i, j int) bool {
		a, b := res.CrossSource[i], res.CrossSource[j]
		if a.Consensus != b.Consensus {
			return a.Consensus > b.Consensus
		}
		return a.TopicID < b.TopicID
	})
	sort.Slice(res.Predictive, func(i, j int) bool {
		a, b := res.Predictive[i], res.Predictive[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.TopicID < b.TopicID
	})
}

// activityLevel derives the overall level from a weighted signal
// count: critical patterns weigh 3, surging momentum and high-grade
// predictions weigh 2.
func activityLevel(res *Result) string {
	weighted := 0
	for _, p := range res.Emerging {
		if p.Level == LevelCritical {
			weighted += 3
		}
	}
	for _, m := range res.Momentum {
		if m.Momentum == MomentumSurging {
			weighted += 2
		}
	}
	for _, p := range res.Predictive {
		if p.Level == LevelHigh || p.Level == LevelCritical {
			weighted += 2
		}
	}
	switch {
	case weighted >= 10:
		return LevelCritical
	case weighted >= 6:
		return LevelHigh
	case weighted >= 3:
		return LevelElevated
	case weighted >= 1:
		return LevelNormal
	default:
		return LevelLow
	}
}
