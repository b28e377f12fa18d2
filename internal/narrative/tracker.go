package narrative

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
	stateRetention      = 120 * time.Minute
	velocityLookback    = 30 * time.Minute
	crossoverSettleTime = 30 * time.Minute
)

// tierSnapshot records which tiers covered a narrative at one point.
type tierSnapshot struct {
	at    time.Time
	tiers map[classify.Tier]bool
}

// narrativeState is the rolling per-narrative history.
type narrativeState struct {
	firstSeen   time.Time
	lastSeen    time.Time
	sources     map[string]bool
	snapshots   []tierSnapshot
	crossoverAt time.Time // zero until fringe and mainstream first co-occur
}

// Tracker is the narrative propagation tracker. It owns its rolling
// state exclusively; callers serialize Analyze calls.
type Tracker struct {
	narratives []Narrative
	keywords   map[string][]classify.Pattern
	classifier *classify.Classifier

	states map[string]*narrativeState
	counts *history.SampleStore

	now func() time.Time
}

// NewTracker creates a tracker over the given narrative table.
func NewTracker(narratives []Narrative, classifier *classify.Classifier) *Tracker {
	keywords := make(map[string][]classify.Pattern, len(narratives))
	for _, n := range narratives {
		keywords[n.ID] = classify.CompileAll(n.Keywords)
	}
	return &Tracker{
		narratives: narratives,
		keywords:   keywords,
		classifier: classifier,
		states:     make(map[string]*narrativeState),
		counts:     history.NewSampleStore(stateRetention),
		now:        time.Now,
	}
}

// Reset clears all rolling state.
func (t *Tracker) Reset() {
	t.states = make(map[string]*narrativeState)
	t.counts.Reset()
}

// narrativeAgg is one narrative's accumulation over the current batch.
type narrativeAgg struct {
	def   Narrative
	items []feeds.Item // link-deduped matches

	count           int
	sourcesByTier   map[classify.Tier][]string
	sourceCount     int
	fringeCount     int // matched items from fringe-tier sources
	mainstreamCount int
	tiers           map[classify.Tier]bool

	amplification int
	debunk        int
	velocity      int
	stage         string
}

// Analyze computes the narrative result for one batch. Two items
// sharing a link contribute at most one count to any narrative.
func (t *Tracker) Analyze(items []feeds.Item) *Result {
	now := t.now()
	t.prune(now)

	if len(items) == 0 {
		return &Result{
			GeneratedAt: now,
			Status:      StatusNoData,
			ThreatLevel: ThreatLow,
		}
	}

	res := &Result{
		GeneratedAt: now,
		Status:      StatusMonitoring,
	}

	for _, def := range t.narratives {
		a := t.aggregate(def, items)
		if a.count == 0 {
			continue
		}
		res.TotalMatches += a.count

		st := t.touchState(def.ID, a, now)
		a.velocity = t.velocityFor(def.ID, a.count, now)
		t.counts.Append(def.ID, history.Sample{At: now, Count: a.count})

		a.stage = t.stageFor(a, st, now)
		t.classify(res, a, st, now)
	}

	res.ThreatLevel = threatLevel(res)
	sortResult(res)

	logging.Info("NARRATIVE: Batch complete",
		"items", len(items),
		"matches", res.TotalMatches,
		"crossover", len(res.FringeToMainstream),
		"disinfo", len(res.Disinfo),
		"fringe", len(res.EmergingFringe),
		"watch", len(res.Watchlist),
		"threat", res.ThreatLevel)

	return res
}

// aggregate matches a narrative's keywords against the batch and
// builds the tier-bucketed source breakdown.
func (t *Tracker) aggregate(def Narrative, items []feeds.Item) *narrativeAgg {
	a := &narrativeAgg{
		def:           def,
		sourcesByTier: make(map[classify.Tier][]string),
		tiers:         make(map[classify.Tier]bool),
	}
	pats := t.keywords[def.ID]

	seenLinks := make(map[string]bool)
	seenSources := make(map[string]bool)
	tierSources := make(map[classify.Tier]map[string]bool)

	amplified := 0
	mainstreamAmplified := 0
	debunked := 0
	mainstreamDebunked := 0

	for _, it := range items {
		if it.Title == "" || !classify.MatchAny(pats, it.Title) {
			continue
		}
		if it.Link != "" {
			if seenLinks[it.Link] {
				continue
			}
			seenLinks[it.Link] = true
		}
		a.items = append(a.items, it)
		a.count++

		tier := t.classifier.Classify(it.Source)
		a.tiers[tier] = true
		switch tier {
		case classify.TierFringe:
			a.fringeCount++
		case classify.TierMainstream:
			a.mainstreamCount++
		}

		if it.Source != "" {
			if !seenSources[it.Source] {
				seenSources[it.Source] = true
				a.sourceCount++
			}
			if tierSources[tier] == nil {
				tierSources[tier] = make(map[string]bool)
			}
			if !tierSources[tier][it.Source] {
				tierSources[tier][it.Source] = true
				a.sourcesByTier[tier] = append(a.sourcesByTier[tier], it.Source)
			}
		}

		if len(classify.MatchIndicators(it.Title, def.AmplificationPhrases)) > 0 {
			amplified++
			if tier == classify.TierMainstream {
				mainstreamAmplified++
			}
		}
		if len(classify.MatchIndicators(it.Title, def.DebunkIndicators)) > 0 {
			debunked++
			if tier == classify.TierMainstream {
				mainstreamDebunked++
			}
		}
	}

	if a.count > 0 {
		ampFraction := float64(amplified) / float64(a.count)
		a.amplification = capScore(int(math.Round(ampFraction*50)) + 15*mainstreamAmplified)

		debunkFraction := float64(debunked) / float64(a.count)
		a.debunk = capScore(int(math.Round(debunkFraction*40)) + 20*mainstreamDebunked)
	}
	return a
}

func capScore(n int) int {
	if n > 100 {
		return 100
	}
	return n
}

// touchState records this cycle's observation into the narrative's
// rolling state and returns it.
func (t *Tracker) touchState(id string, a *narrativeAgg, now time.Time) *narrativeState {
	st, ok := t.states[id]
	if !ok {
		st = &narrativeState{
			firstSeen: now,
			sources:   make(map[string]bool),
		}
		t.states[id] = st
	}
	st.lastSeen = now
	for _, srcs := range a.sourcesByTier {
		for _, s := range srcs {
			st.sources[s] = true
		}
	}

	tiers := make(map[classify.Tier]bool, len(a.tiers))
	for tier := range a.tiers {
		tiers[tier] = true
	}
	st.snapshots = append(st.snapshots, tierSnapshot{at: now, tiers: tiers})

	if st.crossoverAt.IsZero() && a.tiers[classify.TierFringe] && a.tiers[classify.TierMainstream] {
		st.crossoverAt = now
	}
	return st
}

// velocityFor extrapolates a per-hour rate from the oldest retained
// count sample inside the lookback. Samples from this call are not
// yet appended, so repeat calls within a cycle read identically.
func (t *Tracker) velocityFor(id string, count int, now time.Time) int {
	old, ok := t.counts.OldestBefore(id, now, velocityLookback)
	if !ok {
		return 0
	}
	minutes := now.Sub(old.At).Minutes()
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(count-old.Count) / minutes * 60))
}

// stageFor derives the lifecycle stage. Debunking trumps everything;
// a crossover that settled 30+ minutes ago with mainstream still
// dominant reads as mainstream even while fringe coverage lingers.
func (t *Tracker) stageFor(a *narrativeAgg, st *narrativeState, now time.Time) string {
	mainstreamDominant := a.mainstreamCount*2 > a.count

	switch {
	case a.debunk >= 60:
		return StageDebunked
	case a.count == 0:
		return StageNascent
	case !st.crossoverAt.IsZero() && now.Sub(st.crossoverAt) >= crossoverSettleTime && mainstreamDominant:
		return StageMainstream
	case a.tiers[classify.TierFringe] && a.tiers[classify.TierMainstream]:
		return StageCrossing
	case mainstreamDominant:
		return StageMainstream
	case a.fringeCount >= 3:
		return StageSpreading
	case a.count >= 1:
		return StageEmerging
	default:
		return StageNascent
	}
}

// classify places the narrative into exactly one result bucket.
func (t *Tracker) classify(res *Result, a *narrativeAgg, st *narrativeState, now time.Time) {
	bothTiers := a.tiers[classify.TierFringe] && a.tiers[classify.TierMainstream]

	switch {
	case bothTiers:
		res.FringeToMainstream = append(res.FringeToMainstream, t.crossoverRecord(a, st))
	case a.def.Severity == SeverityDisinfo || (a.amplification >= 50 && a.debunk < 30):
		res.Disinfo = append(res.Disinfo, disinfoSignal(a))
	case a.fringeCount >= 1:
		res.EmergingFringe = append(res.EmergingFringe, fringeRecord(a))
	default:
		res.Watchlist = append(res.Watchlist, WatchEntry{
			NarrativeID: a.def.ID,
			Category:    a.def.Category,
			Count:       a.count,
			SourceCount: a.sourceCount,
			Stage:       a.stage,
		})
	}
}

func (t *Tracker) crossoverRecord(a *narrativeAgg, st *narrativeState) FringeToMainstream {
	level := int(math.Round(float64(a.mainstreamCount) / float64(a.count) * 100))

	status := CrossoverCrossing
	if level >= 50 {
		status = CrossoverCrossed
	}

	direction := DirectionSimultaneous
	if len(st.snapshots) > 0 {
		first := st.snapshots[0].tiers
		switch {
		case first[classify.TierFringe] && !first[classify.TierMainstream]:
			direction = DirectionFringeFirst
		case first[classify.TierMainstream] && !first[classify.TierFringe]:
			direction = DirectionMainstreamFirst
		}
	}

	validation := ValidationUnverified
	switch {
	case a.debunk >= 60:
		validation = ValidationDebunked
	case a.debunk >= 30:
		validation = ValidationDisputed
	case a.tiers[classify.TierInstitutional]:
		validation = ValidationVerified
	case a.mainstreamCount >= 2:
		validation = ValidationPartiallyVerified
	}

	return FringeToMainstream{
		NarrativeID:    a.def.ID,
		Category:       a.def.Category,
		Count:          a.count,
		Stage:          a.stage,
		CrossoverLevel: level,
		Status:         status,
		Direction:      direction,
		Validation:     validation,
		Amplification:  a.amplification,
		Debunk:         a.debunk,
		SourcesByTier:  a.sourcesByTier,
	}
}

func disinfoSignal(a *narrativeAgg) DisinfoSignal {
	threat := ThreatLow
	switch {
	case a.amplification >= 70:
		threat = ThreatCritical
	case a.amplification >= 50:
		threat = ThreatHigh
	case a.amplification >= 30:
		threat = ThreatMedium
	}

	spread := SpreadOrganic
	if a.velocity >= 15 && burstMeanGap(a.items) {
		spread = SpreadCoordinated
	}

	return DisinfoSignal{
		NarrativeID:   a.def.ID,
		Category:      a.def.Category,
		Count:         a.count,
		Stage:         a.stage,
		ThreatLevel:   threat,
		SpreadPattern: spread,
		Amplification: a.amplification,
		Debunk:        a.debunk,
		Velocity:      a.velocity,
	}
}

// burstMeanGap reports whether at least three timestamped matches
// arrived with a mean gap under two minutes.
func burstMeanGap(items []feeds.Item) bool {
	var stamps []time.Time
	for _, it := range items {
		if !it.Timestamp.IsZero() {
			stamps = append(stamps, it.Timestamp)
		}
	}
	if len(stamps) < 3 {
		return false
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	total := stamps[len(stamps)-1].Sub(stamps[0])
	mean := total / time.Duration(len(stamps)-1)
	return mean < 2*time.Minute
}

func fringeRecord(a *narrativeAgg) EmergingFringe {
	status := FringeNascent
	switch {
	case a.count >= 8:
		status = FringeViral
	case a.count >= 5:
		status = FringeSpreading
	case a.count >= 2:
		status = FringeEmerging
	}

	predicted := (a.velocity >= 5 && a.fringeCount >= 3) ||
		(a.amplification >= 50 && a.fringeCount >= 2) ||
		a.fringeCount >= 5

	risk := ThreatLow
	switch {
	case predicted && a.amplification >= 40:
		risk = ThreatHigh
	case a.amplification >= 30 || a.velocity >= 10:
		risk = ThreatMedium
	}

	return EmergingFringe{
		NarrativeID:        a.def.ID,
		Category:           a.def.Category,
		Count:              a.count,
		FringeCount:        a.fringeCount,
		Stage:              a.stage,
		Status:             status,
		RiskLevel:          risk,
		Amplification:      a.amplification,
		Velocity:           a.velocity,
		PredictedCrossover: predicted,
	}
}

// threatLevel derives the overall threat from high-risk fringe and
// disinfo signals plus crossover volume.
func threatLevel(res *Result) string {
	highRisk := 0
	criticalDisinfo := false
	for _, f := range res.EmergingFringe {
		if f.RiskLevel == ThreatHigh {
			highRisk++
		}
	}
	for _, d := range res.Disinfo {
		if d.ThreatLevel == ThreatCritical {
			criticalDisinfo = true
		}
		if d.ThreatLevel == ThreatCritical || d.ThreatLevel == ThreatHigh {
			highRisk++
		}
	}
	crossing := len(res.FringeToMainstream)

	switch {
	case highRisk >= 3 || criticalDisinfo:
		return ThreatCritical
	case highRisk >= 2 || crossing >= 3:
		return ThreatHigh
	case highRisk >= 1 || crossing >= 1:
		return ThreatElevated
	default:
		return ThreatLow
	}
}

func sortResult(res *Result) {
	sort.Slice(res.FringeToMainstream, func(i, j int) bool {
		a, b := res.FringeToMainstream[i], res.FringeToMainstream[j]
		if a.CrossoverLevel != b.CrossoverLevel {
			return a.CrossoverLevel > b.CrossoverLevel
		}
		return a.NarrativeID < b.NarrativeID
	})
	sort.Slice(res.Disinfo, func(i, j int) bool {
		a, b := res.Disinfo[i], res.Disinfo[j]
		if a.Amplification != b.Amplification {
			return a.Amplification > b.Amplification
		}
		return a.NarrativeID < b.NarrativeID
	})
	sort.Slice(res.EmergingFringe, func(i, j int) bool {
		a, b := res.EmergingFringe[i], res.EmergingFringe[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.NarrativeID < b.NarrativeID
	})
	sort.Slice(res.Watchlist, func(i, j int) bool {
		a, b := res.Watchlist[i], res.Watchlist[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.NarrativeID < b.NarrativeID
	})
}

// prune drops expired samples and states that have gone quiet.
func (t *Tracker) prune(now time.Time) {
	t.counts.Prune(now)
	floor := now.Add(-stateRetention)
	for id, st := range t.states {
		i := 0
		for i < len(st.snapshots) && st.snapshots[i].at.Before(floor) {
			i++
		}
		st.snapshots = st.snapshots[i:]
		if st.lastSeen.Before(floor) {
			delete(t.states, id)
		}
	}
}
