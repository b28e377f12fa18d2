package entity

import (
	"math"
	"time"

	"github.com/HandleConsolidated/situation-monitor-sub006/internal/classify"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/feeds"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/history"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/logging"
)

const (
	historyRetention = 30 * time.Minute
	maxRanked        = 15
	maxMentions      = 5
	coMentionDepth   = 5
	maxCoMentions    = 3

	risingRatio  = 1.3
	fallingRatio = 0.7
)

// DefaultLexicon returns the built-in sentiment keyword lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Positive: []string{
			"wins", "win", "victory", "surge", "soars", "praised", "breakthrough",
			"success", "approval", "boost", "strong", "record", "rally", "gains",
			"agreement", "deal", "backs", "endorses",
		},
		Negative: []string{
			"slams", "attacks", "crisis", "scandal", "indicted", "lawsuit",
			"probe", "investigation", "fails", "crash", "plunge", "backlash",
			"outrage", "resigns", "fired", "threat", "warns", "blasts", "feud",
		},
	}
}

// Ranker is the entity prominence ranker. It owns its rolling history
// exclusively; callers serialize Analyze calls.
type Ranker struct {
	people   []Person
	patterns map[string]classify.Pattern
	lexicon  Lexicon

	counts *history.SampleStore

	now func() time.Time
}

// NewRanker creates a ranker over the given person table. People with
// invalid patterns are skipped rather than failing construction.
func NewRanker(people []Person, lexicon Lexicon) *Ranker {
	kept := make([]Person, 0, len(people))
	patterns := make(map[string]classify.Pattern, len(people))
	for _, p := range people {
		pat, err := classify.Compile(p.Pattern)
		if err != nil {
			logging.Warn("entity: skipping person with bad pattern", "name", p.Name, "err", err)
			continue
		}
		kept = append(kept, p)
		patterns[p.Name] = pat
	}
	if len(lexicon.Positive) == 0 && len(lexicon.Negative) == 0 {
		lexicon = DefaultLexicon()
	}
	return &Ranker{
		people:   kept,
		patterns: patterns,
		lexicon:  lexicon,
		counts:   history.NewSampleStore(historyRetention),
		now:      time.Now,
	}
}

// Reset clears all rolling history.
func (r *Ranker) Reset() {
	r.counts.Reset()
}

// Analyze ranks people by mention volume for one batch.
func (r *Ranker) Analyze(items []feeds.Item) *Result {
	now := r.now()
	r.counts.Prune(now)

	if len(items) == 0 {
		return &Result{
			GeneratedAt: now,
			Status:      StatusNoData,
		}
	}

	entities := r.aggregate(items, now)

	total := 0
	for i := range entities {
		total += entities[i].Count
	}
	for i := range entities {
		if total > 0 {
			entities[i].Dominance = int(math.Round(float64(entities[i].Count) / float64(total) * 100))
		}
	}

	rankEntities(entities)
	if len(entities) > maxRanked {
		entities = entities[:maxRanked]
	}
	for i := range entities {
		entities[i].Rank = i + 1
	}

	r.fillCoMentions(entities, items)

	res := &Result{
		GeneratedAt:   now,
		Status:        StatusMonitoring,
		TotalMentions: total,
		Entities:      entities,
	}

	logging.Info("ENTITY: Batch complete",
		"items", len(items),
		"mentions", total,
		"ranked", len(entities))

	return res
}

// aggregate counts regex occurrences per person and records sentiment,
// samples and momentum.
func (r *Ranker) aggregate(items []feeds.Item, now time.Time) []RankedEntity {
	var entities []RankedEntity
	for _, p := range r.people {
		pat := r.patterns[p.Name]

		e := RankedEntity{Name: p.Name, Role: p.Role, Momentum: MomentumStable}
		sourceSet := make(map[string]bool)
		pos, neg := 0, 0

		for _, it := range items {
			occ := pat.Count(it.Title)
			if occ == 0 {
				continue
			}
			e.Count += occ
			if it.Source != "" && !sourceSet[it.Source] {
				sourceSet[it.Source] = true
				e.Sources = append(e.Sources, it.Source)
			}
			pos += len(classify.MatchIndicators(it.Title, r.lexicon.Positive))
			neg += len(classify.MatchIndicators(it.Title, r.lexicon.Negative))
			if len(e.Mentions) < maxMentions {
				e.Mentions = append(e.Mentions, Mention{Title: it.Title, Source: it.Source})
			}
		}
		if e.Count == 0 {
			continue
		}
		e.SourceCount = len(e.Sources)
		e.Sentiment = sentimentFor(pos, neg)
		e.Momentum = r.momentumFor(p.Name, e.Count)
		r.counts.Append(p.Name, history.Sample{At: now, Count: e.Count})

		entities = append(entities, e)
	}
	return entities
}

func sentimentFor(pos, neg int) Sentiment {
	s := Sentiment{Tier: SentimentNeutral}
	if pos+neg == 0 {
		return s
	}
	s.Score = int(math.Round(float64(pos-neg) / float64(pos+neg) * 100))
	switch {
	case pos > 0 && neg > 0:
		s.Tier = SentimentMixed
	case pos > 0:
		s.Tier = SentimentPositive
	default:
		s.Tier = SentimentNegative
	}
	return s
}

// momentumFor compares the current count to the mean of the retained
// window. Fewer than two history points reads as stable.
func (r *Ranker) momentumFor(name string, count int) string {
	window := r.counts.Window(name)
	if len(window) < 2 {
		return MomentumStable
	}
	sum := 0
	for _, s := range window {
		sum += s.Count
	}
	mean := float64(sum) / float64(len(window))
	if mean == 0 {
		return MomentumStable
	}
	ratio := float64(count) / mean
	switch {
	case ratio > risingRatio:
		return MomentumRising
	case ratio < fallingRatio:
		return MomentumFalling
	default:
		return MomentumStable
	}
}

func momentumRank(label string) int {
	switch label {
	case MomentumRising:
		return 2
	case MomentumStable:
		return 1
	default:
		return 0
	}
}

// rankEntities sorts primarily by count descending; entities within 2
// counts of each other break ties by source count, then momentum.
// Bubble sort keeps the pairwise tie-break rule exact.
func rankEntities(entities []RankedEntity) {
	less := func(a, b RankedEntity) bool {
		if diff := a.Count - b.Count; diff > 2 || diff < -2 {
			return a.Count > b.Count
		}
		if a.SourceCount != b.SourceCount {
			return a.SourceCount > b.SourceCount
		}
		if ra, rb := momentumRank(a.Momentum), momentumRank(b.Momentum); ra != rb {
			return ra > rb
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	}
	for i := 0; i < len(entities)-1; i++ {
		for j := 0; j < len(entities)-1-i; j++ {
			if less(entities[j+1], entities[j]) {
				entities[j], entities[j+1] = entities[j+1], entities[j]
			}
		}
	}
}

// fillCoMentions computes co-mention context for the top entries: for
// each headline matching the person, every other configured person
// matching the same title counts once.
func (r *Ranker) fillCoMentions(entities []RankedEntity, items []feeds.Item) {
	depth := coMentionDepth
	if depth > len(entities) {
		depth = len(entities)
	}
	for i := 0; i < depth; i++ {
		pat := r.patterns[entities[i].Name]
		co := make(map[string]int)
		var order []string
		for _, it := range items {
			if it.Title == "" || !pat.Matches(it.Title) {
				continue
			}
			for _, other := range r.people {
				if other.Name == entities[i].Name {
					continue
				}
				if r.patterns[other.Name].Matches(it.Title) {
					if co[other.Name] == 0 {
						order = append(order, other.Name)
					}
					co[other.Name]++
				}
			}
		}
		var mentions []CoMention
		for _, name := range order {
			mentions = append(mentions, CoMention{Name: name, Count: co[name]})
		}
		// Sort by count desc, name asc; list is tiny.
		for a := 0; a < len(mentions)-1; a++ {
			for b := 0; b < len(mentions)-1-a; b++ {
				if mentions[b+1].Count > mentions[b].Count ||
					(mentions[b+1].Count == mentions[b].Count && mentions[b+1].Name < mentions[b].Name) {
					mentions[b], mentions[b+1] = mentions[b+1], mentions[b]
				}
			}
		}
		if len(mentions) > maxCoMentions {
			mentions = mentions[:maxCoMentions]
		}
		entities[i].CoMentions = mentions
	}
}

// DominanceIndex measures how far ahead the top entity is of the
// second, scaled to 0-100. A lone or absent field reads as total
// dominance; an exact tie reads as zero.
func DominanceIndex(entities []RankedEntity) int {
	if len(entities) < 2 {
		return 100
	}
	top := entities[0].Count
	second := entities[1].Count
	if top == second {
		return 0
	}
	if second == 0 {
		return 100
	}
	idx := int(math.Round((float64(top)/float64(second) - 1) * 100))
	if idx > 100 {
		idx = 100
	}
	return idx
}
