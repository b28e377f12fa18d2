// Package narrative classifies sources by epistemic tier and tracks a
// narrative's lifecycle from fringe emergence to mainstream crossover
// or debunking.
//
// Like the correlation engine, the tracker is synchronous and I/O
// free: one Analyze call per refresh cycle, with rolling per-narrative
// state as the only retained side effect.
package narrative

import (
	"time"

	"github.com/HandleConsolidated/situation-monitor-sub006/internal/classify"
)

// Narrative is one configured narrative detector. Definitions are
// read-only external configuration, never mutated by the tracker.
type Narrative struct {
	ID                   string   `yaml:"id"`
	Category             string   `yaml:"category"`
	Severity             string   `yaml:"severity"` // e.g. "disinfo", "watch"
	Keywords             []string `yaml:"keywords"`
	AmplificationPhrases []string `yaml:"amplification_phrases"`
	DebunkIndicators     []string `yaml:"debunk_indicators"`
}

// SeverityDisinfo marks narratives that always classify as
// disinformation signals when active.
const SeverityDisinfo = "disinfo"

// Lifecycle stages.
const (
	StageNascent    = "nascent"
	StageEmerging   = "emerging"
	StageSpreading  = "spreading"
	StageCrossing   = "crossing"
	StageMainstream = "mainstream"
	StageDebunked   = "debunked"
)

// Validation statuses for crossover records.
const (
	ValidationVerified          = "verified"
	ValidationPartiallyVerified = "partially-verified"
	ValidationDisputed          = "disputed"
	ValidationDebunked          = "debunked"
	ValidationUnverified        = "unverified"
)

// Crossover directions.
const (
	DirectionFringeFirst     = "fringe-first"
	DirectionMainstreamFirst = "mainstream-first"
	DirectionSimultaneous    = "simultaneous"
)

// Spread patterns for disinfo signals.
const (
	SpreadCoordinated = "coordinated"
	SpreadOrganic     = "organic"
)

// Threat levels.
const (
	ThreatCritical = "critical"
	ThreatHigh     = "high"
	ThreatMedium   = "medium"
	ThreatElevated = "elevated"
	ThreatLow      = "low"
)

// Crossover statuses.
const (
	CrossoverCrossed  = "crossed"
	CrossoverCrossing = "crossing"
)

// FringeToMainstream records a narrative present in both fringe and
// mainstream coverage this cycle.
type FringeToMainstream struct {
	NarrativeID    string
	Category       string
	Count          int
	Stage          string
	CrossoverLevel int    // mainstream share of coverage, 0-100
	Status         string // crossed, crossing
	Direction      string // fringe-first, mainstream-first, simultaneous
	Validation     string
	Amplification  int
	Debunk         int
	SourcesByTier  map[classify.Tier][]string
}

// DisinfoSignal records a narrative behaving like disinformation.
type DisinfoSignal struct {
	NarrativeID   string
	Category      string
	Count         int
	Stage         string
	ThreatLevel   string // critical, high, medium, low
	SpreadPattern string // coordinated, organic
	Amplification int
	Debunk        int
	Velocity      int
}

// EmergingFringe records a narrative with fringe-only traction.
type EmergingFringe struct {
	NarrativeID        string
	Category           string
	Count              int
	FringeCount        int
	Stage              string
	Status             string // viral, spreading, emerging, nascent
	RiskLevel          string // high, medium, low
	Amplification      int
	Velocity           int
	PredictedCrossover bool
}

// Fringe statuses by mention count.
const (
	FringeViral     = "viral"
	FringeSpreading = "spreading"
	FringeEmerging  = "emerging"
	FringeNascent   = "nascent"
)

// WatchEntry is a narrative with coverage but no special tier bucket.
type WatchEntry struct {
	NarrativeID string
	Category    string
	Count       int
	SourceCount int
	Stage       string
}

// Result statuses.
const (
	StatusNoData     = "NO DATA"
	StatusMonitoring = "MONITORING"
)

// Result is the tracker's output for one cycle. Each active narrative
// lands in exactly one of the four collections.
type Result struct {
	GeneratedAt  time.Time
	Status       string
	ThreatLevel  string // critical, high, elevated, low
	TotalMatches int

	FringeToMainstream []FringeToMainstream
	Disinfo            []DisinfoSignal
	EmergingFringe     []EmergingFringe
	Watchlist          []WatchEntry
}
