// Package correlation detects recurring topics across a batch of
// headlines and tracks how they behave over time: momentum, velocity,
// acceleration, cross-source consensus, and predictive signals.
//
// The engine is a pure function of (batch, topic table) plus an
// explicit side effect on its own rolling history. It performs no I/O
// and expects the caller to invoke Analyze once per refresh cycle.
package correlation

import (
	"time"

	"github.com/HandleConsolidated/situation-monitor-sub006/internal/classify"
)

// Topic is one configured topic detector. Definitions are read-only
// external configuration; the engine never mutates them.
type Topic struct {
	ID                   string   `yaml:"id"`
	Category             string   `yaml:"category"`
	Weight               float64  `yaml:"weight"`
	Patterns             []string `yaml:"patterns"`
	PredictiveIndicators []string `yaml:"predictive_indicators"`
}

// Headline is a bounded provenance sample kept per topic per batch.
// It exists purely for display; only its count affects scoring.
type Headline struct {
	Title     string
	Link      string
	Source    string
	Timestamp time.Time
}

// Level buckets used across the result collections.
const (
	LevelCritical = "critical"
	LevelHigh     = "high"
	LevelElevated = "elevated"
	LevelEmerging = "emerging"
	LevelMedium   = "medium"
	LevelLow      = "low"
	LevelNormal   = "normal"
)

// Trend labels for acceleration.
const (
	TrendAccelerating = "accelerating"
	TrendDecelerating = "decelerating"
	TrendSteady       = "steady"
)

// Momentum labels.
const (
	MomentumSurging   = "surging"
	MomentumRising    = "rising"
	MomentumDeclining = "declining"
	MomentumStable    = "stable"
)

// EmergingPattern is a topic with enough raw mentions to surface.
type EmergingPattern struct {
	TopicID       string
	Category      string
	Count         int
	SourceCount   int
	Sources       []string
	WeightedScore float64
	Level         string // critical, high, elevated, emerging
	Velocity      int    // mentions per hour, extrapolated
	Trend         string // accelerating, decelerating, steady
	Headlines     []Headline
	Related       []RelatedTopic
}

// RelatedTopic is a co-occurring topic over the same headline sample.
type RelatedTopic struct {
	TopicID string
	Overlap int // shared headline count
}

// MomentumSignal is a topic whose mention count is moving.
type MomentumSignal struct {
	TopicID      string
	Count        int
	Delta        int
	DeltaPercent int
	Momentum     string // surging, rising, declining, stable
}

// CrossSourceSignal is a topic covered by several independent sources.
type CrossSourceSignal struct {
	TopicID     string
	SourceCount int
	Tiers       []classify.Tier
	Consensus   int    // 0-100
	Level       string // high, elevated, emerging
}

// PredictiveSignal is a forward-looking signal for a topic.
type PredictiveSignal struct {
	TopicID           string
	Score             float64
	Confidence        int    // 0-95
	Level             string // critical, high, medium, low
	Prediction        string
	Timeframe         string
	SupportingFactors []string
	Indicators        []string // matched predictive indicator strings
}

// TopicCluster groups active topics sharing a category.
type TopicCluster struct {
	Category      string
	Topics        []string
	TotalMentions int
}

// Result statuses.
const (
	StatusNoData     = "NO DATA"
	StatusMonitoring = "MONITORING"
)

// Result is the engine's output for one cycle. All collections are
// sorted per their documented order and safe for the caller to retain.
type Result struct {
	GeneratedAt      time.Time
	Status           string // NO DATA, MONITORING
	ActivityLevel    string // critical, high, elevated, normal, low
	DominantCategory string
	TotalMatches     int

	Emerging    []EmergingPattern
	Momentum    []MomentumSignal
	CrossSource []CrossSourceSignal
	Predictive  []PredictiveSignal
	Clusters    []TopicCluster
}
