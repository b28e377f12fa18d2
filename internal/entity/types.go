// Package entity ranks people by mention volume across a batch of
// headlines — the "main character" analysis — with sentiment,
// momentum against a rolling window, and co-mention context.
package entity

import "time"

// Person is one configured person detector. The pattern is a
// case-insensitive regex; occurrences are counted, not just presence.
type Person struct {
	Name    string `yaml:"name"`
	Role    string `yaml:"role"`
	Pattern string `yaml:"pattern"`
}

// Lexicon holds the sentiment keyword lists used for per-mention
// indicator counting.
type Lexicon struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// Sentiment tiers.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentMixed    = "mixed"
	SentimentNeutral  = "neutral"
)

// Momentum labels.
const (
	MomentumRising  = "rising"
	MomentumStable  = "stable"
	MomentumFalling = "falling"
)

// Sentiment is the aggregate sentiment for a person this cycle.
type Sentiment struct {
	Score int    // -100..100, from (pos-neg)/(pos+neg)
	Tier  string // positive, negative, mixed, neutral
}

// Mention is one sampled headline mentioning a person (max 5 kept).
type Mention struct {
	Title  string
	Source string
}

// CoMention is another ranked person appearing in the same headlines.
type CoMention struct {
	Name  string
	Count int
}

// RankedEntity is one person's standing for the cycle.
type RankedEntity struct {
	Rank        int // 1-based position
	Name        string
	Role        string
	Count       int // regex occurrence count across the batch
	SourceCount int
	Sources     []string
	Dominance   int    // share of total mentions, 0-100
	Momentum    string // rising, stable, falling vs rolling mean
	Sentiment   Sentiment
	Mentions    []Mention
	CoMentions  []CoMention // computed for the top 5 only
}

// Result statuses.
const (
	StatusNoData     = "NO DATA"
	StatusMonitoring = "MONITORING"
)

// Result is the ranker's output for one cycle.
type Result struct {
	GeneratedAt   time.Time
	Status        string
	TotalMentions int
	Entities      []RankedEntity // top 15, rank order
}
