// Package classify provides the two leaf classifiers shared by the
// analyzers: publisher-to-tier lookup and detector pattern matching.
//
// Both are deliberately cheap — case-insensitive substring and regex
// tests only, no language understanding. Budget: well under 1ms per
// title.
package classify

import "strings"

// Tier is a source's coarse reliability/ideology bucket.
type Tier string

const (
	TierMainstream    Tier = "mainstream"
	TierFringe        Tier = "fringe"
	TierAlternative   Tier = "alternative"
	TierInstitutional Tier = "institutional"
	TierAggregator    Tier = "aggregator"
	TierUnknown       Tier = "unknown"
)

// TierLists holds the configured publisher name fragments for each tier.
// Matching is case-insensitive substring containment.
type TierLists struct {
	Institutional []string `yaml:"institutional"`
	Mainstream    []string `yaml:"mainstream"`
	Fringe        []string `yaml:"fringe"`
	Alternative   []string `yaml:"alternative"`
	Aggregator    []string `yaml:"aggregator"`
}

// Classifier maps publisher names onto tiers.
//
// Tier lists are checked in fixed priority order — institutional,
// mainstream, fringe, alternative, aggregator — and the first match
// wins, so overlapping lists always resolve the same way.
type Classifier struct {
	ordered []tierList
}

type tierList struct {
	tier      Tier
	fragments []string // lowercased at construction
}

// NewClassifier builds a classifier from the given tier lists.
func NewClassifier(lists TierLists) *Classifier {
	lower := func(ss []string) []string {
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	return &Classifier{
		ordered: []tierList{
			{TierInstitutional, lower(lists.Institutional)},
			{TierMainstream, lower(lists.Mainstream)},
			{TierFringe, lower(lists.Fringe)},
			{TierAlternative, lower(lists.Alternative)},
			{TierAggregator, lower(lists.Aggregator)},
		},
	}
}

// Classify returns the tier for a publisher name.
// An empty or unrecognized name classifies as TierUnknown.
func (c *Classifier) Classify(source string) Tier {
	if source == "" {
		return TierUnknown
	}
	name := strings.ToLower(source)
	for _, tl := range c.ordered {
		for _, frag := range tl.fragments {
			if frag != "" && strings.Contains(name, frag) {
				return tl.tier
			}
		}
	}
	return TierUnknown
}
