package correlation

import "strings"

// PredictionRule is one entry in the data-driven prediction table.
// Rules are matched top-down: the first rule whose category/prefix and
// thresholds all hold wins. Empty Category or IDPrefix matches
// anything; zero thresholds always hold. MinDelta only demands
// positive movement: a declining count never disqualifies a rule
// that sets no delta condition.
type PredictionRule struct {
	Category   string
	IDPrefix   string
	MinCount   int
	MinDelta   int
	Prediction string
	Timeframe  string
	Factors    []string
}

// predictionRules maps topic activity onto forward-looking text.
// The final catch-all entry is the guaranteed fallback.
var predictionRules = []PredictionRule{
	{
		Category:   "economy",
		IDPrefix:   "tariff",
		MinCount:   4,
		Prediction: "Escalating trade measures likely; expect retaliatory announcements",
		Timeframe:  "24-48 hours",
		Factors:    []string{"sustained tariff coverage", "multiple sources reporting"},
	},
	{
		Category:   "economy",
		IDPrefix:   "fed",
		MinCount:   3,
		Prediction: "Monetary policy shift signals building ahead of next FOMC meeting",
		Timeframe:  "1-2 weeks",
		Factors:    []string{"rate speculation volume", "institutional commentary"},
	},
	{
		Category:   "economy",
		MinCount:   3,
		MinDelta:   2,
		Prediction: "Market-moving economic developments accelerating",
		Timeframe:  "24 hours",
		Factors:    []string{"rising coverage velocity"},
	},
	{
		Category:   "conflict",
		MinCount:   5,
		Prediction: "Escalation risk elevated; watch for official statements and troop movements",
		Timeframe:  "24-72 hours",
		Factors:    []string{"high mention volume", "cross-source coverage"},
	},
	{
		Category:   "conflict",
		MinDelta:   3,
		Prediction: "Rapidly developing situation; initial reports may be revised",
		Timeframe:  "6-12 hours",
		Factors:    []string{"sharp coverage spike"},
	},
	{
		Category:   "technology",
		IDPrefix:   "ai",
		MinCount:   4,
		Prediction: "Regulatory or industry response to AI developments expected",
		Timeframe:  "1 week",
		Factors:    []string{"sustained AI coverage", "policy indicator matches"},
	},
	{
		Category:   "politics",
		MinCount:   4,
		MinDelta:   2,
		Prediction: "Political story gaining momentum; follow-on coverage likely",
		Timeframe:  "24 hours",
		Factors:    []string{"momentum across outlets"},
	},
	{
		// Fallback: always matches.
		Prediction: "Topic activity above baseline; continued coverage expected",
		Timeframe:  "12-24 hours",
		Factors:    []string{"elevated mention count"},
	},
}

// Predict resolves the prediction text for a topic's current activity
// from the rule table. The table always resolves: the last entry is a
// catch-all.
func Predict(topic Topic, count, delta int) PredictionRule {
	for _, r := range predictionRules {
		if r.Category != "" && r.Category != topic.Category {
			continue
		}
		if r.IDPrefix != "" && !strings.HasPrefix(topic.ID, r.IDPrefix) {
			continue
		}
		if count < r.MinCount {
			continue
		}
		if r.MinDelta > 0 && delta < r.MinDelta {
			continue
		}
		return r
	}
	// The catch-all entry has no thresholds, so the loop always returns.
	return predictionRules[len(predictionRules)-1]
}
