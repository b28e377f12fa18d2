package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/HandleConsolidated/situation-monitor-sub006/internal/classify"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/correlation"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/entity"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/narrative"
)

// Detectors is the full detector definition table supplied to the
// analyzers at process start. It is read-only after load: the
// analyzers share it by reference and never mutate it.
type Detectors struct {
	Version    string                `yaml:"version"`
	Tiers      classify.TierLists    `yaml:"tiers"`
	Topics     []correlation.Topic   `yaml:"topics"`
	Narratives []narrative.Narrative `yaml:"narratives"`
	People     []entity.Person       `yaml:"people"`
	Sentiment  entity.Lexicon        `yaml:"sentiment"`
}

// LoadDetectors reads a detector table from a YAML file. Sections
// missing from the file fall back to the built-in defaults so a
// partial file (say, only custom topics) still yields a full table.
func LoadDetectors(path string) (*Detectors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read detector file: %w", err)
	}

	d := &Detectors{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to parse detector file: %w", err)
	}

	defaults := DefaultDetectors()
	if len(d.Tiers.Mainstream) == 0 && len(d.Tiers.Fringe) == 0 &&
		len(d.Tiers.Institutional) == 0 && len(d.Tiers.Alternative) == 0 &&
		len(d.Tiers.Aggregator) == 0 {
		d.Tiers = defaults.Tiers
	}
	if len(d.Topics) == 0 {
		d.Topics = defaults.Topics
	}
	if len(d.Narratives) == 0 {
		d.Narratives = defaults.Narratives
	}
	if len(d.People) == 0 {
		d.People = defaults.People
	}
	if len(d.Sentiment.Positive) == 0 && len(d.Sentiment.Negative) == 0 {
		d.Sentiment = defaults.Sentiment
	}
	if d.Version == "" {
		d.Version = "custom"
	}
	return d, nil
}

// DefaultDetectors returns the built-in detector table.
func DefaultDetectors() *Detectors {
	return &Detectors{
		Version: "builtin-1",
		Tiers: classify.TierLists{
			Institutional: []string{
				"federal reserve", "white house", "state department", "pentagon",
				"treasury", "sec", "justice department", "supreme court",
				"european commission", "united nations", "imf", "world bank",
			},
			Mainstream: []string{
				"reuters", "associated press", "ap news", "bbc", "cnn",
				"new york times", "nyt", "washington post", "wall street journal",
				"wsj", "bloomberg", "npr", "abc news", "cbs news", "nbc news",
				"guardian", "financial times", "axios", "politico", "the hill",
			},
			Fringe: []string{
				"zerohedge", "zero hedge", "infowars", "gateway pundit",
				"breitbart", "natural news", "epoch times", "revolver",
			},
			Alternative: []string{
				"substack", "rumble", "podcast", "the intercept", "grayzone",
				"consortium news", "unherd", "quillette",
			},
			Aggregator: []string{
				"google news", "yahoo", "msn", "drudge", "memeorandum",
				"ground news", "feedly",
			},
		},
		Topics: []correlation.Topic{
			{
				ID:       "tariffs",
				Category: "economy",
				Weight:   1.5,
				Patterns: []string{"tariff", "trade war", "import dut", "trade barrier"},
				PredictiveIndicators: []string{
					"retaliation", "escalate", "threatens", "will impose",
				},
			},
			{
				ID:       "fed-rates",
				Category: "economy",
				Weight:   1.4,
				Patterns: []string{"federal reserve", "fed rate", "interest rate", "fomc", "powell"},
				PredictiveIndicators: []string{
					"expected to", "signals", "hints", "next meeting",
				},
			},
			{
				ID:       "inflation",
				Category: "economy",
				Weight:   1.2,
				Patterns: []string{"inflation", "consumer price", "cpi", "cost of living"},
				PredictiveIndicators: []string{
					"forecast", "projected", "expected to rise",
				},
			},
			{
				ID:       "markets",
				Category: "economy",
				Weight:   1,
				Patterns: []string{"stock market", "s&p 500", "dow jones", "nasdaq", "sell-off", "selloff"},
				PredictiveIndicators: []string{
					"correction", "bear market", "bubble",
				},
			},
			{
				ID:       "ai-regulation",
				Category: "technology",
				Weight:   1.3,
				Patterns: []string{"\\bai\\b", "artificial intelligence", "openai", "chatbot", "large language model"},
				PredictiveIndicators: []string{
					"regulation", "ban", "executive order", "lawsuit", "hearing",
				},
			},
			{
				ID:       "crypto",
				Category: "technology",
				Weight:   1,
				Patterns: []string{"bitcoin", "crypto", "ethereum", "stablecoin"},
				PredictiveIndicators: []string{
					"etf", "halving", "crackdown", "approval",
				},
			},
			{
				ID:       "ukraine-war",
				Category: "conflict",
				Weight:   1.5,
				Patterns: []string{"ukraine", "kyiv", "zelensky", "russian offensive"},
				PredictiveIndicators: []string{
					"ceasefire", "peace talks", "mobilization", "offensive",
				},
			},
			{
				ID:       "middle-east",
				Category: "conflict",
				Weight:   1.5,
				Patterns: []string{"israel", "gaza", "hezbollah", "west bank", "iran strike"},
				PredictiveIndicators: []string{
					"escalation", "retaliation", "ceasefire", "invasion",
				},
			},
			{
				ID:       "china-taiwan",
				Category: "conflict",
				Weight:   1.4,
				Patterns: []string{"taiwan", "taiwan strait", "pla drills", "chinese military"},
				PredictiveIndicators: []string{
					"blockade", "incursion", "drills", "reunification",
				},
			},
			{
				ID:       "immigration",
				Category: "politics",
				Weight:   1.1,
				Patterns: []string{"border", "immigration", "migrant", "asylum", "deportation"},
				PredictiveIndicators: []string{
					"executive order", "surge", "crackdown",
				},
			},
			{
				ID:       "elections",
				Category: "politics",
				Weight:   1.2,
				Patterns: []string{"election", "campaign", "ballot", "primary", "poll"},
				PredictiveIndicators: []string{
					"lawsuit", "recount", "concede", "debate",
				},
			},
			{
				ID:       "energy",
				Category: "economy",
				Weight:   1,
				Patterns: []string{"oil price", "opec", "natural gas", "energy crisis", "crude"},
				PredictiveIndicators: []string{
					"production cut", "embargo", "shortage",
				},
			},
		},
		Narratives: []narrative.Narrative{
			{
				ID:       "election-fraud",
				Category: "politics",
				Severity: "disinfo",
				Keywords: []string{"election fraud", "rigged election", "stolen election", "ballot stuffing"},
				AmplificationPhrases: []string{
					"share before", "they don't want you", "wake up", "mainstream media won't",
				},
				DebunkIndicators: []string{
					"debunked", "no evidence", "false claim", "fact check",
				},
			},
			{
				ID:       "vaccine-scare",
				Category: "health",
				Severity: "disinfo",
				Keywords: []string{"vaccine injury", "vaccine death", "died suddenly", "jab side effect"},
				AmplificationPhrases: []string{
					"they're hiding", "cover-up", "silenced", "censored",
				},
				DebunkIndicators: []string{
					"debunked", "no link", "misleading", "fact check",
				},
			},
			{
				ID:       "banking-collapse",
				Category: "economy",
				Severity: "watch",
				Keywords: []string{"bank run", "bank collapse", "banking crisis", "insolvent"},
				AmplificationPhrases: []string{
					"get your money out", "contagion", "next domino", "it's happening",
				},
				DebunkIndicators: []string{
					"well capitalized", "no risk", "reassured", "stress test",
				},
			},
			{
				ID:       "grid-failure",
				Category: "infrastructure",
				Severity: "watch",
				Keywords: []string{"power grid", "blackout", "grid attack", "substation"},
				AmplificationPhrases: []string{
					"coordinated attack", "they won't tell you", "prepare now",
				},
				DebunkIndicators: []string{
					"weather related", "routine", "no foul play",
				},
			},
			{
				ID:       "market-manipulation",
				Category: "economy",
				Severity: "watch",
				Keywords: []string{"market manipulation", "naked short", "plunge protection", "rigged market"},
				AmplificationPhrases: []string{
					"wake up", "exposed", "the truth about",
				},
				DebunkIndicators: []string{
					"no evidence", "conspiracy theory", "debunked",
				},
			},
		},
		People: []entity.Person{
			{Name: "Trump", Role: "US President", Pattern: `\bTrump\b`},
			{Name: "Vance", Role: "US Vice President", Pattern: `\bVance\b`},
			{Name: "Biden", Role: "Former US President", Pattern: `\bBiden\b`},
			{Name: "Musk", Role: "Tech executive", Pattern: `\bMusk\b`},
			{Name: "Powell", Role: "Fed Chair", Pattern: `\bPowell\b`},
			{Name: "Putin", Role: "Russian President", Pattern: `\bPutin\b`},
			{Name: "Xi", Role: "Chinese President", Pattern: `\bXi Jinping\b|\bPresident Xi\b`},
			{Name: "Zelensky", Role: "Ukrainian President", Pattern: `\bZelensky\b|\bZelenskyy\b`},
			{Name: "Netanyahu", Role: "Israeli PM", Pattern: `\bNetanyahu\b`},
			{Name: "Starmer", Role: "UK PM", Pattern: `\bStarmer\b`},
			{Name: "Macron", Role: "French President", Pattern: `\bMacron\b`},
			{Name: "Altman", Role: "OpenAI CEO", Pattern: `\bAltman\b`},
		},
		Sentiment: entity.DefaultLexicon(),
	}
}
