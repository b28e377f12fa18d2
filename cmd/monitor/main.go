// Situation monitor - headline analysis loop
//
// Wiring overview:
//   feeds (internal/feeds)          - RSS fetching, link-level dedup
//   analyzers (correlation,
//     narrative, entity)           - the analytical core, one call per tick
//   store (internal/store)         - SQLite snapshot history
//
// The binary is the "external collaborator" of the core: it supplies
// each batch of news items and renders the structured results. The
// analyzers themselves do no I/O.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/HandleConsolidated/situation-monitor-sub006/internal/classify"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/config"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/correlation"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/entity"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/feeds"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/feeds/rss"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/logging"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/narrative"
	"github.com/HandleConsolidated/situation-monitor-sub006/internal/store"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	detectorsFile := flag.String("detectors", "", "path to detector definition YAML (default: built-ins)")
	once := flag.Bool("once", false, "run a single analysis cycle and exit")
	interval := flag.Int("interval", 0, "minutes between cycles (overrides config)")
	flag.Parse()

	// .env is optional; ignore a missing file
	_ = godotenv.Load()

	if err := logging.Init(""); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		logging.Warn("Config load failed, using defaults", "err", err)
	}
	if *detectorsFile != "" {
		cfg.DetectorsFile = *detectorsFile
	}
	if *interval > 0 {
		cfg.RefreshMinutes = *interval
	}

	detectors := config.DefaultDetectors()
	if cfg.DetectorsFile != "" {
		detectors, err = config.LoadDetectors(cfg.DetectorsFile)
		if err != nil {
			fatal("Failed to load detectors: %v", err)
		}
	}
	logging.Info("Detectors loaded",
		"version", detectors.Version,
		"topics", len(detectors.Topics),
		"narratives", len(detectors.Narratives),
		"people", len(detectors.People))

	// Build the analytical core
	classifier := classify.NewClassifier(detectors.Tiers)
	engine := correlation.NewEngine(detectors.Topics, classifier)
	tracker := narrative.NewTracker(detectors.Narratives, classifier)
	ranker := entity.NewRanker(detectors.People, detectors.Sentiment)

	// Snapshot store
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			fatal("Failed to get home directory: %v", err)
		}
		dataDir := filepath.Join(homeDir, ".sitmon")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			fatal("Failed to create data directory: %v", err)
		}
		dbPath = filepath.Join(dataDir, "sitmon.db")
	}
	snapshots, err := store.NewStore(dbPath)
	if err != nil {
		fatal("Failed to open snapshot store: %v", err)
	}
	defer snapshots.Close()

	// Feed sources
	var sources []feeds.Source
	for _, fc := range cfg.Feeds {
		sources = append(sources, rss.New(fc.Name, fc.URL))
	}
	fetcher := feeds.NewFetcher(sources, 2)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cycle := func() {
		batch := fetcher.FetchAll(ctx)
		logging.Info("Cycle starting", "items", len(batch))

		corr := engine.Analyze(batch)
		narr := tracker.Analyze(batch)
		ents := ranker.Analyze(batch)

		render(corr, narr, ents)

		snap := store.Snapshot{
			Items:         len(batch),
			ActivityLevel: corr.ActivityLevel,
			ThreatLevel:   narr.ThreatLevel,
			Emerging:      len(corr.Emerging),
			Narratives:    narr.TotalMatches,
			Entities:      len(ents.Entities),
			Detail: store.MarshalDetail(map[string]any{
				"emerging":   corr.Emerging,
				"crossover":  narr.FringeToMainstream,
				"top_people": ents.Entities,
			}),
		}
		if len(corr.Emerging) > 0 {
			snap.TopTopic = corr.Emerging[0].TopicID
		}
		if len(ents.Entities) > 0 {
			snap.TopEntity = ents.Entities[0].Name
		}
		if err := snapshots.Save(snap); err != nil {
			logging.Error("Snapshot save failed", "err", err)
		}
	}

	cycle()
	if *once {
		return
	}

	ticker := time.NewTicker(time.Duration(cfg.RefreshMinutes) * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycle()
		}
	}
}

// render prints a one-screen summary of the three result sets.
func render(corr *correlation.Result, narr *narrative.Result, ents *entity.Result) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("SITUATION MONITOR  %s", corr.GeneratedAt.Format("15:04:05"))))
	fmt.Printf("%s %s   %s %s\n",
		sectionStyle.Render("activity:"), levelStyled(corr.ActivityLevel),
		sectionStyle.Render("threat:"), levelStyled(narr.ThreatLevel))

	if corr.Status == correlation.StatusNoData {
		fmt.Println(dimStyle.Render("no data"))
		return
	}

	fmt.Println(sectionStyle.Render("EMERGING PATTERNS"))
	if len(corr.Emerging) == 0 {
		fmt.Println(dimStyle.Render("  none"))
	}
	for _, p := range corr.Emerging {
		fmt.Printf("  %-16s %s  count=%d sources=%d vel=%d/h %s\n",
			p.TopicID, levelStyled(p.Level), p.Count, p.SourceCount, p.Velocity, p.Trend)
	}

	if len(narr.FringeToMainstream) > 0 || len(narr.Disinfo) > 0 || len(narr.EmergingFringe) > 0 {
		fmt.Println(sectionStyle.Render("NARRATIVES"))
		for _, f := range narr.FringeToMainstream {
			fmt.Printf("  %-16s crossover %d%% (%s, %s)\n", f.NarrativeID, f.CrossoverLevel, f.Status, f.Validation)
		}
		for _, d := range narr.Disinfo {
			fmt.Printf("  %-16s disinfo %s (%s)\n", d.NarrativeID, levelStyled(d.ThreatLevel), d.SpreadPattern)
		}
		for _, f := range narr.EmergingFringe {
			fmt.Printf("  %-16s fringe %s risk=%s\n", f.NarrativeID, f.Status, f.RiskLevel)
		}
	}

	if len(ents.Entities) > 0 {
		fmt.Println(sectionStyle.Render("MAIN CHARACTERS"))
		for _, e := range ents.Entities {
			if e.Rank > 5 {
				break
			}
			fmt.Printf("  #%d %-12s count=%d sources=%d %s %s\n",
				e.Rank, e.Name, e.Count, e.SourceCount, e.Momentum, e.Sentiment.Tier)
		}
	}
	fmt.Println()
}

func levelStyled(level string) string {
	switch level {
	case "critical":
		return criticalStyle.Render(level)
	case "high":
		return highStyle.Render(level)
	default:
		return level
	}
}

func fatal(format string, args ...interface{}) {
	logging.Error(fmt.Sprintf(format, args...))
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
