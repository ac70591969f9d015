// Command galaxygen generates a galaxy for a seed, prints its makeup and can
// write the result to a SQLite snapshot file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/starfield/internal/config"
	"github.com/talgya/starfield/internal/exploration"
	"github.com/talgya/starfield/internal/galaxy"
	"github.com/talgya/starfield/internal/logger"
	"github.com/talgya/starfield/internal/persistence"
)

func main() {
	seed := flag.Int64("seed", 0, "galaxy seed (0 = random)")
	stars := flag.Int("stars", 0, "star count (0 = config default)")
	cfgPath := flag.String("config", "", "YAML galaxy config file")
	out := flag.String("out", "", "write a snapshot to this SQLite file")
	batch := flag.Int("batch", galaxy.DefaultBatchSize, "stars per progress report")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger.Init(config.LoggingConfig{Level: level})

	cfg := galaxy.DefaultConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.LoadGalaxyFile(*cfgPath, cfg); err != nil {
			slog.Error("failed to load galaxy config", "error", err)
			os.Exit(1)
		}
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *stars > 0 {
		cfg.StarCount = *stars
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen := galaxy.NewGenerator(cfg)
	gen.BatchSize = *batch

	start := time.Now()
	g, err := gen.Generate(ctx, func(p galaxy.Progress) error {
		slog.Info("generating", "phase", p.Phase,
			"done", humanize.Comma(int64(p.Done)),
			"total", humanize.Comma(int64(p.Total)),
		)
		return nil
	})
	if err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}

	printSummary(g, time.Since(start))

	if *out == "" {
		return
	}
	if err := writeSnapshot(ctx, g, *out); err != nil {
		slog.Error("failed to write snapshot", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Snapshot written to %s\n", *out)
}

func printSummary(g *galaxy.Galaxy, took time.Duration) {
	c := g.Counts()
	fmt.Printf("\n%s\n", g)
	fmt.Printf("Generated in %s: %s stars, %s systems, %s planets, %s moons, %s belts\n\n",
		took.Round(time.Millisecond),
		humanize.Comma(int64(c.Stars)), humanize.Comma(int64(c.Systems)),
		humanize.Comma(int64(c.Planets)), humanize.Comma(int64(c.Moons)),
		humanize.Comma(int64(c.Belts)))

	fmt.Println("Spectral types:")
	printCounts(g.SpectralCounts(), c.Stars)
	fmt.Println("\nPlanet types:")
	printCounts(g.PlanetTypeCounts(), c.Planets)

	if home := g.FindHomeSystem(10000); home != nil {
		fmt.Printf("\nStarting system: %s (%s, %s-type, %d planets)\n",
			home.Star.Name, home.ID, home.Star.Type, len(home.Planets))
	} else {
		fmt.Println("\nNo starting system within 10000 ly of the core.")
	}
}

func printCounts[K ~string](counts map[K]int, total int) {
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		pct := 0.0
		if total > 0 {
			pct = 100 * float64(counts[k]) / float64(total)
		}
		fmt.Printf("  %-14s %8s  %5.1f%%\n", k, humanize.Comma(int64(counts[k])), pct)
	}
}

// writeSnapshot stores the galaxy with a fresh exploration state rooted at
// its starting system, if it has one.
func writeSnapshot(ctx context.Context, g *galaxy.Galaxy, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	db, err := persistence.OpenSQLite(path)
	if err != nil {
		return err
	}
	store := persistence.NewStore(db)
	defer store.Close()

	st := exploration.NewState()
	if home := g.FindHomeSystem(10000); home != nil {
		st.HomeSystemID = home.ID
		st.MarkExplored(home.ID)
		st.RecordVisit(exploration.Visit{
			SystemID:  home.ID,
			Timestamp: time.Now().UTC(),
			Position:  home.Star.Position,
		})
	}

	_, err = store.Save(ctx, g, st)
	return err
}
