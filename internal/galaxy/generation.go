package galaxy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/starfield/internal/rng"
)

// DefaultBatchSize is how many stars or systems are produced between
// progress callbacks.
const DefaultBatchSize = 1000

// Phase names reported through Progress.
const (
	PhaseStars   = "stars"
	PhaseSystems = "systems"
)

// Progress reports how far a generation pass has got.
type Progress struct {
	Phase string
	Done  int
	Total int
}

// ProgressFunc is called between batches. Returning an error aborts the
// pass. It is a pacing hook only: the output does not depend on it.
type ProgressFunc func(Progress) error

// Generator produces a galaxy from a config.
type Generator struct {
	cfg       Config
	BatchSize int
}

// NewGenerator creates a generator. A zero seed is replaced with a random
// one here so the resolved seed ends up in the generated galaxy's config.
func NewGenerator(cfg Config) *Generator {
	if cfg.Seed == 0 {
		cfg.Seed = rng.RandomSeed()
	}
	return &Generator{cfg: cfg, BatchSize: DefaultBatchSize}
}

// Config returns the resolved config (with a concrete seed).
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate creates a complete galaxy with default batching and no progress
// hook.
func Generate(ctx context.Context, cfg Config) (*Galaxy, error) {
	return NewGenerator(cfg).Generate(ctx, nil)
}

// Generate runs the full pass: star placement and properties, then
// planetary systems. Batches run in a fixed order, so the result is
// identical for every batch size and progress hook.
func (g *Generator) Generate(ctx context.Context, progress ProgressFunc) (*Galaxy, error) {
	cfg := g.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	batch := g.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	start := time.Now()
	r := rng.New(cfg.Seed)
	dust := newExtinctionField(cfg.Seed, cfg.Size)
	names := newNameGenerator()

	stars := make([]Star, 0, cfg.StarCount)
	for i := 0; i < cfg.StarCount; i++ {
		pos := placeStar(r, cfg)
		star := deriveStar(r, cfg, i, pos, dust)
		star.Name = names.next(r, i)
		stars = append(stars, star)

		if err := g.yield(ctx, progress, PhaseStars, i+1, cfg.StarCount, batch); err != nil {
			return nil, err
		}
	}

	systems := make([]StarSystem, 0, int(float64(cfg.StarCount)*cfg.SystemChance)+1)
	for i, star := range stars {
		if r.Chance(cfg.SystemChance) {
			systems = append(systems, generateSystem(r, cfg, star))
		}

		if err := g.yield(ctx, progress, PhaseSystems, i+1, len(stars), batch); err != nil {
			return nil, err
		}
	}

	gal := New(cfg, stars, systems)
	slog.Info("galaxy generated",
		"seed", cfg.Seed,
		"stars", len(stars),
		"systems", len(systems),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return gal, nil
}

// yield runs at batch boundaries and at the end of each phase.
func (g *Generator) yield(ctx context.Context, progress ProgressFunc, phase string, done, total, batch int) error {
	if done%batch != 0 && done != total {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("generation %s: %w", phase, err)
	}
	if progress == nil {
		return nil
	}
	if err := progress(Progress{Phase: phase, Done: done, Total: total}); err != nil {
		return fmt.Errorf("generation %s aborted: %w", phase, err)
	}
	return nil
}
