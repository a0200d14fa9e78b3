// Package intel regenerates the derived artifact set from the snapshot
// store. Each artifact is an independent pure function of the store, so a
// failed generator never blocks the others; rerunning against unchanged
// snapshots produces identical output.
package intel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"car-intel/internal/analytics"
	"car-intel/internal/config"
	"car-intel/internal/store"

	"go.uber.org/zap"
)

// DefaultTopN bounds the ranked lists inside the artifacts.
const DefaultTopN = 20

type Generator struct {
	store  store.Store
	cfg    *config.Config
	logger *zap.Logger
	topN   int
}

func NewGenerator(st store.Store, cfg *config.Config, logger *zap.Logger) *Generator {
	return &Generator{store: st, cfg: cfg, logger: logger, topN: DefaultTopN}
}

// Run regenerates every artifact into the artifacts directory. Individual
// generator failures are logged and collected; the remaining artifacts are
// still written.
func (g *Generator) Run(ctx context.Context) error {
	dir := g.cfg.ArtifactsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifacts dir: %w", err)
	}

	var errs []error
	run := func(name string, build func() (any, error)) {
		artifact, err := build()
		if err == nil {
			err = writeJSON(filepath.Join(dir, name+".json"), artifact)
		}
		if err != nil {
			g.logger.Error("artifact generation failed",
				zap.String("artifact", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		g.logger.Info("artifact written", zap.String("artifact", name))
	}

	run("events", func() (any, error) {
		return analytics.BuildEvents(ctx, g.store, g.topN)
	})
	run("insights", func() (any, error) {
		return analytics.BuildInsights(ctx, g.store, g.topN)
	})
	run("gaps", func() (any, error) {
		return analytics.BuildGaps(ctx, g.store, g.cfg.Gap, g.topN)
	})
	run("ladders", func() (any, error) {
		return analytics.BuildLadders(ctx, g.store)
	})
	run("lifecycle", func() (any, error) {
		return analytics.BuildLifecycle(ctx, g.store, g.cfg.Lifecycle, time.Now())
	})
	run("latest", func() (any, error) {
		return analytics.BuildLatestRollup(ctx, g.store)
	})
	run("search_index", func() (any, error) {
		return analytics.BuildSearchIndex(ctx, g.store)
	})
	run("stats", func() (any, error) {
		return analytics.BuildStats(ctx, g.store)
	})
	run("promos", func() (any, error) {
		return analytics.BuildPromos(ctx, g.store)
	})

	return errors.Join(errs...)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
