package main

import (
	"fmt"
	"io"
	"path/filepath"

	"pyfold/internal/fold"
	"pyfold/internal/highlight"
	"pyfold/internal/lang"
	"pyfold/internal/readfile"

	"go.uber.org/zap"
)

// app holds what every command mode shares: the fold store, the highlighter
// and output settings.
type app struct {
	cfg         config
	logger      *zap.Logger
	store       *fold.Store
	highlighter *highlight.Highlighter
	stdout      io.Writer
}

type foldResult struct {
	Path   string
	Lines  []string
	Levels []int
	Stats  fold.Stats
	// Hit is true when the stored cache matched the buffer unchanged.
	Hit bool
}

func newApp(cfg config, logger *zap.Logger, stdout io.Writer) *app {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine, err := highlight.ParseEngine(cfg.HighlightEngine)
	if err != nil {
		engine = highlight.EngineTreeSitter
	}
	analyzer := fold.Analyzer{ShiftWidth: cfg.ShiftWidth, Logger: logger.Named("fold")}
	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       fold.NewStore(analyzer, cfg.StoreSize),
		highlighter: highlight.New(highlight.Config{CacheSize: cfg.StoreSize, Engine: engine}),
		stdout:      stdout,
	}
}

func bufferID(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (a *app) computeFile(path string) (foldResult, error) {
	lines, err := readfile.ReadLinesNormalized(path)
	if err != nil {
		return foldResult{}, err
	}
	if len(lines) > 0 && lang.DetectWithShebang(path, lines[0]) != lang.Python {
		a.logger.Warn("file does not look like python", zap.String("path", path))
	}
	return a.computeLines(path, lines)
}

func (a *app) computeLines(path string, lines []string) (foldResult, error) {
	id := bufferID(path)

	prev, stored := a.store.Lookup(id)
	if !stored && a.cfg.DiskCache {
		cache, ok, err := LoadFoldCache(path, a.cfg.ShiftWidth)
		switch {
		case err != nil:
			a.logger.Debug("fold cache unreadable, recomputing", zap.String("path", path), zap.Error(err))
		case ok:
			a.store.Seed(id, cache)
			prev = cache
		}
	}

	levels, stats, err := a.store.Compute(id, lines)
	if err != nil {
		return foldResult{}, fmt.Errorf("%s: %w", path, err)
	}
	hit := prev != nil && stats == prev.Stats()

	if a.cfg.DiskCache && !hit {
		if cache, ok := a.store.Lookup(id); ok {
			if err := SaveFoldCache(path, a.cfg.ShiftWidth, cache); err != nil {
				a.logger.Warn("save fold cache", zap.String("path", path), zap.Error(err))
			}
		}
	}

	a.logger.Debug("computed fold levels",
		zap.String("path", path),
		zap.Int("lines", len(lines)),
		zap.Bool("hit", hit),
		zap.Int("recomputes", stats.Recomputes),
		zap.Int("scanned", stats.LinesScanned),
	)
	return foldResult{Path: path, Lines: lines, Levels: levels, Stats: stats, Hit: hit}, nil
}

func (a *app) listingOptions() listingOptions {
	return listingOptions{Color: !a.cfg.NoColor, Width: a.cfg.Width, ShiftWidth: a.cfg.ShiftWidth}
}

func (a *app) printListing(res foldResult) error {
	var spans [][]highlight.Span
	opts := a.listingOptions()
	if opts.Color {
		spans = a.highlighter.Lines(res.Lines)
	}
	return writeListing(a.stdout, res.Lines, res.Levels, spans, opts)
}

// list prints an annotated listing of each file.
func (a *app) list(paths []string) error {
	for i, path := range paths {
		res, err := a.computeFile(path)
		if err != nil {
			return err
		}
		if len(paths) > 1 {
			if i > 0 {
				fmt.Fprintln(a.stdout)
			}
			fmt.Fprintf(a.stdout, "==> %s <==\n", path)
		}
		if err := a.printListing(res); err != nil {
			return err
		}
	}
	return nil
}
