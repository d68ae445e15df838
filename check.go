package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"pyfold/internal/golden"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var errCheckFailed = errors.New("golden check failed")

// write stores a golden file next to each source.
func (a *app) write(paths []string) error {
	var errs error
	for _, path := range paths {
		res, err := a.computeFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		target := golden.PathFor(path)
		if err := golden.Write(target, res.Levels); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("write %s: %w", target, err))
			continue
		}
		fmt.Fprintf(a.stdout, "wrote %s (%d lines)\n", target, len(res.Levels))
	}
	return errs
}

type checkJob struct {
	Index  int
	Source string
	Golden string
}

type checkResult struct {
	Source string
	Golden string
	Report golden.Report
	Err    error
}

func (r checkResult) OK() bool {
	return r.Err == nil && r.Report.OK()
}

// resolveCheckTargets expands pattern under root. Matches carrying the golden
// suffix name their source; any other match is a source whose golden file
// sits next to it.
func resolveCheckTargets(root string, pattern string) ([]checkJob, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q", pattern)
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	seen := make(map[string]bool, len(matches))
	jobs := make([]checkJob, 0, len(matches))
	for _, match := range matches {
		rel := filepath.FromSlash(match)
		source, ok := golden.SourceFor(rel)
		if !ok {
			source = rel
		}
		if seen[source] {
			continue
		}
		seen[source] = true
		jobs = append(jobs, checkJob{
			Index:  len(jobs),
			Source: filepath.Join(root, source),
			Golden: filepath.Join(root, golden.PathFor(source)),
		})
	}
	return jobs, nil
}

// check recomputes every matched source on a fixed pool of workers and
// reports every mismatch, not only the first.
func (a *app) check(ctx context.Context, pattern string) error {
	jobs, err := resolveCheckTargets(a.cfg.Root, pattern)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no files match %q under %s", pattern, a.cfg.Root)
	}

	results := a.runChecks(ctx, jobs)

	var errs error
	failed := 0
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
			fmt.Fprintf(a.stdout, "FAIL %s: %v\n", res.Source, res.Err)
			errs = multierr.Append(errs, res.Err)
		case !res.Report.OK():
			failed++
			fmt.Fprintf(a.stdout, "FAIL %s\n", res.Source)
			for _, line := range res.Report.Lines() {
				fmt.Fprintf(a.stdout, "    %s\n", line)
			}
		default:
			fmt.Fprintf(a.stdout, "ok   %s (%d lines)\n", res.Source, res.Report.GotLines)
		}
	}
	fmt.Fprintf(a.stdout, "%d checked, %d failed\n", len(results), failed)

	if failed > 0 {
		return multierr.Append(fmt.Errorf("%w: %d of %d files", errCheckFailed, failed, len(results)), errs)
	}
	return nil
}

func (a *app) runChecks(ctx context.Context, jobs []checkJob) []checkResult {
	results := make([]checkResult, len(jobs))
	queue := make(chan checkJob)

	var wg sync.WaitGroup
	for w := 0; w < min(a.cfg.Workers, len(jobs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				results[job.Index] = a.checkOne(job)
			}
		}()
	}

	for _, job := range jobs {
		select {
		case queue <- job:
		case <-ctx.Done():
			results[job.Index] = checkResult{Source: job.Source, Golden: job.Golden, Err: ctx.Err()}
		}
	}
	close(queue)
	wg.Wait()
	return results
}

func (a *app) checkOne(job checkJob) checkResult {
	res := checkResult{Source: job.Source, Golden: job.Golden}

	want, err := golden.Read(job.Golden)
	if err != nil {
		res.Err = fmt.Errorf("read golden: %w", err)
		return res
	}
	computed, err := a.computeFile(job.Source)
	if err != nil {
		res.Err = err
		return res
	}

	res.Report = golden.Compare(computed.Levels, want)
	if !res.Report.OK() {
		a.logger.Debug("golden mismatch",
			zap.String("source", job.Source),
			zap.Int("mismatches", len(res.Report.Mismatches)),
			zap.Bool("length_mismatch", res.Report.LengthMismatch()),
		)
	}
	return res
}
