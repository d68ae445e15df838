package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pyfold/internal/fold"
	"pyfold/internal/outline"

	"go.uber.org/multierr"
)

var errOutlineDisagrees = errors.New("outline and classifier disagree")

// printOutline lists the tree-sitter definitions of each file with the fold
// level computed for the definition line and for its body.
func (a *app) printOutline(ctx context.Context, paths []string) error {
	var errs error
	for _, path := range paths {
		res, err := a.computeFile(path)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		defs, err := outline.Parse(ctx, []byte(strings.Join(res.Lines, "\n")))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}

		fmt.Fprintf(a.stdout, "==> %s <==\n", path)
		for _, def := range defs {
			fmt.Fprintf(a.stdout, "%4d%3d%3d  %s\n", def.StartLine, levelAt(res.Levels, def.StartLine), levelAt(res.Levels, def.StartLine+1), def)
		}

		check := outline.Compare(defs, fold.Scan(res.Lines))
		for _, def := range check.Missed {
			fmt.Fprintf(a.stdout, "  missed by classifier: %s\n", strings.TrimSpace(def.String()))
		}
		for _, line := range check.Extra {
			fmt.Fprintf(a.stdout, "  no definition at classified line %d: %s\n", line, strings.TrimSpace(res.Lines[line]))
		}
		if !check.OK() {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, errOutlineDisagrees))
		}
	}
	return errs
}

func levelAt(levels []int, line int) int {
	if line < 0 || line >= len(levels) {
		return 0
	}
	return levels[line]
}
