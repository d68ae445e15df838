package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

type options struct {
	ConfigPath string
	Write      bool
	Check      string
	View       bool
	Watch      bool
	Outline    bool
	Themes     bool
}

func newFlagSet(stderr io.Writer) (*flag.FlagSet, *options) {
	opts := &options{}
	fs := flag.NewFlagSet("pyfold", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.ConfigPath, "config", "", "YAML config file (default: user config dir pyfold/config.yaml)")
	fs.BoolVar(&opts.Write, "write", false, "write <file>.testdata golden files")
	fs.StringVar(&opts.Check, "check", "", "check golden files matching this glob under --root")
	fs.BoolVar(&opts.View, "view", false, "open the interactive fold viewer")
	fs.BoolVar(&opts.Watch, "watch", false, "reprint listings when files change")
	fs.BoolVar(&opts.Outline, "outline", false, "list definitions and cross-check them against the classifier")
	fs.BoolVar(&opts.Themes, "themes", false, "list available color themes")
	registerConfigFlags(fs)

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage of pyfold:\n  pyfold [flags] file.py...\n\nFlags:\n")
		printFlagDefaults(fs)
	}
	return fs, opts
}

// printFlagDefaults prints flags in --long form.
func printFlagDefaults(fs *flag.FlagSet) {
	fs.VisitAll(func(f *flag.Flag) {
		name, usage := flag.UnquoteUsage(f)
		line := "  --" + f.Name
		if name != "" {
			line += " " + name
		}
		line += "\n    \t" + strings.ReplaceAll(usage, "\n", "\n    \t")
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			line += fmt.Sprintf(" (default %q)", f.DefValue)
		}
		fmt.Fprintln(fs.Output(), line)
	})
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	fs, opts := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.Themes {
		for _, name := range themeNames() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	cfg, err := loadConfig(opts.ConfigPath, fs)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := SetTheme(cfg.Theme); err != nil {
		return fmt.Errorf("invalid --theme: %w", err)
	}

	// The viewer owns the terminal, so it only logs to a file and only
	// when debugging.
	logger := zap.NewNop()
	if !opts.View || cfg.Debug {
		logPath := ""
		if opts.View {
			logPath = filepath.Join(os.TempDir(), "pyfold.log")
		}
		logger, err = newLogger(cfg.Debug, logPath)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
	}
	defer func() { _ = logger.Sync() }()

	a := newApp(cfg, logger, stdout)
	files := fs.Args()

	switch {
	case opts.Check != "":
		return a.check(ctx, opts.Check)
	case len(files) == 0:
		fs.Usage()
		return errors.New("no input files")
	case opts.Write:
		return a.write(files)
	case opts.Outline:
		return a.printOutline(ctx, files)
	case opts.View:
		if len(files) != 1 {
			return fmt.Errorf("--view takes exactly one file, got %d", len(files))
		}
		return runViewer(a, files[0])
	case opts.Watch:
		return a.watch(ctx, files)
	default:
		return a.list(files)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
	default:
		fmt.Fprintf(os.Stderr, "pyfold: %v\n", err)
		stop()
		os.Exit(1)
	}
}
