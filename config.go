package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"pyfold/internal/fold"
	"pyfold/internal/highlight"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix         = "PYFOLD_"
	maxConfigFileSize = 1 << 20
)

type config struct {
	ShiftWidth      int           `koanf:"shift_width"`
	Theme           string        `koanf:"theme"`
	NoColor         bool          `koanf:"no_color"`
	HighlightEngine string        `koanf:"highlight_engine"`
	Workers         int           `koanf:"workers"`
	StoreSize       int           `koanf:"store_size"`
	Root            string        `koanf:"root"`
	Width           int           `koanf:"width"`
	DiskCache       bool          `koanf:"cache"`
	Debounce        time.Duration `koanf:"debounce"`
	Debug           bool          `koanf:"debug"`
}

func defaultConfig() config {
	return config{
		ShiftWidth:      fold.DefaultShiftWidth,
		Theme:           defaultTheme,
		HighlightEngine: string(highlight.EngineTreeSitter),
		Workers:         max(1, runtime.GOMAXPROCS(0)-1),
		StoreSize:       256,
		Root:            ".",
		Debounce:        100 * time.Millisecond,
	}
}

// configFlags maps flag names to config keys. Only flags set on the command
// line override the file and environment.
var configFlags = map[string]string{
	"shift-width":      "shift_width",
	"theme":            "theme",
	"no-color":         "no_color",
	"highlight-engine": "highlight_engine",
	"workers":          "workers",
	"store-size":       "store_size",
	"root":             "root",
	"width":            "width",
	"cache":            "cache",
	"debounce":         "debounce",
	"debug":            "debug",
}

func registerConfigFlags(fs *flag.FlagSet) {
	d := defaultConfig()
	fs.Int("shift-width", d.ShiftWidth, "indentation columns per fold level")
	fs.String("theme", d.Theme, "color theme (for example: nord, dracula, monokai, github, solarized-dark)")
	fs.Bool("no-color", d.NoColor, "plain listing without colors")
	fs.String("highlight-engine", d.HighlightEngine, "syntax highlighting: treesitter or chroma")
	fs.Int("workers", d.Workers, "golden check workers")
	fs.Int("store-size", d.StoreSize, "buffers kept in the fold cache store")
	fs.String("root", d.Root, "root directory for --check globs")
	fs.Int("width", d.Width, "truncate listing lines to this width (0 = no limit)")
	fs.Bool("cache", d.DiskCache, "persist fold caches in the user cache directory")
	fs.Duration("debounce", d.Debounce, "delay before recomputing after a file change")
	fs.Bool("debug", d.Debug, "debug logging")
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pyfold", "config.yaml")
}

// loadConfig layers defaults, the YAML file, PYFOLD_* environment variables
// and explicitly set flags, in increasing precedence.
func loadConfig(path string, fs *flag.FlagSet) (config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path != "" {
		content, err := readConfigFile(path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return config{}, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return config{}, fmt.Errorf("load environment: %w", err)
	}

	if fs != nil {
		var setErr error
		fs.Visit(func(f *flag.Flag) {
			key, ok := configFlags[f.Name]
			if !ok || setErr != nil {
				return
			}
			setErr = k.Set(key, f.Value.String())
		})
		if setErr != nil {
			return config{}, fmt.Errorf("apply flags: %w", setErr)
		}
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func (c config) validate() error {
	if c.ShiftWidth <= 0 {
		return fmt.Errorf("%w: %d", fold.ErrInvalidShiftWidth, c.ShiftWidth)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.StoreSize < 1 {
		return fmt.Errorf("store size must be at least 1, got %d", c.StoreSize)
	}
	if c.Width < 0 {
		return fmt.Errorf("width must not be negative, got %d", c.Width)
	}
	if _, err := highlight.ParseEngine(c.HighlightEngine); err != nil {
		return err
	}
	return nil
}
