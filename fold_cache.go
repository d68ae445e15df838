package main

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pyfold/internal/fold"

	"github.com/cespare/xxhash/v2"
)

const foldCacheVersion = 1

var foldCacheDirOverride string

type diskFoldCache struct {
	Version    int
	Path       string
	ShiftWidth int
	Cache      *fold.Cache
}

// LoadFoldCache returns the cache saved for source, or false when none was
// saved for this path and shift width.
func LoadFoldCache(source string, shiftWidth int) (*fold.Cache, bool, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, false, err
	}
	path, err := foldCachePath(abs)
	if err != nil {
		return nil, false, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var disk diskFoldCache
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&disk); err != nil {
		return nil, false, fmt.Errorf("decode fold cache %s: %w", path, err)
	}

	if disk.Version != foldCacheVersion || disk.Path != abs || disk.ShiftWidth != shiftWidth || disk.Cache == nil {
		return nil, false, nil
	}
	return disk.Cache, true, nil
}

func SaveFoldCache(source string, shiftWidth int, cache *fold.Cache) error {
	if cache == nil {
		return nil
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	path, err := foldCachePath(abs)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(f)
	disk := diskFoldCache{
		Version:    foldCacheVersion,
		Path:       abs,
		ShiftWidth: shiftWidth,
		Cache:      cache,
	}
	if err := gob.NewEncoder(writer).Encode(&disk); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := writer.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return nil
}

// foldCachePath names the cache file after a hash of the absolute source
// path so every source gets its own file.
func foldCachePath(abs string) (string, error) {
	dir := foldCacheDirOverride
	if dir == "" {
		root, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(root, "pyfold")
	}
	return filepath.Join(dir, fmt.Sprintf("%016x.gob", xxhash.Sum64String(abs))), nil
}
