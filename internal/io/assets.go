package io

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"image-fitness-pipeline/internal/core"
)

// ListAssets returns the regular files directly inside dir, sorted by name.
func ListAssets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrNoAssetsFound, dir, err)
	}

	files := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return filepath.Join(dir, e.Name()), e.Type().IsRegular()
	})
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", core.ErrNoAssetsFound, dir)
	}
	return files, nil
}

// SelectRandom picks one file from dir uniformly at random using rng.
func SelectRandom(dir string, rng *rand.Rand) (string, error) {
	files, err := ListAssets(dir)
	if err != nil {
		return "", err
	}
	return files[rng.IntN(len(files))], nil
}
