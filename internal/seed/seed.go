// Package seed loads the initial URLs into an empty frontier.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"crawl-frontier/internal/frontier"
)

// ErrNoSeeds is returned when no usable seed URL remains.
var ErrNoSeeds = errors.New("no seed urls")

// Defaults are used when no seeds are configured.
var Defaults = []string{
	"https://www.google.com",
	"https://www.wikipedia.org",
	"https://www.python.org",
}

// File is the on-disk seed list format.
type File struct {
	Seeds []string `json:"seeds"`
}

// Clean trims urls and drops blanks. Order and repeats are kept.
func Clean(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// Load pushes urls only if the queue is empty, atomically with respect to other
// workers doing the same. The list goes in as given, repeats included; the
// registry check skips a repeat once the first copy is crawled.
// It returns how many URLs were enqueued.
func Load(ctx context.Context, seeder frontier.Seeder, urls []string, logger *zap.Logger) (int, error) {
	urls = Clean(urls)
	if len(urls) == 0 {
		return 0, ErrNoSeeds
	}
	n, err := seeder.SeedIfEmpty(ctx, urls)
	if err != nil {
		return 0, fmt.Errorf("seed frontier: %w", err)
	}
	if n == 0 {
		logger.Info("frontier not empty, seeds skipped", zap.Int("seeds", len(urls)))
	} else {
		logger.Info("frontier seeded", zap.Int("seeded", n))
	}
	return n, nil
}

// ReadFile reads a JSON seed file of the form {"seeds": [...]}.
func ReadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	seeds := Clean(f.Seeds)
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	return seeds, nil
}
