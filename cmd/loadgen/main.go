package main

import (
	"flag"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"crawl-frontier/common"
	"crawl-frontier/internal/logging"
	"crawl-frontier/internal/seed"
)

func main() {
	configPath := flag.String("config", "seeds.json", "Path to JSON seed file ({\"seeds\": [...]})")
	seedList := flag.String("seeds", common.GetEnv("LOADGEN_SEEDS", ""), "Comma-separated seed URLs; overrides -config")
	apiBase := flag.String("api", common.GetEnv("API_BASE", "http://localhost:8080"), "API base URL")
	flag.Parse()

	logger := logging.Must("info", "console")
	defer func() { _ = logger.Sync() }()

	if _, err := run(*configPath, *seedList, *apiBase, nil, logger); err != nil {
		logger.Fatal("loadgen failed", zap.Error(err))
	}
}

// run submits every seed to the API concurrently. Seeds come from seedList when
// it is set, otherwise from the file at configPath. It returns how many were
// accepted. A nil client gets a 30s timeout.
func run(configPath, seedList, apiBase string, client *http.Client, logger *zap.Logger) (int, error) {
	seeds, err := loadSeeds(configPath, seedList)
	if err != nil {
		return 0, err
	}

	baseURL, err := url.Parse(apiBase)
	if err != nil {
		return 0, err
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	var (
		wg       sync.WaitGroup
		accepted int64
	)
	for i, s := range seeds {
		wg.Add(1)
		go func(idx int, s string) {
			defer wg.Done()
			if submitSeed(client, baseURL, idx, s, logger) {
				atomic.AddInt64(&accepted, 1)
			}
		}(i, s)
	}
	wg.Wait()
	logger.Info("seeds submitted", zap.Int("seeds", len(seeds)), zap.Int64("accepted", accepted))
	return int(accepted), nil
}

func loadSeeds(configPath, seedList string) ([]string, error) {
	if seedList == "" {
		return seed.ReadFile(configPath)
	}
	seeds := seed.Clean(common.SplitList(seedList))
	if len(seeds) == 0 {
		return nil, seed.ErrNoSeeds
	}
	return seeds, nil
}

func submitSeed(client *http.Client, base *url.URL, idx int, seedURL string, logger *zap.Logger) bool {
	u := *base
	u.Path = "/enqueue"
	u.RawQuery = url.Values{"url": {seedURL}}.Encode()
	logger = logger.With(zap.Int("idx", idx), zap.String("seed", seedURL))

	resp, err := client.Post(u.String(), "", nil)
	if err != nil {
		logger.Warn("submit failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		logger.Warn("seed not queued", zap.Int("status", resp.StatusCode))
		return false
	}
	logger.Info("seed accepted")
	return true
}
