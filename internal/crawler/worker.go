// Package crawler runs the claim, check, fetch, extract and enqueue loop against the shared frontier.
package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"crawl-frontier/internal/fetch"
	"crawl-frontier/internal/frontier"
	"crawl-frontier/internal/metrics"
	"crawl-frontier/internal/models"
	"crawl-frontier/internal/politeness"
)

// Outcome is how one pass of the loop ended.
type Outcome string

const (
	OutcomeEmpty       Outcome = "empty"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeParseFailed Outcome = "parse_failed"
	OutcomeCrawled     Outcome = "crawled"
	OutcomeStoreError  Outcome = "store_error"
	// OutcomeCancelled means shutdown interrupted the pass before the fetch.
	OutcomeCancelled Outcome = "cancelled"
)

// Options tune the loop. Zero durations fall back to defaults in New.
type Options struct {
	Concurrency     int
	EmptyBackoff    time.Duration
	StoreRetryDelay time.Duration
	PublishTimeout  time.Duration
	// PublishBuffer bounds publishes in flight. When it is full new records are dropped.
	PublishBuffer   int

	// ClaimOnDequeue marks the URL visited when it is claimed instead of after
	// a successful fetch. Duplicate fetches are impossible, but a failed fetch
	// leaves the URL marked and it is never crawled.
	ClaimOnDequeue bool
	PublishEdges   bool
	// GlobalRPS caps fetches per second across this process's loops. 0 disables it.
	GlobalRPS float64
	Normalize frontier.Normalizer
}

// Dependencies are the collaborators a Worker drives.
type Dependencies struct {
	Queue     frontier.Queue
	Registry  frontier.Registry
	Gate      politeness.Gate
	Fetcher   Fetcher
	Extractor Extractor
	Publisher Publisher
}

// Worker runs Options.Concurrency independent loops over the shared frontier.
type Worker struct {
	queue     frontier.Queue
	registry  frontier.Registry
	gate      politeness.Gate
	fetcher   Fetcher
	extractor Extractor
	publisher Publisher
	limiter   *rate.Limiter
	opts      Options
	logger    *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time

	publishSem chan struct{}
	publishWG  sync.WaitGroup
}

// New builds a Worker. A nil Gate means no politeness delay and a nil Publisher logs instead.
func New(deps Dependencies, opts Options, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.EmptyBackoff <= 0 {
		opts.EmptyBackoff = 10 * time.Second
	}
	if opts.StoreRetryDelay <= 0 {
		opts.StoreRetryDelay = time.Second
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	if opts.PublishBuffer <= 0 {
		opts.PublishBuffer = 256
	}
	if opts.Normalize == nil {
		opts.Normalize = frontier.Verbatim
	}
	if deps.Gate == nil {
		deps.Gate = politeness.NewLocalGate(0)
	}
	if deps.Publisher == nil {
		deps.Publisher = NewLogPublisher(logger)
	}
	w := &Worker{
		queue:     deps.Queue,
		registry:  deps.Registry,
		gate:      deps.Gate,
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		publisher: deps.Publisher,
		opts:      opts,
		logger:    logger.With(zap.String("component", "worker")),
		sleep:     sleepCtx,
		now:       time.Now,

		publishSem: make(chan struct{}, opts.PublishBuffer),
	}
	if opts.GlobalRPS > 0 {
		burst := int(opts.GlobalRPS)
		if burst < 1 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(rate.Limit(opts.GlobalRPS), burst)
	}
	return w
}

// Run starts the loops and blocks until ctx is cancelled and every loop has returned.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.opts.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()
	w.publishWG.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) loop(ctx context.Context, id int) {
	logger := w.logger.With(zap.Int("worker_id", id))
	logger.Info("loop started")
	for ctx.Err() == nil {
		outcome := w.step(ctx, logger)
		metrics.WorkerOutcomes.WithLabelValues(string(outcome)).Inc()
		switch outcome {
		case OutcomeEmpty:
			logger.Debug("queue empty, backing off", zap.Duration("backoff", w.opts.EmptyBackoff))
			_ = w.sleep(ctx, w.opts.EmptyBackoff)
		case OutcomeStoreError:
			_ = w.sleep(ctx, w.opts.StoreRetryDelay)
		}
	}
}

// step runs one Claiming → Checking → Fetching → Extracting → Enqueuing pass.
func (w *Worker) step(ctx context.Context, logger *zap.Logger) Outcome {
	// Claiming
	rawURL, ok, err := w.queue.Dequeue(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeCancelled
		}
		logger.Error("dequeue failed", zap.Error(err))
		return OutcomeStoreError
	}
	if !ok {
		return OutcomeEmpty
	}
	metrics.InFlight.Inc()
	defer metrics.InFlight.Dec()

	key := w.opts.Normalize(rawURL)
	logger = logger.With(zap.String("url", rawURL))

	// Checking
	if w.opts.ClaimOnDequeue {
		added, err := w.registry.Mark(ctx, key)
		if err != nil {
			logger.Error("claim failed", zap.Error(err))
			return OutcomeStoreError
		}
		if !added {
			logger.Debug("already claimed, skipping")
			return OutcomeSkipped
		}
	} else {
		visited, err := w.registry.Contains(ctx, key)
		if err != nil {
			logger.Error("visited check failed", zap.Error(err))
			return OutcomeStoreError
		}
		if visited {
			logger.Debug("already visited, skipping")
			return OutcomeSkipped
		}
	}

	// Fetching
	host, err := politeness.HostOf(rawURL)
	if err != nil {
		w.fetchFailed(ctx, logger, rawURL, &fetch.FetchError{URL: rawURL, Err: err})
		return OutcomeFetchFailed
	}
	if outcome, ok := w.waitTurn(ctx, logger, rawURL, host); !ok {
		return outcome
	}
	resp, err := w.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		w.fetchFailed(ctx, logger, rawURL, err)
		return OutcomeFetchFailed
	}
	if !w.opts.ClaimOnDequeue {
		if _, err := w.registry.Mark(ctx, key); err != nil {
			logger.Error("mark visited failed", zap.Error(err))
			return OutcomeStoreError
		}
	}

	// Extracting
	base := resp.URL
	if base == "" {
		base = rawURL
	}
	page, err := w.extractor.Extract(base, resp.Body, resp.ContentType)
	if err != nil {
		logger.Warn("parse failed", zap.Error(err))
		w.publish(ctx, logger, "failures", func(ctx context.Context) error {
			return w.publisher.WriteFailure(ctx, models.CrawlFailure{
				URL:        rawURL,
				Stage:      models.StageParse,
				StatusCode: resp.StatusCode,
				Error:      err.Error(),
				FailedAt:   w.now().UTC(),
			})
		})
		return OutcomeParseFailed
	}
	w.publish(ctx, logger, "pages", func(ctx context.Context) error {
		return w.publisher.WritePage(ctx, models.PageResult{
			URL:         rawURL,
			FinalURL:    resp.URL,
			Title:       page.Title,
			Text:        page.Text,
			StatusCode:  resp.StatusCode,
			ContentType: resp.ContentType,
			LinkCount:   len(page.Links),
			FetchedAt:   w.now().UTC(),
		})
	})

	// Enqueuing
	links := w.normalizeLinks(page.Links)
	if w.opts.PublishEdges && len(links) > 0 {
		w.publish(ctx, logger, "edges", func(ctx context.Context) error {
			return w.publisher.WriteEdges(ctx, key, links)
		})
	}
	fresh := make([]string, 0, len(links))
	for _, link := range links {
		visited, err := w.registry.Contains(ctx, link)
		if err != nil {
			logger.Error("visited check for link failed", zap.String("link", link), zap.Error(err))
			return OutcomeStoreError
		}
		if !visited {
			fresh = append(fresh, link)
		}
	}
	if err := w.queue.Enqueue(ctx, fresh...); err != nil {
		logger.Error("enqueue links failed", zap.Int("links", len(fresh)), zap.Error(err))
		return OutcomeStoreError
	}
	metrics.LinksEnqueued.Add(float64(len(fresh)))
	logger.Info("crawled",
		zap.Int("status", resp.StatusCode),
		zap.Int("links", len(links)),
		zap.Int("enqueued", len(fresh)),
		zap.Duration("fetch", resp.Duration))
	return OutcomeCrawled
}

// waitTurn applies the per-host gate and the global rate cap. On false the pass ends with the returned outcome.
func (w *Worker) waitTurn(ctx context.Context, logger *zap.Logger, rawURL, host string) (Outcome, bool) {
	start := w.now()
	_, err := w.gate.Wait(ctx, host)
	if err == nil && w.limiter != nil {
		err = w.limiter.Wait(ctx)
	}
	metrics.PolitenessWait.Observe(w.now().Sub(start).Seconds())
	if err == nil {
		return "", true
	}
	if ctx.Err() == nil {
		logger.Error("politeness gate failed", zap.String("host", host), zap.Error(err))
		return OutcomeStoreError, false
	}
	// Shutdown before the fetch: hand the URL back unless it is already claimed.
	if !w.opts.ClaimOnDequeue {
		requeueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.opts.PublishTimeout)
		defer cancel()
		if err := w.queue.Enqueue(requeueCtx, rawURL); err != nil {
			logger.Warn("requeue on shutdown failed", zap.Error(err))
		}
	}
	return OutcomeCancelled, false
}

func (w *Worker) fetchFailed(ctx context.Context, logger *zap.Logger, rawURL string, err error) {
	failure := models.CrawlFailure{
		URL:      rawURL,
		Stage:    models.StageFetch,
		Error:    err.Error(),
		FailedAt: w.now().UTC(),
	}
	var fe *fetch.FetchError
	if errors.As(err, &fe) {
		failure.StatusCode = fe.StatusCode
		failure.Timeout = fe.Timeout()
	}
	logger.Warn("fetch failed",
		zap.Int("status", failure.StatusCode),
		zap.Bool("timeout", failure.Timeout),
		zap.Error(err))
	w.publish(ctx, logger, "failures", func(ctx context.Context) error {
		return w.publisher.WriteFailure(ctx, failure)
	})
}

// publish hands fn to a background goroutine with its own deadline and returns at once.
// Errors are logged and counted, never returned.
func (w *Worker) publish(ctx context.Context, logger *zap.Logger, topic string, fn func(context.Context) error) {
	select {
	case w.publishSem <- struct{}{}:
	default:
		metrics.PublishDropped.WithLabelValues(topic).Inc()
		logger.Warn("publish buffer full, dropping record", zap.String("topic", topic))
		return
	}
	w.publishWG.Add(1)
	go func() {
		defer func() {
			<-w.publishSem
			w.publishWG.Done()
		}()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.opts.PublishTimeout)
		defer cancel()
		if err := fn(pubCtx); err != nil {
			metrics.PublishErrors.WithLabelValues(topic).Inc()
			logger.Warn("publish failed", zap.String("topic", topic), zap.Error(err))
		}
	}()
}

// normalizeLinks maps links to registry keys, dropping duplicates the mapping creates.
func (w *Worker) normalizeLinks(links []string) []string {
	if len(links) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		key := w.opts.Normalize(link)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
