// Package metrics holds the Prometheus collectors shared by the crawl binaries.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	WorkerOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_frontier_worker_outcomes_total",
		Help: "Worker loop iterations by outcome",
	}, []string{"outcome"})
	FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawl_frontier_fetch_duration_seconds",
		Help:    "Time spent fetching a page, including failed fetches",
		Buckets: prometheus.DefBuckets,
	})
	BytesFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawl_frontier_bytes_fetched_total",
		Help: "Total body bytes downloaded",
	})
	PolitenessWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawl_frontier_politeness_wait_seconds",
		Help:    "Time a worker waited on the per-host gate",
		Buckets: []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})
	LinksEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawl_frontier_links_enqueued_total",
		Help: "Discovered links pushed onto the frontier queue",
	})
	PublishErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_frontier_publish_errors_total",
		Help: "Failed publishes by stream",
	}, []string{"topic"})
	PublishDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_frontier_publish_dropped_total",
		Help: "Records dropped because the publish buffer was full, by stream",
	}, []string{"topic"})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "crawl_frontier_in_flight",
		Help: "URLs currently between claim and completion",
	})
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawl_frontier_http_429_total",
		Help: "Responses with status 429 Too Many Requests",
	})
	WriterMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_frontier_writer_messages_total",
		Help: "Messages handled by downstream writers by writer and result",
	}, []string{"writer", "result"})
)

func init() {
	prometheus.MustRegister(
		WorkerOutcomes,
		FetchDuration,
		BytesFetched,
		PolitenessWait,
		LinksEnqueued,
		PublishErrors,
		PublishDropped,
		InFlight,
		RateLimited,
		WriterMessages,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve runs a /metrics endpoint on addr until ctx is cancelled.
// An empty addr disables the endpoint.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
