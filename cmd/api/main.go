package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"crawl-frontier/common"
	"crawl-frontier/internal/frontier"
	"crawl-frontier/internal/logging"
	"crawl-frontier/internal/metrics"
	"crawl-frontier/internal/models"
)

type server struct {
	queue     frontier.Queue
	registry  frontier.Registry
	normalize frontier.Normalizer
	logger    *zap.Logger
	timeout   time.Duration
}

func newServer(queue frontier.Queue, registry frontier.Registry, normalize frontier.Normalizer, logger *zap.Logger) *server {
	if normalize == nil {
		normalize = frontier.Verbatim
	}
	return &server{
		queue:     queue,
		registry:  registry,
		normalize: normalize,
		logger:    logger,
		timeout:   5 * time.Second,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/enqueue", s.handleEnqueue)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/visited", s.handleVisited)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func main() {
	logger := logging.Must(common.GetEnv("LOG_LEVEL", "info"), common.GetEnv("LOG_FORMAT", "json"))
	defer func() { _ = logger.Sync() }()

	redisAddr := common.GetEnv("REDIS_ADDR", "localhost:6379")
	redisDB := common.ParseInt(common.GetEnv("REDIS_DB", "0"), 0)
	queueKey := common.GetEnv("QUEUE_KEY", frontier.DefaultQueueKey)
	visitedKey := common.GetEnv("VISITED_KEY", frontier.DefaultVisitedKey)
	normalize := frontier.NewNormalizer(common.ParseBool(os.Getenv("NORMALIZE_URLS"), false))
	addr := common.GetEnv("API_ADDR", ":8080")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := frontier.Dial(ctx, redisAddr, os.Getenv("REDIS_PASSWORD"), redisDB)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.String("addr", redisAddr), zap.Error(err))
	}
	store := frontier.NewRedisStore(client, queueKey, visitedKey)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close redis client", zap.Error(err))
		}
	}()

	srv := newServer(store, store, normalize, logger.With(zap.String("component", "api")))
	httpSrv := &http.Server{Addr: addr, Handler: srv.routes(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("api listening", zap.String("addr", addr))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api server failed", zap.Error(err))
	}
}

// handleEnqueue adds one URL to the frontier unless it is already visited.
//
// Method: POST
// Path:   /enqueue?url=...
// Example:
//
//	curl -X POST "http://localhost:8080/enqueue?url=https://www.python.org/"
func (s *server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	if !isCrawlable(rawURL) {
		http.Error(w, "url must be absolute http or https", http.StatusBadRequest)
		return
	}
	key := s.normalize(rawURL)

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	visited, err := s.registry.Contains(ctx, key)
	if err != nil {
		s.storeFailed(w, "visited check", err)
		return
	}
	if visited {
		writeJSON(w, models.EnqueueResult{URL: key, Queued: false, Reason: "already visited"}, http.StatusOK)
		return
	}
	if err := s.queue.Enqueue(ctx, key); err != nil {
		s.storeFailed(w, "enqueue", err)
		return
	}
	s.logger.Info("url enqueued", zap.String("url", key))
	writeJSON(w, models.EnqueueResult{URL: key, Queued: true}, http.StatusAccepted)
}

// handleStats reports queue length and registry size.
//
// Method: GET
// Path:   /stats
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	queued, err := s.queue.Len(ctx)
	if err != nil {
		s.storeFailed(w, "queue length", err)
		return
	}
	visited, err := s.registry.Size(ctx)
	if err != nil {
		s.storeFailed(w, "registry size", err)
		return
	}
	writeJSON(w, models.FrontierStats{Queued: queued, Visited: visited}, http.StatusOK)
}

// handleVisited answers whether a URL is in the registry.
//
// Method: GET
// Path:   /visited?url=...
func (s *server) handleVisited(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	key := s.normalize(rawURL)

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	visited, err := s.registry.Contains(ctx, key)
	if err != nil {
		s.storeFailed(w, "visited check", err)
		return
	}
	writeJSON(w, models.VisitedStatus{URL: key, Visited: visited}, http.StatusOK)
}

func (s *server) storeFailed(w http.ResponseWriter, op string, err error) {
	s.logger.Error("store call failed", zap.String("op", op), zap.Error(err))
	http.Error(w, "frontier store unavailable", http.StatusBadGateway)
}

func isCrawlable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func writeJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
