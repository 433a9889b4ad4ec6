// Package status exposes a small HTTP surface for watching a long
// export run: a health probe, a JSON progress snapshot, and Prometheus
// metrics. It is optional; the exporter runs fine without it.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/you/groupme-archive/internal/groupme"
	"github.com/you/groupme-archive/internal/report"
)

type Server struct {
	httpServer *http.Server
	limiter    *ipRateLimiter
	startedAt  time.Time
}

type Options struct {
	Addr string
	// RatePerIP and Burst bound requests per client IP; zero disables
	// limiting.
	RatePerIP int
	Burst     int
}

func New(opts Options) *Server {
	srv := &Server{
		limiter:   newIPRateLimiter(opts.RatePerIP, opts.Burst),
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealthz)
	mux.HandleFunc("/progress", srv.handleProgress)
	mux.Handle("/metrics", promhttp.HandlerFor(newRegistry(), promhttp.HandlerOpts{}))

	srv.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           srv.withRateLimit(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("status: serve: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(remoteIP(r)) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Progress is the snapshot served at /progress.
type Progress struct {
	UptimeSeconds    int64 `json:"uptime_seconds"`
	APIRequests      int64 `json:"api_requests"`
	MessagesFetched  int64 `json:"messages_fetched"`
	PagesWritten     int64 `json:"pages_written"`
	MessagesRendered int64 `json:"messages_rendered"`
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	requests, fetched := groupme.Stats()
	pages, rendered := report.Stats()
	snapshot := Progress{
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
		APIRequests:      requests,
		MessagesFetched:  fetched,
		PagesWritten:     pages,
		MessagesRendered: rendered,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(snapshot)
}

// newRegistry builds a registry whose collectors read the package
// counters on scrape, so the export loop never touches Prometheus
// types directly.
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "gmq",
			Name:      "api_requests_total",
			Help:      "Total GroupMe API requests issued",
		}, func() float64 {
			requests, _ := groupme.Stats()
			return float64(requests)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "gmq",
			Name:      "messages_fetched_total",
			Help:      "Total messages fetched from the API",
		}, func() float64 {
			_, fetched := groupme.Stats()
			return float64(fetched)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "gmq",
			Name:      "pages_written_total",
			Help:      "Total day pages written to the archive",
		}, func() float64 {
			pages, _ := report.Stats()
			return float64(pages)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "gmq",
			Name:      "messages_rendered_total",
			Help:      "Total messages rendered into day pages",
		}, func() float64 {
			_, rendered := report.Stats()
			return float64(rendered)
		}),
	)
	return registry
}
