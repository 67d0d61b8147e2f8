// Package health provides health check and monitoring for the desk daemon.
//
// This package implements:
//   - HTTP health check endpoint
//   - Prometheus metrics for saves, record counts and reports
//   - Uptime monitoring
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status represents the application health status.
//
// This is returned by the /health endpoint for monitoring tools.
//
// Fields:
//   - Status: Overall health status ("healthy" or "degraded")
//   - Uptime: How long the application has been running
//   - Records: Complaints in the collection after the last save or reload
//   - LastReportTime: When the last activity report was attempted
//   - LastReportStatus: "success" or the error of the last attempt
type Status struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	Records          int    `json:"records"`
	LastReportTime   string `json:"last_report_time"`
	LastReportStatus string `json:"last_report_status"`
}

// Monitor tracks application health metrics.
//
// Monitor satisfies complaint.Observer, so a Book reports every save to it.
//
// Thread-safety:
//   - All fields are protected by RWMutex
//   - Safe for concurrent updates from the daemon loop and HTTP handlers
type Monitor struct {
	mu               sync.RWMutex
	startTime        time.Time
	records          int
	lastReportTime   time.Time
	lastReportStatus string

	registry    *prometheus.Registry
	recordGauge prometheus.Gauge
	saves       prometheus.Counter
	reports     *prometheus.CounterVec
	lastReport  prometheus.Gauge
	requests    *prometheus.CounterVec
}

// NewMonitor creates a monitor with its own Prometheus registry.
func NewMonitor() *Monitor {
	m := &Monitor{
		startTime:        time.Now(),
		lastReportStatus: "not started",
		registry:         prometheus.NewRegistry(),
		recordGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "desk_records",
			Help: "Complaints in the collection.",
		}),
		saves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "desk_saves_total",
			Help: "Successful saves of the complaint collection.",
		}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_reports_total",
			Help: "Activity report attempts by result.",
		}, []string{"result"}),
		lastReport: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "desk_last_report_timestamp_seconds",
			Help: "Unix time of the last activity report attempt.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "desk_http_requests_total",
			Help: "Requests to the health server.",
		}, []string{"path", "status"}),
	}
	m.registry.MustRegister(
		m.recordGauge, m.saves, m.reports, m.lastReport, m.requests,
		prometheus.NewGoCollector(),
	)
	return m
}

// Saved records a successful save of n complaints.
func (m *Monitor) Saved(n int) {
	m.SetRecords(n)
	m.saves.Inc()
}

// SetRecords updates the record count without counting a save (after a
// reload, for example).
func (m *Monitor) SetRecords(n int) {
	m.mu.Lock()
	m.records = n
	m.mu.Unlock()
	m.recordGauge.Set(float64(n))
}

// UpdateReportStatus records the outcome of a report attempt.
//
// Parameters:
//   - err: nil after a successful report
func (m *Monitor) UpdateReportStatus(err error) {
	now := time.Now()
	status, result := "success", "success"
	if err != nil {
		status, result = "error: "+err.Error(), "error"
	}

	m.mu.Lock()
	m.lastReportTime = now
	m.lastReportStatus = status
	m.mu.Unlock()

	m.reports.WithLabelValues(result).Inc()
	m.lastReport.Set(float64(now.Unix()))
}

// GetStatus returns the current health status.
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Status{
		Status:           "healthy",
		Uptime:           time.Since(m.startTime).Round(time.Second).String(),
		Records:          m.records,
		LastReportStatus: m.lastReportStatus,
	}
	if !m.lastReportTime.IsZero() {
		s.LastReportTime = m.lastReportTime.Format("2006-01-02 15:04:05")
	}
	if len(m.lastReportStatus) > 6 && m.lastReportStatus[:6] == "error:" {
		s.Status = "degraded"
	}
	return s
}

// Handler returns the router serving /health and /metrics.
func (m *Monitor) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(m.countRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(m.GetStatus())
	})
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return r
}

// statusRecorder captures the response code for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (m *Monitor) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if path != "/health" && path != "/metrics" {
			path = "other"
		}
		m.requests.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
	})
}

// StartServer starts the health server in the background and shuts it
// down when ctx is cancelled.
//
// Endpoints:
//   - GET /health: JSON health status
//   - GET /metrics: Prometheus metrics
//
// Parameters:
//   - ctx: Server lifetime
//   - monitor: Health monitor to serve
//   - port: Port to listen on (e.g., "8080")
//
// Returns:
//   - <-chan error: Receives the server's exit error (nil after shutdown)
func StartServer(ctx context.Context, monitor *Monitor, port string) <-chan error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           monitor.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	done := make(chan error, 1)

	go func() {
		log.Printf("✓ Health check server started on :%s", port)
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			log.Printf("⚠️  Health check server error: %v", err)
		}
		done <- err
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	return done
}
