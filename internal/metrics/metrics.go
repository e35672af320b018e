package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Ledger metrics
	WatchEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubetime_watch_events_total",
			Help: "Total watch events recorded, by kind",
		},
		[]string{"kind"},
	)

	WatchSecondsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubetime_watch_seconds_total",
			Help: "Total seconds of playback recorded, by kind",
		},
		[]string{"kind"},
	)

	WatchWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tubetime_watch_write_failures_total",
			Help: "Failed ledger appends (surfaced to the caller)",
		},
	)

	// Warning metrics
	WarningsShown = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubetime_warnings_shown_total",
			Help: "Warning displays recorded, by tier",
		},
		[]string{"tier"},
	)

	// Grace metrics
	GraceOffers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubetime_grace_offers_total",
			Help: "Grace offer requests, by result",
		},
		[]string{"result"},
	)

	// Selection metrics
	SelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubetime_selections_total",
			Help: "Grid selections served, by budget state",
		},
		[]string{"state"},
	)

	// HTTP metrics
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tubetime_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		WatchEventsTotal,
		WatchSecondsTotal,
		WatchWriteFailures,
		WarningsShown,
		GraceOffers,
		SelectionsTotal,
		RequestDuration,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
