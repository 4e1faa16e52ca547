package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ytplayer/internal/logging"
)

const namespace = "ytplayer"

var (
	CatalogPagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_pages_total",
		Help:      "Catalog pages fetched, by outcome.",
	}, []string{"outcome"})

	ItemsStagedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_staged_total",
		Help:      "Playlist items written to staging files.",
	})

	ItemsExcludedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_excluded_total",
		Help:      "Playlist items skipped before download, by reason.",
	}, []string{"reason"})

	ItemsDownloadedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_downloaded_total",
		Help:      "Items transcoded and recorded successfully.",
	})

	ItemFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "item_failures_total",
		Help:      "Items that failed to download, by error category.",
	}, []string{"category"})

	ActiveTranscodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_transcodes",
		Help:      "Item pipelines currently running.",
	})

	TranscodeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "transcode_duration_seconds",
		Help:      "Wall time of one item's fetch/filter/encode pipeline.",
		Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	})

	PlaylistsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "playlists_total",
		Help:      "Finished playlist downloads, by final status.",
	}, []string{"status"})

	CleanupFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_failures_total",
		Help:      "Staging or item directories that could not be removed.",
	})
)

// Register adds every collector to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		CatalogPagesTotal,
		ItemsStagedTotal,
		ItemsExcludedTotal,
		ItemsDownloadedTotal,
		ItemFailuresTotal,
		ActiveTranscodes,
		TranscodeDuration,
		PlaylistsTotal,
		CleanupFailuresTotal,
	)
}

// Handler exposes gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Serve listens on addr and serves /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "metrics")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           Handler(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", logging.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
