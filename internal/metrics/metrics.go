package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"verifier/internal/restored"
)

// Recorder owns the run's counters. A nil *Recorder discards everything.
type Recorder struct {
	registry     *prometheus.Registry
	lookups      *prometheus.CounterVec
	cacheHits    prometheus.Counter
	records      *prometheus.CounterVec
	batches      *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	driftNotes   prometheus.Counter
	lastRunStamp prometheus.Gauge
}

// New registers the verifier counters on a private registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_index_lookups_total",
			Help: "Restored-file index lookups by key shape.",
		}, []string{"shape"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verifier_index_cache_hits_total",
			Help: "Lookups answered from the in-memory cache.",
		}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_records_total",
			Help: "Accession records by final status.",
		}, []string{"status"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_batches_total",
			Help: "Finalized batches by outcome.",
		}, []string{"outcome"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verifier_listings_skipped_total",
			Help: "Listings skipped during discovery by error kind.",
		}, []string{"kind"}),
		driftNotes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "verifier_drift_notes_total",
			Help: "Restored copies recovered under a weaker key with a different md5.",
		}),
		lastRunStamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "verifier_last_run_timestamp_seconds",
			Help: "Unix time the last verification run finished.",
		}),
	}
	r.registry.MustRegister(r.lookups, r.cacheHits, r.records, r.batches, r.skipped, r.driftNotes, r.lastRunStamp)
	return r
}

// ObserveLookup implements restored.Observer.
func (r *Recorder) ObserveLookup(shape restored.Shape, cached bool, _ int) {
	if r == nil {
		return
	}
	r.lookups.WithLabelValues(shape.String()).Inc()
	if cached {
		r.cacheHits.Inc()
	}
}

// Records adds n records that ended in status.
func (r *Recorder) Records(status string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.records.WithLabelValues(status).Add(float64(n))
}

// Batch counts one finalized batch.
func (r *Recorder) Batch(outcome string) {
	if r == nil {
		return
	}
	r.batches.WithLabelValues(outcome).Inc()
}

// SkippedListing counts a listing dropped during discovery.
func (r *Recorder) SkippedListing(kind string) {
	if r == nil {
		return
	}
	r.skipped.WithLabelValues(kind).Inc()
}

// DriftNotes adds n drift notes.
func (r *Recorder) DriftNotes(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.driftNotes.Add(float64(n))
}

// Finished stamps the end of a run.
func (r *Recorder) Finished() {
	if r == nil {
		return
	}
	r.lastRunStamp.SetToCurrentTime()
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// WriteTextfile writes the counters in the node exporter textfile format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

var _ restored.Observer = (*Recorder)(nil)
