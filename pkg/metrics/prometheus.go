// Package metrics provides Prometheus metrics for the xpts pipeline.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultNamespace = "xpts"
	defaultSubsystem = "pipeline"
	dirPermission    = 0o750
)

// Manager manages all Prometheus metrics for a pipeline run.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Feature building
	featureRowsEmitted   prometheus.Counter
	featureRowsDiscarded prometheus.Counter
	unknownFixtures      prometheus.Counter
	unresolvedPlayers    *prometheus.CounterVec

	// Training
	categoriesTrained *prometheus.CounterVec
	categoriesSkipped *prometheus.CounterVec
	trainingRows      *prometheus.GaugeVec
	validationMAE     *prometheus.GaugeVec
	baselineMAE       *prometheus.GaugeVec
	aggregateMAE      prometheus.Gauge
	fitDuration       *prometheus.HistogramVec

	// Prediction
	predictionsEmitted *prometheus.CounterVec
	modelsMissing      *prometheus.CounterVec

	// Data acquisition
	fetchRequests *prometheus.CounterVec

	// Run health
	stageDuration    *prometheus.HistogramVec
	stageErrors      *prometheus.CounterVec
	lastRunTimestamp prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics in a batch job's textfile.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        defaultNamespace,
		subsystem:        defaultSubsystem,
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.featureRowsEmitted = auto.NewCounter(m.counterOpts(
		"feature_rows_emitted_total",
		"Feature vectors emitted by the feature builder"))
	m.featureRowsDiscarded = auto.NewCounter(m.counterOpts(
		"feature_rows_discarded_total",
		"Player rounds dropped for having fewer than the minimum prior rounds"))
	m.unknownFixtures = auto.NewCounter(m.counterOpts(
		"unknown_fixtures_total",
		"Match records whose fixture was missing from the fixture index"))
	m.unresolvedPlayers = auto.NewCounterVec(m.counterOpts(
		"unresolved_players_total",
		"Feature rows whose player had no position in the reference table"),
		[]string{"stage"})

	m.categoriesTrained = auto.NewCounterVec(m.counterOpts(
		"categories_trained_total",
		"Position categories with a fitted and persisted model"),
		[]string{"category"})
	m.categoriesSkipped = auto.NewCounterVec(m.counterOpts(
		"categories_skipped_total",
		"Position categories skipped during training"),
		[]string{"category", "reason"})
	m.trainingRows = auto.NewGaugeVec(m.gaugeOpts(
		"training_rows",
		"Feature rows available per category in the last training run"),
		[]string{"category"})
	m.validationMAE = auto.NewGaugeVec(m.gaugeOpts(
		"validation_mae_points",
		"Held-out mean absolute error per category"),
		[]string{"category"})
	m.baselineMAE = auto.NewGaugeVec(m.gaugeOpts(
		"baseline_mae_points",
		"Held-out mean absolute error of the linear baseline per category"),
		[]string{"category"})
	m.aggregateMAE = auto.NewGauge(m.gaugeOpts(
		"aggregate_mae_points",
		"Mean absolute error over all categories' held-out rows"))
	m.fitDuration = auto.NewHistogramVec(m.histogramOpts(
		"fit_duration_seconds",
		"Wall time spent fitting a category model"),
		[]string{"category"})

	m.predictionsEmitted = auto.NewCounterVec(m.counterOpts(
		"predictions_emitted_total",
		"Predictions produced per category"),
		[]string{"category"})
	m.modelsMissing = auto.NewCounterVec(m.counterOpts(
		"models_missing_total",
		"Categories skipped at inference for lack of a usable model"),
		[]string{"category", "reason"})

	m.fetchRequests = auto.NewCounterVec(m.counterOpts(
		"fetch_requests_total",
		"Snapshot documents served by outcome"),
		[]string{"kind", "outcome"})

	m.stageDuration = auto.NewHistogramVec(m.histogramOpts(
		"stage_duration_seconds",
		"Wall time per pipeline stage"),
		[]string{"stage"})
	m.stageErrors = auto.NewCounterVec(m.counterOpts(
		"stage_errors_total",
		"Pipeline stages that ended in error"),
		[]string{"stage"})
	m.lastRunTimestamp = auto.NewGauge(m.gaugeOpts(
		"last_run_timestamp_seconds",
		"Unix time at which the last stage completed"))
}

// RecordFeatureRows adds emitted and discarded feature row counts.
func RecordFeatureRows(emitted, discarded int) {
	globalManager.featureRowsEmitted.Add(float64(emitted))
	globalManager.featureRowsDiscarded.Add(float64(discarded))
}

// RecordUnknownFixture increments the unknown fixture counter.
func RecordUnknownFixture() {
	globalManager.unknownFixtures.Inc()
}

// RecordUnresolvedPlayers adds rows whose player could not be resolved.
func RecordUnresolvedPlayers(stage string, count int) {
	globalManager.unresolvedPlayers.WithLabelValues(stage).Add(float64(count))
}

// RecordCategoryTrained records a fitted category with its row count and MAE.
func RecordCategoryTrained(category string, rows int, mae float64, took time.Duration) {
	globalManager.categoriesTrained.WithLabelValues(category).Inc()
	globalManager.trainingRows.WithLabelValues(category).Set(float64(rows))
	globalManager.validationMAE.WithLabelValues(category).Set(mae)
	globalManager.fitDuration.WithLabelValues(category).Observe(took.Seconds())
}

// RecordCategorySkipped records a category skipped during training.
func RecordCategorySkipped(category, reason string, rows int) {
	globalManager.categoriesSkipped.WithLabelValues(category, reason).Inc()
	globalManager.trainingRows.WithLabelValues(category).Set(float64(rows))
}

// UpdateBaselineMAE sets the linear baseline MAE for a category.
func UpdateBaselineMAE(category string, mae float64) {
	globalManager.baselineMAE.WithLabelValues(category).Set(mae)
}

// UpdateAggregateMAE sets the aggregate held-out MAE.
func UpdateAggregateMAE(mae float64) {
	globalManager.aggregateMAE.Set(mae)
}

// RecordPredictions adds predictions emitted for a category.
func RecordPredictions(category string, count int) {
	globalManager.predictionsEmitted.WithLabelValues(category).Add(float64(count))
}

// RecordModelMissing records a category skipped at inference.
func RecordModelMissing(category, reason string) {
	globalManager.modelsMissing.WithLabelValues(category, reason).Inc()
}

// RecordFetch records a snapshot document served from cache, network or failed.
func RecordFetch(kind, outcome string) {
	globalManager.fetchRequests.WithLabelValues(kind, outcome).Inc()
}

// ObserveStage records a stage's duration and whether it failed.
func ObserveStage(stage string, took time.Duration, err error) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(took.Seconds())
	if err != nil {
		globalManager.stageErrors.WithLabelValues(stage).Inc()
	}
	globalManager.lastRunTimestamp.SetToCurrentTime()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the registry in the text exposition format to path,
// for pickup by node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPermission); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteTextfile, err)
	}
	return nil
}
