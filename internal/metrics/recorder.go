// Package metrics counts lifecycle, configuration, command and log file
// events in a private Prometheus registry.
package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"launchkit/internal/commands"
	"launchkit/internal/services"
)

const namespace = "launchkit"

// Recorder implements the observer interfaces of the lifecycle, command,
// configuration and log file packages.
type Recorder struct {
	phases        *prometheus.CounterVec
	hookFailures  *prometheus.CounterVec
	decodes       *prometheus.CounterVec
	regenerations *prometheus.CounterVec
	reloads       *prometheus.CounterVec
	archives      *prometheus.CounterVec
	stockpile     prometheus.Counter
	continuity    prometheus.Counter

	registry *prometheus.Registry
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
	}

	r.phases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phases_started_total",
			Help:      "Lifecycle phases started",
		},
		[]string{"phase"},
	)
	r.hookFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_failures_total",
			Help:      "Lifecycle hooks that failed or panicked",
		},
		[]string{"phase", "service"},
	)
	r.decodes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decoded_tokens_total",
			Help:      "Arguments and command lines decoded, by outcome",
		},
		[]string{"outcome"},
	)
	r.regenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_regenerations_total",
			Help:      "Configuration files regenerated, by reason",
		},
		[]string{"service", "reason"},
	)
	r.reloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Configuration files reloaded after a change on disk",
		},
		[]string{"service", "status"},
	)
	r.archives = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_archives_total",
			Help:      "Previous log files archived",
		},
		[]string{"compressed"},
	)
	r.stockpile = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_stockpile_deleted_total",
			Help:      "Archived log files deleted to honour the stockpile limit",
		},
	)
	r.continuity = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_continuity_breaks_total",
			Help:      "Times the live log file vanished and was re-created",
		},
	)

	r.registry.MustRegister(
		r.phases,
		r.hookFailures,
		r.decodes,
		r.regenerations,
		r.reloads,
		r.archives,
		r.stockpile,
		r.continuity,
	)
	return r
}

// Registry returns the registry the metrics live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// PhaseStarted implements services.PhaseObserver.
func (r *Recorder) PhaseStarted(phase services.State) {
	r.phases.WithLabelValues(phase.String()).Inc()
}

// HookFailed implements services.PhaseObserver.
func (r *Recorder) HookFailed(phase services.State, service string) {
	r.hookFailures.WithLabelValues(phase.String(), service).Inc()
}

// Decoded implements commands.Observer.
func (r *Recorder) Decoded(outcome commands.Outcome) {
	r.decodes.WithLabelValues(outcome.String()).Inc()
}

// Regenerated implements config.RegenerationObserver.
func (r *Recorder) Regenerated(service string, reasons []string) {
	if len(reasons) == 0 {
		reasons = []string{"unknown"}
	}
	for _, reason := range reasons {
		r.regenerations.WithLabelValues(service, reason).Inc()
	}
}

// Reloaded counts a live reload of a configuration file.
func (r *Recorder) Reloaded(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.reloads.WithLabelValues(service, status).Inc()
}

// Archived implements logfile.Observer.
func (r *Recorder) Archived(compressed bool) {
	label := "false"
	if compressed {
		label = "true"
	}
	r.archives.WithLabelValues(label).Inc()
}

// StockpileDeleted implements logfile.Observer.
func (r *Recorder) StockpileDeleted(count int) {
	r.stockpile.Add(float64(count))
}

// ContinuityBroken implements logfile.Observer.
func (r *Recorder) ContinuityBroken() {
	r.continuity.Inc()
}

// Sample is one series of a gathered metric.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Snapshot gathers every non-zero series, sorted by name and labels.
func (r *Recorder) Snapshot() ([]Sample, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, family := range families {
		for _, m := range family.GetMetric() {
			value := m.GetCounter().GetValue()
			if family.GetType() == dto.MetricType_GAUGE {
				value = m.GetGauge().GetValue()
			}
			if value == 0 {
				continue
			}
			samples = append(samples, Sample{
				Name:   family.GetName(),
				Labels: formatLabels(m.GetLabel()),
				Value:  value,
			})
		}
	}

	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Name != samples[j].Name {
			return samples[i].Name < samples[j].Name
		}
		return samples[i].Labels < samples[j].Labels
	})
	return samples, nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	return strings.Join(parts, ",")
}
