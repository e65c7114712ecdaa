// Package hostmetrics wraps engine calls with a caller-owned Prometheus
// registry. It never uses the default global registry and is never
// imported by the engine packages themselves (spec.md §9 "no global
// state": metrics are a host concern, layered on top of pure calls, not
// threaded through them).
package hostmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/qaengine/spec"
)

// Recorder owns one Prometheus registry and the counters it exposes.
// Construct exactly one per host process; never a package-level singleton.
type Recorder struct {
	registry *prometheus.Registry

	planCalls       *prometheus.CounterVec
	validationCalls *prometheus.CounterVec
	renderCalls     *prometheus.CounterVec
}

// NewRecorder builds a Recorder around a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		planCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qaengine_plan_calls_total",
			Help: "Count of plan_* invocations by mode and resulting status.",
		}, []string{"mode", "status"}),
		validationCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qaengine_validation_calls_total",
			Help: "Count of validate_answers invocations by outcome.",
		}, []string{"valid"}),
		renderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qaengine_render_calls_total",
			Help: "Count of render invocations by target.",
		}, []string{"target"}),
	}
	reg.MustRegister(r.planCalls, r.validationCalls, r.renderCalls)
	return r
}

// Registry exposes the underlying registry so a host can mount it behind
// an HTTP handler (e.g. promhttp.HandlerFor(r.Registry(), ...)).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObservePlan records one plan_* call's mode and resulting status.
func (r *Recorder) ObservePlan(mode spec.PlanMode, status spec.PlanStatus) {
	r.planCalls.WithLabelValues(string(mode), string(status)).Inc()
}

// ObserveValidation records one validate_answers call's outcome.
func (r *Recorder) ObserveValidation(valid bool) {
	label := "false"
	if valid {
		label = "true"
	}
	r.validationCalls.WithLabelValues(label).Inc()
}

// ObserveRender records one render call's target transport.
func (r *Recorder) ObserveRender(target string) {
	r.renderCalls.WithLabelValues(target).Inc()
}
