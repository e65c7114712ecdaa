package hostmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/c360studio/qaengine/spec"
)

func TestObservePlanIncrementsLabeledCounter(t *testing.T) {
	r := NewRecorder()
	r.ObservePlan(spec.ModeNext, spec.StatusNeedInput)
	r.ObservePlan(spec.ModeNext, spec.StatusNeedInput)
	r.ObservePlan(spec.ModeSubmitAll, spec.StatusComplete)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.planCalls.WithLabelValues("next", "need_input")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.planCalls.WithLabelValues("submit_all", "complete")))
}

func TestObserveValidationLabelsOutcome(t *testing.T) {
	r := NewRecorder()
	r.ObserveValidation(true)
	r.ObserveValidation(false)
	r.ObserveValidation(false)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.validationCalls.WithLabelValues("true")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.validationCalls.WithLabelValues("false")))
}

func TestEachRecorderOwnsItsOwnRegistry(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()
	a.ObserveRender("text")
	assert.Equal(t, float64(1), testutil.ToFloat64(a.renderCalls.WithLabelValues("text")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.renderCalls.WithLabelValues("text")))
	assert.NotSame(t, a.Registry(), b.Registry())
}
