package plan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/qaengine/spec"
	"github.com/c360studio/qaengine/store"
)

func sampleForm() *spec.FormSpec {
	return &spec.FormSpec{
		ID: "onboarding", Version: "1",
		Questions: []spec.QuestionSpec{
			{ID: "name", Type: spec.TypeString, Required: true},
			{ID: "email", Type: spec.TypeString, Required: true},
		},
		ProgressPolicy: spec.ProgressPolicy{SkipAnswered: true},
	}
}

func TestNextPlanNeedsInput(t *testing.T) {
	fs := sampleForm()
	p, err := Next(fs, spec.Context{Answers: map[string]any{}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, spec.StatusNeedInput, p.Status)
	assert.Equal(t, "name", p.NextQuestionID)
	assert.Equal(t, spec.ModeNext, p.Mode)
}

func TestNextPlanComplete(t *testing.T) {
	fs := sampleForm()
	p, err := Next(fs, spec.Context{Answers: map[string]any{"name": "Ada", "email": "ada@example.com"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, spec.StatusComplete, p.Status)
	assert.Equal(t, "", p.NextQuestionID)
}

func TestSubmitPatchValidAdvances(t *testing.T) {
	fs := sampleForm()
	p, err := SubmitPatch(fs, spec.Context{Answers: map[string]any{}}, "name", "Ada", Options{})
	require.NoError(t, err)
	assert.Equal(t, spec.StatusNeedInput, p.Status)
	assert.Equal(t, "email", p.NextQuestionID)
	require.Len(t, p.ValidatedPatch, 1)
	assert.Equal(t, "/name", p.ValidatedPatch[0].Path)
}

func TestSubmitPatchInvalidReturnsErrorStatus(t *testing.T) {
	fs := &spec.FormSpec{ID: "f", Questions: []spec.QuestionSpec{
		{ID: "code", Type: spec.TypeString, Pattern: "[A-Z]{3}"},
	}}
	p, err := SubmitPatch(fs, spec.Context{Answers: map[string]any{}}, "code", "xy", Options{})
	require.NoError(t, err)
	assert.Equal(t, spec.StatusError, p.Status)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "pattern_mismatch", p.Errors[0].Code)
	assert.Empty(t, p.ValidatedPatch)
}

func TestSubmitPatchIncludesDeclaredStoreEffects(t *testing.T) {
	fs := sampleForm()
	fs.Store = []spec.StoreOp{
		{Target: spec.TargetState, Path: "/last_answered", Value: &spec.TemplateValue{Template: "{{answers.name}}"}},
	}
	p, err := SubmitPatch(fs, spec.Context{Answers: map[string]any{}}, "name", "Ada", Options{})
	require.NoError(t, err)

	var stateEffect *spec.Effect
	for i := range p.Effects {
		if p.Effects[i].Kind == spec.EffectSetStatePath {
			stateEffect = &p.Effects[i]
		}
	}
	require.NotNil(t, stateEffect)
	assert.Equal(t, "/last_answered", stateEffect.Path)
	var val string
	require.NoError(t, json.Unmarshal(stateEffect.Value, &val))
	assert.Equal(t, "Ada", val)
}

func TestSubmitAllCompleteProducesEffectsForEveryAnswer(t *testing.T) {
	fs := sampleForm()
	answers := map[string]any{"name": "Ada", "email": "ada@example.com"}
	p, err := SubmitAll(fs, spec.Context{Answers: answers}, answers, Options{})
	require.NoError(t, err)
	assert.Equal(t, spec.StatusComplete, p.Status)
	assert.Len(t, p.Effects, 2)
}

func TestSubmitAllInvalidReportsMissingRequired(t *testing.T) {
	fs := sampleForm()
	p, err := SubmitAll(fs, spec.Context{Answers: map[string]any{}}, map[string]any{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, spec.StatusError, p.Status)
	assert.NotEmpty(t, p.Errors)
}

func TestExecutorApplyWritesAnswers(t *testing.T) {
	fs := sampleForm()
	answers := map[string]any{"name": "Ada", "email": "ada@example.com"}
	p, err := SubmitAll(fs, spec.Context{Answers: answers}, answers, Options{})
	require.NoError(t, err)

	ex := &Executor{}
	buckets, secretsOut, err := ex.Apply(p, store.Buckets{})
	require.NoError(t, err)
	assert.Nil(t, secretsOut)
	assert.Equal(t, "Ada", buckets.Answers["name"])

	var roundTrip string
	require.NoError(t, json.Unmarshal(p.ValidatedPatch[0].Value, &roundTrip))
}
