package engine

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/qaengine/spec"
)

func sampleFormJSON() json.RawMessage {
	fs := spec.FormSpec{
		ID: "onboarding", Title: "Onboarding", Version: "1",
		Questions: []spec.QuestionSpec{
			{ID: "name", Type: spec.TypeString, Title: "Name", Required: true, MaxLen: intp(40)},
			{ID: "role", Type: spec.TypeEnum, Title: "Role", Required: true, Enum: []string{"engineer", "manager"}},
			{ID: "age", Type: spec.TypeInteger, Title: "Age", Min: floatp(0), Max: floatp(120)},
		},
		ProgressPolicy: spec.ProgressPolicy{SkipAnswered: true},
	}
	raw, err := json.Marshal(fs)
	if err != nil {
		panic(err)
	}
	return raw
}

func intp(v int) *int          { return &v }
func floatp(v float64) *float64 { return &v }

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	e := New(Defaults{})
	formID, err := e.LoadForm(sampleFormJSON())
	require.NoError(t, err)
	return e, formID
}

func TestLoadFormAndGetFormSpec(t *testing.T) {
	e, formID := newTestEngine(t)
	assert.Equal(t, "onboarding", formID)

	fs, err := e.GetFormSpec(formID)
	require.NoError(t, err)
	assert.Len(t, fs.Questions, 3)
}

func TestLoadFormAcceptsEnvelopedShape(t *testing.T) {
	e := New(Defaults{})
	envelope, err := json.Marshal(map[string]json.RawMessage{
		"form_spec_json": sampleFormJSON(),
	})
	require.NoError(t, err)

	formID, err := e.LoadForm(envelope)
	require.NoError(t, err)
	assert.Equal(t, "onboarding", formID)
}

func TestGetFormSpecUnknownFormErrors(t *testing.T) {
	e := New(Defaults{})
	_, err := e.GetFormSpec("nope")
	require.Error(t, err)
}

func TestGetAnswerSchemaShapesConstraints(t *testing.T) {
	e, formID := newTestEngine(t)
	schema, err := e.GetAnswerSchema(formID)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"name", "role"}, schema.Required)
	require.Contains(t, schema.Properties, "name")
	assert.Equal(t, "string", schema.Properties["name"].Type)
	assert.Equal(t, 40, *schema.Properties["name"].MaxLength)
	assert.Equal(t, []string{"engineer", "manager"}, schema.Properties["role"].Enum)
	assert.Equal(t, "integer", schema.Properties["age"].Type)
}

func TestGetExampleAnswersRespectsEnumAndRange(t *testing.T) {
	e, formID := newTestEngine(t)
	examples, err := e.GetExampleAnswers(formID)
	require.NoError(t, err)

	assert.Equal(t, "engineer", examples["role"])
	age, ok := examples["age"].(int)
	require.True(t, ok)
	assert.GreaterOrEqual(t, age, 0)
	assert.LessOrEqual(t, age, 120)
}

func TestValidateAnswersReportsMissingRequired(t *testing.T) {
	e, formID := newTestEngine(t)
	res, err := e.ValidateAnswers(formID, spec.Context{Answers: map[string]any{}})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.MissingRequired, "name")
}

func TestApplyStoreSourcesOpsFromLoadedForm(t *testing.T) {
	fs := spec.FormSpec{
		ID: "greeting", Version: "1",
		Questions: []spec.QuestionSpec{{ID: "name", Type: spec.TypeString, Required: true}},
		Store: []spec.StoreOp{
			{Target: spec.TargetState, Path: "/greeted", Value: &spec.TemplateValue{Template: "{{answers.name}}"}},
		},
	}
	raw, err := json.Marshal(fs)
	require.NoError(t, err)

	e := New(Defaults{})
	formID, err := e.LoadForm(raw)
	require.NoError(t, err)

	buckets, err := e.ApplyStore(formID, spec.Context{Answers: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, "Ada", buckets.State["greeted"])
}

func TestPlanNextThenSubmitPatchAdvances(t *testing.T) {
	e, formID := newTestEngine(t)

	next, err := e.PlanNext(formID, spec.Context{Answers: map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, "name", next.NextQuestionID)

	patched, err := e.PlanSubmitPatch(formID, spec.Context{Answers: map[string]any{}}, "name", "Ada")
	require.NoError(t, err)
	assert.Equal(t, spec.StatusNeedInput, patched.Status)
	assert.Equal(t, "role", patched.NextQuestionID)
}

func TestPlanSubmitAllComplete(t *testing.T) {
	e, formID := newTestEngine(t)
	answers := map[string]any{"name": "Ada", "role": "engineer", "age": 30}

	p, err := e.PlanSubmitAll(formID, spec.Context{Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, spec.StatusComplete, p.Status)
	assert.NotEmpty(t, p.Effects)
}

func TestRenderTextJSONUIAndCard(t *testing.T) {
	e, formID := newTestEngine(t)
	ctx := spec.Context{Answers: map[string]any{}}

	text, err := e.Render(formID, ctx, spec.StatusNeedInput, "name", nil, RenderText)
	require.NoError(t, err)
	assert.NotEmpty(t, text.Text)

	ui, err := e.Render(formID, ctx, spec.StatusNeedInput, "name", nil, RenderJSONUI)
	require.NoError(t, err)
	require.NotNil(t, ui.JSONUI)
	assert.Equal(t, "onboarding", ui.JSONUI.FormID)

	card, err := e.Render(formID, ctx, spec.StatusNeedInput, "name", nil, RenderCard)
	require.NoError(t, err)
	require.NotNil(t, card.Card)
	assert.Equal(t, "AdaptiveCard", card.Card.Type)
}

func TestGenerateBundleProducesCanonicalLayout(t *testing.T) {
	e, formID := newTestEngine(t)
	event, err := e.GenerateBundle(formID, nil)
	require.NoError(t, err)

	assert.Equal(t, "onboarding", event.DirName)
	var paths []string
	for _, f := range event.Files {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "onboarding/forms/onboarding.form.json")
	assert.Contains(t, paths, "onboarding/examples/onboarding.answers.example.json")
	assert.Contains(t, paths, "onboarding/schemas/onboarding.answers.schema.json")
	assert.Contains(t, paths, "onboarding/README.md")
	assert.NotContains(t, paths, "onboarding/flows/onboarding.qaflow.json")

	for _, f := range event.Files {
		decoded, err := base64.StdEncoding.DecodeString(f.ContentsBase64)
		require.NoError(t, err)
		assert.NotEmpty(t, decoded)
	}
	assert.Contains(t, event.SummaryMD, "generation")
}

func TestGenerateBundleIncludesFlowWhenProvided(t *testing.T) {
	e, formID := newTestEngine(t)
	flow := &spec.QAFlowSpec{
		Entry: "start",
		Steps: map[spec.StepID]spec.StepSpec{
			"start": {Kind: spec.StepEnd},
		},
	}
	event, err := e.GenerateBundle(formID, flow)
	require.NoError(t, err)

	var found bool
	for _, f := range event.Files {
		if f.Path == "onboarding/flows/onboarding.qaflow.json" {
			found = true
		}
	}
	assert.True(t, found)
}
