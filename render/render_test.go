package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/qaengine/expr"
	"github.com/c360studio/qaengine/secrets"
	"github.com/c360studio/qaengine/spec"
	"github.com/c360studio/qaengine/tmpl"
	"github.com/c360studio/qaengine/validate"
)

func buildPayload(t *testing.T, fs *spec.FormSpec, answers map[string]any, status spec.PlanStatus, next string) Payload {
	t.Helper()
	ctx := spec.Context{Answers: answers}
	tmplCtx := tmpl.NewContext(ctx, secrets.New(spec.SecretsPolicy{}))
	p, err := Build(fs, tmplCtx, ctx, answers, status, next, nil, expr.OnMissingVisible)
	require.NoError(t, err)
	return p
}

func TestTextRendererShowsRequiredMarkerAndBooleanHint(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{
		{ID: "agree", Type: spec.TypeBoolean, Title: "Do you agree?", Required: true},
	}}
	p := buildPayload(t, fs, map[string]any{}, spec.StatusNeedInput, "agree")
	out := Text(p)
	assert.Contains(t, out, "Do you agree? *")
	assert.Contains(t, out, "(y/n)")
	assert.Contains(t, out, "progress: 0/1")
}

func TestTextRendererShowsValidationSummaryOnError(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{{ID: "code", Type: spec.TypeString}}}
	ctx := spec.Context{Answers: map[string]any{}}
	tmplCtx := tmpl.NewContext(ctx, secrets.New(spec.SecretsPolicy{}))
	errs := []validate.Error{{Code: "pattern_mismatch", Message: "bad format", Path: "/code"}}
	p, err := Build(fs, tmplCtx, ctx, map[string]any{}, spec.StatusError, "code", errs, expr.OnMissingVisible)
	require.NoError(t, err)
	out := Text(p)
	assert.True(t, strings.Contains(out, "validation failed"))
	assert.True(t, strings.Contains(out, "pattern_mismatch"))
}

func TestJSONUIShapeAndVisibility(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{
		{ID: "gate", Type: spec.TypeBoolean},
		{ID: "detail", Type: spec.TypeString, VisibleIf: `answer("gate") == true`},
	}}
	p := buildPayload(t, fs, map[string]any{"gate": false}, spec.StatusNeedInput, "")
	out := JSONUI(p)
	assert.Equal(t, spec.StatusNeedInput, out.Status)
	require.Len(t, out.Questions, 2)
	assert.False(t, out.Questions[1].Visible)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"form_id"`)
}

func TestJSONUII18nDebugEmitsKeys(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{{ID: "name", Type: spec.TypeString, Title: "Name"}}}
	ctx := spec.Context{Answers: map[string]any{}, I18nDebug: true}
	tmplCtx := tmpl.NewContext(ctx, secrets.New(spec.SecretsPolicy{}))
	p, err := Build(fs, tmplCtx, ctx, map[string]any{}, spec.StatusNeedInput, "name", nil, expr.OnMissingVisible)
	require.NoError(t, err)
	out := JSONUI(p)
	require.NotNil(t, out.I18nDebugMeta)
	assert.Equal(t, "name.title", out.Questions[0].TitleKey)
}

func TestAdaptiveCardShapeForStringQuestion(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{{ID: "name", Type: spec.TypeString, Title: "Name", Required: true}}}
	p := buildPayload(t, fs, map[string]any{}, spec.StatusNeedInput, "name")
	card := AdaptiveCard(p)

	assert.Equal(t, "AdaptiveCard", card.Type)
	assert.Equal(t, "1.3", card.Version)

	var inputCount, submitCount int
	for _, el := range card.Body {
		if el.Type == "Input.Text" {
			inputCount++
		}
	}
	for _, a := range card.Actions {
		if a.Type == "Action.Submit" {
			submitCount++
		}
	}
	assert.Equal(t, 1, inputCount)
	assert.Equal(t, 1, submitCount)

	env, ok := card.Actions[0].Data.(qaSubmitEnvelope)
	require.True(t, ok)
	assert.Equal(t, "patch", env.QA.Mode)
	assert.Equal(t, "name", env.QA.QuestionID)
	assert.Equal(t, "answer", env.QA.Field)
}

func TestAdaptiveCardOnlyPermittedElementTypes(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{
		{ID: "color", Type: spec.TypeEnum, Enum: []string{"red", "blue"}, Title: "Color"},
	}}
	p := buildPayload(t, fs, map[string]any{}, spec.StatusNeedInput, "color")
	card := AdaptiveCard(p)

	permitted := map[string]bool{"TextBlock": true, "Container": true, "FactSet": true, "Input.Text": true, "Input.ChoiceSet": true, "Input.Toggle": true}
	for _, el := range card.Body {
		assert.True(t, permitted[el.Type], "unexpected body element type %q", el.Type)
	}
	permittedActions := map[string]bool{"Action.Submit": true, "Action.OpenUrl": true}
	for _, a := range card.Actions {
		assert.True(t, permittedActions[a.Type], "unexpected action type %q", a.Type)
	}
}
