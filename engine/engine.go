// Package engine implements the external API surface of spec.md §6:
// get_form_spec, get_answer_schema, get_example_answers, validate_answers,
// plan_next, plan_submit_patch, plan_submit_all, apply_store, and render,
// plus the config/context envelopes and the qa.wizard.generated event
// contract. Engine holds loaded, include-expanded specs; it is the single
// stateful boundary a host constructs once and calls repeatedly — every
// method below is otherwise a thin, total wrapper over the pure packages
// (expr, tmpl, secrets, include, validate, progress, store, plan, render).
package engine

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/qaengine/errs"
	"github.com/c360studio/qaengine/expr"
	"github.com/c360studio/qaengine/include"
	"github.com/c360studio/qaengine/plan"
	"github.com/c360studio/qaengine/render"
	"github.com/c360studio/qaengine/secrets"
	"github.com/c360studio/qaengine/spec"
	"github.com/c360studio/qaengine/store"
	"github.com/c360studio/qaengine/tmpl"
	"github.com/c360studio/qaengine/validate"
)

// Defaults bundles the caller-supplied policy a host would otherwise load
// via internal/hostconfig; Engine never reads configuration itself.
type Defaults struct {
	VisibilityOnMissing expr.VisibilityOnMissing
	UnknownFields       validate.UnknownFieldMode
}

// Engine holds loaded, include-expanded FormSpecs keyed by form_id.
// Loading is the only mutating operation; every other method is a pure
// read over the held specs plus its own explicit arguments.
type Engine struct {
	forms    map[string]*spec.FormSpec
	defaults Defaults
}

// New constructs an empty Engine.
func New(defaults Defaults) *Engine {
	return &Engine{forms: map[string]*spec.FormSpec{}, defaults: defaults}
}

// LoadForm decodes a config envelope (spec.md §6), expands its includes,
// and registers the result under its form_id. Returns the form_id for
// convenience.
func (e *Engine) LoadForm(raw json.RawMessage) (string, error) {
	root, registry, err := ParseConfigEnvelope(raw)
	if err != nil {
		return "", err
	}
	expanded, err := include.Expand(root, registry)
	if err != nil {
		return "", err
	}
	e.forms[expanded.ID] = expanded
	return expanded.ID, nil
}

func (e *Engine) lookup(formID string) (*spec.FormSpec, error) {
	fs, ok := e.forms[formID]
	if !ok {
		return nil, &errs.SpecError{ErrCode: errs.CodeUnknownForm, Path: formID, Message: "no such form"}
	}
	return fs, nil
}

func (e *Engine) visibility() expr.VisibilityOnMissing {
	if e.defaults.VisibilityOnMissing == "" {
		return expr.OnMissingVisible
	}
	return e.defaults.VisibilityOnMissing
}

func (e *Engine) unknownFields() validate.UnknownFieldMode {
	if e.defaults.UnknownFields == "" {
		return validate.Permissive
	}
	return e.defaults.UnknownFields
}

// GetFormSpec returns the loaded, include-expanded FormSpec for form_id.
func (e *Engine) GetFormSpec(formID string) (*spec.FormSpec, error) {
	return e.lookup(formID)
}

// answersMap coerces a spec.Context's Answers field (or a bare map) to
// map[string]any, treating an absent/nil value as an empty answer set.
func answersMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func policyFor(fs *spec.FormSpec) *secrets.Policy {
	return secrets.New(fs.SecretsPolicy)
}

// ValidateAnswers runs full-scope validation (spec.md's validate_answers).
func (e *Engine) ValidateAnswers(formID string, ctx spec.Context) (validate.Result, error) {
	fs, err := e.lookup(formID)
	if err != nil {
		return validate.Result{}, err
	}
	res := validate.Validate(fs, answersMap(ctx.Answers), validate.Options{
		UnknownFields:       e.unknownFields(),
		Scope:               validate.ScopeAll,
		VisibilityOnMissing: e.visibility(),
	})
	return res, nil
}

// PlanNext wraps plan.Next.
func (e *Engine) PlanNext(formID string, ctx spec.Context) (spec.Plan, error) {
	fs, err := e.lookup(formID)
	if err != nil {
		return spec.Plan{}, err
	}
	return plan.Next(fs, ctx, plan.Options{
		VisibilityOnMissing: e.visibility(), UnknownFields: e.unknownFields(), SecretsPolicy: policyFor(fs),
	})
}

// PlanSubmitPatch wraps plan.SubmitPatch.
func (e *Engine) PlanSubmitPatch(formID string, ctx spec.Context, questionID string, value any) (spec.Plan, error) {
	fs, err := e.lookup(formID)
	if err != nil {
		return spec.Plan{}, err
	}
	return plan.SubmitPatch(fs, ctx, questionID, value, plan.Options{
		VisibilityOnMissing: e.visibility(), UnknownFields: e.unknownFields(), SecretsPolicy: policyFor(fs),
	})
}

// PlanSubmitAll wraps plan.SubmitAll.
func (e *Engine) PlanSubmitAll(formID string, ctx spec.Context) (spec.Plan, error) {
	fs, err := e.lookup(formID)
	if err != nil {
		return spec.Plan{}, err
	}
	return plan.SubmitAll(fs, ctx, answersMap(ctx.Answers), plan.Options{
		VisibilityOnMissing: e.visibility(), UnknownFields: e.unknownFields(), SecretsPolicy: policyFor(fs),
	})
}

// ApplyStore resolves and applies form_id's declared store[] against ctx,
// returning the resulting patch set as four bucket snapshots (spec.md's
// apply_store(form_id, ctx, answers)). The ops come from the loaded form's
// own Store, never from the caller.
func (e *Engine) ApplyStore(formID string, ctx spec.Context) (store.Buckets, error) {
	fs, err := e.lookup(formID)
	if err != nil {
		return store.Buckets{}, err
	}
	tmplCtx := tmpl.NewContext(ctx, policyFor(fs))
	return store.Apply(fs.Store, store.Buckets{
		Answers: answersMap(ctx.Answers),
		State:   answersMap(ctx.State),
		Config:  answersMap(ctx.Config),
	}, tmplCtx, policyFor(fs))
}

// RenderTarget names the transport render() produces (spec.md §6).
type RenderTarget string

const (
	RenderText   RenderTarget = "text"
	RenderJSONUI RenderTarget = "json_ui"
	RenderCard   RenderTarget = "card"
)

// RenderOutput is the tagged result of Render: exactly one field among
// Text/JSONUI/Card is populated, matching the requested target.
type RenderOutput struct {
	Target RenderTarget
	Text   string
	JSONUI *render.JSONUIOutput
	Card   *render.Card
}

// Render builds a RenderPayload for form_id/ctx/answers and renders it for
// target (spec.md's render()). status/nextQuestionID/validationErrors are
// supplied by the caller from a prior plan_*/validate_answers call so
// Render stays a pure projection rather than re-deriving planning state.
func (e *Engine) Render(
	formID string, ctx spec.Context, status spec.PlanStatus, nextQuestionID string,
	validationErrors []validate.Error, target RenderTarget,
) (RenderOutput, error) {
	fs, err := e.lookup(formID)
	if err != nil {
		return RenderOutput{}, err
	}
	answers := answersMap(ctx.Answers)
	tmplCtx := tmpl.NewContext(ctx, policyFor(fs))

	payload, err := render.Build(fs, tmplCtx, ctx, answers, status, nextQuestionID, validationErrors, e.visibility())
	if err != nil {
		return RenderOutput{}, err
	}

	out := RenderOutput{Target: target}
	switch target {
	case RenderText:
		out.Text = render.Text(payload)
	case RenderJSONUI:
		ui := render.JSONUI(payload)
		out.JSONUI = &ui
	case RenderCard:
		card := render.AdaptiveCard(payload)
		out.Card = &card
	default:
		return RenderOutput{}, fmt.Errorf("render: unsupported target %q", target)
	}
	return out, nil
}
