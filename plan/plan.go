// Package plan implements the three pure planners and one Executor of
// spec.md §4.8: plan_next, plan_submit_patch, and plan_submit_all build a
// canonical Plan describing intended mutations without applying them;
// Executor.Apply is the only thing that ever mutates buckets from a Plan.
package plan

import (
	"encoding/json"

	"github.com/c360studio/qaengine/errs"
	"github.com/c360studio/qaengine/expr"
	"github.com/c360studio/qaengine/progress"
	"github.com/c360studio/qaengine/secrets"
	"github.com/c360studio/qaengine/spec"
	"github.com/c360studio/qaengine/store"
	"github.com/c360studio/qaengine/tmpl"
	"github.com/c360studio/qaengine/validate"
)

// Options bundles the parameters every planner needs, mirroring the runtime
// context envelope of spec.md §6.
type Options struct {
	VisibilityOnMissing expr.VisibilityOnMissing
	UnknownFields       validate.UnknownFieldMode
	SecretsPolicy       *secrets.Policy
}

func (o Options) visibility() expr.VisibilityOnMissing {
	if o.VisibilityOnMissing == "" {
		return expr.OnMissingVisible
	}
	return o.VisibilityOnMissing
}

func (o Options) unknownFields() validate.UnknownFieldMode {
	if o.UnknownFields == "" {
		return validate.Permissive
	}
	return o.UnknownFields
}

// Next produces a Plan for spec.md's plan_next: no new answer is submitted;
// the plan surfaces the next question to ask plus any default-autofill
// effects (spec.md §4.6).
func Next(fs *spec.FormSpec, ctx spec.Context, opts Options) (spec.Plan, error) {
	answers, _ := ctx.Answers.(map[string]any)
	if answers == nil {
		answers = map[string]any{}
	}
	tmplCtx := tmpl.NewContext(ctx, opts.SecretsPolicy)

	res, err := progress.Next(fs, tmplCtx, spec.DeepCopyMap(answers), ctx, opts.visibility())
	if err != nil {
		return spec.Plan{}, err
	}

	p := spec.Plan{
		PlanVersion:    1,
		FormID:         fs.ID,
		Mode:           spec.ModeNext,
		StateToken:     spec.StateToken(fs.ID, fs.Version, answers),
		ValidatedPatch: spec.JSONPatch{},
		Effects:        res.Autofill,
		NextQuestionID: res.NextQuestionID,
	}
	if res.NextQuestionID == "" {
		p.Status = spec.StatusComplete
	} else {
		p.Status = spec.StatusNeedInput
	}
	return p, nil
}

// SubmitPatch produces a Plan for spec.md's plan_submit_patch: one question's
// answer is validated in isolation (plus any cross-field rule referencing
// it), and if valid the plan's effects set that answer and advance to the
// next question.
func SubmitPatch(fs *spec.FormSpec, ctx spec.Context, questionID string, value any, opts Options) (spec.Plan, error) {
	answers, _ := ctx.Answers.(map[string]any)
	working := spec.DeepCopyMap(answers)
	if working == nil {
		working = map[string]any{}
	}
	working[questionID] = value

	res := validate.Validate(fs, working, validate.Options{
		UnknownFields:       opts.unknownFields(),
		Scope:               validate.ScopePatch,
		PatchQuestionID:     questionID,
		VisibilityOnMissing: opts.visibility(),
	})

	p := spec.Plan{
		PlanVersion: 1,
		FormID:      fs.ID,
		Mode:        spec.ModeSubmitPatch,
		StateToken:  spec.StateToken(fs.ID, fs.Version, working),
	}
	if !res.Valid {
		p.Status = spec.StatusError
		p.Errors = toPlanErrors(res.Errors)
		p.ValidatedPatch = spec.JSONPatch{}
		return p, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return spec.Plan{}, &errs.InvariantViolation{Message: "submit_patch: " + err.Error()}
	}
	p.ValidatedPatch = spec.JSONPatch{{Op: "add", Path: "/" + questionID, Value: raw}}
	p.Effects = []spec.Effect{{Kind: spec.EffectSetAnswer, Path: "/" + questionID, Value: raw}}

	tmplCtx := tmpl.NewContext(spec.Context{
		Payload: ctx.Payload, State: ctx.State, Config: ctx.Config, Answers: working, Secrets: ctx.Secrets,
	}, opts.SecretsPolicy)
	progRes, err := progress.Next(fs, tmplCtx, spec.DeepCopyMap(working), spec.Context{Answers: working, State: ctx.State, Config: ctx.Config}, opts.visibility())
	if err != nil {
		return spec.Plan{}, err
	}
	p.Effects = append(p.Effects, progRes.Autofill...)

	storeEffects, err := store.ResolveEffects(fs.Store, tmplCtx)
	if err != nil {
		return spec.Plan{}, err
	}
	p.Effects = append(p.Effects, storeEffects...)

	p.NextQuestionID = progRes.NextQuestionID
	if progRes.NextQuestionID == "" {
		p.Status = spec.StatusComplete
	} else {
		p.Status = spec.StatusNeedInput
	}
	return p, nil
}

// SubmitAll produces a Plan for spec.md's plan_submit_all: the full answer
// set is validated; on success every question's answer becomes a set_answer
// effect and the plan is marked complete (spec.md never re-asks after a
// clean submit_all).
func SubmitAll(fs *spec.FormSpec, ctx spec.Context, answers map[string]any, opts Options) (spec.Plan, error) {
	res := validate.Validate(fs, answers, validate.Options{
		UnknownFields:       opts.unknownFields(),
		Scope:               validate.ScopeAll,
		VisibilityOnMissing: opts.visibility(),
	})

	p := spec.Plan{
		PlanVersion: 1,
		FormID:      fs.ID,
		Mode:        spec.ModeSubmitAll,
		StateToken:  spec.StateToken(fs.ID, fs.Version, answers),
	}
	if !res.Valid {
		p.Status = spec.StatusError
		p.Errors = toPlanErrors(res.Errors)
		p.ValidatedPatch = spec.JSONPatch{}
		return p, nil
	}

	patch := make(spec.JSONPatch, 0, len(answers))
	effects := make([]spec.Effect, 0, len(answers))
	for _, q := range fs.Questions {
		val, present := answers[q.ID]
		if !present {
			continue
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return spec.Plan{}, &errs.InvariantViolation{Message: "submit_all: " + err.Error()}
		}
		patch = append(patch, spec.PatchOp{Op: "add", Path: "/" + q.ID, Value: raw})
		effects = append(effects, spec.Effect{Kind: spec.EffectSetAnswer, Path: "/" + q.ID, Value: raw})
	}

	tmplCtx := tmpl.NewContext(spec.Context{
		Payload: ctx.Payload, State: ctx.State, Config: ctx.Config, Answers: answers, Secrets: ctx.Secrets,
	}, opts.SecretsPolicy)
	storeEffects, err := store.ResolveEffects(fs.Store, tmplCtx)
	if err != nil {
		return spec.Plan{}, err
	}
	effects = append(effects, storeEffects...)

	p.ValidatedPatch = patch
	p.Effects = effects
	p.Status = spec.StatusComplete
	return p, nil
}

func toPlanErrors(errs []validate.Error) []spec.PlanError {
	out := make([]spec.PlanError, len(errs))
	for i, e := range errs {
		out[i] = spec.PlanError{QuestionID: e.QuestionID, Path: e.Path, Code: e.Code, Message: e.Message}
	}
	return out
}

// Executor applies a Plan's validated_patch and effects to a set of
// buckets. It is the only component permitted to turn a Plan into a
// mutation (spec.md §4.8's plan/execute boundary).
type Executor struct {
	Policy *secrets.Policy
}

// Apply applies p.Effects, in the fixed kind order answers -> state ->
// config -> payload_out -> secrets, to buckets. validated_patch is not
// separately replayed: every patch op in a Plan produced by this package
// has a corresponding set_answer effect, so applying Effects alone is
// sufficient and avoids double-writing the same path.
func (ex *Executor) Apply(p spec.Plan, buckets store.Buckets) (store.Buckets, map[string]json.RawMessage, error) {
	return store.ApplyEffects(p.Effects, buckets, ex.Policy)
}
