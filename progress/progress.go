// Package progress implements the next-question selection and default
// autofill of spec.md §4.6: walking a FormSpec's questions in declaration
// order, skipping computed and already-satisfied questions per its
// ProgressPolicy, and surfacing the effects needed to autofill defaults for
// questions that are visible, required, and still unanswered.
package progress

import (
	"encoding/json"

	"github.com/c360studio/qaengine/errs"
	"github.com/c360studio/qaengine/expr"
	"github.com/c360studio/qaengine/spec"
	"github.com/c360studio/qaengine/tmpl"
)

// Result is the outcome of one Next call.
type Result struct {
	// NextQuestionID is the id of the first visible, unsatisfied, editable
	// question in declaration order, or "" if every question is satisfied
	// (spec.md §4.6: "complete").
	NextQuestionID string

	// Autofill holds one spec.Effect (kind set_answer) per question that
	// was visible, required, unanswered, carried a Default, and whose
	// ProgressPolicy.AutofillDefaults is set — in declaration order, ahead
	// of NextQuestionID.
	Autofill []spec.Effect
}

// Next walks fs.Questions in order, applying VisibilityOnMissing to each
// visible_if check, and returns the next question to ask plus any default
// autofill effects collected along the way. tmplCtx resolves Default
// template values; answers is the live decoded answer map (section
// "answers" of tmplCtx, but also passed directly since expr evaluates
// against the bare answers object, not the wider context).
func Next(fs *spec.FormSpec, tmplCtx tmpl.Context, answers map[string]any, ctx spec.Context, policy expr.VisibilityOnMissing) (Result, error) {
	var res Result

	for _, q := range fs.Questions {
		if q.Computed != "" {
			continue
		}
		visible, err := expr.ResolveVisibility(q.VisibleIf, answers, policy)
		if err != nil {
			return res, err
		}
		if !visible {
			continue
		}

		if isSatisfied(fs, q, answers, ctx) {
			continue
		}

		if q.Required && q.Default != nil && fs.ProgressPolicy.AutofillDefaults {
			if _, present := answers[q.ID]; !present {
				val, err := tmpl.ResolveValue(q.Default, tmplCtx, tmpl.Relaxed)
				if err != nil {
					return res, err
				}
				raw, err := json.Marshal(val)
				if err != nil {
					return res, &errs.InvariantViolation{Message: "autofill default: " + err.Error()}
				}
				res.Autofill = append(res.Autofill, spec.Effect{
					Kind: spec.EffectSetAnswer, Path: "/" + q.ID, Value: raw,
				})
				// The default now counts as the answer for every
				// subsequent question's visibility/satisfaction check in
				// this same walk.
				answers[q.ID] = val
				if fs.ProgressPolicy.SkipAnswered || fs.ProgressPolicy.TreatDefaultAsAnswered {
					continue
				}
			}
		}

		res.NextQuestionID = q.ID
		return res, nil
	}

	return res, nil
}

// isSatisfied reports whether q no longer needs to be asked, per
// fs.ProgressPolicy (spec.md §4.6).
func isSatisfied(fs *spec.FormSpec, q spec.QuestionSpec, answers map[string]any, ctx spec.Context) bool {
	pol := fs.ProgressPolicy

	if pol.SkipAnswered {
		if _, present := answers[q.ID]; present {
			return true
		}
	}

	if pol.TreatDefaultAsAnswered && q.Default != nil {
		if _, present := answers[q.ID]; !present {
			// A default exists and counts as answered even before
			// autofill writes it, so the question is never asked.
			return true
		}
	}

	for _, bucket := range pol.SkipIfPresentIn {
		if bucketHasKey(bucket, q.ID, ctx) {
			return true
		}
	}

	return false
}

func bucketHasKey(bucket, key string, ctx spec.Context) bool {
	var m map[string]any
	switch bucket {
	case "answers":
		m, _ = ctx.Answers.(map[string]any)
	case "state":
		m, _ = ctx.State.(map[string]any)
	case "config":
		m, _ = ctx.Config.(map[string]any)
	default:
		return false
	}
	if m == nil {
		return false
	}
	_, ok := m[key]
	return ok
}
