// Package render builds transport-agnostic RenderPayloads and the three
// renderers of spec.md §4.9 (text, JSON-UI, Adaptive Card 1.3) from them.
// Renderers are pure functions of their payload: no disk, network, or
// environment access.
package render

import (
	"github.com/c360studio/qaengine/expr"
	"github.com/c360studio/qaengine/spec"
	"github.com/c360studio/qaengine/tmpl"
	"github.com/c360studio/qaengine/validate"
)

// QuestionView is one question's resolved, renderer-facing projection.
type QuestionView struct {
	ID           string
	Type         spec.QuestionType
	Title        string
	Description  string
	Required     bool
	Default      any
	CurrentValue any
	HasValue     bool
	Visible      bool
	Enum         []string
	Urgency      spec.Urgency
	TitleKey     string // only populated when i18n_debug is set
	DescriptionKey string
}

// Progress summarizes completion against non-computed, currently-visible
// questions (spec.md §4.9 "progress answered/total").
type Progress struct {
	Answered int
	Total    int
}

// Payload is the shape every renderer consumes (spec.md §4.9
// "RenderPayload"), built once from (spec, resolved_strings, next_question,
// progress, plan_metadata).
type Payload struct {
	FormID         string
	Status         spec.PlanStatus
	NextQuestionID string
	Progress       Progress
	Questions      []QuestionView
	Errors         []validate.Error

	Locale        string
	DefaultLocale string
	I18nDebug     bool
}

// Build resolves fs's display strings against tmplCtx, computes per-question
// visibility and progress, and assembles the Payload every renderer shares.
// fs is expected already include-expanded; it is never mutated.
func Build(
	fs *spec.FormSpec,
	tmplCtx tmpl.Context,
	ctx spec.Context,
	answers map[string]any,
	status spec.PlanStatus,
	nextQuestionID string,
	errs []validate.Error,
	policy expr.VisibilityOnMissing,
) (Payload, error) {
	resolved, err := tmpl.ResolveFormSpec(fs, tmplCtx, tmpl.Relaxed)
	if err != nil {
		return Payload{}, err
	}

	p := Payload{
		FormID:         fs.ID,
		Status:         status,
		NextQuestionID: nextQuestionID,
		Errors:         errs,
		Locale:         ctx.Locale,
		DefaultLocale:  fs.DefaultLocale,
		I18nDebug:      ctx.I18nDebug,
	}

	for _, q := range resolved.Questions {
		visible, err := expr.ResolveVisibility(q.VisibleIf, answers, policy)
		if err != nil {
			return Payload{}, err
		}

		title := tmpl.LocalizedTitle(q, ctx.Locale, fs.DefaultLocale)
		desc := tmpl.LocalizedDescription(q, ctx.Locale, fs.DefaultLocale)

		var def any
		if q.Default != nil {
			def, err = tmpl.ResolveValue(q.Default, tmplCtx, tmpl.Relaxed)
			if err != nil {
				return Payload{}, err
			}
		}

		val, hasVal := answers[q.ID]

		view := QuestionView{
			ID: q.ID, Type: q.Type, Title: title, Description: desc,
			Required: q.Required, Default: def, CurrentValue: val, HasValue: hasVal,
			Visible: visible, Enum: q.Enum, Urgency: q.Urgency,
		}
		if ctx.I18nDebug {
			view.TitleKey = q.ID + ".title"
			view.DescriptionKey = q.ID + ".description"
		}
		p.Questions = append(p.Questions, view)

		if q.Computed == "" && visible {
			p.Progress.Total++
			if hasVal {
				p.Progress.Answered++
			}
		}
	}

	return p, nil
}
