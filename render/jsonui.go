package render

import "github.com/c360studio/qaengine/spec"

// JSONUIQuestion is the machine-facing question shape of spec.md §4.9.
type JSONUIQuestion struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Required     bool   `json:"required,omitempty"`
	Default      any    `json:"default,omitempty"`
	CurrentValue any    `json:"current_value,omitempty"`
	Visible      bool   `json:"visible"`
	Urgency      string `json:"urgency,omitempty"`

	TitleKey       string `json:"title_key,omitempty"`
	DescriptionKey string `json:"description_key,omitempty"`
}

// JSONUIProgress mirrors Progress for JSON output.
type JSONUIProgress struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// JSONUIOutput is the `{form_id, status, next_question_id?, progress,
// questions, schema?}` object of spec.md §4.9.
type JSONUIOutput struct {
	FormID         string           `json:"form_id"`
	Status         spec.PlanStatus  `json:"status"`
	NextQuestionID string           `json:"next_question_id,omitempty"`
	Progress       JSONUIProgress   `json:"progress"`
	Questions      []JSONUIQuestion `json:"questions"`

	Errors []ErrorView `json:"errors,omitempty"`

	I18nDebugMeta *I18nDebugMeta `json:"i18n_debug,omitempty"`
}

// ErrorView mirrors validate.Error for JSON output without importing
// package validate's types directly into the rendered shape.
type ErrorView struct {
	QuestionID string `json:"question_id,omitempty"`
	Path       string `json:"path"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// I18nDebugMeta is emitted only when ctx.i18n_debug is truthy.
type I18nDebugMeta struct {
	Locale        string `json:"locale,omitempty"`
	DefaultLocale string `json:"default_locale,omitempty"`
}

// JSONUI builds the JSONUIOutput for p. The caller marshals it with
// encoding/json — this package returns Go values, not pre-serialized bytes,
// so a host can embed the result in a larger envelope.
func JSONUI(p Payload) JSONUIOutput {
	out := JSONUIOutput{
		FormID:         p.FormID,
		Status:         p.Status,
		NextQuestionID: p.NextQuestionID,
		Progress:       JSONUIProgress{Answered: p.Progress.Answered, Total: p.Progress.Total},
	}

	for _, q := range p.Questions {
		jq := JSONUIQuestion{
			ID: q.ID, Type: string(q.Type), Title: q.Title, Description: q.Description,
			Required: q.Required, Default: q.Default, Visible: q.Visible, Urgency: string(q.Urgency),
		}
		if q.HasValue {
			jq.CurrentValue = q.CurrentValue
		}
		if p.I18nDebug {
			jq.TitleKey = q.TitleKey
			jq.DescriptionKey = q.DescriptionKey
		}
		out.Questions = append(out.Questions, jq)
	}

	for _, e := range p.Errors {
		out.Errors = append(out.Errors, ErrorView{QuestionID: e.QuestionID, Path: e.Path, Code: e.Code, Message: e.Message})
	}

	if p.I18nDebug {
		out.I18nDebugMeta = &I18nDebugMeta{Locale: p.Locale, DefaultLocale: p.DefaultLocale}
	}

	return out
}
