package render

import (
	"strconv"

	"github.com/c360studio/qaengine/spec"
)

// CardElement is one Adaptive Card body element or action. Only the fields
// relevant to the permitted element/action set (spec.md §4.9) are modeled;
// Go's encoding/json omits zero-value optional fields via "omitempty".
type CardElement struct {
	Type string `json:"type"`

	// TextBlock
	Text string `json:"text,omitempty"`
	Wrap bool   `json:"wrap,omitempty"`

	// Container
	Items []CardElement `json:"items,omitempty"`

	// FactSet
	Facts []CardFact `json:"facts,omitempty"`

	// Input.Text / Input.ChoiceSet / Input.Toggle
	ID          string       `json:"id,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
	IsRequired  bool         `json:"isRequired,omitempty"`
	Value       any          `json:"value,omitempty"`
	Choices     []CardChoice `json:"choices,omitempty"`
	Style       string       `json:"style,omitempty"`
	Title       string       `json:"title,omitempty"`
	TitleOn     string       `json:"titleOn,omitempty"`
	ValueOn     string       `json:"valueOn,omitempty"`
	ValueOff    string       `json:"valueOff,omitempty"`

	// Action.Submit / Action.OpenUrl
	Data any    `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// CardFact is one FactSet entry.
type CardFact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// CardChoice is one Input.ChoiceSet option.
type CardChoice struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Card is the top-level Adaptive Card document (spec.md §4.9).
type Card struct {
	Type     string        `json:"type"`
	Version  string        `json:"version"`
	Body     []CardElement `json:"body"`
	Actions  []CardElement `json:"actions,omitempty"`
	Metadata *CardMetadata `json:"metadata,omitempty"`
}

// CardMetadata carries the nested `qa.i18n_debug` marker of spec.md §4.9,
// emitted only when the payload's ctx.i18n_debug is truthy.
type CardMetadata struct {
	QA *CardQAMetadata `json:"qa,omitempty"`
}

type CardQAMetadata struct {
	I18nDebug bool `json:"i18n_debug"`
}

// qaSubmitEnvelope / qaSubmitPayload carry the two fixed submit payload
// shapes of spec.md §4.9 (patch and submit-all).
type qaSubmitEnvelope struct {
	QA qaSubmitPayload `json:"qa"`
}

type qaSubmitPayload struct {
	FormID     string `json:"formId"`
	Mode       string `json:"mode"`
	QuestionID string `json:"questionId,omitempty"`
	Field      string `json:"field,omitempty"`
}

// AdaptiveCard renders Payload into an Adaptive Card 1.3 document: a
// FactSet of already-answered visible values, an error TextBlock when
// Status is error, a title TextBlock plus one input element for the next
// question (if any), and exactly one Action.Submit — the single-field patch
// while a next question remains, otherwise the full submit-all.
func AdaptiveCard(p Payload) Card {
	card := Card{Type: "AdaptiveCard", Version: "1.3"}

	var facts []CardFact
	for _, q := range p.Questions {
		if !q.Visible || !q.HasValue {
			continue
		}
		facts = append(facts, CardFact{Title: q.Title, Value: stringifyCardValue(q.CurrentValue)})
	}
	if len(facts) > 0 {
		card.Body = append(card.Body, CardElement{Type: "FactSet", Facts: facts})
	}

	if p.Status == spec.StatusError {
		var msg string
		for _, e := range p.Errors {
			msg += e.Message + "; "
		}
		card.Body = append(card.Body, CardElement{Type: "TextBlock", Text: msg, Wrap: true})
	}

	// Exactly one Action.Submit per card (spec.md §8 scenario 6): while a
	// next question remains, only its single-field patch submit is offered;
	// the full submit-all action appears only once nothing is pending.
	next := findQuestion(p.Questions, p.NextQuestionID)
	if next != nil {
		card.Body = append(card.Body, questionTextBlock(*next))
		card.Body = append(card.Body, questionInput(*next))
		card.Actions = append(card.Actions, CardElement{
			Type: "Action.Submit", Title: "Submit",
			Data: qaSubmitEnvelope{QA: qaSubmitPayload{FormID: p.FormID, Mode: "patch", QuestionID: next.ID, Field: "answer"}},
		})
	} else {
		card.Actions = append(card.Actions, CardElement{
			Type: "Action.Submit", Title: "Submit all",
			Data: qaSubmitEnvelope{QA: qaSubmitPayload{FormID: p.FormID, Mode: "all"}},
		})
	}

	if p.I18nDebug {
		card.Metadata = &CardMetadata{QA: &CardQAMetadata{I18nDebug: true}}
	}

	return card
}

func questionTextBlock(q QuestionView) CardElement {
	text := q.Title
	if q.Required {
		text += " *"
	}
	return CardElement{Type: "TextBlock", Text: text, Wrap: true}
}

func questionInput(q QuestionView) CardElement {
	el := CardElement{ID: q.ID, IsRequired: q.Required}
	switch q.Type {
	case spec.TypeBoolean:
		el.Type = "Input.Toggle"
		el.Title = q.Title
		el.ValueOn = "true"
		el.ValueOff = "false"
		if b, ok := q.CurrentValue.(bool); ok && b {
			el.Value = "true"
		} else {
			el.Value = "false"
		}
	case spec.TypeEnum:
		el.Type = "Input.ChoiceSet"
		el.Style = "compact"
		for _, c := range q.Enum {
			el.Choices = append(el.Choices, CardChoice{Title: c, Value: c})
		}
		if q.CurrentValue != nil {
			el.Value = q.CurrentValue
		}
	default:
		el.Type = "Input.Text"
		el.Placeholder = q.Description
		if q.CurrentValue != nil {
			el.Value = q.CurrentValue
		} else if q.Default != nil {
			el.Value = q.Default
		}
	}
	return el
}

func stringifyCardValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return ""
	}
}
