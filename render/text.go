package render

import (
	"fmt"
	"strings"

	"github.com/c360studio/qaengine/spec"
)

// Text renders Payload as the compact plain-text transport of spec.md
// §4.9: the next question's prompt (with a required marker and a (y/n)
// hint for booleans), a validation error summary when Status is error, and
// a trailing progress line. Output uses deterministic whitespace — one
// line per element, no trailing spaces.
func Text(p Payload) string {
	var b strings.Builder

	if p.Status == spec.StatusError {
		b.WriteString("validation failed:\n")
		for _, e := range p.Errors {
			fmt.Fprintf(&b, "  - %s: %s\n", e.Code, e.Message)
		}
	}

	if p.NextQuestionID != "" {
		q := findQuestion(p.Questions, p.NextQuestionID)
		if q != nil {
			b.WriteString(promptLine(*q))
			b.WriteString("\n")
		}
	} else if p.Status == spec.StatusComplete {
		b.WriteString("all required questions answered.\n")
	}

	fmt.Fprintf(&b, "progress: %d/%d\n", p.Progress.Answered, p.Progress.Total)

	return b.String()
}

func promptLine(q QuestionView) string {
	var b strings.Builder
	b.WriteString(q.Title)
	if q.Required {
		b.WriteString(" *")
	}
	if q.Type == spec.TypeBoolean {
		b.WriteString(" (y/n)")
	}
	if q.Type == spec.TypeEnum && len(q.Enum) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(q.Enum, "/"))
	}
	if q.Description != "" {
		fmt.Fprintf(&b, "\n  %s", q.Description)
	}
	return b.String()
}

func findQuestion(qs []QuestionView, id string) *QuestionView {
	for i := range qs {
		if qs[i].ID == id {
			return &qs[i]
		}
	}
	return nil
}
