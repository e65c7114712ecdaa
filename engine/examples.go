package engine

import "github.com/c360studio/qaengine/spec"

// GetExampleAnswers synthesizes one plausible answer value per non-computed
// question of form_id (spec.md's get_example_answers). Values favor a
// question's own constraints (enum's first member, pattern-free strings,
// mid-range numbers) over arbitrary placeholders, so the result is a
// realistic starting point for hand-authored fixtures.
func (e *Engine) GetExampleAnswers(formID string) (map[string]any, error) {
	fs, err := e.lookup(formID)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for _, q := range fs.Questions {
		if q.Computed != "" {
			continue
		}
		out[q.ID] = exampleValue(q)
	}
	return out, nil
}

func exampleValue(q spec.QuestionSpec) any {
	switch q.Type {
	case spec.TypeString:
		return exampleString(q)
	case spec.TypeInteger:
		return int(exampleNumber(q.Min, q.Max, 1))
	case spec.TypeNumber:
		return exampleNumber(q.Min, q.Max, 1.5)
	case spec.TypeBoolean:
		return true
	case spec.TypeEnum:
		if len(q.Enum) > 0 {
			return q.Enum[0]
		}
		return ""
	case spec.TypeList:
		return []any{exampleItem(q.ItemField)}
	default:
		return nil
	}
}

func exampleString(q spec.QuestionSpec) string {
	if len(q.Enum) > 0 {
		return q.Enum[0]
	}
	s := "example " + q.ID
	if q.MaxLen != nil && len(s) > *q.MaxLen {
		s = s[:*q.MaxLen]
	}
	return s
}

func exampleNumber(min, max *float64, fallback float64) float64 {
	switch {
	case min != nil && max != nil:
		return (*min + *max) / 2
	case min != nil:
		return *min
	case max != nil:
		return *max
	default:
		return fallback
	}
}

func exampleItem(fields []spec.ListItemField) map[string]any {
	item := map[string]any{}
	for _, f := range fields {
		switch f.Type {
		case spec.TypeString:
			if len(f.Enum) > 0 {
				item[f.ID] = f.Enum[0]
			} else {
				item[f.ID] = "example " + f.ID
			}
		case spec.TypeInteger:
			item[f.ID] = int(exampleNumber(f.Min, f.Max, 1))
		case spec.TypeNumber:
			item[f.ID] = exampleNumber(f.Min, f.Max, 1.5)
		case spec.TypeBoolean:
			item[f.ID] = true
		case spec.TypeEnum:
			if len(f.Enum) > 0 {
				item[f.ID] = f.Enum[0]
			}
		}
	}
	return item
}
