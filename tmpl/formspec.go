package tmpl

import (
	"encoding/json"

	"github.com/c360studio/qaengine/spec"
)

// ResolveValue resolves a spec.TemplateValue against ctx: a Template string
// is run through ResolveString and the result wrapped as a JSON string; a
// Literal is returned unchanged. Returns the decoded JSON value (so a
// resolved literal number stays a number, not "3").
func ResolveValue(tv *spec.TemplateValue, ctx Context, mode Mode) (any, error) {
	if tv == nil {
		return nil, nil
	}
	if tv.IsTemplate() {
		s, err := ResolveString(tv.Template, ctx, mode)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	if len(tv.Literal) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(tv.Literal, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ResolveFormSpec returns a new FormSpec with every templated string field
// (title, description, intro, and each question's title/description)
// resolved against ctx. The input spec is never mutated (spec.md §4.2).
func ResolveFormSpec(fs *spec.FormSpec, ctx Context, mode Mode) (*spec.FormSpec, error) {
	out := *fs
	out.Questions = make([]spec.QuestionSpec, len(fs.Questions))
	copy(out.Questions, fs.Questions)

	var err error
	if out.Title, err = ResolveString(fs.Title, ctx, mode); err != nil {
		return nil, err
	}
	if out.Description, err = ResolveString(fs.Description, ctx, mode); err != nil {
		return nil, err
	}
	if out.Intro, err = ResolveString(fs.Intro, ctx, mode); err != nil {
		return nil, err
	}

	for i, q := range fs.Questions {
		rq := q
		if rq.Title, err = ResolveString(q.Title, ctx, mode); err != nil {
			return nil, err
		}
		if rq.Description, err = ResolveString(q.Description, ctx, mode); err != nil {
			return nil, err
		}
		out.Questions[i] = rq
	}
	return &out, nil
}

// LocalizedTitle resolves a question's display title for locale, falling
// back to the form's default locale, then the raw Title field (spec.md
// §4.9 i18n rule, shared by the template layer and the renderers).
func LocalizedTitle(q spec.QuestionSpec, locale, defaultLocale string) string {
	return localized(q.TitleI18n, q.Title, locale, defaultLocale)
}

// LocalizedDescription is the description analogue of LocalizedTitle.
func LocalizedDescription(q spec.QuestionSpec, locale, defaultLocale string) string {
	return localized(q.DescriptionI18n, q.Description, locale, defaultLocale)
}

func localized(table map[string]string, raw, locale, defaultLocale string) string {
	if locale != "" {
		if v, ok := table[locale]; ok {
			return v
		}
	}
	if defaultLocale != "" {
		if v, ok := table[defaultLocale]; ok {
			return v
		}
	}
	return raw
}
