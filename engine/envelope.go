package engine

import (
	"encoding/json"
	"fmt"

	"github.com/c360studio/qaengine/spec"
)

// configEnvelopeShape is the richer `{form_spec_json, include_registry?}`
// shape of spec.md §6; ParseConfigEnvelope also accepts a raw FormSpec JSON
// document (legacy).
type configEnvelopeShape struct {
	FormSpecJSON    json.RawMessage            `json:"form_spec_json"`
	IncludeRegistry map[string]json.RawMessage `json:"include_registry"`
}

// ParseConfigEnvelope decodes raw into a FormSpec and its include registry
// (both forms of spec.md §6's config envelope). include_registry entries
// are decoded eagerly so a decode error surfaces at load time, never lazily
// during include expansion.
func ParseConfigEnvelope(raw json.RawMessage) (*spec.FormSpec, map[string]*spec.FormSpec, error) {
	var shape configEnvelopeShape
	if err := json.Unmarshal(raw, &shape); err == nil && len(shape.FormSpecJSON) > 0 {
		fs, err := decodeFormSpec(shape.FormSpecJSON)
		if err != nil {
			return nil, nil, err
		}
		registry := map[string]*spec.FormSpec{}
		for ref, subRaw := range shape.IncludeRegistry {
			sub, err := decodeFormSpec(subRaw)
			if err != nil {
				return nil, nil, fmt.Errorf("decode include_registry[%s]: %w", ref, err)
			}
			registry[ref] = sub
		}
		return fs, registry, nil
	}

	// Legacy form: raw is itself a FormSpec document.
	fs, err := decodeFormSpec(raw)
	if err != nil {
		return nil, nil, err
	}
	return fs, map[string]*spec.FormSpec{}, nil
}

func decodeFormSpec(raw json.RawMessage) (*spec.FormSpec, error) {
	var fs spec.FormSpec
	if err := json.Unmarshal(raw, &fs); err != nil {
		return nil, fmt.Errorf("decode form spec: %w", err)
	}
	return &fs, nil
}

// contextEnvelopeShape is the richer runtime context envelope of spec.md
// §6: `{ctx: {...}, locale?, i18n_resolved?, i18n_debug?}`. Unknown fields
// are ignored for forward compatibility, matching json.Unmarshal's default
// behavior on a named struct.
type contextEnvelopeShape struct {
	Ctx          *rawContext `json:"ctx"`
	Locale       string      `json:"locale"`
	I18nResolved bool        `json:"i18n_resolved"`
	I18nDebug    bool        `json:"i18n_debug"`
}

type rawContext struct {
	Payload any `json:"payload"`
	State   any `json:"state"`
	Config  any `json:"config"`
	Answers any `json:"answers"`
	Secrets any `json:"secrets"`
}

// ParseContextEnvelope decodes raw into a spec.Context, accepting either the
// enveloped `{ctx, locale?, ...}` shape or a direct `{payload,state,...}`
// context object (legacy).
func ParseContextEnvelope(raw json.RawMessage) (spec.Context, error) {
	var shape contextEnvelopeShape
	if err := json.Unmarshal(raw, &shape); err == nil && shape.Ctx != nil {
		return spec.Context{
			Payload: shape.Ctx.Payload, State: shape.Ctx.State, Config: shape.Ctx.Config,
			Answers: shape.Ctx.Answers, Secrets: shape.Ctx.Secrets,
			Locale: shape.Locale, I18nResolved: shape.I18nResolved, I18nDebug: shape.I18nDebug,
		}, nil
	}

	var direct rawContext
	if err := json.Unmarshal(raw, &direct); err != nil {
		return spec.Context{}, fmt.Errorf("decode context envelope: %w", err)
	}
	return spec.Context{
		Payload: direct.Payload, State: direct.State, Config: direct.Config,
		Answers: direct.Answers, Secrets: direct.Secrets,
	}, nil
}
