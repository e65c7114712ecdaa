package spec

import "encoding/json"

// AnswerSet is the evolving JSON object holding user-supplied answers for one
// form (spec.md §3). Meta is opaque to the engine — timestamps, user info —
// and is carried through unexamined.
type AnswerSet struct {
	FormID      string          `json:"form_id"`
	SpecVersion string          `json:"spec_version"`
	Answers     map[string]any  `json:"answers"`
	Meta        json.RawMessage `json:"meta,omitempty"`
}

// Clone returns a deep copy so planners can hand back new state without ever
// aliasing the caller's AnswerSet (spec.md §5 "templates own their rendered
// strings", §8 purity).
func (a *AnswerSet) Clone() *AnswerSet {
	if a == nil {
		return nil
	}
	out := &AnswerSet{
		FormID:      a.FormID,
		SpecVersion: a.SpecVersion,
		Answers:     DeepCopyMap(a.Answers),
	}
	if a.Meta != nil {
		out.Meta = append(json.RawMessage(nil), a.Meta...)
	}
	return out
}

// Context is the {payload, state, config, answers, secrets?} bundle consumed
// by template resolution, expression evaluation, and storage mapping
// (spec.md §3). Secrets is nil unless the host provided it and policy
// permits; callers must never assume it is populated.
type Context struct {
	Payload any `json:"payload,omitempty"`
	State   any `json:"state,omitempty"`
	Config  any `json:"config,omitempty"`
	Answers any `json:"answers,omitempty"`
	Secrets any `json:"secrets,omitempty"`

	// Locale/I18nResolved/I18nDebug mirror the runtime context envelope in
	// spec.md §6; they are not part of the bare {payload,state,config,
	// answers,secrets} shape but travel alongside it to the renderers.
	Locale       string `json:"-"`
	I18nResolved bool   `json:"-"`
	I18nDebug    bool   `json:"-"`
}

// Clone deep-copies the four JSON buckets so a caller's Context can never be
// observed mutated by a planner call.
func (c Context) Clone() Context {
	c.Payload = DeepCopyValue(c.Payload)
	c.State = DeepCopyValue(c.State)
	c.Config = DeepCopyValue(c.Config)
	c.Answers = DeepCopyValue(c.Answers)
	c.Secrets = DeepCopyValue(c.Secrets)
	return c
}

// DeepCopyValue deep-copies an arbitrary decoded-JSON value (map[string]any,
// []any, or a scalar).
func DeepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return DeepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = DeepCopyValue(e)
		}
		return out
	default:
		return t
	}
}

// DeepCopyMap deep-copies a decoded-JSON object.
func DeepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = DeepCopyValue(v)
	}
	return out
}
