// Package spec defines the data model of spec.md §3: FormSpec, QuestionSpec,
// QAFlowSpec, AnswerSet, Context, StoreOp, SecretsPolicy, ProgressPolicy, and
// Plan. Types here are plain data — no behavior beyond (de)serialization and
// the small structural helpers (id uniqueness, JSON-pointer addressing) that
// every other package needs and that do not belong to any one of them.
//
// Specs are immutable once loaded: nothing in this package mutates a FormSpec
// or QAFlowSpec in place. Include expansion (package include) produces a new,
// derived spec value.
package spec

import "encoding/json"

// QuestionType enumerates the question kinds named in spec.md §3.
type QuestionType string

const (
	TypeString  QuestionType = "string"
	TypeInteger QuestionType = "integer"
	TypeNumber  QuestionType = "number"
	TypeBoolean QuestionType = "boolean"
	TypeEnum    QuestionType = "enum"
	TypeList    QuestionType = "list" // list<record>
)

// Urgency is a purely informational SLA hint (supplemental to spec.md,
// grounded on the teacher's workflow.QuestionUrgency). It never affects
// visibility, validation, or progress semantics.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyNormal   Urgency = "normal"
	UrgencyHigh     Urgency = "high"
	UrgencyBlocking Urgency = "blocking"
)

// ListItemField describes one field of a list<record> question's per-item
// schema. Its Type may be any scalar QuestionType (not TypeList — records do
// not nest).
type ListItemField struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Title    string       `json:"title,omitempty"`
	Required bool         `json:"required,omitempty"`

	Pattern string   `json:"pattern,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	MinLen  *int     `json:"min_len,omitempty"`
	MaxLen  *int     `json:"max_len,omitempty"`
	Enum    []string `json:"enum,omitempty"`
}

// QuestionSpec is one question in a FormSpec's ordered sequence.
type QuestionSpec struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required,omitempty"`
	Secret      bool         `json:"secret,omitempty"`

	// Constraints, type-appropriate; unused fields for a given Type are
	// simply left zero.
	Pattern   string   `json:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLen    *int     `json:"min_len,omitempty"`
	MaxLen    *int     `json:"max_len,omitempty"`
	Enum      []string `json:"enum,omitempty"`
	MinItems  *int     `json:"min_items,omitempty"`
	MaxItems  *int     `json:"max_items,omitempty"`
	ItemField []ListItemField `json:"item_fields,omitempty"`

	// Default is a templated string (or raw JSON literal) resolved against
	// the Context at progress/planning time.
	Default *TemplateValue `json:"default,omitempty"`

	// VisibleIf, if present, is parsed and evaluated by package expr.
	VisibleIf string `json:"visible_if,omitempty"`

	// Computed, if present, marks this question as a non-editable derived
	// value: it is never returned by the progress engine as the next
	// prompt, and is always populated via a SetAnswer effect.
	Computed string `json:"computed,omitempty"`

	// Urgency is informational only (see Urgency doc comment).
	Urgency Urgency `json:"urgency,omitempty"`

	TitleI18n       map[string]string `json:"title_i18n,omitempty"`
	DescriptionI18n map[string]string `json:"description_i18n,omitempty"`
}

// TemplateValue is either a raw JSON literal or a Handlebars-flavored
// template string. When Template is non-empty it takes precedence over
// Literal; this mirrors StoreOp.Value in spec.md §3.
type TemplateValue struct {
	Template string          `json:"template,omitempty"`
	Literal  json.RawMessage `json:"literal,omitempty"`
}

// IsTemplate reports whether this value must be resolved through the
// template engine rather than used as a literal.
func (t *TemplateValue) IsTemplate() bool {
	return t != nil && t.Template != ""
}

// UnmarshalJSON accepts either a bare JSON value (treated as Literal) or an
// object {"template": "..."} / {"literal": ...}, so authors can write
// `"default": "static text"` without the verbose object form.
func (t *TemplateValue) UnmarshalJSON(data []byte) error {
	var probe struct {
		Template *string         `json:"template"`
		Literal  json.RawMessage `json:"literal"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && (probe.Template != nil || probe.Literal != nil) {
		if probe.Template != nil {
			t.Template = *probe.Template
		}
		t.Literal = probe.Literal
		return nil
	}
	t.Template = ""
	t.Literal = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits the object form canonically so round-trips are stable.
func (t TemplateValue) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}
	if t.Template != "" {
		tb, _ := json.Marshal(t.Template)
		out["template"] = tb
	}
	if len(t.Literal) > 0 {
		out["literal"] = t.Literal
	}
	return json.Marshal(out)
}

// ProgressPolicy controls how the progress engine (package progress) skips
// already-satisfied questions (spec.md §3, §4.6).
type ProgressPolicy struct {
	SkipAnswered           bool     `json:"skip_answered,omitempty"`
	AutofillDefaults       bool     `json:"autofill_defaults,omitempty"`
	TreatDefaultAsAnswered bool     `json:"treat_default_as_answered,omitempty"`
	SkipIfPresentIn        []string `json:"skip_if_present_in,omitempty"` // subset of answers|config|state
	EditableIfFromDefault  bool     `json:"editable_if_from_default,omitempty"`
}

// SecretsPolicy gates secret reads/writes (spec.md §3, §4.3). All booleans
// default false: a spec with no secrets_policy block permits nothing.
type SecretsPolicy struct {
	Enabled      bool     `json:"enabled,omitempty"`
	ReadEnabled  bool     `json:"read_enabled,omitempty"`
	WriteEnabled bool     `json:"write_enabled,omitempty"`
	Allow        []string `json:"allow,omitempty"`
	Deny         []string `json:"deny,omitempty"`
}

// FormSpec is the linear questionnaire form (spec.md §3).
type FormSpec struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Intro       string `json:"intro,omitempty"`

	ProgressPolicy ProgressPolicy `json:"progress_policy,omitempty"`
	SecretsPolicy  SecretsPolicy  `json:"secrets_policy,omitempty"`

	Questions []QuestionSpec `json:"questions"`

	// Include lists form_refs to expand depth-first, in declaration order,
	// before this form's own Questions (package include does the expansion).
	Include []string `json:"include,omitempty"`

	// CrossFieldRules are the declarative cross-field checks of spec.md
	// §4.5: "if A then B required" and "at_least_one_of [X, Y, ...]".
	CrossFieldRules []CrossFieldRule `json:"cross_field_rules,omitempty"`

	// Store is the form's declared store[] (spec.md §3/§4.7): an ordered list
	// of JSON-pointer writes against answers/state/config/payload_out,
	// resolved and applied by package store once a submission validates.
	// Included sub-forms' Store lists are merged ahead of this form's own by
	// package include, the same way Questions are merged.
	Store []StoreOp `json:"store,omitempty"`

	DefaultLocale string `json:"default_locale,omitempty"`
}

// CrossFieldRuleKind discriminates the two cross-field rule shapes spec.md
// §4.5 names.
type CrossFieldRuleKind string

const (
	RuleIfThenRequired CrossFieldRuleKind = "if_then_required"
	RuleAtLeastOneOf   CrossFieldRuleKind = "at_least_one_of"
)

// CrossFieldRule is one declarative cross-field validation rule.
type CrossFieldRule struct {
	Kind CrossFieldRuleKind `json:"kind"`

	// if_then_required
	If   string `json:"if,omitempty"`
	Then string `json:"then,omitempty"`

	// at_least_one_of
	Questions []string `json:"questions,omitempty"`

	Message string `json:"message,omitempty"`
}

// QuestionIndex returns the position of id within fs.Questions, or -1.
func (fs *FormSpec) QuestionIndex(id string) int {
	for i, q := range fs.Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// DuplicateQuestionIDs returns every question id that appears more than once,
// in first-offending-occurrence order. An empty result means the invariant
// "question ids are unique within a spec" holds.
func (fs *FormSpec) DuplicateQuestionIDs() []string {
	seen := map[string]int{}
	var dups []string
	for _, q := range fs.Questions {
		seen[q.ID]++
		if seen[q.ID] == 2 {
			dups = append(dups, q.ID)
		}
	}
	return dups
}
