// Package validate implements the per-field, cross-field, and unknown-field
// validation of spec.md §4.5. Results are collected, never fail-fast — one
// call returns every finding, grounded on the teacher's
// workflow/validation.Validator ("named requirement structs producing
// structured, collected results").
package validate

import (
	"fmt"
	"regexp"

	"github.com/c360studio/qaengine/expr"
	"github.com/c360studio/qaengine/spec"
)

// UnknownFieldMode selects whether unrecognized top-level answer keys are
// fatal (Strict) or merely reported (Permissive).
type UnknownFieldMode string

const (
	Strict     UnknownFieldMode = "strict"
	Permissive UnknownFieldMode = "permissive"
)

// Scope selects how much of the answer set is (re-)checked: Patch mode
// re-checks only the submitted field plus cross-field rules that reference
// it; All mode checks every question.
type Scope string

const (
	ScopePatch Scope = "patch"
	ScopeAll   Scope = "all"
)

// Options configures one Validate call. VisibilityOnMissing is passed
// through to the expression evaluator for every visible_if check — an
// explicit parameter per call site, never a compile-time default (spec.md
// §4.1 Open Questions).
type Options struct {
	UnknownFields       UnknownFieldMode
	Scope               Scope
	VisibilityOnMissing expr.VisibilityOnMissing
	// PatchQuestionID names the single field under test when Scope ==
	// ScopePatch; ignored otherwise.
	PatchQuestionID string
}

// Error is one validation finding, always pointing at the exact JSON
// location (spec.md §4.5).
type Error struct {
	QuestionID string `json:"question_id,omitempty"`
	Path       string `json:"path"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Result is the outcome of one Validate call (spec.md §4.5).
type Result struct {
	Valid           bool     `json:"valid"`
	Errors          []Error  `json:"errors"`
	MissingRequired []string `json:"missing_required"`
	UnknownFields   []string `json:"unknown_fields"`
	Warnings        []string `json:"warnings,omitempty"`
}

// Validate checks answers against fs (an already include-expanded spec)
// under opts. It never mutates fs or answers.
func Validate(fs *spec.FormSpec, answers map[string]any, opts Options) Result {
	res := Result{Valid: true}

	inScope := func(id string) bool {
		return opts.Scope == ScopeAll || id == opts.PatchQuestionID
	}

	for _, q := range fs.Questions {
		if q.Computed != "" {
			// Computed fields are never directly validated; see
			// unknownFields's note on incoming values for computed ids.
			continue
		}
		visible, err := expr.ResolveVisibility(q.VisibleIf, answers, opts.VisibilityOnMissing)
		if err != nil {
			res.Errors = append(res.Errors, Error{
				QuestionID: q.ID, Path: "/" + q.ID, Code: "visibility_error", Message: err.Error(),
			})
			res.Valid = false
			continue
		}
		if !visible {
			continue
		}
		if !inScope(q.ID) {
			continue
		}

		val, present := answers[q.ID]

		if q.Required && !present {
			res.MissingRequired = append(res.MissingRequired, q.ID)
			res.Errors = append(res.Errors, Error{
				QuestionID: q.ID, Path: "/" + q.ID, Code: "missing_required",
				Message: "required question has no answer",
			})
			res.Valid = false
			continue
		}
		if !present {
			continue
		}

		if errs := validateField(q, val); len(errs) > 0 {
			res.Errors = append(res.Errors, errs...)
			res.Valid = false
		}
	}

	unknownIDs, unknownErrs := unknownFields(fs, answers, opts.UnknownFields)
	res.UnknownFields = append(res.UnknownFields, unknownIDs...)
	if len(unknownErrs) > 0 {
		res.Errors = append(res.Errors, unknownErrs...)
		res.Valid = false
	}

	if crossErrs := crossFieldErrors(fs, answers, opts); len(crossErrs) > 0 {
		res.Errors = append(res.Errors, crossErrs...)
		res.Valid = false
	}

	return res
}

// unknownFields reports top-level answer keys that name no question in fs.
// Per spec.md's Open Question, a key naming a computed field is never
// flagged as unknown — it is silently ignored (a warning is not raised
// here; that is left to the caller composing render/plan output, since this
// function reports only the unknown-field finding itself).
func unknownFields(fs *spec.FormSpec, answers map[string]any, mode UnknownFieldMode) ([]string, []Error) {
	known := map[string]bool{}
	for _, q := range fs.Questions {
		known[q.ID] = true
	}

	var unknown []string
	for k := range answers {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}

	if mode != Strict || len(unknown) == 0 {
		return unknown, nil
	}
	errsOut := make([]Error, 0, len(unknown))
	for _, k := range unknown {
		errsOut = append(errsOut, Error{Path: "/" + k, Code: "unknown_fields", Message: "unrecognized field: " + k})
	}
	return unknown, errsOut
}

func crossFieldErrors(fs *spec.FormSpec, answers map[string]any, opts Options) []Error {
	var out []Error
	for _, rule := range fs.CrossFieldRules {
		if opts.Scope == ScopePatch && !ruleReferences(rule, opts.PatchQuestionID) {
			continue
		}
		switch rule.Kind {
		case spec.RuleIfThenRequired:
			ifVal, ifPresent := answers[rule.If]
			if !ifPresent || isEmptyValue(ifVal) {
				continue
			}
			if thenVal, ok := answers[rule.Then]; !ok || isEmptyValue(thenVal) {
				out = append(out, Error{
					QuestionID: rule.Then, Path: "/" + rule.Then, Code: "cross_field_required",
					Message: crossFieldMessage(rule, fmt.Sprintf("%s requires %s", rule.If, rule.Then)),
				})
			}
		case spec.RuleAtLeastOneOf:
			any := false
			for _, id := range rule.Questions {
				if v, ok := answers[id]; ok && !isEmptyValue(v) {
					any = true
					break
				}
			}
			if !any {
				out = append(out, Error{
					Path: "/" + firstOr(rule.Questions, ""), Code: "at_least_one_of",
					Message: crossFieldMessage(rule, fmt.Sprintf("at least one of %v is required", rule.Questions)),
				})
			}
		}
	}
	return out
}

func crossFieldMessage(rule spec.CrossFieldRule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}

func ruleReferences(rule spec.CrossFieldRule, questionID string) bool {
	switch rule.Kind {
	case spec.RuleIfThenRequired:
		return rule.If == questionID || rule.Then == questionID
	case spec.RuleAtLeastOneOf:
		for _, id := range rule.Questions {
			if id == questionID {
				return true
			}
		}
	}
	return false
}

func firstOr(s []string, def string) string {
	if len(s) == 0 {
		return def
	}
	return s[0]
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}

// validateField runs the per-type checks of spec.md §4.5 against a present
// value.
func validateField(q spec.QuestionSpec, val any) []Error {
	path := "/" + q.ID
	switch q.Type {
	case spec.TypeString:
		s, ok := val.(string)
		if !ok {
			return []Error{{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected string"}}
		}
		var out []Error
		if q.Pattern != "" {
			re, err := regexp.Compile("^(?:" + q.Pattern + ")$")
			if err != nil || !re.MatchString(s) {
				out = append(out, Error{QuestionID: q.ID, Path: path, Code: "pattern_mismatch", Message: "value does not match pattern"})
			}
		}
		if q.MinLen != nil && len([]rune(s)) < *q.MinLen {
			out = append(out, Error{QuestionID: q.ID, Path: path, Code: "min_len", Message: "value too short"})
		}
		if q.MaxLen != nil && len([]rune(s)) > *q.MaxLen {
			out = append(out, Error{QuestionID: q.ID, Path: path, Code: "max_len", Message: "value too long"})
		}
		return out

	case spec.TypeInteger, spec.TypeNumber:
		var n float64
		switch t := val.(type) {
		case float64:
			n = t
		case int:
			n = float64(t)
		case int64:
			n = float64(t)
		default:
			return []Error{{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected number"}}
		}
		var out []Error
		if q.Type == spec.TypeInteger && n != float64(int64(n)) {
			out = append(out, Error{QuestionID: q.ID, Path: path, Code: "not_integer", Message: "expected an integer value"})
		}
		if q.Min != nil && n < *q.Min {
			out = append(out, Error{QuestionID: q.ID, Path: path, Code: "min", Message: "value below minimum"})
		}
		if q.Max != nil && n > *q.Max {
			out = append(out, Error{QuestionID: q.ID, Path: path, Code: "max", Message: "value above maximum"})
		}
		return out

	case spec.TypeBoolean:
		if _, ok := val.(bool); !ok {
			return []Error{{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected boolean"}}
		}
		return nil

	case spec.TypeEnum:
		s, ok := val.(string)
		if !ok {
			return []Error{{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected string"}}
		}
		for _, e := range q.Enum {
			if e == s {
				return nil
			}
		}
		return []Error{{QuestionID: q.ID, Path: path, Code: "enum_mismatch", Message: "value is not a permitted option"}}

	case spec.TypeList:
		items, ok := val.([]any)
		if !ok {
			return []Error{{QuestionID: q.ID, Path: path, Code: "type_mismatch", Message: "expected a list"}}
		}
		var out []Error
		if q.MinItems != nil && len(items) < *q.MinItems {
			out = append(out, Error{QuestionID: q.ID, Path: path, Code: "min_items", Message: "too few items"})
		}
		if q.MaxItems != nil && len(items) > *q.MaxItems {
			out = append(out, Error{QuestionID: q.ID, Path: path, Code: "max_items", Message: "too many items"})
		}
		for i, item := range items {
			record, ok := item.(map[string]any)
			if !ok {
				out = append(out, Error{QuestionID: q.ID, Path: fmt.Sprintf("%s/%d", path, i), Code: "type_mismatch", Message: "expected an object"})
				continue
			}
			for _, field := range q.ItemField {
				itemPath := fmt.Sprintf("%s/%d/%s", path, i, field.ID)
				fv, present := record[field.ID]
				if field.Required && !present {
					out = append(out, Error{QuestionID: q.ID, Path: itemPath, Code: "missing_required", Message: "required item field has no value"})
					continue
				}
				if !present {
					continue
				}
				out = append(out, validateItemField(q.ID, itemPath, field, fv)...)
			}
		}
		return out
	}
	return nil
}

func validateItemField(questionID, path string, field spec.ListItemField, val any) []Error {
	q := spec.QuestionSpec{
		ID: questionID, Type: field.Type, Pattern: field.Pattern,
		Min: field.Min, Max: field.Max, MinLen: field.MinLen, MaxLen: field.MaxLen, Enum: field.Enum,
	}
	out := validateField(q, val)
	for i := range out {
		out[i].Path = path
	}
	return out
}
