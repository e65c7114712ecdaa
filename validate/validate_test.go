package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/qaengine/expr"
	"github.com/c360studio/qaengine/spec"
)

func minInt(n int) *int         { return &n }
func maxFloat(f float64) *float64 { return &f }

func baseOpts() Options {
	return Options{UnknownFields: Permissive, Scope: ScopeAll, VisibilityOnMissing: expr.OnMissingVisible}
}

func TestValidateMissingRequired(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{{ID: "name", Type: spec.TypeString, Required: true}}}
	res := Validate(fs, map[string]any{}, baseOpts())
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"name"}, res.MissingRequired)
}

func TestValidateHiddenQuestionNeverRequired(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{
		{ID: "gate", Type: spec.TypeBoolean},
		{ID: "detail", Type: spec.TypeString, Required: true, VisibleIf: "answer(\"gate\") == true"},
	}}
	res := Validate(fs, map[string]any{"gate": false}, baseOpts())
	assert.True(t, res.Valid)
	assert.Empty(t, res.MissingRequired)
}

func TestValidateStringConstraints(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{
		{ID: "code", Type: spec.TypeString, Pattern: "[A-Z]{3}", MinLen: minInt(3), MaxLen: minInt(5)},
	}}
	res := Validate(fs, map[string]any{"code": "ab"}, baseOpts())
	assert.False(t, res.Valid)
	var codes []string
	for _, e := range res.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, "pattern_mismatch")
	assert.Contains(t, codes, "min_len")
}

func TestValidateNumberRange(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{
		{ID: "age", Type: spec.TypeInteger, Min: maxFloat(0), Max: maxFloat(120)},
	}}
	res := Validate(fs, map[string]any{"age": 150.0}, baseOpts())
	assert.False(t, res.Valid)
	assert.Equal(t, "max", res.Errors[0].Code)
}

func TestValidateEnum(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{{ID: "color", Type: spec.TypeEnum, Enum: []string{"red", "blue"}}}}
	res := Validate(fs, map[string]any{"color": "green"}, baseOpts())
	assert.False(t, res.Valid)
	assert.Equal(t, "enum_mismatch", res.Errors[0].Code)
}

func TestValidateListRecord(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{
		{ID: "contacts", Type: spec.TypeList, MinItems: minInt(1), ItemField: []spec.ListItemField{
			{ID: "email", Type: spec.TypeString, Required: true},
		}},
	}}
	res := Validate(fs, map[string]any{"contacts": []any{map[string]any{}}}, baseOpts())
	assert.False(t, res.Valid)
	assert.Equal(t, "missing_required", res.Errors[0].Code)
	assert.Equal(t, "/contacts/0/email", res.Errors[0].Path)
}

func TestValidateUnknownFieldsStrict(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{{ID: "name", Type: spec.TypeString}}}
	opts := baseOpts()
	opts.UnknownFields = Strict
	res := Validate(fs, map[string]any{"name": "x", "extra": 1}, opts)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"extra"}, res.UnknownFields)
}

func TestValidateUnknownFieldsPermissiveStillReported(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{{ID: "name", Type: spec.TypeString}}}
	res := Validate(fs, map[string]any{"name": "x", "extra": 1}, baseOpts())
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"extra"}, res.UnknownFields)
}

func TestValidateCrossFieldIfThenRequired(t *testing.T) {
	fs := &spec.FormSpec{
		Questions: []spec.QuestionSpec{{ID: "has_other_insurance", Type: spec.TypeBoolean}, {ID: "other_insurer_name", Type: spec.TypeString}},
		CrossFieldRules: []spec.CrossFieldRule{
			{Kind: spec.RuleIfThenRequired, If: "has_other_insurance", Then: "other_insurer_name"},
		},
	}
	res := Validate(fs, map[string]any{"has_other_insurance": true}, baseOpts())
	assert.False(t, res.Valid)
	assert.Equal(t, "cross_field_required", res.Errors[0].Code)
}

func TestValidateCrossFieldAtLeastOneOf(t *testing.T) {
	fs := &spec.FormSpec{
		Questions: []spec.QuestionSpec{{ID: "email", Type: spec.TypeString}, {ID: "phone", Type: spec.TypeString}},
		CrossFieldRules: []spec.CrossFieldRule{
			{Kind: spec.RuleAtLeastOneOf, Questions: []string{"email", "phone"}},
		},
	}
	res := Validate(fs, map[string]any{}, baseOpts())
	assert.False(t, res.Valid)
	assert.Equal(t, "at_least_one_of", res.Errors[0].Code)

	res = Validate(fs, map[string]any{"phone": "555-0100"}, baseOpts())
	assert.True(t, res.Valid)
}

func TestValidatePatchScopeSkipsOtherQuestions(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{
		{ID: "a", Type: spec.TypeString, Required: true},
		{ID: "b", Type: spec.TypeString, Required: true},
	}}
	opts := Options{UnknownFields: Permissive, Scope: ScopePatch, PatchQuestionID: "a", VisibilityOnMissing: expr.OnMissingVisible}
	res := Validate(fs, map[string]any{"a": "x"}, opts)
	assert.True(t, res.Valid)
}

func TestValidateComputedFieldSkipped(t *testing.T) {
	fs := &spec.FormSpec{Questions: []spec.QuestionSpec{{ID: "total", Type: spec.TypeNumber, Required: true, Computed: "answer(\"a\") "}}}
	res := Validate(fs, map[string]any{}, baseOpts())
	assert.True(t, res.Valid)
}
