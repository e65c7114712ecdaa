// Package errs defines the typed error categories used across the qa engine.
//
// Every engine-facing error carries a stable Code() string matching the
// error-code table in spec.md §6, so hosts can switch on the code rather than
// parse messages. Errors are grouped into five categories (spec.md §7):
// spec, template, policy, validation, and invariant errors. Only the last is
// unrecoverable by a caller; the rest are ordinary typed values. Validation
// findings are not defined here: they are package validate's Error values,
// collected in a Result rather than returned as Go errors.
package errs

import "fmt"

// Stable error codes (spec.md §6).
const (
	CodeSecretAccessDenied    = "secret_access_denied"
	CodeSecretHostUnavailable = "secret_host_unavailable"
	CodeIncludeCycleDetected  = "include_cycle_detected"
	CodeIncludeMissing        = "include_missing"
	CodeTemplateMissingKey    = "template_missing_key"
	CodeValidationFailed      = "validation_failed"
	CodeUnknownForm           = "unknown_form"
	CodeUnknownQuestion       = "unknown_question"
	CodeInvalidPatch          = "invalid_patch"
	CodePlanStale             = "plan_stale"
)

// Coded is satisfied by every error this package defines.
type Coded interface {
	error
	Code() string
}

// SpecError reports an authoring-time defect in a FormSpec or QAFlowSpec:
// duplicate ids, dangling references, include cycles. No partial spec is
// ever exposed to planners when a SpecError is returned from load.
type SpecError struct {
	ErrCode string
	Path    string
	Message string
}

func (e *SpecError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.ErrCode, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Message)
}

func (e *SpecError) Code() string { return e.ErrCode }

// ExprError is returned by the expression evaluator (spec.md §4.1). Every
// subexpression either produces a value or an ExprError; there are no panics
// and no partial evaluations.
type ExprError struct {
	ErrCode string
	Path    string
	Message string
}

func (e *ExprError) Error() string {
	return fmt.Sprintf("expr error at %s: %s", e.Path, e.Message)
}

func (e *ExprError) Code() string { return e.ErrCode }

// TemplateError is returned by the template engine (spec.md §4.2). A secret
// access denial never carries the secret's value.
type TemplateError struct {
	ErrCode string
	Key     string
	Message string
}

func (e *TemplateError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s: %s", e.ErrCode, e.Key)
	}
	return e.Message
}

func (e *TemplateError) Code() string { return e.ErrCode }

func MissingKey(path string) *TemplateError {
	return &TemplateError{ErrCode: CodeTemplateMissingKey, Key: path, Message: "missing key: " + path}
}

func SecretAccessDenied(key string) *TemplateError {
	return &TemplateError{ErrCode: CodeSecretAccessDenied, Key: key, Message: "secret access denied"}
}

func SecretHostUnavailable(key string) *TemplateError {
	return &TemplateError{ErrCode: CodeSecretHostUnavailable, Key: key, Message: "secret host unavailable"}
}

// PolicyError reports a secrets-policy denial outside of template
// resolution (e.g. a WriteSecret effect rejected by the executor). Never
// includes the attempted value.
type PolicyError struct {
	ErrCode string
	Path    string
	Message string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.ErrCode, e.Message, e.Path)
}

func (e *PolicyError) Code() string { return e.ErrCode }

// InvariantViolation reports a bug: an impossible branch, a corrupted plan,
// a structural contract broken by code that should have prevented it. It is
// surfaced as fatal and is never expected to be recovered from by a caller.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string {
	return "invariant violation: " + e.Message
}

func (e *InvariantViolation) Code() string { return "invariant_violation" }

// IncludeCycleDetected reports the full chain of form_refs forming a cycle.
type IncludeCycleDetected struct {
	Chain []string
}

func (e *IncludeCycleDetected) Error() string {
	return fmt.Sprintf("%s: %v", CodeIncludeCycleDetected, e.Chain)
}

func (e *IncludeCycleDetected) Code() string { return CodeIncludeCycleDetected }

// IncludeMissing reports a form_ref with no entry in the include registry.
type IncludeMissing struct {
	FormRef string
}

func (e *IncludeMissing) Error() string {
	return fmt.Sprintf("%s: %s", CodeIncludeMissing, e.FormRef)
}

func (e *IncludeMissing) Code() string { return CodeIncludeMissing }
