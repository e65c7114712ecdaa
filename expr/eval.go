package expr

import (
	"strings"

	"github.com/c360studio/qaengine/errs"
)

// VisibilityOnMissing selects the outcome of ResolveVisibility when a
// visible_if expression cannot be evaluated to a boolean — a parse error, a
// non-boolean result, or any other ExprError (spec.md §4.1). A missing
// answer path is not such a case: answer() reads it as null. It is an explicit parameter, never a
// compile-time switch, because interactive and validation-only call sites
// choose different defaults (spec.md "Open questions").
type VisibilityOnMissing string

const (
	OnMissingVisible VisibilityOnMissing = "visible"
	OnMissingHidden  VisibilityOnMissing = "hidden"
	OnMissingError   VisibilityOnMissing = "error"
)

// Eval evaluates expr against answers (a decoded JSON value, typically
// map[string]any) and returns a string, float64, bool, or nil. Evaluation
// never panics and never mutates answers.
func Eval(e Expr, answers any) (any, error) {
	switch n := e.(type) {
	case Literal:
		return n.Value, nil

	case AnswerRef:
		v, _ := lookupPath(answers, n.Path)
		return v, nil

	case IsSet:
		_, ok := lookupPath(answers, n.Path)
		return ok, nil

	case Not:
		v, err := Eval(n.X, answers)
		if err != nil {
			return nil, err
		}
		b, ok := v.(bool)
		if !ok {
			return nil, &errs.ExprError{ErrCode: "expr_type_error", Message: "not: operand is not boolean"}
		}
		return !b, nil

	case BinOp:
		return evalBinOp(n, answers)

	default:
		return nil, &errs.ExprError{ErrCode: "expr_type_error", Message: "unknown expression node"}
	}
}

func evalBinOp(n BinOp, answers any) (any, error) {
	switch n.Op {
	case "and", "or":
		l, err := Eval(n.L, answers)
		if err != nil {
			return nil, err
		}
		lb, ok := l.(bool)
		if !ok {
			return nil, &errs.ExprError{ErrCode: "expr_type_error", Message: n.Op + ": left operand is not boolean"}
		}
		if n.Op == "and" && !lb {
			return false, nil
		}
		if n.Op == "or" && lb {
			return true, nil
		}
		r, err := Eval(n.R, answers)
		if err != nil {
			return nil, err
		}
		rb, ok := r.(bool)
		if !ok {
			return nil, &errs.ExprError{ErrCode: "expr_type_error", Message: n.Op + ": right operand is not boolean"}
		}
		return rb, nil
	}

	l, err := Eval(n.L, answers)
	if err != nil {
		return nil, err
	}
	r, err := Eval(n.R, answers)
	if err != nil {
		return nil, err
	}
	return compare(n.Op, l, r)
}

// compare implements spec.md §4.1's coercion rule: comparisons require both
// sides to share a primitive type, or one side is null, else the result is
// false (true for !=). Relational operators on a null operand are always
// false — there is no ordering on the absence of a value.
func compare(op string, l, r any) (any, error) {
	if l == nil || r == nil {
		switch op {
		case "==":
			return l == nil && r == nil, nil
		case "!=":
			return !(l == nil && r == nil), nil
		default:
			return false, nil
		}
	}

	switch lv := l.(type) {
	case string:
		rv, ok := r.(string)
		if !ok {
			return mismatchResult(op), nil
		}
		switch op {
		case "==":
			return lv == rv, nil
		case "!=":
			return lv != rv, nil
		case "<":
			return lv < rv, nil
		case "<=":
			return lv <= rv, nil
		case ">":
			return lv > rv, nil
		case ">=":
			return lv >= rv, nil
		}

	case float64:
		rv, ok := r.(float64)
		if !ok {
			return mismatchResult(op), nil
		}
		switch op {
		case "==":
			return lv == rv, nil
		case "!=":
			return lv != rv, nil
		case "<":
			return lv < rv, nil
		case "<=":
			return lv <= rv, nil
		case ">":
			return lv > rv, nil
		case ">=":
			return lv >= rv, nil
		}

	case bool:
		rv, ok := r.(bool)
		if !ok {
			return mismatchResult(op), nil
		}
		switch op {
		case "==":
			return lv == rv, nil
		case "!=":
			return lv != rv, nil
		default:
			return false, nil
		}
	}

	return mismatchResult(op), nil
}

// mismatchResult returns the deterministic outcome for comparisons between
// two non-null values of different primitive types: never equal.
func mismatchResult(op string) bool {
	return op == "!="
}

// lookupPath resolves a dotted path ("section.id") against a decoded JSON
// value. Missing segments return (nil, false) rather than an error — the
// caller (answer()/is_set()) decides what that means.
func lookupPath(root any, path string) (any, bool) {
	cur := root
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// ResolveVisibility parses and evaluates a visible_if expression, applying
// policy when evaluation cannot produce a boolean (spec.md §4.1). An empty
// expr string means "always visible".
func ResolveVisibility(exprStr string, answers any, policy VisibilityOnMissing) (bool, error) {
	if exprStr == "" {
		return true, nil
	}
	tree, err := Parse(exprStr, "visible_if")
	if err != nil {
		return onMissing(policy, err)
	}
	v, err := Eval(tree, answers)
	if err != nil {
		return onMissing(policy, err)
	}
	b, ok := v.(bool)
	if !ok {
		return onMissing(policy, &errs.ExprError{ErrCode: "expr_type_error", Message: "visible_if did not evaluate to a boolean"})
	}
	return b, nil
}

func onMissing(policy VisibilityOnMissing, err error) (bool, error) {
	switch policy {
	case OnMissingHidden:
		return false, nil
	case OnMissingError:
		return false, err
	default: // OnMissingVisible, and any unspecified value
		return true, nil
	}
}
