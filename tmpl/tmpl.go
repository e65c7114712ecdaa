// Package tmpl implements the Handlebars-flavored template engine of
// spec.md §4.2: `{{...}}` expressions resolved against a canonical
// {payload, state, config, answers, secrets} context, with registered
// helpers (get, default, eq, and, or, not, len, json) and strict/relaxed
// missing-key modes. Secret reads are brokered through package secrets; a
// denied read never interpolates or logs the secret's value.
package tmpl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/c360studio/qaengine/errs"
	"github.com/c360studio/qaengine/secrets"
	"github.com/c360studio/qaengine/spec"
)

// Mode selects missing-key behavior (spec.md §4.2).
type Mode string

const (
	Strict  Mode = "strict"
	Relaxed Mode = "relaxed"
)

// Context is the root namespace template expressions resolve dotted paths
// against: "answers.id", "state.foo", "secrets.key", etc.
type Context struct {
	root   map[string]any
	policy *secrets.Policy
}

// NewContext builds a template Context from a spec.Context. policy may be
// nil, in which case every secrets.* read is denied.
func NewContext(ctx spec.Context, policy *secrets.Policy) Context {
	return Context{
		root: map[string]any{
			"payload": ctx.Payload,
			"state":   ctx.State,
			"config":  ctx.Config,
			"answers": ctx.Answers,
			"secrets": ctx.Secrets,
		},
		policy: policy,
	}
}

// ResolveString resolves every {{...}} expression in src, returning the
// fully-interpolated string. Non-template text passes through unchanged.
func ResolveString(src string, ctx Context, mode Mode) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(src) {
		start := strings.Index(src[i:], "{{")
		if start < 0 {
			out.WriteString(src[i:])
			break
		}
		out.WriteString(src[i : i+start])
		rest := src[i+start+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			return "", &errs.TemplateError{ErrCode: "template_syntax_error", Message: "unterminated {{ in template"}
		}
		expr := strings.TrimSpace(rest[:end])
		val, err := evalExpr(expr, ctx, mode)
		if err != nil {
			return "", err
		}
		out.WriteString(stringify(val))
		i = i + start + 2 + end + 2
	}
	return out.String(), nil
}

var helperNames = map[string]bool{
	"get": true, "default": true, "eq": true, "and": true,
	"or": true, "not": true, "len": true, "json": true,
}

func evalExpr(expr string, ctx Context, mode Mode) (any, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, &errs.TemplateError{ErrCode: "template_syntax_error", Message: "empty expression"}
	}

	if !helperNames[toks[0]] {
		// Bare path reference.
		if len(toks) != 1 {
			return nil, &errs.TemplateError{ErrCode: "template_syntax_error", Message: "unknown helper " + toks[0]}
		}
		return resolvePath(toks[0], ctx, mode)
	}

	name := toks[0]
	args := toks[1:]
	switch name {
	case "get":
		if len(args) < 1 || len(args) > 2 {
			return nil, badArgs("get")
		}
		v, err := resolvePathMaybeMissing(args[0], ctx)
		if err != nil {
			return nil, err
		}
		if v == missingSentinel {
			if len(args) == 2 {
				return resolveArg(args[1], ctx, mode)
			}
			if mode == Strict {
				return nil, errs.MissingKey(args[0])
			}
			return "", nil
		}
		return v, nil

	case "default":
		if len(args) != 2 {
			return nil, badArgs("default")
		}
		a, err := resolveArg(args[0], ctx, mode)
		if err != nil {
			return nil, err
		}
		if isFalsy(a) {
			return resolveArg(args[1], ctx, mode)
		}
		return a, nil

	case "eq":
		if len(args) != 2 {
			return nil, badArgs("eq")
		}
		a, err := resolveArg(args[0], ctx, mode)
		if err != nil {
			return nil, err
		}
		b, err := resolveArg(args[1], ctx, mode)
		if err != nil {
			return nil, err
		}
		return fmt.Sprint(a) == fmt.Sprint(b), nil

	case "and", "or":
		if len(args) != 2 {
			return nil, badArgs(name)
		}
		a, err := resolveArg(args[0], ctx, mode)
		if err != nil {
			return nil, err
		}
		b, err := resolveArg(args[1], ctx, mode)
		if err != nil {
			return nil, err
		}
		if name == "and" {
			return !isFalsy(a) && !isFalsy(b), nil
		}
		return !isFalsy(a) || !isFalsy(b), nil

	case "not":
		if len(args) != 1 {
			return nil, badArgs("not")
		}
		a, err := resolveArg(args[0], ctx, mode)
		if err != nil {
			return nil, err
		}
		return isFalsy(a), nil

	case "len":
		if len(args) != 1 {
			return nil, badArgs("len")
		}
		a, err := resolveArg(args[0], ctx, mode)
		if err != nil {
			return nil, err
		}
		return length(a), nil

	case "json":
		if len(args) != 1 {
			return nil, badArgs("json")
		}
		a, err := resolveArg(args[0], ctx, mode)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(a)
		if err != nil {
			return nil, &errs.TemplateError{ErrCode: "template_bad_helper_arg", Message: "json: " + err.Error()}
		}
		return string(b), nil
	}

	return nil, &errs.TemplateError{ErrCode: "template_syntax_error", Message: "unhandled helper " + name}
}

func badArgs(name string) error {
	return &errs.TemplateError{ErrCode: "template_bad_helper_arg", Message: name + ": wrong argument count"}
}

// resolveArg resolves one helper argument: a quoted string literal, true,
// false, null, a number, or a dotted path.
func resolveArg(tok string, ctx Context, mode Mode) (any, error) {
	if lit, ok := unquote(tok); ok {
		return lit, nil
	}
	switch tok {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f, nil
	}
	return resolvePath(tok, ctx, mode)
}

const missingSentinel = "\x00__tmpl_missing__"

// resolvePath resolves a dotted path and applies strict/relaxed behavior to
// a missing key directly (used for bare {{path}} references).
func resolvePath(path string, ctx Context, mode Mode) (any, error) {
	v, err := resolvePathMaybeMissing(path, ctx)
	if err != nil {
		return nil, err
	}
	if v == missingSentinel {
		if mode == Strict {
			return nil, errs.MissingKey(path)
		}
		return "", nil
	}
	return v, nil
}

// resolvePathMaybeMissing resolves a dotted path and returns the
// missingSentinel (never an error) when the path is absent, so callers like
// get/default can apply their own fallback before strict/relaxed kicks in.
// Secret paths are gated through ctx.policy; a denied read is always an
// error, in both modes, and never reaches the missing-key branch.
func resolvePathMaybeMissing(path string, ctx Context) (any, error) {
	segs := strings.Split(path, ".")
	if len(segs) == 0 {
		return missingSentinel, nil
	}
	if segs[0] == "secrets" {
		key := strings.Join(segs[1:], ".")
		if ctx.policy == nil || !ctx.policy.MayRead(key) {
			return nil, errs.SecretAccessDenied(key)
		}
	}

	var cur any = ctx.root
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return missingSentinel, nil
		}
		v, ok := m[seg]
		if !ok {
			return missingSentinel, nil
		}
		cur = v
	}
	return cur, nil
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case float64:
		return t == 0
	default:
		return false
	}
}

func length(v any) float64 {
	switch t := v.(type) {
	case string:
		return float64(len([]rune(t)))
	case []any:
		return float64(len(t))
	case map[string]any:
		return float64(len(t))
	default:
		return 0
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func unquote(tok string) (string, bool) {
	if len(tok) >= 2 && (tok[0] == '"' || tok[0] == '\'') && tok[len(tok)-1] == tok[0] {
		return tok[1 : len(tok)-1], true
	}
	return "", false
}

// tokenize splits a helper expression into whitespace-separated tokens,
// keeping quoted string literals intact.
func tokenize(expr string) ([]string, error) {
	var toks []string
	var cur strings.Builder
	inQuote := rune(0)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range expr {
		switch {
		case inQuote != 0:
			cur.WriteRune(r)
			if r == inQuote {
				inQuote = 0
			}
		case r == '"' || r == '\'':
			inQuote = r
			cur.WriteRune(r)
		case r == ' ' || r == '\t':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote != 0 {
		return nil, &errs.TemplateError{ErrCode: "template_syntax_error", Message: "unterminated string literal in expression"}
	}
	flush()
	return toks, nil
}
