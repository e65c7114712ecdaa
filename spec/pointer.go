package spec

import (
	"fmt"
	"strconv"
	"strings"
)

// PointerTarget names one of the four buckets a StoreOp or Effect mutates
// (spec.md §3).
type PointerTarget string

const (
	TargetAnswers    PointerTarget = "answers"
	TargetState      PointerTarget = "state"
	TargetConfig     PointerTarget = "config"
	TargetPayloadOut PointerTarget = "payload_out"
)

// SplitPointer splits an RFC-6901-flavored JSON pointer ("/a/b/0") into
// unescaped tokens. An empty pointer yields zero tokens (root).
func SplitPointer(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, fmt.Errorf("invalid json pointer %q: must start with /", ptr)
	}
	parts := strings.Split(ptr[1:], "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		p = strings.ReplaceAll(p, "~0", "~")
		parts[i] = p
	}
	return parts, nil
}

// GetPointer reads the value at ptr within root ("" returns root itself).
// Missing intermediate paths return (nil, false) rather than an error —
// callers needing strict existence should check the bool.
func GetPointer(root any, ptr string) (any, bool) {
	tokens, err := SplitPointer(ptr)
	if err != nil {
		return nil, false
	}
	cur := root
	for _, tok := range tokens {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[tok]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// ExistsPointer reports whether ptr resolves to a present value (is_set
// semantics, spec.md §4.1): a present null counts as set.
func ExistsPointer(root any, ptr string) bool {
	_, ok := GetPointer(root, ptr)
	return ok
}

// SetPointer writes value at ptr within *root, materializing missing
// intermediate containers (a map, unless the next token is an array index
// or the "-" append token, in which case an array). Existing arrays require
// either an in-range numeric index or, as the final segment, the "-" append
// token (spec.md §4.7). *root is materialized to an empty object if nil.
func SetPointer(root *map[string]any, ptr string, value any) error {
	tokens, err := SplitPointer(ptr)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return fmt.Errorf("cannot set root with an empty pointer")
	}
	if *root == nil {
		*root = map[string]any{}
	}
	return setAt(*root, tokens, value, func(v any) {
		if m, ok := v.(map[string]any); ok {
			*root = m
		}
	})
}

// materialize picks the container kind for a missing intermediate path
// based on what its own next token looks like.
func materialize(nextTok string) any {
	if nextTok == "-" {
		return []any{}
	}
	if _, err := strconv.Atoi(nextTok); err == nil {
		return []any{}
	}
	return map[string]any{}
}

// setAt writes value at the path named by tokens within container, calling
// setSelf to write container back into its own parent if container itself
// must be replaced (an array growing via append reallocates).
func setAt(container any, tokens []string, value any, setSelf func(any)) error {
	tok := tokens[0]
	last := len(tokens) == 1

	switch c := container.(type) {
	case map[string]any:
		if last {
			c[tok] = value
			return nil
		}
		next, ok := c[tok]
		if !ok || next == nil {
			next = materialize(tokens[1])
			c[tok] = next
		}
		return setAt(next, tokens[1:], value, func(v any) { c[tok] = v })

	case []any:
		if tok == "-" {
			if !last {
				return fmt.Errorf("cannot descend through the \"-\" append token")
			}
			c = append(c, value)
			setSelf(c)
			return nil
		}
		idx, err := strconv.Atoi(tok)
		if err != nil || idx < 0 || idx >= len(c) {
			return fmt.Errorf("array index %q out of range (len %d)", tok, len(c))
		}
		if last {
			c[idx] = value
			return nil
		}
		next := c[idx]
		if next == nil {
			next = materialize(tokens[1])
			c[idx] = next
		}
		return setAt(next, tokens[1:], value, func(v any) {
			c[idx] = v
			setSelf(c)
		})

	default:
		return fmt.Errorf("cannot descend into scalar value at %q", tok)
	}
}
