// Package store applies a FormSpec's declared StoreOp list (spec.md §4.7)
// against the four mutable buckets — answers, state, config, payload_out —
// as one atomic, ordered batch of JSON-pointer writes. A StoreOp whose
// target is "secrets" is never accepted here: secret writes are typed
// Effects (package plan), gated through secrets.Policy.MayWrite, not raw
// pointer writes.
package store

import (
	"encoding/json"
	"sort"

	"github.com/c360studio/qaengine/errs"
	"github.com/c360studio/qaengine/secrets"
	"github.com/c360studio/qaengine/spec"
	"github.com/c360studio/qaengine/tmpl"
)

// Buckets holds the four mutable JSON-object buckets a StoreOp list writes
// into. A nil bucket is materialized to an empty object by the first write
// that targets it.
type Buckets struct {
	Answers    map[string]any
	State      map[string]any
	Config     map[string]any
	PayloadOut map[string]any
}

// Apply resolves and applies ops against buckets in declared order,
// all-or-nothing: if any op fails to resolve or write, buckets is left
// untouched and the error is returned. tmplCtx must reflect the context the
// host submitted ops are to be resolved against (post-submission answers).
func Apply(ops []spec.StoreOp, buckets Buckets, tmplCtx tmpl.Context, policy *secrets.Policy) (Buckets, error) {
	working := Buckets{
		Answers:    spec.DeepCopyMap(buckets.Answers),
		State:      spec.DeepCopyMap(buckets.State),
		Config:     spec.DeepCopyMap(buckets.Config),
		PayloadOut: spec.DeepCopyMap(buckets.PayloadOut),
	}

	for _, op := range ops {
		target, err := targetMap(&working, op.Target)
		if err != nil {
			return buckets, err
		}

		val, err := tmpl.ResolveValue(op.Value, tmplCtx, tmpl.Strict)
		if err != nil {
			return buckets, err
		}

		if err := spec.SetPointer(target, op.Path, val); err != nil {
			return buckets, err
		}
	}

	return working, nil
}

// ResolveEffects resolves a form's declared store[] into typed Effects
// (spec.md §4.8's "computes store effects") without applying them: each op's
// Value is rendered against tmplCtx, which must already reflect the
// post-submission answers (spec.md §4.7), and its PointerTarget is mapped to
// the matching EffectKind. No StoreOp target maps to EffectWriteSecret —
// spec.md's store[] grammar has no "secrets" target; secret writes are a
// separate producer this package does not implement.
func ResolveEffects(ops []spec.StoreOp, tmplCtx tmpl.Context) ([]spec.Effect, error) {
	effects := make([]spec.Effect, 0, len(ops))
	for _, op := range ops {
		kind, err := effectKind(op.Target)
		if err != nil {
			return nil, err
		}

		val, err := tmpl.ResolveValue(op.Value, tmplCtx, tmpl.Strict)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}

		effects = append(effects, spec.Effect{Kind: kind, Path: op.Path, Value: raw})
	}
	return effects, nil
}

func effectKind(target spec.PointerTarget) (spec.EffectKind, error) {
	switch target {
	case spec.TargetAnswers:
		return spec.EffectSetAnswer, nil
	case spec.TargetState:
		return spec.EffectSetStatePath, nil
	case spec.TargetConfig:
		return spec.EffectSetConfigPath, nil
	case spec.TargetPayloadOut:
		return spec.EffectSetPayloadOutPath, nil
	default:
		return "", &errs.InvariantViolation{Message: "store op names an unsupported target: " + string(target)}
	}
}

func targetMap(b *Buckets, target spec.PointerTarget) (*map[string]any, error) {
	switch target {
	case spec.TargetAnswers:
		return &b.Answers, nil
	case spec.TargetState:
		return &b.State, nil
	case spec.TargetConfig:
		return &b.Config, nil
	case spec.TargetPayloadOut:
		return &b.PayloadOut, nil
	default:
		return nil, &errs.InvariantViolation{Message: "store op names an unsupported target: " + string(target)}
	}
}

// ApplyEffects applies a Plan's typed Effects (spec.md §4.8) to buckets in
// the fixed order answers -> state -> config -> payload_out -> secrets.
// Secret-write effects are gated through policy; a denied write aborts the
// whole batch, leaving buckets untouched, and returns a *errs.PolicyError.
// secretsOut collects accepted secret writes by key, since secrets are never
// part of the four JSON buckets.
func ApplyEffects(effects []spec.Effect, buckets Buckets, policy *secrets.Policy) (Buckets, map[string]json.RawMessage, error) {
	working := Buckets{
		Answers:    spec.DeepCopyMap(buckets.Answers),
		State:      spec.DeepCopyMap(buckets.State),
		Config:     spec.DeepCopyMap(buckets.Config),
		PayloadOut: spec.DeepCopyMap(buckets.PayloadOut),
	}
	var secretsOut map[string]json.RawMessage

	order := map[spec.EffectKind]int{
		spec.EffectSetAnswer: 0, spec.EffectSetStatePath: 1, spec.EffectSetConfigPath: 2,
		spec.EffectSetPayloadOutPath: 3, spec.EffectWriteSecret: 4,
	}
	sorted := make([]spec.Effect, len(effects))
	copy(sorted, effects)
	sort.SliceStable(sorted, func(i, j int) bool { return order[sorted[i].Kind] < order[sorted[j].Kind] })

	for _, eff := range sorted {
		var val any
		if len(eff.Value) > 0 {
			if err := json.Unmarshal(eff.Value, &val); err != nil {
				return buckets, nil, err
			}
		}

		switch eff.Kind {
		case spec.EffectSetAnswer:
			if err := spec.SetPointer(&working.Answers, eff.Path, val); err != nil {
				return buckets, nil, err
			}
		case spec.EffectSetStatePath:
			if err := spec.SetPointer(&working.State, eff.Path, val); err != nil {
				return buckets, nil, err
			}
		case spec.EffectSetConfigPath:
			if err := spec.SetPointer(&working.Config, eff.Path, val); err != nil {
				return buckets, nil, err
			}
		case spec.EffectSetPayloadOutPath:
			if err := spec.SetPointer(&working.PayloadOut, eff.Path, val); err != nil {
				return buckets, nil, err
			}
		case spec.EffectWriteSecret:
			key := eff.Path
			if len(key) > 0 && key[0] == '/' {
				key = key[1:]
			}
			if policy == nil || !policy.MayWrite(key) {
				return buckets, nil, &errs.PolicyError{ErrCode: errs.CodeSecretAccessDenied, Path: eff.Path, Message: "secret write denied by policy"}
			}
			if secretsOut == nil {
				secretsOut = map[string]json.RawMessage{}
			}
			secretsOut[key] = eff.Value
		default:
			return buckets, nil, &errs.InvariantViolation{Message: "effect names an unsupported kind: " + string(eff.Kind)}
		}
	}

	return working, secretsOut, nil
}
