package spec

import "encoding/json"

// PatchOp is one RFC-6902-flavored JSON patch operation. The planners in
// package plan produce only "add" operations (spec.md §4.8 never needs
// "move"/"copy"/"test").
type PatchOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// JSONPatch is an ordered list of PatchOp, applied atomically as a batch.
type JSONPatch []PatchOp

// EffectKind discriminates the typed deferred mutations a Plan carries
// (spec.md §3).
type EffectKind string

const (
	EffectSetAnswer         EffectKind = "set_answer"
	EffectSetStatePath      EffectKind = "set_state_path"
	EffectSetConfigPath     EffectKind = "set_config_path"
	EffectSetPayloadOutPath EffectKind = "set_payload_out_path"
	EffectWriteSecret       EffectKind = "write_secret"
)

// Effect is a single typed deferred mutation. Path is always a JSON pointer
// relative to the target bucket named by Kind (answers for SetAnswer, etc).
// A Plan is data; only the Executor (package plan) ever applies an Effect.
type Effect struct {
	Kind  EffectKind      `json:"kind"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

// PlanMode names which planner entry point produced a Plan.
type PlanMode string

const (
	ModeNext        PlanMode = "next"
	ModeSubmitPatch  PlanMode = "submit_patch"
	ModeSubmitAll    PlanMode = "submit_all"
)

// PlanStatus summarizes a Plan for renderers (spec.md §4.9 JSON-UI status).
type PlanStatus string

const (
	StatusNeedInput PlanStatus = "need_input"
	StatusComplete  PlanStatus = "complete"
	StatusError     PlanStatus = "error"
)

// PlanError is one entry in Plan.Errors — the same shape validate.Error
// uses, duplicated here so package spec has no import on package validate
// (spec/plan is a leaf of the dependency graph; validate depends on spec,
// not the other way around).
type PlanError struct {
	QuestionID string `json:"question_id,omitempty"`
	Path       string `json:"path"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Plan is the canonical, side-effect-free description of intended mutations
// and the next step (spec.md §3). plan_version is fixed at 1. A Plan is
// produced by package plan's planners and is never mutated or executed by
// them; only plan.Executor.Apply consumes one.
type Plan struct {
	PlanVersion      int         `json:"plan_version"`
	FormID           string      `json:"form_id"`
	Step             string      `json:"step,omitempty"`
	Mode             PlanMode    `json:"mode"`
	StateToken       string      `json:"state_token"`
	ValidatedPatch   JSONPatch   `json:"validated_patch"`
	Effects          []Effect    `json:"effects"`
	NextQuestionID   string      `json:"next_question_id,omitempty"`
	Status           PlanStatus  `json:"status"`
	Warnings         []string    `json:"warnings,omitempty"`
	Errors           []PlanError `json:"errors,omitempty"`
}
