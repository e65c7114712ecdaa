package spec

import (
	"encoding/json"
	"fmt"
)

// StepID names a step within a QAFlowSpec. The sentinel EndStep is always a
// valid goto/next target and is never present in Steps.
type StepID string

const EndStep StepID = "end"

// StepKind discriminates the StepSpec variants (spec.md §3). External tagging
// keeps the wire format stable and self-describing: {"kind":"question",...}.
type StepKind string

const (
	StepMessage  StepKind = "message"
	StepQuestion StepKind = "question"
	StepDecision StepKind = "decision"
	StepAction   StepKind = "action"
	StepEnd      StepKind = "end"
)

// MessageMode selects how a message step's template is rendered.
type MessageMode string

const (
	MessageText MessageMode = "text"
	MessageJSON MessageMode = "json"
	MessageCard MessageMode = "card"
)

// DecisionCase is one branch of a decision step: when Expr evaluates truthy,
// control transfers to Goto.
type DecisionCase struct {
	When string `json:"when"`
	Goto StepID `json:"goto"`
}

// StepSpec is a tagged union over the five step kinds in spec.md §3. Only the
// fields relevant to Kind are populated; (un)marshaling uses the default
// encoding/json behavior and does not check that the combination is
// coherent (QAFlowSpec.Validate checks kinds and references).
type StepSpec struct {
	Kind StepKind `json:"kind"`

	// message
	Mode     MessageMode `json:"mode,omitempty"`
	Template string      `json:"template,omitempty"`
	Next     StepID      `json:"next,omitempty"`

	// question
	QuestionID string `json:"question_id,omitempty"`
	// Next is shared with message.

	// decision
	Cases       []DecisionCase `json:"cases,omitempty"`
	DefaultGoto StepID         `json:"default_goto,omitempty"`

	// action — opaque externally-executed effect; the engine treats this as
	// a pass-through placeholder and never interprets Payload.
	Action  string          `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	// Next is shared with message/question for action's successor step.
}

// Targets returns every StepID this step can transition to (EndStep
// included when referenced), used by QAFlowSpec.Validate for reachability
// and reference checks.
func (s StepSpec) Targets() []StepID {
	switch s.Kind {
	case StepMessage, StepQuestion, StepAction:
		if s.Next == "" {
			return nil
		}
		return []StepID{s.Next}
	case StepDecision:
		targets := make([]StepID, 0, len(s.Cases)+1)
		for _, c := range s.Cases {
			targets = append(targets, c.Goto)
		}
		if s.DefaultGoto != "" {
			targets = append(targets, s.DefaultGoto)
		}
		return targets
	case StepEnd:
		return nil
	default:
		return nil
	}
}

// QAFlowSpec is the graph-shaped wizard description (spec.md §3).
type QAFlowSpec struct {
	Entry StepID              `json:"entry"`
	Steps map[StepID]StepSpec `json:"steps"`
}

// Validate checks the structural invariants spec.md §3 requires: entry must
// exist (or be the distinguished end step, for a degenerate empty flow),
// and every goto/next must reference a defined step or EndStep.
func (f *QAFlowSpec) Validate() error {
	if f.Entry != EndStep {
		if _, ok := f.Steps[f.Entry]; !ok {
			return fmt.Errorf("qaflow: entry step %q is not defined", f.Entry)
		}
	}
	for id, step := range f.Steps {
		if step.Kind == "" {
			return fmt.Errorf("qaflow: step %q has no kind", id)
		}
		for _, t := range step.Targets() {
			if t == EndStep {
				continue
			}
			if _, ok := f.Steps[t]; !ok {
				return fmt.Errorf("qaflow: step %q references undefined step %q", id, t)
			}
		}
	}
	return nil
}

// Unreachable returns step ids never reached by a forward traversal from
// Entry. Per spec.md §3, unreachable steps are permitted but worth warning
// about; this is advisory, not an error.
func (f *QAFlowSpec) Unreachable() []StepID {
	visited := map[StepID]bool{}
	var walk func(StepID)
	walk = func(id StepID) {
		if id == EndStep || visited[id] {
			return
		}
		step, ok := f.Steps[id]
		if !ok {
			return
		}
		visited[id] = true
		for _, t := range step.Targets() {
			walk(t)
		}
	}
	walk(f.Entry)

	var unreached []StepID
	for id := range f.Steps {
		if !visited[id] {
			unreached = append(unreached, id)
		}
	}
	return unreached
}
