// Package include implements deterministic include-composition expansion
// (spec.md §4.4): depth-first expansion of a FormSpec's `include` list
// against a form_ref → spec registry, preserving declaration order, with
// cycle detection via a path stack.
package include

import (
	"github.com/c360studio/qaengine/errs"
	"github.com/c360studio/qaengine/spec"
)

// Registry maps a form_ref to the sub-FormSpec it names.
type Registry map[string]*spec.FormSpec

// Expand returns a new, derived FormSpec whose Questions is the flattened,
// depth-first expansion of root's includes (in declaration order) followed
// by root's own Questions, and whose Store is the same depth-first expansion
// of included Store lists followed by root's own Store. root is never
// mutated. Post-expansion question-id uniqueness is re-validated; a
// violation is reported as a *errs.SpecError.
func Expand(root *spec.FormSpec, registry Registry) (*spec.FormSpec, error) {
	questions, storeOps, err := expand(root, registry, nil)
	if err != nil {
		return nil, err
	}

	out := *root
	out.Questions = questions
	out.Store = storeOps
	out.Include = nil

	if dups := out.DuplicateQuestionIDs(); len(dups) > 0 {
		return nil, &errs.SpecError{
			ErrCode: "duplicate_question_id",
			Path:    dups[0],
			Message: "question id is not unique after include expansion",
		}
	}
	return &out, nil
}

func expand(fs *spec.FormSpec, registry Registry, stack []string) ([]spec.QuestionSpec, []spec.StoreOp, error) {
	for _, id := range stack {
		if id == fs.ID {
			return nil, nil, &errs.IncludeCycleDetected{Chain: append(append([]string{}, stack...), fs.ID)}
		}
	}
	branch := append(append([]string{}, stack...), fs.ID)

	var questions []spec.QuestionSpec
	var storeOps []spec.StoreOp
	for _, ref := range fs.Include {
		sub, ok := registry[ref]
		if !ok {
			return nil, nil, &errs.IncludeMissing{FormRef: ref}
		}
		subQuestions, subStore, err := expand(sub, registry, branch)
		if err != nil {
			return nil, nil, err
		}
		questions = append(questions, subQuestions...)
		storeOps = append(storeOps, subStore...)
	}
	questions = append(questions, fs.Questions...)
	storeOps = append(storeOps, fs.Store...)
	return questions, storeOps, nil
}
