package engine

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/c360studio/qaengine/spec"
)

// BundleFile is one file of a generated bundle, base64-encoded per the
// qa.wizard.generated event contract (spec.md §6): the engine only ever
// produces structured data, never touches a filesystem itself.
type BundleFile struct {
	Path           string `json:"path"`
	ContentsBase64 string `json:"contents_base64"`
	ContentType    string `json:"content_type"`
}

// WizardGeneratedEvent is the qa.wizard.generated payload: a host writes
// DirName/Files verbatim and may additionally surface SummaryMD to a user.
type WizardGeneratedEvent struct {
	DirName   string       `json:"dir_name"`
	Files     []BundleFile `json:"files"`
	SummaryMD string       `json:"summary_md"`
}

// GenerateBundle renders form_id's canonical bundle layout (spec.md §6):
//
//	<dir_name>/
//	  forms/<id>.form.json
//	  flows/<id>.qaflow.json      (only when flow is non-nil)
//	  examples/<id>.answers.example.json
//	  schemas/<id>.answers.schema.json
//	  README.md
//
// flow is optional: a form with no associated QAFlowSpec omits the
// flows/ entry entirely rather than emitting an empty placeholder.
func (e *Engine) GenerateBundle(formID string, flow *spec.QAFlowSpec) (WizardGeneratedEvent, error) {
	fs, err := e.lookup(formID)
	if err != nil {
		return WizardGeneratedEvent{}, err
	}

	formJSON, err := json.MarshalIndent(fs, "", "  ")
	if err != nil {
		return WizardGeneratedEvent{}, fmt.Errorf("marshal form spec: %w", err)
	}

	examples, err := e.GetExampleAnswers(formID)
	if err != nil {
		return WizardGeneratedEvent{}, err
	}
	exampleJSON, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return WizardGeneratedEvent{}, fmt.Errorf("marshal example answers: %w", err)
	}

	schema, err := e.GetAnswerSchema(formID)
	if err != nil {
		return WizardGeneratedEvent{}, err
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return WizardGeneratedEvent{}, fmt.Errorf("marshal answer schema: %w", err)
	}

	dirName := formID
	var files []BundleFile
	files = append(files,
		bundleFile(dirName+"/forms/"+formID+".form.json", formJSON, "application/json"),
		bundleFile(dirName+"/examples/"+formID+".answers.example.json", exampleJSON, "application/json"),
		bundleFile(dirName+"/schemas/"+formID+".answers.schema.json", schemaJSON, "application/json"),
	)

	if flow != nil {
		flowJSON, err := json.MarshalIndent(flow, "", "  ")
		if err != nil {
			return WizardGeneratedEvent{}, fmt.Errorf("marshal flow spec: %w", err)
		}
		files = append(files, bundleFile(dirName+"/flows/"+formID+".qaflow.json", flowJSON, "application/json"))
	}

	generationID := uuid.NewString()
	summary := bundleSummary(fs, generationID, flow != nil)
	files = append(files, bundleFile(dirName+"/README.md", []byte(summary), "text/markdown"))

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return WizardGeneratedEvent{DirName: dirName, Files: files, SummaryMD: summary}, nil
}

func bundleFile(path string, contents []byte, contentType string) BundleFile {
	return BundleFile{
		Path:           path,
		ContentsBase64: base64.StdEncoding.EncodeToString(contents),
		ContentType:    contentType,
	}
}

func bundleSummary(fs *spec.FormSpec, generationID string, hasFlow bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", fs.Title)
	fmt.Fprintf(&b, "Generated bundle for form `%s` (version `%s`), generation `%s`.\n\n", fs.ID, fs.Version, generationID)
	fmt.Fprintf(&b, "## Contents\n\n")
	fmt.Fprintf(&b, "- `forms/%s.form.json` — the form spec\n", fs.ID)
	if hasFlow {
		fmt.Fprintf(&b, "- `flows/%s.qaflow.json` — the wizard flow graph\n", fs.ID)
	}
	fmt.Fprintf(&b, "- `examples/%s.answers.example.json` — a plausible example answer set\n", fs.ID)
	fmt.Fprintf(&b, "- `schemas/%s.answers.schema.json` — the JSON Schema for submitted answers\n", fs.ID)
	fmt.Fprintf(&b, "\n%d question(s), %d cross-field rule(s).\n", len(fs.Questions), len(fs.CrossFieldRules))
	return b.String()
}
