package engine

import "github.com/c360studio/qaengine/spec"

// JSONSchema is a minimal, hand-emitted subset of JSON Schema Draft 2020-12
// covering the shapes a FormSpec's answer set can take (spec.md's
// get_answer_schema). Fields are omitted rather than emitted empty so the
// output matches what a schema-validating client expects.
type JSONSchema struct {
	Type                 string                 `json:"type"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	MinLength            *int                   `json:"minLength,omitempty"`
	MaxLength            *int                   `json:"maxLength,omitempty"`
	MinItems             *int                   `json:"minItems,omitempty"`
	MaxItems             *int                   `json:"maxItems,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
}

// GetAnswerSchema derives a JSON Schema document for form_id's answer set:
// one object property per non-computed question, typed and constrained per
// spec.md §3/§4.5. Computed questions are excluded — they are never
// directly submitted.
func (e *Engine) GetAnswerSchema(formID string) (*JSONSchema, error) {
	fs, err := e.lookup(formID)
	if err != nil {
		return nil, err
	}
	return answerSchema(fs), nil
}

func answerSchema(fs *spec.FormSpec) *JSONSchema {
	root := &JSONSchema{Type: "object", Properties: map[string]*JSONSchema{}}
	falseVal := false
	root.AdditionalProperties = &falseVal

	for _, q := range fs.Questions {
		if q.Computed != "" {
			continue
		}
		root.Properties[q.ID] = questionSchema(q)
		if q.Required {
			root.Required = append(root.Required, q.ID)
		}
	}
	return root
}

func questionSchema(q spec.QuestionSpec) *JSONSchema {
	s := &JSONSchema{}
	switch q.Type {
	case spec.TypeString:
		s.Type = "string"
		s.Pattern = q.Pattern
		s.MinLength = q.MinLen
		s.MaxLength = q.MaxLen
	case spec.TypeInteger:
		s.Type = "integer"
		s.Minimum = q.Min
		s.Maximum = q.Max
	case spec.TypeNumber:
		s.Type = "number"
		s.Minimum = q.Min
		s.Maximum = q.Max
	case spec.TypeBoolean:
		s.Type = "boolean"
	case spec.TypeEnum:
		s.Type = "string"
		s.Enum = q.Enum
	case spec.TypeList:
		s.Type = "array"
		s.MinItems = q.MinItems
		s.MaxItems = q.MaxItems
		s.Items = itemSchema(q.ItemField)
	}
	return s
}

func itemSchema(fields []spec.ListItemField) *JSONSchema {
	item := &JSONSchema{Type: "object", Properties: map[string]*JSONSchema{}}
	for _, f := range fields {
		fs := &JSONSchema{}
		switch f.Type {
		case spec.TypeString:
			fs.Type = "string"
			fs.Pattern = f.Pattern
			fs.MinLength = f.MinLen
			fs.MaxLength = f.MaxLen
		case spec.TypeInteger:
			fs.Type = "integer"
			fs.Minimum = f.Min
			fs.Maximum = f.Max
		case spec.TypeNumber:
			fs.Type = "number"
			fs.Minimum = f.Min
			fs.Maximum = f.Max
		case spec.TypeBoolean:
			fs.Type = "boolean"
		case spec.TypeEnum:
			fs.Type = "string"
			fs.Enum = f.Enum
		}
		item.Properties[f.ID] = fs
		if f.Required {
			item.Required = append(item.Required, f.ID)
		}
	}
	return item
}
