package agents

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
)

const optionTemplateText = `
- key: {{ .Key }}
  name: {{ .Name }}
  description: {{ .Description }}
`

const DecisionTemplateText = `Based on the context above, which action should be taken?

Respond with a single valid JSON object with exactly two keys, "key" and "reasoning".

Available actions:
{{ .Options | join "\n" }}

JSON response format:
- key: The key of the action to take
- reasoning: Extremely brief thought on why the action was chosen, never empty

Example:
{
    "key": "...",
    "reasoning": "the action..."
}

Respond only in JSON format.
`

const extractTemplateText = `{{ .Instructions | trim }}

Your response must be a single JSON object that validates against this JSON schema:
{{ .Schema }}

Respond only in JSON format.
`

var (
	optionTemplate   = template.Must(NewPromptTemplate("option", optionTemplateText))
	decisionTemplate = template.Must(NewPromptTemplate("decision", DecisionTemplateText))
	extractTemplate  = template.Must(NewPromptTemplate("extract", extractTemplateText))
)

// NewPromptTemplate parses a prompt template with the sprig functions available.
func NewPromptTemplate(name string, text string) (*template.Template, error) {
	return template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text)
}

func renderTemplate(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "could not render %s prompt", tmpl.Name())
	}
	return buf.String(), nil
}

// RenderOption renders a candidate as the three line key/name/description block.
func RenderOption(o Option) (string, error) {
	s, err := renderTemplate(optionTemplate, o)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func renderDecisionPrompt(tmpl *template.Template, options []Option) (string, error) {
	rendered := make([]string, 0, len(options))
	for _, o := range options {
		s, err := RenderOption(o)
		if err != nil {
			return "", err
		}
		rendered = append(rendered, s)
	}

	return renderTemplate(tmpl, map[string]interface{}{
		"Options": rendered,
	})
}
