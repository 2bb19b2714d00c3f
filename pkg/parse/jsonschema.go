package parse

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

const errorTemplateStr = `
Validation Errors:
{{ range . }}
- {{ . }}
{{ end }}
`

var errorTemplate = template.Must(template.New("errorTmpl").Parse(errorTemplateStr))

type ValidationResult struct {
	Valid            bool
	Errors           []string
	ValidationErrors string
}

// ValidateJSON checks document against the JSON schema and renders any
// violations as a bullet list.
func ValidateJSON(schema string, document string) (*ValidationResult, error) {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to validate json")
	}

	ret := &ValidationResult{
		Valid: result.Valid(),
	}
	if ret.Valid {
		return ret, nil
	}

	for _, desc := range result.Errors() {
		ret.Errors = append(ret.Errors, desc.String())
	}

	var rendered bytes.Buffer
	if err := errorTemplate.Execute(&rendered, ret.Errors); err != nil {
		return nil, errors.Wrap(err, "error rendering validation errors")
	}
	ret.ValidationErrors = rendered.String()

	return ret, nil
}

// SchemaFor reflects the JSON schema of v, inlining the top level struct.
func SchemaFor(v interface{}) (string, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""

	b, err := json.Marshal(schema)
	if err != nil {
		return "", errors.Wrap(err, "could not marshal schema")
	}
	return string(b), nil
}
