package filesystem

import (
	"strings"
	"text/template"

	"github.com/go-go-golems/socra/pkg/agents"
	"github.com/pkg/errors"
)

func mustTemplate(name string, text string) *template.Template {
	return template.Must(agents.NewPromptTemplate(name, text))
}

func render(tmpl *template.Template, content string) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, map[string]interface{}{"Content": content}); err != nil {
		return "", errors.Wrapf(err, "could not render %s", tmpl.Name())
	}
	return sb.String(), nil
}
