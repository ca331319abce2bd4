package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/prompts"
)

// Placeholder is the template variable that receives the normalized
// application specification.
const Placeholder = "app_spec"

// EmbeddedOrigin names the built-in template in errors and logs.
const EmbeddedOrigin = "<embedded>"

//go:embed templates/kube_template.txt
var embeddedTemplate string

// Template is a prompt template with a single {app_spec} placeholder,
// written in f-string syntax ({{ and }} escape literal braces).
type Template struct {
	origin string
	tmpl   prompts.PromptTemplate
}

// LoadTemplate reads the template at path. An empty path selects the
// embedded default. The file is read on every call so edits apply to the
// next request.
func LoadTemplate(path string) (*Template, error) {
	if path == "" {
		return ParseTemplate(embeddedTemplate, EmbeddedOrigin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MissingTemplateError{Path: path, Err: err}
	}
	return ParseTemplate(string(data), path)
}

// ParseTemplate checks that text carries the placeholder and wraps it.
func ParseTemplate(text, origin string) (*Template, error) {
	names, err := fields(text)
	if err != nil {
		return nil, &FormatError{Origin: origin, Reason: "malformed template", Err: err}
	}
	found := false
	for _, name := range names {
		if name != Placeholder {
			return nil, &FormatError{Origin: origin, Reason: fmt.Sprintf("unknown field {%s}", name)}
		}
		found = true
	}
	if !found {
		return nil, &FormatError{Origin: origin, Reason: "missing placeholder {" + Placeholder + "}"}
	}
	return &Template{
		origin: origin,
		tmpl: prompts.PromptTemplate{
			Template:       text,
			InputVariables: []string{Placeholder},
			TemplateFormat: prompts.TemplateFormatFString,
		},
	}, nil
}

// Origin is the file path the template came from, or EmbeddedOrigin.
func (t *Template) Origin() string {
	return t.origin
}

// Render substitutes spec into the placeholder.
func (t *Template) Render(spec string) (string, error) {
	out, err := t.tmpl.Format(map[string]any{Placeholder: spec})
	if err != nil {
		return "", &FormatError{Origin: t.origin, Reason: "format failed", Err: err}
	}
	return out, nil
}

// fields lists the replacement fields of an f-string template. Doubled
// braces are literals, so "{{{app_spec}}}" holds one field wrapped in
// literal braces.
func fields(text string) ([]string, error) {
	var names []string
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, errors.New("single '{' is not allowed")
			}
			name := strings.TrimSpace(text[i+1 : i+1+end])
			if name == "" {
				return nil, errors.New("empty field")
			}
			names = append(names, name)
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				i++
				continue
			}
			return nil, errors.New("single '}' is not allowed")
		}
	}
	return names, nil
}
