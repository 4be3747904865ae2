package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesFS embed.FS

// ErrTemplateNotFound is returned for an unknown template id.
var ErrTemplateNotFound = fmt.Errorf("email template not found")

type templateFile struct {
	Templates []templateEntry `yaml:"templates"`
}

type templateEntry struct {
	ID      string `yaml:"id"`
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type compiledTemplate struct {
	subject string
	body    *template.Template
}

// Registry holds the compiled email templates loaded from the embedded YAML
// file.
type Registry struct {
	templates map[string]compiledTemplate
}

func LoadRegistry() (*Registry, error) {
	raw, err := templatesFS.ReadFile("templates.yaml")
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	var file templateFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	registry := &Registry{templates: make(map[string]compiledTemplate, len(file.Templates))}
	for _, entry := range file.Templates {
		tmpl, err := template.New(entry.ID).Parse(entry.Body)
		if err != nil {
			return nil, fmt.Errorf("compile template %s: %w", entry.ID, err)
		}
		registry.templates[entry.ID] = compiledTemplate{subject: entry.Subject, body: tmpl}
	}

	return registry, nil
}

// Render produces the subject and HTML body for a template id. Missing
// variables render as empty strings.
func (r *Registry) Render(templateID string, variables map[string]string) (string, string, error) {
	tmpl, ok := r.templates[templateID]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	if variables == nil {
		variables = map[string]string{}
	}

	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, variables); err != nil {
		return "", "", fmt.Errorf("render template %s: %w", templateID, err)
	}

	return tmpl.subject, buf.String(), nil
}

// IDs returns the known template ids, for validation messages.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	return ids
}
