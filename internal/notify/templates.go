package notify

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/planhaus/portal-backend/internal/lifecycle"
)

// TemplateData is what subject and body templates can reference.
type TemplateData struct {
	ProjectID string
	Title     string
	From      lifecycle.Status
	To        lifecycle.Status
	PortalURL string
}

type templateSource struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

type templateFile struct {
	Templates map[string]templateSource `yaml:"templates"`
}

var defaultTemplates = map[lifecycle.Status]templateSource{
	lifecycle.StatusQueued: {
		Subject: "We received your project {{.Title}}",
		Body:    "Your floor-plan project {{.ProjectID}} is in our queue. We will let you know when work starts.\n\n{{.PortalURL}}/projects/{{.ProjectID}}\n",
	},
	lifecycle.StatusNeedsInfo: {
		Subject: "We need a few details for {{.Title}}",
		Body:    "Our designers have a question about project {{.ProjectID}}. Please reply in the portal so we can continue.\n\n{{.PortalURL}}/projects/{{.ProjectID}}\n",
	},
	lifecycle.StatusDelivered: {
		Subject: "Your floor plan is ready: {{.Title}}",
		Body:    "The deliverables for project {{.ProjectID}} are ready to download.\n\n{{.PortalURL}}/projects/{{.ProjectID}}\n",
	},
	lifecycle.StatusClosed: {
		Subject: "Project {{.Title}} closed",
		Body:    "Project {{.ProjectID}} has been closed. Reply in the portal if this was unexpected.\n",
	},
}

// Templates holds one compiled subject/body pair per target status.
type Templates struct {
	subjects map[lifecycle.Status]*template.Template
	bodies   map[lifecycle.Status]*template.Template
}

// LoadTemplates compiles the built-in templates, overridden per status by
// the YAML file at path when path is not empty.
func LoadTemplates(path string) (*Templates, error) {
	sources := make(map[lifecycle.Status]templateSource, len(defaultTemplates))
	for st, src := range defaultTemplates {
		sources[st] = src
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read templates: %w", err)
		}
		var file templateFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		for key, src := range file.Templates {
			st, err := lifecycle.Parse(key)
			if err != nil {
				return nil, fmt.Errorf("templates: %w", err)
			}
			sources[st] = src
		}
	}

	t := &Templates{
		subjects: make(map[lifecycle.Status]*template.Template, len(sources)),
		bodies:   make(map[lifecycle.Status]*template.Template, len(sources)),
	}
	for st, src := range sources {
		subject, err := template.New(string(st) + ".subject").Option("missingkey=error").Parse(src.Subject)
		if err != nil {
			return nil, fmt.Errorf("template %s subject: %w", st, err)
		}
		body, err := template.New(string(st) + ".body").Option("missingkey=error").Parse(src.Body)
		if err != nil {
			return nil, fmt.Errorf("template %s body: %w", st, err)
		}
		t.subjects[st] = subject
		t.bodies[st] = body
	}
	return t, nil
}

// Has reports whether transitions into st send an email.
func (t *Templates) Has(st lifecycle.Status) bool {
	_, ok := t.subjects[st]
	return ok
}

func (t *Templates) Render(st lifecycle.Status, data TemplateData) (subject, body string, err error) {
	subjectTpl, ok := t.subjects[st]
	if !ok {
		return "", "", fmt.Errorf("no template for %s", st)
	}

	var buf bytes.Buffer
	if err := subjectTpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	subject = buf.String()

	buf.Reset()
	if err := t.bodies[st].Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}
