package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig"
)

const (
	DefaultSubject = "Your OTP Code"
	DefaultBody    = "Your one-time confirmation code is: {{ .Code }}"
)

// Message is what a template renders for one delivery.
type Message struct {
	Subject string
	Body    string
}

// TemplateData is exposed to subject and body templates.
type TemplateData struct {
	Code      string
	Recipient string
	Channel   string
}

type Templates struct {
	subject *template.Template
	body    *template.Template
}

// NewTemplates parses subject and body, falling back to the defaults for
// empty strings. Templates get the sprig function map.
func NewTemplates(subject, body string) (*Templates, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if body == "" {
		body = DefaultBody
	}

	st, err := template.New("subject").Funcs(sprig.TxtFuncMap()).Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("notify: subject template: %w", err)
	}
	bt, err := template.New("body").Funcs(sprig.TxtFuncMap()).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("notify: body template: %w", err)
	}
	return &Templates{subject: st, body: bt}, nil
}

// MustDefaultTemplates is the stock subject and body.
func MustDefaultTemplates() *Templates {
	t, err := NewTemplates("", "")
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Templates) Render(data TemplateData) (Message, error) {
	var sb, bb bytes.Buffer
	if err := t.subject.Execute(&sb, data); err != nil {
		return Message{}, fmt.Errorf("notify: render subject: %w", err)
	}
	if err := t.body.Execute(&bb, data); err != nil {
		return Message{}, fmt.Errorf("notify: render body: %w", err)
	}
	return Message{Subject: sb.String(), Body: bb.String()}, nil
}
