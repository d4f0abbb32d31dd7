package web

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// messageRenderer превращает сообщение шлюза в HTML для страницы
type messageRenderer struct {
	markdown bool
	md       goldmark.Markdown
	policy   *bluemonday.Policy
}

func newMessageRenderer(markdown bool) *messageRenderer {
	return &messageRenderer{
		markdown: markdown,
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
	}
}

func (m *messageRenderer) render(message string) template.HTML {
	if !m.markdown || message == "" {
		return template.HTML(template.HTMLEscapeString(message))
	}

	var buf bytes.Buffer
	if err := m.md.Convert([]byte(message), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(message))
	}
	return template.HTML(m.policy.SanitizeBytes(buf.Bytes()))
}
