package render

import (
	"html"
	"strings"

	"github.com/diogo/finking/internal/models"
)

// Stage is one pass of the assistant markdown pipeline.
// Stages run in order over the same document; each one only sees what
// the previous stages produced.
type Stage struct {
	Name  string
	Apply func(d *document)
}

// assistantStages is the fixed order of the markdown pipeline.
// Lists must run before paragraphs, and paragraphs skip block tags.
var assistantStages = []Stage{
	{Name: "normalize", Apply: normalize},
	{Name: "escape", Apply: escape},
	{Name: "fenced-code", Apply: fencedCode},
	{Name: "inline-code", Apply: inlineCode},
	{Name: "bold", Apply: bold},
	{Name: "italic", Apply: italic},
	{Name: "headings", Apply: headings},
	{Name: "unordered-lists", Apply: unorderedLists},
	{Name: "ordered-lists", Apply: orderedLists},
	{Name: "paragraphs", Apply: paragraphs},
	{Name: "restore", Apply: restore},
	{Name: "sanitize", Apply: sanitize},
}

// Stages returns the names of the markdown pipeline stages in order.
func Stages() []string {
	names := make([]string, len(assistantStages))
	for i, s := range assistantStages {
		names[i] = s.Name
	}
	return names
}

// Message renders text authored by role as HTML that is safe to insert
// into a page. User text is escaped and never interpreted; assistant
// text goes through the markdown pipeline.
func Message(role models.Role, text string) string {
	if role == models.RoleAssistant {
		return HTML(text)
	}
	return Escape(text)
}

// Escape neutralizes every markup-significant character in text.
func Escape(text string) string {
	d := &document{text: text}
	normalize(d)
	escape(d)
	return d.text
}

// HTML converts the lightweight markdown used in replies to HTML.
func HTML(text string) string {
	return runStages(text, assistantStages)
}

func runStages(text string, stages []Stage) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	d := &document{text: text}
	for _, s := range stages {
		s.Apply(d)
	}
	return d.text
}

func escape(d *document) {
	d.text = html.EscapeString(d.text)
}
