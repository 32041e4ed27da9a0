// Package markdown renders the Markdown carried by catalog descriptions and
// outgoing e-mails.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// renderer escapes raw HTML in the input; WithUnsafe is not set.
var renderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// ToHTML converts md to HTML. When conversion fails the escaped source is
// returned so callers always get something safe to show.
func ToHTML(md string) template.HTML {
	var buf bytes.Buffer
	if err := renderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// String is ToHTML for callers that need a plain string, such as e-mail bodies.
func String(md string) string {
	return string(ToHTML(md))
}
