package web

import (
	"bytes"
	"html/template"
	"strings"

	"cuesheet/internal/interact"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML is not passed through, so the output is safe to inline.
var descriptionRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// renderMarkdownHTML renders an event description. Placeholders left in the
// text, such as an unfilled {sponsor}, are marked so they stand out on air.
func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := descriptionRenderer.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	out := b.String()
	for _, tok := range interact.Placeholders(src) {
		lit := "{" + tok + "}"
		out = strings.ReplaceAll(out, lit, `<mark class="token">`+lit+`</mark>`)
	}
	return template.HTML(out)
}
