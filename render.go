package quizdrill

import (
	"bytes"
	"html"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderMarkdown converts question or analysis text to HTML. Raw HTML in the
// source is not rendered. On failure the escaped text is returned.
func RenderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		Logger().Warn("failed to render markdown", zap.Error(err))
		return template.HTML(html.EscapeString(src))
	}
	return template.HTML(buf.String())
}
