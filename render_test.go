package quizdrill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis and code",
			src:      "Use **defer** with `Close()`",
			contains: []string{"<strong>defer</strong>", "<code>Close()</code>"},
		},
		{
			name:     "gfm table",
			src:      "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "raw html is dropped",
			src:      "<script>alert(1)</script>\n\ntext",
			contains: []string{"<p>text</p>"},
			excludes: []string{"<script>"},
		},
		{
			name:     "chinese text",
			src:      "暂无解析",
			contains: []string{"<p>暂无解析</p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(RenderMarkdown(tt.src))
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, got, s)
			}
		})
	}
}
