package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown_ToHTML(t *testing.T) {
	md := NewMarkdown()

	tests := []struct {
		name     string
		source   string
		contains []string
		absent   []string
	}{
		{
			name:     "headings and emphasis",
			source:   "# Title\n\nSome **bold** text",
			contains: []string{"<h1>Title</h1>", "<strong>bold</strong>"},
		},
		{
			name:     "scripts are stripped",
			source:   "hello <script>alert(1)</script>",
			contains: []string{"hello"},
			absent:   []string{"<script", "alert(1)"},
		},
		{
			name:     "javascript links are dropped",
			source:   `<a href="javascript:alert(1)">click</a>`,
			absent:   []string{"javascript:"},
		},
		{
			name:     "links open safely",
			source:   "[go](https://go.dev)",
			contains: []string{`href="https://go.dev"`, `rel="nofollow`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := string(md.ToHTML(tt.source))
			for _, s := range tt.contains {
				assert.Contains(t, html, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, html, s)
			}
		})
	}
}
