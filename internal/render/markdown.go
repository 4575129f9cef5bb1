package render

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	blackfriday "gopkg.in/russross/blackfriday.v2"
)

// Markdown renders post bodies to HTML that is safe to embed in a page.
type Markdown struct {
	policy *bluemonday.Policy
}

func NewMarkdown() *Markdown {
	return &Markdown{policy: bluemonday.UGCPolicy()}
}

func (m *Markdown) ToHTML(source string) template.HTML {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink |
			blackfriday.NofollowLinks |
			blackfriday.NoreferrerLinks |
			blackfriday.HrefTargetBlank,
	})
	unsafe := blackfriday.Run([]byte(source), blackfriday.WithRenderer(renderer))
	return template.HTML(m.policy.SanitizeBytes(unsafe))
}
